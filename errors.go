package pgmgo

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsortedKeys is returned by NewFromSorted when the input breaks
	// ascending order.
	ErrUnsortedKeys = errors.New("keys not in ascending order")

	// ErrInvalidSliceStep is returned by Slice when step is zero.
	ErrInvalidSliceStep = errors.New("slice step must not be zero")

	// ErrNotFound is the category behind KeyNotFoundError, for callers
	// that match with errors.Is.
	ErrNotFound = errors.New("key not found")

	// ErrIndexOutOfRange is the category behind IndexOutOfRangeError, for
	// callers that match with errors.Is.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// KeyNotFoundError indicates that Index could not locate a key within the
// searched bounds.
//
// errors.Is(err, ErrNotFound) returns true for this error.
type KeyNotFoundError struct {
	Key int64
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%d is not in SortedList", e.Key)
}

func (e *KeyNotFoundError) Unwrap() error { return ErrNotFound }

// IndexOutOfRangeError indicates a positional access outside the container,
// after negative indexes have been normalized.
//
// errors.Is(err, ErrIndexOutOfRange) returns true for this error.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range with length %d", e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }
