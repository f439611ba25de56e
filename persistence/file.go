package persistence

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
)

// fileBufferSize batches reads and writes for snapshot files.
const fileBufferSize = 256 * 1024

// SaveToFile writes a file atomically via writeFunc.
//
// The content goes to a temp file in the target directory first, is synced
// and closed, then renamed over the destination. Readers never observe a
// partial file.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, fileBufferSize)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	// Success: prevent deferred cleanup from removing the final file.
	tmpName = ""
	return nil
}

// LoadFromFile opens a file and passes a buffered reader to readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, fileBufferSize))
}

// SaveFile writes a snapshot to path atomically.
func SaveFile(ctx context.Context, path string, keys []int64, meta *Meta, optFns ...func(*Options)) error {
	return SaveToFile(path, func(w io.Writer) error {
		return Save(ctx, w, keys, meta, optFns...)
	})
}

// LoadFile reads a snapshot from path.
func LoadFile(ctx context.Context, path string) ([]int64, *Meta, error) {
	var (
		keys []int64
		meta *Meta
	)
	err := LoadFromFile(path, func(r io.Reader) error {
		var loadErr error
		keys, meta, loadErr = Load(ctx, r)
		return loadErr
	})
	if err != nil {
		return nil, nil, err
	}
	return keys, meta, nil
}

// ReadMetaFile reads only the header and meta section of a snapshot file.
func ReadMetaFile(path string) (FileHeader, *Meta, error) {
	var (
		header FileHeader
		meta   *Meta
	)
	err := LoadFromFile(path, func(r io.Reader) error {
		var readErr error
		header, meta, readErr = ReadMeta(r)
		return readErr
	})
	if err != nil {
		return FileHeader{}, nil, err
	}
	return header, meta, nil
}
