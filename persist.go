package pgmgo

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/hupe1980/pgmgo/persistence"
)

// Save writes the list as a snapshot to w. The default format delta-encodes
// the keys in compressed, checksummed blocks; pass persistence option
// functions to pick a different encoding or compression:
//
//	// Raw layout, loadable with LoadMmapFile.
//	err := sl.Save(ctx, w, func(o *persistence.Options) {
//	    o.Encoding = persistence.EncodingRaw
//	    o.Compression = persistence.CompressionNone
//	})
//
// The snapshot records which index family the list was built with, but the
// index itself is not serialized; loaders rebuild it.
func (sl *SortedList) Save(ctx context.Context, w io.Writer, optFns ...func(*persistence.Options)) error {
	start := time.Now()
	err := persistence.Save(ctx, w, sl.keys, sl.snapshotMeta(), optFns...)
	duration := time.Since(start)

	sl.cfg.metricsCollector.RecordSnapshot(duration, err)
	sl.cfg.logger.LogSnapshot(ctx, "stream", len(sl.keys), err)

	if err != nil {
		return fmt.Errorf("pgmgo: save snapshot: %w", err)
	}

	return nil
}

// SaveFile writes the list as a snapshot file at path. The file is written
// to a temporary name first and renamed into place, so a crash mid-write
// never leaves a partial snapshot behind.
func (sl *SortedList) SaveFile(ctx context.Context, path string, optFns ...func(*persistence.Options)) error {
	start := time.Now()
	err := persistence.SaveFile(ctx, path, sl.keys, sl.snapshotMeta(), optFns...)
	duration := time.Since(start)

	sl.cfg.metricsCollector.RecordSnapshot(duration, err)
	sl.cfg.logger.LogSnapshot(ctx, path, len(sl.keys), err)

	if err != nil {
		return fmt.Errorf("pgmgo: save snapshot %s: %w", path, err)
	}

	return nil
}

func (sl *SortedList) snapshotMeta() *persistence.Meta {
	return &persistence.Meta{Index: sl.cfg.builder.Name()}
}

// Load reads a snapshot from r and builds a list over its keys. The options
// configure the new list (index family, logger, metrics); the index family
// recorded in the snapshot is informational and is not restored.
//
// Snapshots store keys in ascending order. Load verifies this and fails with
// ErrUnsortedKeys on a snapshot whose checksums pass but whose key order is
// broken, rather than silently re-sorting foreign data.
func Load(ctx context.Context, r io.Reader, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	start := time.Now()
	keys, _, err := persistence.Load(ctx, r)
	if err == nil && !slices.IsSorted(keys) {
		err = ErrUnsortedKeys
	}
	duration := time.Since(start)

	cfg.metricsCollector.RecordLoad(duration, err)
	cfg.logger.LogLoad(ctx, "stream", len(keys), err)

	if err != nil {
		return nil, fmt.Errorf("pgmgo: load snapshot: %w", err)
	}

	return adopt(keys, cfg, true), nil
}

// LoadFile reads the snapshot file at path and builds a list over its keys.
func LoadFile(ctx context.Context, path string, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	start := time.Now()
	keys, _, err := persistence.LoadFile(ctx, path)
	if err == nil && !slices.IsSorted(keys) {
		err = ErrUnsortedKeys
	}
	duration := time.Since(start)

	cfg.metricsCollector.RecordLoad(duration, err)
	cfg.logger.LogLoad(ctx, path, len(keys), err)

	if err != nil {
		return nil, fmt.Errorf("pgmgo: load snapshot %s: %w", path, err)
	}

	return adopt(keys, cfg, true), nil
}

// LoadMmapFile memory-maps a raw-encoded snapshot file and builds a list
// whose key buffer aliases the mapping, so the keys are paged in on demand
// instead of being read up front. The position index is still built eagerly,
// which touches every page once.
//
// Only snapshots written with EncodingRaw qualify; delta-encoded snapshots
// fail with persistence.ErrMmapUnsupported (use LoadFile for those). The
// returned list must be closed to release the mapping, and must not be used
// afterwards. Lists derived from it copy their keys and stay valid.
func LoadMmapFile(path string, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)
	ctx := context.Background()

	start := time.Now()
	mk, err := persistence.MmapKeys(path)
	if err == nil && !slices.IsSorted(mk.Keys) {
		_ = mk.Close()
		mk, err = nil, ErrUnsortedKeys
	}
	duration := time.Since(start)

	if err != nil {
		cfg.metricsCollector.RecordLoad(duration, err)
		cfg.logger.LogLoad(ctx, path, 0, err)

		return nil, fmt.Errorf("pgmgo: mmap snapshot %s: %w", path, err)
	}

	cfg.metricsCollector.RecordLoad(duration, nil)
	cfg.logger.LogLoad(ctx, path, len(mk.Keys), nil)

	sl := adopt(mk.Keys, cfg, true)
	sl.mmapCloser = mk

	return sl, nil
}
