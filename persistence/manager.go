package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hupe1980/pgmgo/blobstore"
	"github.com/hupe1980/pgmgo/resource"
)

var (
	// ErrManagerClosed is returned when operations are attempted on a closed manager.
	ErrManagerClosed = errors.New("persistence manager is closed")

	// ErrNoPath is returned when snapshot operations require a path but none is set.
	ErrNoPath = errors.New("snapshot path not configured")

	// ErrNoStore is returned when blob operations are attempted without a store configured.
	ErrNoStore = errors.New("blob store not configured")
)

// ManagerOptions configures the persistence manager.
type ManagerOptions struct {
	// Path is the default snapshot file path (optional).
	Path string

	// Store is the blob store for Publish/Fetch (optional).
	Store blobstore.BlobStore

	// Controller gates concurrency and throttles snapshot streams
	// (optional; nil means unlimited).
	Controller *resource.Controller
}

// Manager coordinates snapshot I/O against the local filesystem and an
// optional blob store.
//
// It provides:
//   - Atomic snapshot files (temp file + rename)
//   - Concurrency gating and stream throttling via resource.Controller
//   - Publish/Fetch transfer between the snapshot path and a blob store
//
// The Manager is safe for concurrent use.
type Manager struct {
	path  string
	store blobstore.BlobStore
	rc    *resource.Controller

	mu     sync.RWMutex
	closed bool
}

// NewManager creates a new persistence manager.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		path:  opts.Path,
		store: opts.Store,
		rc:    opts.Controller,
	}
}

// Path returns the configured snapshot path.
func (pm *Manager) Path() string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.path
}

// SetPath updates the snapshot path.
func (pm *Manager) SetPath(path string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.path = path
}

// Snapshot saves state atomically to the configured path.
//
// writeFunc receives the destination writer; stream throttling and
// concurrency gates are applied around it.
func (pm *Manager) Snapshot(ctx context.Context, writeFunc func(ctx context.Context, w io.Writer) error) error {
	path := pm.Path()
	if path == "" {
		return ErrNoPath
	}
	return pm.SnapshotTo(ctx, path, writeFunc)
}

// SnapshotTo saves state atomically to a specific path, ignoring the
// configured one. Useful for named backups.
func (pm *Manager) SnapshotTo(ctx context.Context, path string, writeFunc func(ctx context.Context, w io.Writer) error) error {
	if err := pm.begin(ctx); err != nil {
		return err
	}
	defer pm.rc.ReleaseSnapshot()

	if err := SaveToFile(path, func(w io.Writer) error {
		return writeFunc(ctx, resource.NewRateLimitedWriter(ctx, w, pm.rc))
	}); err != nil {
		return fmt.Errorf("persistence: snapshot to %s failed: %w", path, err)
	}
	return nil
}

// Restore loads state from the configured snapshot path.
func (pm *Manager) Restore(ctx context.Context, readFunc func(ctx context.Context, r io.Reader) error) error {
	path := pm.Path()
	if path == "" {
		return ErrNoPath
	}
	return pm.RestoreFrom(ctx, path, readFunc)
}

// RestoreFrom loads state from a specific snapshot path.
func (pm *Manager) RestoreFrom(ctx context.Context, path string, readFunc func(ctx context.Context, r io.Reader) error) error {
	if err := pm.begin(ctx); err != nil {
		return err
	}
	defer pm.rc.ReleaseSnapshot()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("persistence: snapshot not found at %s: %w", path, err)
	}

	if err := LoadFromFile(path, func(r io.Reader) error {
		return readFunc(ctx, resource.NewRateLimitedReader(ctx, r, pm.rc))
	}); err != nil {
		return fmt.Errorf("persistence: restore from %s failed: %w", path, err)
	}
	return nil
}

// Publish streams the snapshot at the configured path to the blob store
// under name.
func (pm *Manager) Publish(ctx context.Context, name string) error {
	path, store, err := pm.pathAndStore()
	if err != nil {
		return err
	}
	if err := pm.begin(ctx); err != nil {
		return err
	}
	defer pm.rc.ReleaseSnapshot()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("persistence: publish %s: %w", name, err)
	}
	defer f.Close()

	// On copy failure the blob context is canceled before Close, so the
	// store aborts the write instead of publishing a truncated object.
	blobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wb, err := store.Create(blobCtx, name)
	if err != nil {
		return fmt.Errorf("persistence: publish %s: %w", name, err)
	}

	_, copyErr := io.Copy(wb, resource.NewRateLimitedReader(ctx, f, pm.rc))
	if copyErr != nil {
		cancel()
		_ = wb.Close()
		return fmt.Errorf("persistence: publish %s: %w", name, copyErr)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("persistence: publish %s: %w", name, err)
	}
	return nil
}

// Fetch downloads a snapshot blob into the configured path atomically.
// The local file only appears once the full transfer succeeded.
func (pm *Manager) Fetch(ctx context.Context, name string) error {
	path, store, err := pm.pathAndStore()
	if err != nil {
		return err
	}
	if err := pm.begin(ctx); err != nil {
		return err
	}
	defer pm.rc.ReleaseSnapshot()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("persistence: fetch %s: %w", name, err)
	}
	defer blob.Close()

	if err := SaveToFile(path, func(w io.Writer) error {
		r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, blob), pm.rc)
		_, err := io.Copy(w, r)
		return err
	}); err != nil {
		return fmt.Errorf("persistence: fetch %s: %w", name, err)
	}
	return nil
}

// Close shuts down the manager. Further operations fail with
// ErrManagerClosed.
func (pm *Manager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.closed = true
	return nil
}

// begin checks lifecycle and context, then takes a snapshot slot.
func (pm *Manager) begin(ctx context.Context) error {
	pm.mu.RLock()
	closed := pm.closed
	pm.mu.RUnlock()
	if closed {
		return ErrManagerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pm.rc.AcquireSnapshot(ctx)
}

func (pm *Manager) pathAndStore() (string, blobstore.BlobStore, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.path == "" {
		return "", nil, ErrNoPath
	}
	if pm.store == nil {
		return "", nil, ErrNoStore
	}
	return pm.path, pm.store, nil
}
