// Package workspace manages per-request working directories.
//
// Every moderation run gets <root>/<request-id>, guarded by
// <root>/<request-id>.lock held for the lifetime of the run. Directories whose
// lock nobody holds belong to runs that crashed and are swept on the next
// Begin. Concurrent runs never share a directory.
//
// <root>.lock, next to the root, orders runs against sweeps: Begin holds it
// shared while it creates a run lock and directory, and a sweep holds it
// exclusively, so a sweep never sees a half-created run.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clipguard/internal/logging"
	"clipguard/internal/services"
)

const (
	lockSuffix = ".lock"
	guardRetry = 10 * time.Millisecond
)

// ErrInUse is returned when another run holds the requested directory.
var ErrInUse = errors.New("workspace in use")

// Manager hands out run directories under Root.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a manager rooted at root.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{root: strings.TrimSpace(root), logger: logger}
}

// Root returns the directory holding all run directories.
func (m *Manager) Root() string {
	return m.root
}

// NewRequestID returns a fresh random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Run is one locked working directory.
type Run struct {
	ID  string
	Dir string

	lock *flock.Flock
}

// Begin locks and resets the directory for id, then sweeps abandoned run
// directories. An empty id gets a fresh one.
func (m *Manager) Begin(ctx context.Context, id string) (*Run, error) {
	if m.root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "begin", "work directory not configured", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewRequestID()
	}
	if err := validateID(id); err != nil {
		return nil, services.Wrap(services.ErrValidation, "workspace", "begin", id, err)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "create root", m.root, err)
	}

	guard := flock.New(m.guardPath())
	if ok, err := guard.TryRLockContext(ctx, guardRetry); err != nil || !ok {
		if err == nil {
			err = ErrInUse
		}
		return nil, services.Wrap(services.ErrTimeout, "workspace", "guard", m.guardPath(), err)
	}
	run, err := m.open(id)
	_ = guard.Unlock()
	if err != nil {
		return nil, err
	}

	m.sweep(ctx, false)
	return run, nil
}

func (m *Manager) open(id string) (*Run, error) {
	lock := flock.New(m.lockPath(id))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "lock", id, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "workspace", "lock", id, ErrInUse)
	}

	dir := filepath.Join(m.root, id)
	if err := resetDir(dir); err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "reset", dir, err)
	}
	return &Run{ID: id, Dir: dir, lock: lock}, nil
}

// Close removes the run directory and releases its lock.
func (r *Run) Close() error {
	if r == nil || r.lock == nil {
		return nil
	}
	removeErr := os.RemoveAll(r.Dir)
	lockPath := r.lock.Path()
	unlockErr := r.lock.Unlock()
	r.lock = nil
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) && unlockErr == nil {
		unlockErr = err
	}
	return errors.Join(removeErr, unlockErr)
}

func (m *Manager) guardPath() string {
	return filepath.Clean(m.root) + lockSuffix
}

func (m *Manager) lockPath(id string) string {
	return filepath.Join(m.root, id+lockSuffix)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func validateID(id string) error {
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasSuffix(id, lockSuffix) {
		return fmt.Errorf("invalid request id %q", id)
	}
	return nil
}
