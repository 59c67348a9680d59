package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"clipguard/internal/logging"
)

// SweepResult contains the outcome of an abandoned-directory sweep.
type SweepResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Sweep removes run directories and lock files whose lock is not held by a
// live run. It waits for runs that are still starting.
func (m *Manager) Sweep(ctx context.Context) SweepResult {
	return m.sweep(ctx, true)
}

// sweep runs under the exclusive guard. Without wait it gives up as soon as
// another run is starting; that run sweeps after it.
func (m *Manager) sweep(ctx context.Context, wait bool) SweepResult {
	result := SweepResult{}
	if m.root == "" {
		return result
	}
	if _, err := os.Stat(m.root); os.IsNotExist(err) {
		return result
	}

	guard := flock.New(m.guardPath())
	var (
		ok  bool
		err error
	)
	if wait {
		ok, err = guard.TryLockContext(ctx, guardRetry)
	} else {
		ok, err = guard.TryLock()
	}
	if err != nil && ctx.Err() == nil {
		result.Errors = append(result.Errors, CleanupError{Path: m.guardPath(), Error: err})
	}
	if !ok {
		return result
	}
	defer func() { _ = guard.Unlock() }()

	entries, err := os.ReadDir(m.root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: m.root, Error: err})
		}
		return result
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		id := strings.TrimSuffix(entry.Name(), lockSuffix)
		if !entry.IsDir() && id == entry.Name() {
			continue
		}
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}
		m.sweepOne(id, &result)
	}
	return result
}

func (m *Manager) sweepOne(id string, result *SweepResult) {
	lockPath := m.lockPath(id)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: lockPath, Error: err})
		return
	}
	if !ok {
		return
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	dir := filepath.Join(m.root, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		m.logger.Warn("failed to remove abandoned work directory",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return
	}
	result.Removed = append(result.Removed, dir)
	m.logger.Info("removed abandoned work directory",
		logging.String("path", dir),
		logging.String(logging.FieldEventType, "workspace_cleanup"),
	)
}

// DirInfo contains metadata about a run directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Active  bool
}

// List returns every run directory under the root, flagging the ones a live
// run still holds.
func (m *Manager) List() ([]DirInfo, error) {
	if m.root == "" {
		return nil, nil
	}
	if _, err := os.Stat(m.root); os.IsNotExist(err) {
		return nil, nil
	}
	guard := flock.New(m.guardPath())
	if err := guard.Lock(); err != nil {
		return nil, err
	}
	defer func() { _ = guard.Unlock() }()

	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(m.root, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
			Active:  m.held(entry.Name()),
		})
	}
	return dirs, nil
}

func (m *Manager) held(id string) bool {
	if _, err := os.Stat(m.lockPath(id)); err != nil {
		return false
	}
	lock := flock.New(m.lockPath(id))
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
