package startup

import (
	"fmt"
	"path/filepath"

	"movie-maker/internal/logging"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output directory while a server owns it.
const LockFileName = ".movie-maker.lock"

// InstanceLock guards the output directory against a second server.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the instance lock in dir without blocking. It fails if
// another process already holds it.
func AcquireLock(dir string) (*InstanceLock, error) {
	path := filepath.Join(dir, LockFileName)
	l := &InstanceLock{path: path, lock: flock.New(path)}

	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another movie-maker instance is using %s (lock %s)", dir, path)
	}

	logging.Debug("  Instance lock acquired: %s", path)
	return l, nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string { return l.path }

// Release drops the lock. The lock file itself is left in place.
func (l *InstanceLock) Release() {
	if err := l.lock.Unlock(); err != nil {
		logging.Warn("failed to release instance lock %s: %v", l.path, err)
	}
}
