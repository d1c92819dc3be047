package instance

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrAlreadyRunning is returned when another process holds the profile lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// errLocked is returned by the platform tryLock when the lock is held elsewhere.
var errLocked = errors.New("lock held")

// Lock is an exclusive advisory lock on a profile's lock file.
// The operating system drops it when the owning process exits, however it exits.
type Lock struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// Acquire opens (creating if needed) the lock file at path and takes the
// lock without waiting. It returns ErrAlreadyRunning if the lock is held.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := tryLock(f); err != nil {
		f.Close()
		if errors.Is(err, errLocked) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Lock{path: path, file: f}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. Calling it is optional; it is safe to call twice.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := unlock(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
