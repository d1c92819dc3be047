// Package instance guarantees at most one running shell per profile.
//
// The gate is an advisory, exclusive, non-blocking lock on the profile's
// app.lock file. A second process (or a second Acquire in the same
// process) fails at once with ErrAlreadyRunning and is expected to exit
// with status 0: finding another instance is normal operation, not an error.
//
// The lock needs no explicit release. The operating system drops it when
// the holder exits, including on a crash.
//
// Example Usage:
//
//	lock, err := instance.Acquire(profile.LockPath())
//	if errors.Is(err, instance.ErrAlreadyRunning) {
//	    return nil // exit 0
//	}
//	defer lock.Release()
package instance
