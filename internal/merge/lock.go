package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is the polling interval while the lock is held elsewhere.
const lockRetryDelay = 50 * time.Millisecond

// Lock is a held exclusive lock on the index lock file. The lock file is only
// a mutex handle; it never carries index data.
type Lock struct {
	fl   *flock.Flock
	path string
}

// AcquireLock blocks until the exclusive lock on path is granted.
//
// timeout <= 0 waits indefinitely (until ctx is done). Otherwise the wait is
// bounded and expiry yields ErrLockTimeout.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create lock dir: %w", ErrLockAcquisition, err)
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fl := flock.New(path)
	locked, err := fl.TryLockContext(waitCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s (lock: %s)", ErrLockTimeout, timeout, path)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w (lock: %s): %w", ErrLockAcquisition, path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrLockAcquisition, path)
	}
	return &Lock{fl: fl, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}
