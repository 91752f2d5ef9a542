//go:build windows

package sweep

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sys/windows"
)

const (
	lockedAttempts = 15
	lockedDelay    = 200 * time.Millisecond
)

// removeFile deletes path. A descriptor a scanner still holds open is retried
// for a few seconds; if it stays locked it is queued for deletion at the next
// reboot and errDeferred is returned.
func removeFile(ctx context.Context, path string) error {
	err := retry.Do(
		func() error { return removeIfExists(path) },
		retry.Attempts(lockedAttempts),
		retry.Delay(lockedDelay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err == nil || ctx.Err() != nil {
		return err
	}

	name, convErr := windows.UTF16PtrFromString(path)
	if convErr != nil {
		return err
	}
	if windows.MoveFileEx(name, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT) != nil {
		return err
	}
	return errDeferred
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
