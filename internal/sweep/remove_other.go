//go:build !windows

package sweep

import (
	"context"
	"errors"
	"os"
)

// removeFile deletes path; a file that is already gone counts as removed.
func removeFile(_ context.Context, path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
