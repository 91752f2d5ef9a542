package merge

import "errors"

var (
	// ErrMissingName indicates a descriptor without a skill name.
	ErrMissingName = errors.New("descriptor missing required 'name' field")

	// ErrUnknownSkill indicates a pass-2 descriptor for a skill that has no
	// pass-1 entry yet. Pass 2 never creates entries.
	ErrUnknownSkill = errors.New("skill not found in index, run pass 1 first")

	// ErrLockTimeout indicates the index lock was not granted in time. It is
	// safe to retry.
	ErrLockTimeout = errors.New("timed out waiting for index lock")

	// ErrLockAcquisition indicates the lock file could not be opened or locked.
	ErrLockAcquisition = errors.New("cannot acquire index lock")
)

// Retryable reports whether a merge failure may succeed on a later attempt
// without any change to the descriptor.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrLockAcquisition)
}
