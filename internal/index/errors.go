package index

import "errors"

// ErrPersistence indicates the index could not be written. The previous
// generation on disk is left untouched.
var ErrPersistence = errors.New("index persistence failed")

// ErrNotFound indicates there is no index file at the requested path.
var ErrNotFound = errors.New("index not found")
