package repository

import "errors"

// ErrNotFound indicates an entity was not located, or a guarded state
// transition matched no row.
var ErrNotFound = errors.New("repository: not found")

// ErrInvalidArgument indicates the store rejected the write.
var ErrInvalidArgument = errors.New("repository: invalid argument")
