package models

import "errors"

// ErrNotFound is returned when a project or task does not exist or is not visible to the caller
var ErrNotFound = errors.New("not found")
