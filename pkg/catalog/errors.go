package catalog

import "errors"

// ErrNotFound is returned (possibly wrapped) by lookups when no row matches.
// Callers check it with errors.Is.
var ErrNotFound = errors.New("catalog: record not found")
