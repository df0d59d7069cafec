package wardrobe

import "errors"

// ErrNotFound is returned by single-record lookups and deletes when no record
// with the requested id exists.
var ErrNotFound = errors.New("wardrobe: not found")
