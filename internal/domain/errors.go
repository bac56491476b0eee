package domain

import "errors"

// ErrNotFound is returned by repositories when an entity does not exist.
// Callers that can recover (e.g. session resolution) must check for it
// with errors.Is rather than matching message text.
var ErrNotFound = errors.New("not found")
