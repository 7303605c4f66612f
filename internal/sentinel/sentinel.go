package sentinel

import "errors"

// ErrNotFound is returned (optionally wrapped) by blob stores for an unknown
// key, so services translate it into a domain error exactly once.
var ErrNotFound = errors.New("not found")
