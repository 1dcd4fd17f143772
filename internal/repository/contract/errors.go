package contract

import "errors"

// ErrDuplicate is returned when an insert collides with a unique index. The
// database translation layer maps driver errors onto this so callers can
// treat concurrent inserts as a normal control-flow branch.
var ErrDuplicate = errors.New("duplicate record")
