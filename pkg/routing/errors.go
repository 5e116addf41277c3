package routing

import (
	"errors"
	"fmt"
)

// ErrReserved is returned when a path falls inside Proxima's own namespace
// and must never be proxied. It can be checked with errors.Is().
var ErrReserved = errors.New("path is reserved")

// ReservedPathError is returned by Resolve for paths under a reserved
// prefix (Proxima's API and health namespaces, or the bare root).
type ReservedPathError struct {
	// Path is the request path that was refused.
	Path string
}

// Error implements the error interface.
func (e *ReservedPathError) Error() string {
	return fmt.Sprintf("path %q is reserved and will not be proxied", e.Path)
}

// Is implements error matching for errors.Is().
func (e *ReservedPathError) Is(target error) bool {
	return target == ErrReserved
}
