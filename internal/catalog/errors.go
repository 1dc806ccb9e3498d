package catalog

import (
	"errors"
	"fmt"
)

// ErrTransport matches every failure to obtain a usable catalog response:
// network errors, non-2xx statuses, undecodable bodies and an open breaker.
var ErrTransport = errors.New("catalog unavailable")

type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("catalog %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("catalog %s: HTTP %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }
