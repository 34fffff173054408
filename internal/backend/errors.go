package backend

import "fmt"

// Error wraps a failed backend operation with the site name and the
// attempted operation so callers can display or log a useful message.
type Error struct {
	Site string
	Op   string // "start", "stop", "restart"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s %s: %v", e.Op, e.Site, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opErr(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Site: name, Op: op, Err: err}
}
