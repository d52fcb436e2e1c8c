// internal/connector/errors.go
package connector

import "fmt"

// Error is a transport or auth failure from an external system. The core
// never retries these; recurrence is the retry mechanism.
type Error struct {
	Connector string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("connector %s: %s: %v", e.Connector, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(name, op string, err error) *Error {
	return &Error{Connector: name, Op: op, Err: err}
}
