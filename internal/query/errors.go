package query

import "fmt"

// StoreError reports a failure talking to the message database. A store
// failure is never turned into an empty result; callers can detect it with
// errors.As and distinguish it from "no matches".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
