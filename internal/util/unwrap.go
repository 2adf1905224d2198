package util

import "github.com/pkg/errors"

// Unwrap strips stackerr and pkg/errors wrappers, so the root message
// can be sent to a client without a stack trace.
func Unwrap(err error) error {
	type hasUnderlying interface {
		Underlying() error
	}
	for {
		if eh, ok := err.(hasUnderlying); ok {
			err = eh.Underlying()
			continue
		}
		if cause := errors.Cause(err); cause != err {
			err = cause
			continue
		}
		return err
	}
}
