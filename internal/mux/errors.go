package mux

import (
	"errors"
	"fmt"
)

// ConnectionError indicates that a multiplexer could not be reached with the
// given configuration.
type ConnectionError struct {
	Kind   Kind
	Config Config
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %v: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AutoDetectError indicates that none of the supported multiplexers could be
// reached.
//
// Err holds the failure for each multiplexer that was tried. Use
// multierr.Errors to inspect them individually.
type AutoDetectError struct {
	Err error
}

func (e *AutoDetectError) Error() string {
	if e.Err == nil {
		return "no reachable multiplexer"
	}
	return "no reachable multiplexer: " + e.Err.Error()
}

func (e *AutoDetectError) Unwrap() error { return e.Err }

// SendError indicates that a multiplexer failed to update a variable.
type SendError struct {
	Kind       Kind
	Assignment Assignment
	Err        error
}

func (e *SendError) Error() string {
	verb := "set"
	if e.Assignment.Unset {
		verb = "unset"
	}
	return fmt.Sprintf("%v %v in %v: %v", verb, e.Assignment.Name, e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

var errEmptyName = errors.New("variable name must not be empty")
