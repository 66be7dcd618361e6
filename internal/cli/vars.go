package cli

import (
	"strings"

	"github.com/abhinav/sendenv/internal/mux"
)

// parseAssignments turns "NAME" and "NAME=VALUE" arguments into assignments,
// preserving their order.
//
// Values for bare names are looked up with lookupEnv. Names that are not set
// in the environment are unset in the multiplexer. If unsetEmpty is true,
// empty values are unset too.
func parseAssignments(
	args []string,
	lookupEnv func(string) (string, bool),
	unsetEmpty bool,
) ([]mux.Assignment, error) {
	assigns := make([]mux.Assignment, 0, len(args))
	for _, arg := range args {
		a, err := parseAssignment(arg, lookupEnv)
		if err != nil {
			return nil, err
		}
		if unsetEmpty && len(a.Value) == 0 {
			a.Unset = true
		}
		assigns = append(assigns, a)
	}
	return assigns, nil
}

func parseAssignment(arg string, lookupEnv func(string) (string, bool)) (mux.Assignment, error) {
	name, value, ok := strings.Cut(arg, "=")
	if len(name) == 0 {
		return mux.Assignment{}, &InvalidArgumentError{
			Arg:    arg,
			Reason: "variable name must not be empty",
		}
	}

	if !ok {
		value, ok = lookupEnv(name)
		if !ok {
			return mux.Assignment{Name: name, Unset: true}, nil
		}
	}
	return mux.Assignment{Name: name, Value: value}, nil
}
