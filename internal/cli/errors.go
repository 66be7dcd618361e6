package cli

import "fmt"

// InvalidArgumentError indicates a malformed command line argument or
// configuration value.
type InvalidArgumentError struct {
	Arg    string // offending argument or flag
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %v", e.Arg, e.Reason)
}
