// Package paniclog turns panics into errors,
// logging the panic and its stack trace.
package paniclog

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/abhinav/sendenv/internal/log"
	"go.uber.org/multierr"
)

// Handle handles a panic value, writing it and the current stack to the given
// io.Writer. Returns the error version of the panic, if any.
func Handle(pval interface{}, w io.Writer) error {
	if pval == nil {
		return nil
	}

	fmt.Fprintf(w, "panic: %v\n%s", pval, debug.Stack())

	switch pval := pval.(type) {
	case string:
		return errors.New(pval)
	case error:
		return pval
	default:
		return fmt.Errorf("panic: %v", pval)
	}
}

// Recover recovers a panic and appends it into the given error pointer.
// The stack trace is logged at debug level, one record per line.
//
//	defer paniclog.Recover(&err, logger)
func Recover(err *error, logger *log.Logger) {
	pval := recover()
	if pval == nil {
		return
	}

	w := &log.Writer{Log: logger, Level: log.Debug}
	*err = multierr.Append(*err, Handle(pval, w))
	_ = w.Close()
}
