package mux

import (
	"context"

	"go.uber.org/multierr"
)

// Detect returns a Sender for the first multiplexer in Kinds that is
// reachable with the given configuration.
//
// Failures are logged at debug level and the next multiplexer is tried.
// If none are reachable, Detect fails with an *AutoDetectError.
func Detect(ctx context.Context, cfg Config, opts *Options) (*Sender, error) {
	return detect(ctx, Kinds, cfg, opts)
}

func detect(ctx context.Context, kinds []Kind, cfg Config, opts *Options) (*Sender, error) {
	logger := opts.logger()

	var errs error
	for _, kind := range kinds {
		s, err := Open(ctx, kind, cfg, opts)
		if err != nil {
			logger.Debug("multiplexer unavailable", "kind", kind.String(), "error", err)
			errs = multierr.Append(errs, err)
			continue
		}

		logger.Debug("detected multiplexer", "kind", kind.String())
		return s, nil
	}
	return nil, &AutoDetectError{Err: errs}
}
