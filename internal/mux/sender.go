package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/abhinav/sendenv/internal/log"
	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
)

// DefaultTimeout is the recommended limit on how long a single multiplexer
// command may run.
const DefaultTimeout = 5 * time.Second

// How long to wait for output pipes to drain after a timed out command was
// killed.
const _waitDelay = time.Second

// minimal hook to change how exec.Cmd are run. Tests will provide a different
// implementation.
type runner struct {
	Run func(context.Context, *exec.Cmd) error
}

var defaultRunner = runner{
	Run: func(_ context.Context, cmd *exec.Cmd) error {
		return cmd.Run()
	},
}

// Driver updates the environment of a multiplexer.
type Driver interface {
	// Kind reports which multiplexer this is.
	Kind() Kind

	// Send applies a single assignment to the multiplexer's environment.
	Send(context.Context, Assignment) error
}

// Options configures how commands are run.
type Options struct {
	// Logger for the commands being run and their output.
	// Defaults to discarding all messages.
	Log *log.Logger

	// Maximum amount of time a single command may run.
	// Zero means no limit.
	Timeout time.Duration

	// Clock used for timeouts. Defaults to the system clock.
	Clock clock.Clock

	run *runner
}

func (o *Options) logger() *log.Logger {
	if o == nil || o.Log == nil {
		return log.Discard
	}
	return o.Log
}

// Sender is a Driver that shells out to the multiplexer's client.
type Sender struct {
	kind    Kind
	cfg     Config
	log     *log.Logger
	timeout time.Duration
	clock   clock.Clock
	run     *runner
}

var _ Driver = (*Sender)(nil)

// Open builds a Sender for the given multiplexer and verifies that the
// multiplexer is reachable with the given configuration. It fails with a
// *ConnectionError if it is not.
func Open(ctx context.Context, kind Kind, cfg Config, opts *Options) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	s := &Sender{
		kind:    kind,
		cfg:     cfg,
		log:     opts.logger().With("kind", kind.String()),
		timeout: opts.Timeout,
		clock:   opts.Clock,
		run:     opts.run,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.run == nil {
		s.run = &defaultRunner
	}

	if err := s.verify(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Kind reports the kind of multiplexer this Sender talks to.
func (s *Sender) Kind() Kind { return s.kind }

// Config reports the configuration this Sender was opened with.
func (s *Sender) Config() Config { return s.cfg }

func (s *Sender) verify(ctx context.Context) error {
	s.log.Debug("verifying connection", "config", s.cfg)
	// Everything the test command prints is noise.
	if err := s.exec(ctx, Test, log.Debug); err != nil {
		return &ConnectionError{Kind: s.kind, Config: s.cfg, Err: err}
	}
	return nil
}

// Send runs the command to set or unset a variable in the multiplexer.
// It fails with a *SendError if the command fails.
func (s *Sender) Send(ctx context.Context, a Assignment) error {
	if len(a.Name) == 0 {
		return &SendError{Kind: s.kind, Assignment: a, Err: errEmptyName}
	}

	s.log.Debug("sending", "assignment", a)
	if err := s.exec(ctx, a, log.Warn); err != nil {
		return &SendError{Kind: s.kind, Assignment: a, Err: err}
	}
	return nil
}

// exec runs op to completion, logging its output at the given level.
func (s *Sender) exec(ctx context.Context, op Op, lvl log.Level) (err error) {
	args, err := Command(s.kind, s.cfg, op)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = s.clock.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = _waitDelay
	defer multierr.AppendInvoke(&err, s.sink(lvl, &cmd.Stdout, &cmd.Stderr))

	s.log.Debug("run", "args", args)
	start := s.clock.Now()
	err = s.run.Run(ctx, cmd)
	elapsed := s.clock.Since(start)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
			err = fmt.Errorf("%w: %w", cerr, err)
		}
		s.log.Debug("failed", "elapsed", elapsed, "error", err)
		return err
	}

	s.log.Debug("done", "elapsed", elapsed)
	return nil
}

// sink points the provided io.Writers to the same log.Writer and returns an
// invoker that flushes it.
//
// The writer is not an *os.File so os/exec gives the child a pipe and drains
// it until the child exits. Multiplexers can hang if their output is not
// read. Sharing one writer means os/exec never calls it concurrently.
func (s *Sender) sink(lvl log.Level, ws ...*io.Writer) multierr.Invoker {
	writer := &log.Writer{Log: s.log, Level: lvl}
	for _, w := range ws {
		*w = writer
	}
	return multierr.Close(writer)
}
