// Package cli implements the sendenv family of commands.
//
// The same command is installed as sendenv, screen-sendenv, and
// tmux-sendenv, which differ only in their default session type.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/abhinav/sendenv/internal/log"
	"github.com/abhinav/sendenv/internal/mux"
	"github.com/abhinav/sendenv/internal/paniclog"
	"github.com/spf13/cobra"
)

// Program describes one of the installed commands.
type Program struct {
	Name    string
	Version string

	// SessionType used if neither flags nor the configuration file
	// specify one.
	SessionType SessionType
}

// Main runs the program with the process's arguments and environment.
// It exits the process with a non-zero status if the program fails.
func Main(prog Program) {
	cmd := mainCmd{
		Program:     prog,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		LookupEnv:   os.LookupEnv,
		UserHomeDir: os.UserHomeDir,
	}
	if err := cmd.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(cmd.Stderr, "%v: %v\n", prog.Name, err)
		os.Exit(1)
	}
}

type mainCmd struct {
	Program

	Stdout io.Writer
	Stderr io.Writer

	Getenv      func(string) string         // == os.Getenv
	LookupEnv   func(string) (string, bool) // == os.LookupEnv
	UserHomeDir func() (string, error)      // == os.UserHomeDir

	// To override how multiplexers are reached in tests.
	openDriver func(context.Context, SessionType, mux.Config, *mux.Options) (mux.Driver, error)
}

const _long = `Update environment variables in a running terminal multiplexer.

Each argument is a variable whose value in the current environment should be
sent to the multiplexer. Override the value to send for a variable by giving a
value after an equals sign. Variables that are not set in the current
environment are unset in the multiplexer.

Updated environment variables only take effect for windows created afterwards
inside the multiplexer.`

const _example = `  %[1]v SSH_AUTH_SOCK DISPLAY
  %[1]v --session-type tmux --socket work EDITOR=vim
  %[1]v --list`

func (cmd *mainCmd) init() {
	if cmd.openDriver == nil {
		cmd.openDriver = openDriver
	}
	if len(cmd.SessionType) == 0 {
		cmd.SessionType = Auto
	}
}

// Run parses the given arguments and runs the command.
func (cmd *mainCmd) Run(args []string) error {
	cmd.init()

	var cfg config
	root := &cobra.Command{
		Use:           cmd.Name + " [flags] [VAR[=VALUE] ...]",
		Short:         "Update environment variables in a running terminal multiplexer",
		Long:          _long,
		Example:       fmt.Sprintf(_example, cmd.Name),
		Version:       cmd.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(c *cobra.Command, vars []string) error {
			return cmd.run(c.Context(), &cfg, vars)
		},
	}
	if args == nil {
		args = []string{} // cobra reads os.Args for nil
	}
	root.SetArgs(args)
	root.SetOut(cmd.Stdout)
	root.SetErr(cmd.Stderr)
	root.SetVersionTemplate(cmd.Name + " version {{.Version}}\n")

	flags := root.Flags()
	flags.SortFlags = false
	cfg.RegisterFlags(flags, cmd.SessionType)
	root.MarkFlagsMutuallyExclusive("quiet", "verbose")

	return root.ExecuteContext(context.Background())
}

func (cmd *mainCmd) run(ctx context.Context, cfg *config, vars []string) (err error) {
	path, required := configFile(cfg.ConfigFile, cmd.Getenv, cmd.UserHomeDir)
	fileCfg, err := loadConfigFile(path, required)
	if err != nil {
		return err
	}
	cfg.FillFrom(fileCfg)
	cfg.FillFrom(&config{SessionType: cmd.SessionType})

	lvl := log.Info
	switch {
	case cfg.Quiet:
		lvl = log.Warn
	case cfg.Verbose:
		lvl = log.Debug
	}
	logger := log.New(cmd.Stderr, lvl)
	defer paniclog.Recover(&err, logger)

	logger.Debug("configuration",
		"file", path,
		"sessionType", string(cfg.SessionType),
		"mux", cfg.MuxConfig(),
		"timeout", cfg.Timeout.Duration())

	// Reject bad arguments before talking to any multiplexer.
	assigns, err := parseAssignments(vars, cmd.LookupEnv, cfg.UnsetEmpty)
	if err != nil {
		return err
	}

	muxCfg := cfg.MuxConfig()
	if err := muxCfg.Validate(); err != nil {
		return &InvalidArgumentError{Arg: "--program-path", Reason: err.Error()}
	}
	if len(muxCfg.Session) > 0 && cfg.SessionType == Screen {
		logger.Warn("session is only meaningful for tmux, ignoring it", "session", muxCfg.Session)
	}

	driver, err := cmd.openDriver(ctx, cfg.SessionType, muxCfg, &mux.Options{
		Log:     logger,
		Timeout: cfg.Timeout.Duration(),
	})
	if err != nil {
		return err
	}

	if cfg.List {
		fmt.Fprintln(cmd.Stdout, driver.Kind())
		return nil
	}

	for _, a := range assigns {
		if err := driver.Send(ctx, a); err != nil {
			return err
		}
	}

	if len(assigns) > 0 {
		logger.Info("updated environment",
			"multiplexer", driver.Kind().String(),
			"count", len(assigns))
	}
	return nil
}

// openDriver connects to the multiplexer for the given session type,
// detecting one if the type is Auto.
func openDriver(
	ctx context.Context,
	st SessionType,
	cfg mux.Config,
	opts *mux.Options,
) (mux.Driver, error) {
	var (
		s   *mux.Sender
		err error
	)
	if kind, ok := st.kind(); ok {
		s, err = mux.Open(ctx, kind, cfg, opts)
	} else {
		s, err = mux.Detect(ctx, cfg, opts)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
