package mux

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/abhinav/sendenv/internal/log"
	shellwords "github.com/mattn/go-shellwords"
)

// Config specifies how to reach a multiplexer.
type Config struct {
	// Path to the multiplexer executable. Defaults to Kind.DefaultPath.
	//
	// Path is split into words with shell quoting rules so that a wrapper
	// command may be used:
	//
	//	sudo -u bob tmux
	Path string

	// Socket name or path, if any.
	//
	// For tmux, this is a socket path (-S) if it contains a path separator
	// and a socket name (-L) otherwise.
	Socket string

	// Target session. Only meaningful for tmux.
	Session string
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		log.OmitEmpty(slog.String, "path", c.Path),
		log.OmitEmpty(slog.String, "socket", c.Socket),
		log.OmitEmpty(slog.String, "session", c.Session),
	)
}

// Validate reports whether the configuration is usable with any Kind.
func (c Config) Validate() error {
	if len(c.Path) == 0 {
		return nil
	}
	_, err := splitPath(c.Path)
	return err
}

// executable returns the leading words of every command for this
// multiplexer.
func (c Config) executable(k Kind) ([]string, error) {
	if len(c.Path) == 0 {
		return []string{k.DefaultPath()}, nil
	}
	return splitPath(c.Path)
}

func splitPath(path string) ([]string, error) {
	words, err := shellwords.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("program path %q: %w", path, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("program path %q: %w", path, errEmptyPath)
	}
	return words, nil
}

var errEmptyPath = errors.New("no executable specified")

// Op is an operation that can be carried out against a multiplexer.
// It is either Test or an Assignment.
type Op interface {
	args(builder, Config) []string
}

// Test is a harmless operation used to verify that a multiplexer is
// reachable. Its output is meaningless.
var Test Op = testOp{}

type testOp struct{}

func (testOp) args(b builder, cfg Config) []string {
	return b.TestArgs(cfg)
}

// Assignment is a change to a single environment variable.
type Assignment struct {
	// Name of the variable. Must not be empty.
	Name string

	// Value to set the variable to. Ignored if Unset is true.
	Value string

	// Unset specifies that the variable should be removed
	// from the multiplexer's environment.
	Unset bool
}

func (a Assignment) String() string {
	if a.Unset {
		return "-" + a.Name
	}
	return a.Name + "=" + a.Value
}

func (a Assignment) LogValue() slog.Value {
	if a.Unset {
		return slog.GroupValue(
			slog.String("name", a.Name),
			slog.Bool("unset", true),
		)
	}
	return slog.GroupValue(
		slog.String("name", a.Name),
		slog.String("value", a.Value),
	)
}

func (a Assignment) args(b builder, cfg Config) []string {
	if a.Unset {
		return b.UnsetArgs(cfg, a.Name)
	}
	return b.SetArgs(cfg, a.Name, a.Value)
}

// Command builds the full argument list, executable first, that carries
// out op against a multiplexer of the given kind.
func Command(k Kind, cfg Config, op Op) ([]string, error) {
	exe, err := cfg.executable(k)
	if err != nil {
		return nil, err
	}

	b := k.builder()
	prelude := b.Prelude(cfg)
	args := op.args(b, cfg)

	cmd := make([]string, 0, len(exe)+len(prelude)+len(args))
	cmd = append(cmd, exe...)
	cmd = append(cmd, prelude...)
	cmd = append(cmd, args...)
	return cmd, nil
}

// builder builds commands for a specific multiplexer.
type builder interface {
	// DefaultPath is the executable used if Config.Path is unset.
	DefaultPath() string

	// Prelude returns the arguments that follow the executable
	// in every command.
	Prelude(Config) []string

	// TestArgs returns a command that does nothing. It may produce output
	// which will be ignored.
	TestArgs(Config) []string

	// SetArgs returns the command to set name to value.
	SetArgs(cfg Config, name, value string) []string

	// UnsetArgs returns the command to remove name.
	UnsetArgs(cfg Config, name string) []string
}

// screenBuilder builds "screen -X" commands.
type screenBuilder struct{}

var _ builder = screenBuilder{}

func (screenBuilder) DefaultPath() string { return "screen" }

func (screenBuilder) Prelude(cfg Config) []string {
	if len(cfg.Socket) > 0 {
		return []string{"-S", cfg.Socket, "-X"}
	}
	return []string{"-X"}
}

func (screenBuilder) TestArgs(Config) []string {
	return []string{"echo", ""}
}

func (screenBuilder) SetArgs(_ Config, name, value string) []string {
	return []string{"setenv", name, value}
}

func (screenBuilder) UnsetArgs(_ Config, name string) []string {
	return []string{"unsetenv", name}
}

// tmuxBuilder builds tmux client commands.
type tmuxBuilder struct{}

var _ builder = tmuxBuilder{}

func (tmuxBuilder) DefaultPath() string { return "tmux" }

func (tmuxBuilder) Prelude(cfg Config) []string {
	switch {
	case len(cfg.Socket) == 0:
		return nil
	case isSocketPath(cfg.Socket):
		return []string{"-S", cfg.Socket}
	default:
		return []string{"-L", cfg.Socket}
	}
}

func (tmuxBuilder) TestArgs(cfg Config) []string {
	// list-sessions does not accept a target.
	if len(cfg.Session) > 0 {
		return []string{"has-session", "-t", cfg.Session}
	}
	return []string{"list-sessions"}
}

func (tmuxBuilder) SetArgs(cfg Config, name, value string) []string {
	return append(appendTarget([]string{"setenv"}, cfg), name, value)
}

func (tmuxBuilder) UnsetArgs(cfg Config, name string) []string {
	return append(appendTarget([]string{"setenv"}, cfg), "-u", name)
}

func appendTarget(args []string, cfg Config) []string {
	if len(cfg.Session) > 0 {
		args = append(args, "-t", cfg.Session)
	}
	return args
}

// isSocketPath reports whether a tmux socket refers to a file rather than
// a name inside tmux's socket directory.
func isSocketPath(socket string) bool {
	return strings.ContainsRune(socket, '/') ||
		strings.ContainsRune(socket, os.PathSeparator)
}
