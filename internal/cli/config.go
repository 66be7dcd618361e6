package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/abhinav/sendenv/internal/mux"
	"github.com/spf13/pflag"
)

const _configEnv = "SENDENV_CONFIG"

// config is the merged configuration from flags and the configuration
// file.
type config struct {
	SessionType SessionType `toml:"session_type"`
	ProgramPath string      `toml:"program_path"`
	Socket      string      `toml:"socket"`
	Session     string      `toml:"session"`
	UnsetEmpty  bool        `toml:"unset_empty"`
	Timeout     timeout     `toml:"timeout"`

	// Flag-only options.
	Quiet      bool   `toml:"-"`
	Verbose    bool   `toml:"-"`
	List       bool   `toml:"-"`
	ConfigFile string `toml:"-"`
}

func (c *config) RegisterFlags(flag *pflag.FlagSet, defaultType SessionType) {
	flag.BoolVarP(&c.Quiet, "quiet", "q", false,
		"do not print informational messages")
	flag.BoolVarP(&c.Verbose, "verbose", "v", false,
		"print debug messages that are probably only useful if something is going wrong")
	flag.VarP(&c.SessionType, "session-type", "t", fmt.Sprintf(
		"terminal multiplexer to use: %v (default %v)", sessionTypeNames(), defaultType))
	flag.StringVarP(&c.ProgramPath, "program-path", "p", "",
		"path to the multiplexer executable; only required if it is not in $PATH")
	flag.StringVarP(&c.Socket, "socket", "S", "",
		"multiplexer socket name or path")
	flag.StringVarP(&c.Session, "session", "s", "",
		"session `number` or name; only meaningful for tmux")
	flag.BoolVarP(&c.UnsetEmpty, "unset-empty", "u", false,
		"unset variables with empty values instead of setting them to the empty string")
	flag.BoolVarP(&c.List, "list", "l", false,
		"print the multiplexer that would be used and exit without sending anything")
	flag.Var(&c.Timeout, "timeout", fmt.Sprintf(
		"maximum `duration` of each multiplexer command; 0 disables the limit (default %v)", mux.DefaultTimeout))
	flag.StringVar(&c.ConfigFile, "config", "", fmt.Sprintf(
		"read defaults from this TOML `file` (default $%v or $XDG_CONFIG_HOME/sendenv/config.toml)", _configEnv))
}

// FillFrom updates this config object, filling empty values with values from
// the provided struct but not overwriting those that are already set.
func (c *config) FillFrom(o *config) {
	if len(c.SessionType) == 0 {
		c.SessionType = o.SessionType
	}
	if len(c.ProgramPath) == 0 {
		c.ProgramPath = o.ProgramPath
	}
	if len(c.Socket) == 0 {
		c.Socket = o.Socket
	}
	if len(c.Session) == 0 {
		c.Session = o.Session
	}
	if !c.Timeout.set {
		c.Timeout = o.Timeout
	}
	c.UnsetEmpty = c.UnsetEmpty || o.UnsetEmpty
}

// MuxConfig returns the part of the configuration that identifies the
// multiplexer.
func (c *config) MuxConfig() mux.Config {
	return mux.Config{
		Path:    c.ProgramPath,
		Socket:  c.Socket,
		Session: c.Session,
	}
}

// configFile locates the configuration file. required reports whether the
// user asked for this file explicitly, in which case it must exist.
func configFile(
	explicit string,
	getenv func(string) string,
	userHomeDir func() (string, error),
) (path string, required bool) {
	if len(explicit) > 0 {
		return explicit, true
	}
	if p := getenv(_configEnv); len(p) > 0 {
		return p, true
	}

	dir := getenv("XDG_CONFIG_HOME")
	if len(dir) == 0 {
		home, err := userHomeDir()
		if err != nil || len(home) == 0 {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sendenv", "config.toml"), false
}

// loadConfigFile reads the TOML file at path. A missing file is only an
// error if it is required.
func loadConfigFile(path string, required bool) (*config, error) {
	var cfg config
	if len(path) == 0 {
		return &cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("load config %q: unknown keys: %v", path, strings.Join(names, ", "))
	}

	return &cfg, nil
}

// timeout is a time.Duration that remembers whether it was specified.
type timeout struct {
	d   time.Duration
	set bool
}

var _ pflag.Value = (*timeout)(nil)

func (t *timeout) String() string {
	if !t.set {
		return ""
	}
	return t.d.String()
}

func (t *timeout) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d)
	}
	t.d, t.set = d, true
	return nil
}

func (*timeout) Type() string { return "duration" }

// UnmarshalText implements encoding.TextUnmarshaler
// for use in configuration files.
func (t *timeout) UnmarshalText(b []byte) error {
	return t.Set(string(b))
}

// Duration returns the configured timeout, or mux.DefaultTimeout if it was
// never specified.
func (t *timeout) Duration() time.Duration {
	if !t.set {
		return mux.DefaultTimeout
	}
	return t.d
}
