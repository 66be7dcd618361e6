package cli

import (
	"strings"

	"github.com/abhinav/sendenv/internal/mux"
	"github.com/spf13/pflag"
)

// SessionType selects the multiplexer to talk to.
type SessionType string

// Supported session types.
const (
	// Auto tries every supported multiplexer and uses the first reachable
	// one.
	Auto SessionType = "auto"

	Screen SessionType = "screen"
	Tmux   SessionType = "tmux"
)

var _sessionTypes = []SessionType{Screen, Tmux, Auto}

var _ pflag.Value = (*SessionType)(nil)

func (t *SessionType) String() string {
	return string(*t)
}

// Set parses a session type name.
func (t *SessionType) Set(s string) error {
	for _, st := range _sessionTypes {
		if string(st) == s {
			*t = st
			return nil
		}
	}
	return &InvalidArgumentError{
		Arg:    s,
		Reason: "session type must be one of " + sessionTypeNames(),
	}
}

// Type reports the placeholder used for the flag in help output.
func (*SessionType) Type() string {
	return "type"
}

// UnmarshalText implements encoding.TextUnmarshaler
// for use in configuration files.
func (t *SessionType) UnmarshalText(b []byte) error {
	return t.Set(string(b))
}

// kind reports the multiplexer for this session type.
// Returns false for Auto.
func (t SessionType) kind() (mux.Kind, bool) {
	if t == Auto {
		return 0, false
	}
	k, err := mux.ParseKind(string(t))
	return k, err == nil
}

func sessionTypeNames() string {
	names := make([]string, len(_sessionTypes))
	for i, st := range _sessionTypes {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
