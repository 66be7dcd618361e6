package mux

import "fmt"

// Kind identifies a supported terminal multiplexer.
type Kind int

// Supported multiplexers.
const (
	Screen Kind = iota + 1
	Tmux
)

// Kinds lists all supported multiplexers in the order that Detect tries
// them.
var Kinds = []Kind{Screen, Tmux}

// ParseKind parses the name of a multiplexer.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown multiplexer %q", name)
}

func (k Kind) String() string {
	switch k {
	case Screen:
		return "screen"
	case Tmux:
		return "tmux"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultPath reports the executable used for this multiplexer when no path
// was specified. It is looked up in $PATH.
func (k Kind) DefaultPath() string {
	return k.builder().DefaultPath()
}

func (k Kind) builder() builder {
	switch k {
	case Screen:
		return screenBuilder{}
	case Tmux:
		return tmuxBuilder{}
	default:
		panic(fmt.Sprintf("unsupported multiplexer: %v", k))
	}
}
