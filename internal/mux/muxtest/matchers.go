package muxtest

import (
	"fmt"

	"github.com/abhinav/sendenv/internal/mux"
	"github.com/golang/mock/gomock"
)

// AssignmentNamed is a gomock matcher that matches mux.Assignment objects
// by variable name only.
type AssignmentNamed string

var _ gomock.Matcher = AssignmentNamed("")

func (m AssignmentNamed) String() string {
	return fmt.Sprintf("Assignment{Name: %q}", string(m))
}

// Matches reports whether the provided Assignment matches.
func (m AssignmentNamed) Matches(x interface{}) bool {
	a, ok := x.(mux.Assignment)
	if !ok {
		return false
	}
	return a.Name == string(m)
}
