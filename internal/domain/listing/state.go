package listing

import (
	"fmt"
	"strings"
)

type State string

const (
	StatePrivate    State = "private"
	StateRecruiting State = "recruiting"
	StateFilled     State = "filled"
)

// Capabilities is what a non-owner may do with a listing in a given state.
// Viewing is separate because the owner can always view.
type Capabilities struct {
	CanEdit  bool
	CanApply bool
}

var capabilityTable = map[State]Capabilities{
	StatePrivate:    {CanEdit: true, CanApply: false},
	StateRecruiting: {CanEdit: true, CanApply: true},
	StateFilled:     {CanEdit: false, CanApply: false},
}

var publiclyVisible = map[State]bool{
	StatePrivate:    false,
	StateRecruiting: true,
	StateFilled:     true,
}

// ParseState accepts the state names case-insensitively. Anything else is
// rejected with ErrInvalidState; there is no default.
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilityTable[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return st, nil
}

func (s State) Valid() bool {
	_, ok := capabilityTable[s]
	return ok
}

func (s State) String() string { return string(s) }

func CapabilitiesFor(s State) (Capabilities, error) {
	c, ok := capabilityTable[s]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %q", ErrInvalidState, string(s))
	}
	return c, nil
}

// CanView reports whether a requester may see a listing. Unknown states are
// only visible to the owner.
func CanView(s State, requesterIsOwner bool) bool {
	if requesterIsOwner {
		return true
	}
	return publiclyVisible[s]
}

// PublicStates lists the states visible to everyone, in a stable order.
func PublicStates() []State {
	return []State{StateRecruiting, StateFilled}
}

func AllStates() []State {
	return []State{StatePrivate, StateRecruiting, StateFilled}
}
