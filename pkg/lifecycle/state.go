package lifecycle

// State is the application lifecycle state.
type State string

const (
	StateActive     State = "active"
	StateInactive   State = "inactive"
	StateBackground State = "background"
)

// ParseState converts a raw state name into a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", ErrInvalidState
	}
	return st, nil
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateActive, StateInactive, StateBackground:
		return true
	default:
		return false
	}
}

// IsForeground reports whether the application is in the foreground.
func (s State) IsForeground() bool {
	switch s {
	case StateActive:
		return true
	case StateInactive, StateBackground:
		return false
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
