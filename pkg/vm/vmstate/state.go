// Package vmstate contains the set of final states an invocation can end in.
package vmstate

import (
	"encoding/json"
	"fmt"
)

// State represents the final state of a contract invocation.
type State uint8

// Available states.
const (
	// None is the state of an invocation that has not finished yet.
	None State = 0
	// Halt signifies a successful completion, all state changes are kept.
	Halt State = 1 << 0
	// Fault signifies a reverted invocation, state changes are discarded.
	Fault State = 1 << 1
)

// HasFlag checks for State flag presence.
func (s State) HasFlag(f State) bool {
	return s&f != 0
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Halt:
		return "HALT"
	case Fault:
		return "FAULT"
	default:
		return "NONE"
	}
}

// FromString converts a string into the State.
func FromString(s string) (State, error) {
	switch s {
	case "HALT":
		return Halt, nil
	case "FAULT":
		return Fault, nil
	case "NONE":
		return None, nil
	default:
		return 0, fmt.Errorf("unknown state %q", s)
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st, err := FromString(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
