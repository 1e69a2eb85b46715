package neorpc

import (
	"encoding/json"
	"fmt"
)

// EventID is a subscription stream, eth_subscribe takes its name as the
// first parameter.
type EventID byte

// Subscription streams, zero value matches none of them.
const (
	InvalidEventID EventID = iota
	// BlockEventID is the "newHeads" stream, one event per block.
	BlockEventID
	// LogEventID is the "logs" stream, one event per log of a HALTed
	// transaction.
	LogEventID
)

var eventNames = map[EventID]string{
	BlockEventID: "newHeads",
	LogEventID:   "logs",
}

// String returns the stream name.
func (e EventID) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// GetEventIDFromString returns the stream with the given name.
func GetEventIDFromString(s string) (EventID, error) {
	for id, name := range eventNames {
		if name == s {
			return id, nil
		}
	}
	return InvalidEventID, fmt.Errorf("invalid stream name %q", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (e EventID) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *EventID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	id, err := GetEventIDFromString(s)
	if err != nil {
		return err
	}
	*e = id
	return nil
}
