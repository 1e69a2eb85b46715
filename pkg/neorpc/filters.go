package neorpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// LogFilter is a filter of the logs subscription. Logs are matched by any of
// the addresses (if given) and by topics position-wise, an empty position
// matches any topic, a non-empty one matches any of its topics.
type LogFilter struct {
	Address []common.Address `json:"address,omitempty"`
	Topics  [][]common.Hash  `json:"topics,omitempty"`
}

// logFilterAux is an auxiliary struct for JSON unmarshalling, both address
// and every topic position can be given as a single value, an array or null.
type logFilterAux struct {
	Address json.RawMessage   `json:"address,omitempty"`
	Topics  []json.RawMessage `json:"topics,omitempty"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *LogFilter) UnmarshalJSON(data []byte) error {
	aux := new(logFilterAux)
	jd := json.NewDecoder(bytes.NewReader(data))
	jd.DisallowUnknownFields()
	if err := jd.Decode(aux); err != nil {
		return err
	}
	var res LogFilter
	if err := unmarshalOneOrMany(aux.Address, &res.Address); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	for i, raw := range aux.Topics {
		var alts []common.Hash
		if err := unmarshalOneOrMany(raw, &alts); err != nil {
			return fmt.Errorf("invalid topic %d: %w", i, err)
		}
		res.Topics = append(res.Topics, alts)
	}
	*f = res
	return nil
}

func unmarshalOneOrMany[T any](raw json.RawMessage, dst *[]T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, dst)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = []T{v}
	return nil
}
