package vmstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	require.Equal(t, "HALT", Halt.String())
	require.Equal(t, "FAULT", Fault.String())
	require.Equal(t, "NONE", None.String())
}

func TestFromString(t *testing.T) {
	for _, s := range []State{None, Halt, Fault} {
		res, err := FromString(s.String())
		require.NoError(t, err)
		require.Equal(t, s, res)
	}
	_, err := FromString("BREAK")
	require.Error(t, err)
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(Fault)
	require.NoError(t, err)
	require.Equal(t, `"FAULT"`, string(data))

	var s State
	require.NoError(t, json.Unmarshal([]byte(`"HALT"`), &s))
	require.Equal(t, Halt, s)
	require.True(t, s.HasFlag(Halt))
	require.False(t, s.HasFlag(Fault))

	require.Error(t, json.Unmarshal([]byte(`"UNKNOWN"`), &s))
	require.Error(t, json.Unmarshal([]byte(`1`), &s))
}
