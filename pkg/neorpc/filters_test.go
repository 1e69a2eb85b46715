package neorpc

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestLogFilter_UnmarshalJSON(t *testing.T) {
	var (
		addr1  = common.HexToAddress("0x01")
		addr2  = common.HexToAddress("0x02")
		topic1 = common.HexToHash("0x11")
		topic2 = common.HexToHash("0x12")
	)

	t.Run("single values", func(t *testing.T) {
		var f LogFilter
		data := `{"address": "` + addr1.Hex() + `", "topics": [null, "` + topic1.Hex() + `"]}`
		require.NoError(t, json.Unmarshal([]byte(data), &f))
		require.Equal(t, []common.Address{addr1}, f.Address)
		require.Equal(t, [][]common.Hash{nil, {topic1}}, f.Topics)
	})
	t.Run("arrays", func(t *testing.T) {
		var f LogFilter
		data := `{"address": ["` + addr1.Hex() + `", "` + addr2.Hex() + `"], "topics": [["` + topic1.Hex() + `", "` + topic2.Hex() + `"]]}`
		require.NoError(t, json.Unmarshal([]byte(data), &f))
		require.Equal(t, []common.Address{addr1, addr2}, f.Address)
		require.Equal(t, [][]common.Hash{{topic1, topic2}}, f.Topics)
	})
	t.Run("empty", func(t *testing.T) {
		var f LogFilter
		require.NoError(t, json.Unmarshal([]byte(`{}`), &f))
		require.Nil(t, f.Address)
		require.Nil(t, f.Topics)
	})
	t.Run("roundtrip", func(t *testing.T) {
		f := LogFilter{Address: []common.Address{addr2}, Topics: [][]common.Hash{nil, {topic2}}}
		data, err := json.Marshal(f)
		require.NoError(t, err)
		var actual LogFilter
		require.NoError(t, json.Unmarshal(data, &actual))
		require.Equal(t, f, actual)
	})
	t.Run("errors", func(t *testing.T) {
		var f LogFilter
		require.Error(t, json.Unmarshal([]byte(`{"fromBlock": "0x1"}`), &f))
		require.Error(t, json.Unmarshal([]byte(`{"address": 5}`), &f))
		require.Error(t, json.Unmarshal([]byte(`{"topics": ["0x11"]}`), &f))
	})
}
