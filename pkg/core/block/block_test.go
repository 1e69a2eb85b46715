package block

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func newTestTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x02")
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1),
		GasPrice: new(big.Int),
	})
}

func TestNewBlockChaining(t *testing.T) {
	genesis := New(nil, 1000, nil)
	require.Equal(t, uint64(0), genesis.Index)
	require.Equal(t, types.EmptyTxsHash, genesis.TxRoot)
	require.NoError(t, genesis.Verify())

	b := New(&genesis.Header, 1001, []*types.Transaction{newTestTx(0), newTestTx(1)})
	require.Equal(t, uint64(1), b.Index)
	require.Equal(t, genesis.Hash(), b.PrevHash)
	require.NotEqual(t, genesis.Hash(), b.Hash())
	require.NoError(t, b.Verify())
}

func TestBlockVerify(t *testing.T) {
	tx := newTestTx(0)
	b := New(nil, 1, []*types.Transaction{tx, tx})
	require.Error(t, b.Verify())

	b = New(nil, 1, []*types.Transaction{tx})
	b.TxRoot = common.Hash{}
	require.Error(t, b.Verify())
}

func TestTrim(t *testing.T) {
	txs := []*types.Transaction{newTestTx(0), newTestTx(1)}
	b := New(nil, 12345, txs)

	data, err := b.Trim()
	require.NoError(t, err)

	actual, err := NewBlockFromTrimmedBytes(data)
	require.NoError(t, err)
	require.True(t, actual.Trimmed)
	require.Equal(t, b.Header, actual.Header)
	require.Equal(t, b.Hash(), actual.Hash())
	require.Equal(t, []common.Hash{txs[0].Hash(), txs[1].Hash()}, actual.Hashes())
	require.NoError(t, actual.Verify())

	_, err = NewBlockFromTrimmedBytes([]byte{0xff})
	require.Error(t, err)
}
