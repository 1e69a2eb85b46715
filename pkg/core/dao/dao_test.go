package dao

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

var testAddr = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func TestGetAccountStateOrNew_New(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	acc, err := dao.GetAccountStateOrNew(testAddr)
	require.NoError(t, err)
	require.NotNil(t, acc)
	require.Zero(t, acc.Balance.Sign())

	_, err = dao.GetAccountState(testAddr)
	require.True(t, errors.Is(err, storage.ErrKeyNotFound))
}

func TestPutAndGetAccountStateOrNew(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	acc := &state.Account{Nonce: 1, Balance: big.NewInt(100)}
	require.NoError(t, dao.PutAccountState(testAddr, acc))

	actual, err := dao.GetAccountStateOrNew(testAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), actual.Nonce)
	require.Equal(t, int64(100), actual.Balance.Int64())
}

func TestPutGetContractState(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	cs := &state.Contract{Address: testAddr, Name: "ERC20Factory", Nonce: 1}
	require.NoError(t, dao.PutContractState(cs))

	actual, err := dao.GetContractState(testAddr)
	require.NoError(t, err)
	require.Equal(t, cs, actual)

	_, err = dao.GetContractState(common.Address{})
	require.Error(t, err)
}

func TestPutGetStorageItem(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	key := []byte{0}
	dao.PutStorageItem(testAddr, key, []byte{42})
	require.Equal(t, []byte{42}, dao.GetStorageItem(testAddr, key))
	require.Nil(t, dao.GetStorageItem(common.Address{}, key))
}

func TestDeleteStorageItem(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	key := []byte{0}
	dao.PutStorageItem(testAddr, key, []byte{42})
	dao.DeleteStorageItem(testAddr, key)
	require.Nil(t, dao.GetStorageItem(testAddr, key))
}

func TestSeekStorage(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.PutStorageItem(testAddr, []byte{1, 1}, []byte{1})
	dao.PutStorageItem(testAddr, []byte{1, 2}, []byte{2})
	dao.PutStorageItem(testAddr, []byte{2, 1}, []byte{3})
	dao.PutStorageItem(common.Address{}, []byte{1, 3}, []byte{4})

	var keys [][]byte
	dao.SeekStorage(testAddr, storage.SeekRange{Prefix: []byte{1}}, func(k, v []byte) bool {
		keys = append(keys, append([]byte{}, k...))
		return true
	})
	require.Equal(t, [][]byte{{1, 1}, {1, 2}}, keys)
}

func TestGetPrivate(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.PutStorageItem(testAddr, []byte{1}, []byte{1})

	priv := dao.GetPrivate()
	require.Equal(t, []byte{1}, priv.GetStorageItem(testAddr, []byte{1}))
	priv.PutStorageItem(testAddr, []byte{2}, []byte{2})
	require.Nil(t, dao.GetStorageItem(testAddr, []byte{2}))

	_, err := priv.Persist()
	require.NoError(t, err)
	require.Equal(t, []byte{2}, dao.GetStorageItem(testAddr, []byte{2}))
}

func TestStoreAsTransaction(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	to := common.HexToAddress("0x02")
	tx := types.NewTx(&types.LegacyTx{Nonce: 1, To: &to, Value: big.NewInt(5), GasPrice: new(big.Int)})
	aer := &state.AppExecResult{
		Container:  tx.Hash(),
		BlockIndex: 3,
		Execution:  state.Execution{VMState: vmstate.Halt, ReturnData: []byte{}, Logs: []*types.Log{}},
	}

	require.False(t, dao.HasTransaction(tx.Hash()))
	require.NoError(t, dao.StoreAsTransaction(tx, 3, aer))
	require.True(t, dao.HasTransaction(tx.Hash()))
	require.ErrorIs(t, dao.StoreAsTransaction(tx, 3, aer), ErrAlreadyExists)

	actual, height, err := dao.GetTransaction(tx.Hash())
	require.NoError(t, err)
	require.Equal(t, uint64(3), height)
	require.Equal(t, tx.Hash(), actual.Hash())

	gotAer, err := dao.GetAppExecResult(tx.Hash())
	require.NoError(t, err)
	require.Equal(t, aer, gotAer)

	_, _, err = dao.GetTransaction(common.Hash{})
	require.Error(t, err)
	_, err = dao.GetAppExecResult(common.Hash{})
	require.Error(t, err)
}

func TestGetBlock_NotExists(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	b, err := dao.GetBlock(1)
	require.Error(t, err)
	require.Nil(t, b)
}

func TestPutGetBlock(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	genesis := block.New(nil, 1, nil)
	b := block.New(&genesis.Header, 2, nil)
	require.NoError(t, dao.StoreAsBlock(genesis))
	require.NoError(t, dao.StoreAsBlock(b))
	dao.StoreAsCurrentBlock(b)

	actual, err := dao.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, b.Hash(), actual.Hash())

	idx, err := dao.GetBlockIndex(b.Hash())
	require.NoError(t, err)
	require.Equal(t, uint64(1), idx)

	height, h, err := dao.GetCurrentBlockHeight()
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)
	require.Equal(t, b.Hash(), h)
}

func TestStoreAsCurrentBlock_Missing(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	_, _, err := dao.GetCurrentBlockHeight()
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestPutGetVersion(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.PutVersion("0.1.0")
	version, err := dao.GetVersion()
	require.NoError(t, err)
	require.Equal(t, "0.1.0", version)
}
