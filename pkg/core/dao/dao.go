package dao

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
)

// ErrAlreadyExists is returned when the transaction exists in dao.
var ErrAlreadyExists = errors.New("transaction already exists")

// Serializable is an entity stored by the DAO in its binary form.
type Serializable interface {
	Bytes() ([]byte, error)
	DecodeBytes([]byte) error
}

// Simple is memCached wrapper around DB, simple DAO implementation.
type Simple struct {
	Store *storage.MemCachedStore
}

// NewSimple creates new simple dao using provided backend store.
func NewSimple(backend storage.Store) *Simple {
	return &Simple{Store: storage.NewMemCachedStore(backend)}
}

// GetPrivate returns new DAO instance with another layer of wrapped
// MemCachedStore around the current DAO Store. Changes made to it are
// only visible to the parent after Persist.
func (dao *Simple) GetPrivate() *Simple {
	return NewSimple(dao.Store)
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store.
func (dao *Simple) Persist() (int, error) {
	return dao.Store.Persist()
}

// GetAndDecode performs get operation and decoding with serializable structures.
func (dao *Simple) GetAndDecode(entity Serializable, key []byte) error {
	entityBytes, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	return entity.DecodeBytes(entityBytes)
}

// Put performs put operation with serializable structures.
func (dao *Simple) Put(entity Serializable, key []byte) error {
	data, err := entity.Bytes()
	if err != nil {
		return err
	}
	dao.Store.Put(key, data)
	return nil
}

// -- start accounts.

func makeAccountKey(addr common.Address) []byte {
	return storage.AppendPrefix(storage.STAccount, addr.Bytes())
}

// GetAccountState returns Account from the given Store if it's
// present there.
func (dao *Simple) GetAccountState(addr common.Address) (*state.Account, error) {
	acc := &state.Account{}
	err := dao.GetAndDecode(acc, makeAccountKey(addr))
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// GetAccountStateOrNew retrieves Account from temporary or persistent Store
// or creates a new empty one if it doesn't exist.
func (dao *Simple) GetAccountStateOrNew(addr common.Address) (*state.Account, error) {
	acc, err := dao.GetAccountState(addr)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return nil, err
		}
		acc = state.NewAccount()
	}
	return acc, nil
}

// PutAccountState saves given Account in given store.
func (dao *Simple) PutAccountState(addr common.Address, acc *state.Account) error {
	return dao.Put(acc, makeAccountKey(addr))
}

// -- end accounts.

// -- start contracts.

func makeContractKey(addr common.Address) []byte {
	return storage.AppendPrefix(storage.STContract, addr.Bytes())
}

// GetContractState returns contract state as recorded in the given
// store by the given address.
func (dao *Simple) GetContractState(addr common.Address) (*state.Contract, error) {
	cs := &state.Contract{}
	err := dao.GetAndDecode(cs, makeContractKey(addr))
	if err != nil {
		return nil, err
	}
	if cs.Address != addr {
		return nil, errors.New("found address is not equal to expected")
	}
	return cs, nil
}

// PutContractState puts given contract state into the given store.
func (dao *Simple) PutContractState(cs *state.Contract) error {
	return dao.Put(cs, makeContractKey(cs.Address))
}

// -- end contracts.

// -- start storage items.

func makeStorageItemKey(addr common.Address, key []byte) []byte {
	k := make([]byte, 1+common.AddressLength+len(key))
	k[0] = byte(storage.STStorage)
	copy(k[1:], addr.Bytes())
	copy(k[1+common.AddressLength:], key)
	return k
}

// GetStorageItem returns the value stored by the contract under the given
// key or nil if there is none.
func (dao *Simple) GetStorageItem(addr common.Address, key []byte) []byte {
	b, err := dao.Store.Get(makeStorageItemKey(addr, key))
	if err != nil {
		return nil
	}
	return b
}

// PutStorageItem puts the given value into the contract storage.
func (dao *Simple) PutStorageItem(addr common.Address, key []byte, value []byte) {
	dao.Store.Put(makeStorageItemKey(addr, key), value)
}

// DeleteStorageItem drops the item from the contract storage.
func (dao *Simple) DeleteStorageItem(addr common.Address, key []byte) {
	dao.Store.Delete(makeStorageItemKey(addr, key))
}

// SeekStorage iterates over the contract storage items with the given
// prefix, keys passed to f have the contract address stripped.
func (dao *Simple) SeekStorage(addr common.Address, rng storage.SeekRange, f func(k, v []byte) bool) {
	rng.Prefix = makeStorageItemKey(addr, rng.Prefix)
	dao.Store.Seek(rng, func(k, v []byte) bool {
		return f(k[1+common.AddressLength:], v)
	})
}

// -- end storage items.

// -- start transactions.

func makeExecutableKey(h common.Hash) []byte {
	return storage.AppendPrefix(storage.DataExecutable, h.Bytes())
}

func makeExecResultKey(h common.Hash) []byte {
	return append(makeExecutableKey(h), storage.ExecResult)
}

// HasTransaction returns true if the given transaction is stored.
func (dao *Simple) HasTransaction(h common.Hash) bool {
	_, err := dao.Store.Get(makeExecutableKey(h))
	return err == nil
}

// StoreAsTransaction stores the given transaction along with its
// execution result, index is the block index.
func (dao *Simple) StoreAsTransaction(tx *types.Transaction, index uint64, aer *state.AppExecResult) error {
	h := tx.Hash()
	if dao.HasTransaction(h) {
		return ErrAlreadyExists
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	buf := make([]byte, 9+len(raw))
	buf[0] = storage.ExecTransaction
	binary.BigEndian.PutUint64(buf[1:], index)
	copy(buf[9:], raw)
	dao.Store.Put(makeExecutableKey(h), buf)
	if aer != nil {
		return dao.PutAppExecResult(aer)
	}
	return nil
}

// GetTransaction returns the transaction and the index of the block it's
// included in.
func (dao *Simple) GetTransaction(h common.Hash) (*types.Transaction, uint64, error) {
	b, err := dao.Store.Get(makeExecutableKey(h))
	if err != nil {
		return nil, 0, err
	}
	if len(b) < 9 || b[0] != storage.ExecTransaction {
		return nil, 0, errors.New("bad executable record")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(b[9:]); err != nil {
		return nil, 0, err
	}
	return tx, binary.BigEndian.Uint64(b[1:9]), nil
}

// PutAppExecResult puts the given application execution result into the
// given store.
func (dao *Simple) PutAppExecResult(aer *state.AppExecResult) error {
	data, err := json.Marshal(aer)
	if err != nil {
		return fmt.Errorf("failed to encode execution result: %w", err)
	}
	dao.Store.Put(makeExecResultKey(aer.Container), data)
	return nil
}

// GetAppExecResult gets application execution result for the given
// transaction hash.
func (dao *Simple) GetAppExecResult(h common.Hash) (*state.AppExecResult, error) {
	data, err := dao.Store.Get(makeExecResultKey(h))
	if err != nil {
		return nil, err
	}
	aer := new(state.AppExecResult)
	if err := json.Unmarshal(data, aer); err != nil {
		return nil, err
	}
	return aer, nil
}

// -- end transactions.

// -- start blocks.

// StoreAsBlock stores the trimmed block and its hash index.
func (dao *Simple) StoreAsBlock(b *block.Block) error {
	data, err := b.Trim()
	if err != nil {
		return err
	}
	dao.Store.Put(storage.AppendPrefixInt(storage.DataBlock, b.Index), data)
	idx := make([]byte, 8)
	binary.BigEndian.PutUint64(idx, b.Index)
	dao.Store.Put(storage.AppendPrefix(storage.IXBlockHash, b.Hash().Bytes()), idx)
	return nil
}

// GetBlock returns the trimmed block with the given index.
func (dao *Simple) GetBlock(index uint64) (*block.Block, error) {
	data, err := dao.Store.Get(storage.AppendPrefixInt(storage.DataBlock, index))
	if err != nil {
		return nil, err
	}
	return block.NewBlockFromTrimmedBytes(data)
}

// GetBlockIndex returns the index of the block with the given hash.
func (dao *Simple) GetBlockIndex(h common.Hash) (uint64, error) {
	data, err := dao.Store.Get(storage.AppendPrefix(storage.IXBlockHash, h.Bytes()))
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, errors.New("bad block index record")
	}
	return binary.BigEndian.Uint64(data), nil
}

// StoreAsCurrentBlock stores the hash and index of the given block as the
// current chain tip.
func (dao *Simple) StoreAsCurrentBlock(b *block.Block) {
	buf := make([]byte, 8+common.HashLength)
	binary.BigEndian.PutUint64(buf, b.Index)
	copy(buf[8:], b.Hash().Bytes())
	dao.Store.Put(storage.SYSCurrentBlock.Bytes(), buf)
}

// GetCurrentBlockHeight returns the current block height found in the
// underlying store.
func (dao *Simple) GetCurrentBlockHeight() (uint64, common.Hash, error) {
	b, err := dao.Store.Get(storage.SYSCurrentBlock.Bytes())
	if err != nil {
		return 0, common.Hash{}, err
	}
	if len(b) != 8+common.HashLength {
		return 0, common.Hash{}, errors.New("bad current block record")
	}
	return binary.BigEndian.Uint64(b), common.BytesToHash(b[8:]), nil
}

// -- end blocks.

// GetVersion attempts to get the current version stored in the
// underlying store.
func (dao *Simple) GetVersion() (string, error) {
	version, err := dao.Store.Get(storage.SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func (dao *Simple) PutVersion(v string) {
	dao.Store.Put(storage.SYSVersion.Bytes(), []byte(v))
}
