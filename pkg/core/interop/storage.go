package interop

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/holiman/uint256"
)

// GetStorage returns the value stored by the executing contract under the
// given key, nil means no value.
func (ic *Context) GetStorage(key []byte) []byte {
	return ic.DAO.GetStorageItem(ic.Self(), key)
}

// PutStorage stores the value in the executing contract storage, empty
// values delete the key.
func (ic *Context) PutStorage(key []byte, value []byte) {
	if len(value) == 0 {
		ic.DAO.DeleteStorageItem(ic.Self(), key)
		return
	}
	ic.DAO.PutStorageItem(ic.Self(), key, value)
}

// SeekStorage iterates over the executing contract items with the given
// key prefix.
func (ic *Context) SeekStorage(prefix []byte, f func(k, v []byte) bool) {
	ic.DAO.SeekStorage(ic.Self(), storage.SeekRange{Prefix: prefix}, f)
}

// GetUint256 returns the integer stored under the key, missing values
// are zero.
func (ic *Context) GetUint256(key []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(ic.GetStorage(key))
}

// PutUint256 stores the integer under the key, zero deletes it.
func (ic *Context) PutUint256(key []byte, v *uint256.Int) {
	if v.IsZero() {
		ic.PutStorage(key, nil)
		return
	}
	ic.PutStorage(key, v.Bytes())
}

// GetAddress returns the address stored under the key.
func (ic *Context) GetAddress(key []byte) common.Address {
	return common.BytesToAddress(ic.GetStorage(key))
}

// PutAddress stores the address under the key, the zero address deletes it.
func (ic *Context) PutAddress(key []byte, addr common.Address) {
	if addr == (common.Address{}) {
		ic.PutStorage(key, nil)
		return
	}
	ic.PutStorage(key, addr.Bytes())
}

// GetString returns the string stored under the key.
func (ic *Context) GetString(key []byte) string {
	return string(ic.GetStorage(key))
}

// PutString stores the string under the key.
func (ic *Context) PutString(key []byte, s string) {
	ic.PutStorage(key, []byte(s))
}

// GetBool returns the flag stored under the key.
func (ic *Context) GetBool(key []byte) bool {
	return len(ic.GetStorage(key)) != 0
}

// PutBool stores the flag under the key.
func (ic *Context) PutBool(key []byte, b bool) {
	if b {
		ic.PutStorage(key, []byte{1})
		return
	}
	ic.PutStorage(key, nil)
}
