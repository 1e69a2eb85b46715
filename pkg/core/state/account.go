package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Account represents the ledger state of an address: the number of
// transactions sent from it and its ether balance in wei.
type Account struct {
	Nonce   uint64
	Balance *big.Int
}

// NewAccount returns an empty Account.
func NewAccount() *Account {
	return &Account{Balance: new(big.Int)}
}

// Bytes returns the RLP serialization of the account.
func (a *Account) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// DecodeBytes restores the account from its RLP serialization.
func (a *Account) DecodeBytes(data []byte) error {
	return rlp.DecodeBytes(data, a)
}
