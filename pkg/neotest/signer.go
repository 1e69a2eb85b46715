package neotest

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/wallet"
)

// Signer is an account able to sign transactions sent by the Executor.
type Signer interface {
	// Address returns the address transactions are sent from.
	Address() common.Address
	// SignTx returns the signed copy of the transaction.
	SignTx(types.Signer, *types.Transaction) (*types.Transaction, error)
	// Account returns the underlying account.
	Account() *wallet.Account
}

// signer signs with the key of a single account.
type signer struct {
	acc *wallet.Account
}

// NewSingleSigner returns a signer for the provided account.
func NewSingleSigner(acc *wallet.Account) Signer {
	if acc.PrivateKey() == nil {
		panic("account must have a private key")
	}
	return &signer{acc: acc}
}

// NewSigners wraps all the given accounts into signers.
func NewSigners(accs ...*wallet.Account) []Signer {
	res := make([]Signer, len(accs))
	for i := range accs {
		res[i] = NewSingleSigner(accs[i])
	}
	return res
}

// Address implements Signer interface.
func (s *signer) Address() common.Address {
	return s.acc.Address
}

// SignTx implements Signer interface.
func (s *signer) SignTx(ts types.Signer, tx *types.Transaction) (*types.Transaction, error) {
	return s.acc.SignTx(ts, tx)
}

// Account implements Signer interface.
func (s *signer) Account() *wallet.Account {
	return s.acc
}
