package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/crypto/keys"
)

// Account represents an Ethereum account. It holds the private key along
// with some metadata.
type Account struct {
	privateKey *keys.PrivateKey

	// Address is the account address derived from the key.
	Address common.Address `json:"address"`

	// Label is a label the user had made for this account.
	Label string `json:"label"`
}

// NewAccount creates a new Account with a random generated PrivateKey.
func NewAccount() (*Account, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(priv), nil
}

// NewAccountFromPrivateKey creates a wallet from the given PrivateKey.
func NewAccountFromPrivateKey(p *keys.PrivateKey) *Account {
	return &Account{
		privateKey: p,
		Address:    p.Address(),
	}
}

// NewAccountFromHex creates a new Account from the hex-encoded private key.
func NewAccountFromHex(s string) (*Account, error) {
	priv, err := keys.NewPrivateKeyFromHex(s)
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(priv), nil
}

// PrivateKey returns private key corresponding to the account.
func (a *Account) PrivateKey() *keys.PrivateKey {
	return a.privateKey
}

// SignTx signs transaction t for the given signer and returns the signed
// copy.
func (a *Account) SignTx(signer types.Signer, t *types.Transaction) (*types.Transaction, error) {
	if a.privateKey == nil {
		return nil, fmt.Errorf("account %s is locked", a.Address)
	}
	return a.privateKey.SignTx(signer, t)
}

// DevAccounts derives n deterministic development accounts from the seed.
// The same seed always produces the same accounts in the same order.
func DevAccounts(seed string, n int) ([]*Account, error) {
	accs := make([]*Account, 0, n)
	for i := 0; i < n; i++ {
		priv, err := keys.NewPrivateKeyFromSeed(seed, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		acc := NewAccountFromPrivateKey(priv)
		acc.Label = fmt.Sprintf("dev%d", i)
		accs = append(accs, acc)
	}
	return accs, nil
}
