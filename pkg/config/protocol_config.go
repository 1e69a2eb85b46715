package config

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

// Protocol defaults.
const (
	DefaultChainID  = 1337
	DefaultAccounts = 10
)

// ProtocolConfiguration represents the protocol config.
type ProtocolConfiguration struct {
	// ChainID is the EIP-155 chain identifier transactions are signed for.
	ChainID uint64 `yaml:"ChainID"`
	// Seed is the phrase prefunded development accounts are derived from.
	Seed string `yaml:"Seed"`
	// Accounts is the number of prefunded development accounts.
	Accounts int `yaml:"Accounts"`
	// InitialBalance of every development account in ether.
	InitialBalance uint64 `yaml:"InitialBalance"`
	// BlockTime is the interval of block production. Zero means a block is
	// made for every accepted transaction.
	BlockTime time.Duration `yaml:"BlockTime"`
	// GenesisTime is the timestamp of the genesis block in seconds.
	GenesisTime uint64 `yaml:"GenesisTime"`
}

// Validate checks ProtocolConfiguration for internal consistency and returns
// an error if anything inappropriate found.
func (p *ProtocolConfiguration) Validate() error {
	if p.ChainID == 0 {
		return errors.New("ChainID can't be zero")
	}
	if p.Accounts < 0 {
		return errors.New("negative number of Accounts")
	}
	if p.Accounts > 0 && p.Seed == "" {
		return errors.New("Seed is required to derive Accounts")
	}
	if p.BlockTime < 0 {
		return errors.New("negative BlockTime")
	}
	return nil
}

// InitialBalanceWei returns the initial account balance in wei.
func (p *ProtocolConfiguration) InitialBalanceWei() *big.Int {
	b := new(big.Int).SetUint64(p.InitialBalance)
	return b.Mul(b, big.NewInt(params.Ether))
}
