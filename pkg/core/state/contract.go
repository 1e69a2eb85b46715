package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Contract holds information about a deployed contract instance.
type Contract struct {
	Address common.Address
	// Name is the name of the contract implementation backing the address.
	Name     string
	Deployer common.Address
	// Nonce is the creation counter used to derive the addresses of
	// contracts deployed by this one.
	Nonce  uint64
	Block  uint64
	TxHash common.Hash
}

// Bytes returns the RLP serialization of the contract state.
func (c *Contract) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(c)
}

// DecodeBytes restores the contract state from its RLP serialization.
func (c *Contract) DecodeBytes(data []byte) error {
	return rlp.DecodeBytes(data, c)
}
