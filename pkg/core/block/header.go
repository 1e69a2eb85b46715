package block

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Header holds the head info of a block.
type Header struct {
	Index    uint64
	PrevHash common.Hash
	// Timestamp in seconds since the Unix epoch.
	Timestamp uint64
	TxRoot    common.Hash
}

// Hash returns the Keccak256 hash of the RLP-encoded header.
func (h *Header) Hash() common.Hash {
	data, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(data)
}
