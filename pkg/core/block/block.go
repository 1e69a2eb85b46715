package block

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Block represents one block in the chain.
type Block struct {
	Header

	// Transaction list.
	Transactions []*types.Transaction

	// TxHashes is filled for blocks restored from trimmed data, in
	// that case Transactions is empty.
	TxHashes []common.Hash

	// True if this block is created from trimmed data.
	Trimmed bool
}

// trimmed is the storage form of the block.
type trimmed struct {
	Header   Header
	TxHashes []common.Hash
}

// New creates a new block on top of the given parent header.
func New(prev *Header, timestamp uint64, txs []*types.Transaction) *Block {
	b := &Block{
		Header: Header{
			Timestamp: timestamp,
		},
		Transactions: txs,
	}
	if prev != nil {
		b.Index = prev.Index + 1
		b.PrevHash = prev.Hash()
	}
	b.RebuildTxRoot()
	return b
}

// Hashes returns the hashes of block transactions.
func (b *Block) Hashes() []common.Hash {
	if b.Trimmed {
		return b.TxHashes
	}
	hashes := make([]common.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// computeTxRoot hashes the concatenation of block transaction hashes.
func computeTxRoot(hashes []common.Hash) common.Hash {
	if len(hashes) == 0 {
		return types.EmptyTxsHash
	}
	data := make([]byte, 0, len(hashes)*common.HashLength)
	for _, h := range hashes {
		data = append(data, h.Bytes()...)
	}
	return crypto.Keccak256Hash(data)
}

// RebuildTxRoot rebuilds the transaction root of the block.
func (b *Block) RebuildTxRoot() {
	b.TxRoot = computeTxRoot(b.Hashes())
}

// Verify verifies the integrity of the block.
func (b *Block) Verify() error {
	hashes := b.Hashes()
	seen := make(map[common.Hash]bool, len(hashes))
	for _, h := range hashes {
		if seen[h] {
			return errors.New("transaction duplication is not allowed")
		}
		seen[h] = true
	}
	if computeTxRoot(hashes) != b.TxRoot {
		return errors.New("TxRoot mismatch")
	}
	return nil
}

// Trim returns a subset of the block data to save up space
// in storage. Only the hashes of the transactions are stored.
func (b *Block) Trim() ([]byte, error) {
	return rlp.EncodeToBytes(&trimmed{
		Header:   b.Header,
		TxHashes: b.Hashes(),
	})
}

// NewBlockFromTrimmedBytes returns a new block from trimmed data.
func NewBlockFromTrimmedBytes(data []byte) (*Block, error) {
	var t trimmed
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, err
	}
	return &Block{
		Header:   t.Header,
		TxHashes: t.TxHashes,
		Trimmed:  true,
	}, nil
}
