package result

import (
	"bytes"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fracnft/fracnft/pkg/core/block"
)

type (
	// Header is the RPC representation of a block header, it's also the
	// payload of newHeads events.
	Header struct {
		Number           hexutil.Uint64 `json:"number"`
		Hash             common.Hash    `json:"hash"`
		ParentHash       common.Hash    `json:"parentHash"`
		Timestamp        hexutil.Uint64 `json:"timestamp"`
		TransactionsRoot common.Hash    `json:"transactionsRoot"`
	}

	// Block is the RPC representation of a block with either transaction
	// hashes or full transactions.
	Block struct {
		Header
		Transactions TxList `json:"transactions"`
	}

	// TxList is a list of transaction hashes or full transactions.
	TxList struct {
		Hashes []common.Hash
		Full   []*Transaction
	}
)

// NewHeader converts the block header into its RPC representation.
func NewHeader(h *block.Header) Header {
	return Header{
		Number:           hexutil.Uint64(h.Index),
		Hash:             h.Hash(),
		ParentHash:       h.PrevHash,
		Timestamp:        hexutil.Uint64(h.Timestamp),
		TransactionsRoot: h.TxRoot,
	}
}

// NewBlock converts the block into its RPC representation. Full
// transactions are included if full is set, their senders are taken from
// the senders list.
func NewBlock(b *block.Block, full bool, senders []common.Address) *Block {
	res := &Block{Header: NewHeader(&b.Header)}
	if !full {
		res.Transactions.Hashes = b.Hashes()
		return res
	}
	res.Transactions.Full = make([]*Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		res.Transactions.Full[i] = NewTransaction(tx, senders[i], res.Hash, b.Index, uint64(i))
	}
	return res
}

// MarshalJSON implements the json.Marshaler interface.
func (l TxList) MarshalJSON() ([]byte, error) {
	if l.Full != nil {
		return json.Marshal(l.Full)
	}
	if l.Hashes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Hashes)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *TxList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*l = TxList{Hashes: []common.Hash{}}
		return nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte("{")) {
		var full []*Transaction
		if err := json.Unmarshal(data, &full); err != nil {
			return err
		}
		*l = TxList{Full: full}
		return nil
	}
	var hashes []common.Hash
	if err := json.Unmarshal(data, &hashes); err != nil {
		return err
	}
	*l = TxList{Hashes: hashes}
	return nil
}
