package result

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transaction is the RPC representation of a transaction included into a
// block.
type Transaction struct {
	BlockHash        common.Hash     `json:"blockHash"`
	BlockNumber      hexutil.Uint64  `json:"blockNumber"`
	TransactionIndex hexutil.Uint64  `json:"transactionIndex"`
	Hash             common.Hash     `json:"hash"`
	From             common.Address  `json:"from"`
	To               *common.Address `json:"to"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	Gas              hexutil.Uint64  `json:"gas"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Value            *hexutil.Big    `json:"value"`
	Input            hexutil.Bytes   `json:"input"`
	ChainID          *hexutil.Big    `json:"chainId,omitempty"`
	V                *hexutil.Big    `json:"v"`
	R                *hexutil.Big    `json:"r"`
	S                *hexutil.Big    `json:"s"`
}

// NewTransaction converts the transaction into its RPC representation.
func NewTransaction(tx *types.Transaction, from common.Address, blockHash common.Hash, blockIndex uint64, index uint64) *Transaction {
	v, r, s := tx.RawSignatureValues()
	res := &Transaction{
		BlockHash:        blockHash,
		BlockNumber:      hexutil.Uint64(blockIndex),
		TransactionIndex: hexutil.Uint64(index),
		Hash:             tx.Hash(),
		From:             from,
		To:               tx.To(),
		Nonce:            hexutil.Uint64(tx.Nonce()),
		Gas:              hexutil.Uint64(tx.Gas()),
		GasPrice:         (*hexutil.Big)(tx.GasPrice()),
		Value:            (*hexutil.Big)(tx.Value()),
		Input:            tx.Data(),
		V:                (*hexutil.Big)(v),
		R:                (*hexutil.Big)(r),
		S:                (*hexutil.Big)(s),
	}
	if tx.Protected() {
		res.ChainID = (*hexutil.Big)(tx.ChainId())
	}
	return res
}
