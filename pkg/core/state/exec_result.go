package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
)

// Execution represents the outcome of a contract invocation.
type Execution struct {
	VMState        vmstate.State `json:"vmstate"`
	FaultException string        `json:"exception,omitempty"`
	ReturnData     hexutil.Bytes `json:"returndata"`
	Logs           []*types.Log  `json:"logs"`
	// ContractAddress is set for deployment transactions only.
	ContractAddress *common.Address `json:"contractaddress,omitempty"`
}

// AppExecResult represents the result of a transaction execution together
// with its position in the chain.
type AppExecResult struct {
	Container  common.Hash     `json:"txhash"`
	BlockIndex uint64          `json:"blockindex"`
	BlockHash  common.Hash     `json:"blockhash"`
	TxIndex    uint            `json:"txindex"`
	From       common.Address  `json:"from"`
	To         *common.Address `json:"to,omitempty"`
	Execution
}

// Receipt converts the execution result into an Ethereum receipt.
func (aer *AppExecResult) Receipt() *types.Receipt {
	r := &types.Receipt{
		Type:             types.LegacyTxType,
		Status:           types.ReceiptStatusFailed,
		Logs:             aer.Logs,
		TxHash:           aer.Container,
		BlockHash:        aer.BlockHash,
		BlockNumber:      new(big.Int).SetUint64(aer.BlockIndex),
		TransactionIndex: aer.TxIndex,
	}
	if aer.VMState == vmstate.Halt {
		r.Status = types.ReceiptStatusSuccessful
	}
	if aer.ContractAddress != nil {
		r.ContractAddress = *aer.ContractAddress
	}
	if r.Logs == nil {
		r.Logs = []*types.Log{}
	}
	r.Bloom = types.CreateBloom(types.Receipts{r})
	return r
}
