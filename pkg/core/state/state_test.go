package state

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

func TestAccountSerialization(t *testing.T) {
	acc := &Account{Nonce: 42, Balance: big.NewInt(1_000_000_000_000_000_000)}
	data, err := acc.Bytes()
	require.NoError(t, err)

	actual := new(Account)
	require.NoError(t, actual.DecodeBytes(data))
	require.Equal(t, acc.Nonce, actual.Nonce)
	require.Equal(t, 0, acc.Balance.Cmp(actual.Balance))

	require.Error(t, actual.DecodeBytes([]byte{0x01, 0x02}))
}

func TestNewAccountIsEmpty(t *testing.T) {
	acc := NewAccount()
	require.Zero(t, acc.Nonce)
	require.Zero(t, acc.Balance.Sign())

	data, err := acc.Bytes()
	require.NoError(t, err)
	actual := new(Account)
	require.NoError(t, actual.DecodeBytes(data))
	require.Zero(t, actual.Balance.Sign())
}

func TestContractSerialization(t *testing.T) {
	cs := &Contract{
		Address:  common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"),
		Name:     "TestNFT",
		Deployer: common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"),
		Nonce:    3,
		Block:    7,
		TxHash:   common.HexToHash("0x01"),
	}
	data, err := cs.Bytes()
	require.NoError(t, err)

	actual := new(Contract)
	require.NoError(t, actual.DecodeBytes(data))
	require.Equal(t, cs, actual)
}

func TestAppExecResultJSON(t *testing.T) {
	addr := common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	aer := &AppExecResult{
		Container:  common.HexToHash("0xaa"),
		BlockIndex: 5,
		BlockHash:  common.HexToHash("0xbb"),
		From:       common.HexToAddress("0x01"),
		Execution: Execution{
			VMState:         vmstate.Halt,
			ReturnData:      []byte{1, 2, 3},
			ContractAddress: &addr,
			Logs: []*types.Log{{
				Address:     addr,
				Topics:      []common.Hash{common.HexToHash("0x02")},
				Data:        []byte{4},
				BlockNumber: 5,
				TxHash:      common.HexToHash("0xaa"),
				BlockHash:   common.HexToHash("0xbb"),
			}},
		},
	}
	data, err := json.Marshal(aer)
	require.NoError(t, err)

	actual := new(AppExecResult)
	require.NoError(t, json.Unmarshal(data, actual))
	require.Equal(t, aer, actual)
}

func TestAppExecResultReceipt(t *testing.T) {
	aer := &AppExecResult{
		Container:  common.HexToHash("0xaa"),
		BlockIndex: 2,
		Execution:  Execution{VMState: vmstate.Fault, FaultException: "boom"},
	}
	r := aer.Receipt()
	require.Equal(t, types.ReceiptStatusFailed, r.Status)
	require.Equal(t, aer.Container, r.TxHash)
	require.Equal(t, uint64(2), r.BlockNumber.Uint64())
	require.NotNil(t, r.Logs)

	aer.VMState = vmstate.Halt
	require.Equal(t, types.ReceiptStatusSuccessful, aer.Receipt().Status)
}
