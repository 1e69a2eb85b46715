package neotest

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fracnft/fracnft/pkg/core"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/fracnft/fracnft/pkg/wallet"
	"github.com/stretchr/testify/require"
)

// DefaultGas is the gas limit set for every transaction, it's not
// accounted by the chain.
const DefaultGas = 10_000_000

// Executor is a wrapper over chain state.
type Executor struct {
	Chain *core.Blockchain
	// Accounts are the prefunded chain accounts, the first one is used
	// as a funder for new accounts.
	Accounts []Signer

	lock   sync.Mutex
	nonces map[common.Address]uint64
}

// NewExecutor creates a new executor instance from the provided blockchain
// and prefunded accounts.
func NewExecutor(t testing.TB, bc *core.Blockchain, accs ...Signer) *Executor {
	require.NotEmpty(t, accs, "at least one funded account is needed")
	return &Executor{
		Chain:    bc,
		Accounts: accs,
		nonces:   make(map[common.Address]uint64),
	}
}

// Funder returns the account used to fund new accounts.
func (e *Executor) Funder() Signer {
	return e.Accounts[0]
}

// TopBlock returns the block with the highest index.
func (e *Executor) TopBlock(t testing.TB) *block.Block {
	b, err := e.Chain.GetBlock(e.Chain.CurrentBlockHash())
	require.NoError(t, err)
	return b
}

// ContractABI returns the ABI of the contract implementation with the given
// name.
func (e *Executor) ContractABI(t testing.TB, name string) *abi.ABI {
	ctr := e.Chain.Contracts().ByName(name)
	require.NotNil(t, ctr, "unknown contract %s", name)
	return &ctr.Metadata().ABI
}

// nextNonce returns the nonce for the next transaction from the address.
// Transactions are expected to be added to the chain in the order they are
// created.
func (e *Executor) nextNonce(addr common.Address) uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	n := e.Chain.GetNonce(addr)
	if tracked := e.nonces[addr]; tracked > n {
		n = tracked
	}
	e.nonces[addr] = n + 1
	return n
}

// NewUnsignedTx creates a new unsigned transaction sent from the given
// address.
func (e *Executor) NewUnsignedTx(t testing.TB, from common.Address, to *common.Address, value *big.Int, data []byte) *types.Transaction {
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    e.nextNonce(from),
		To:       to,
		Value:    value,
		Gas:      DefaultGas,
		GasPrice: new(big.Int),
		Data:     data,
	})
}

// SignTx signs the transaction using the provided signer.
func (e *Executor) SignTx(t testing.TB, tx *types.Transaction, s Signer) *types.Transaction {
	signed, err := s.SignTx(e.Chain.Signer(), tx)
	require.NoError(t, err)
	return signed
}

// NewTx creates a new signed transaction.
func (e *Executor) NewTx(t testing.TB, s Signer, to *common.Address, value *big.Int, data []byte) *types.Transaction {
	return e.SignTx(t, e.NewUnsignedTx(t, s.Address(), to, value, data), s)
}

// DeployContract deploys the named contract from the sender and checks for
// HALT. It returns the address of the contract.
func (e *Executor) DeployContract(t testing.TB, name string, sender Signer, args ...any) common.Address {
	tx := e.NewDeployTx(t, name, sender, args...)
	e.AddNewBlock(t, tx)
	aer := e.CheckHalt(t, tx.Hash())
	require.NotNil(t, aer.ContractAddress)
	return *aer.ContractAddress
}

// DeployContractCheckFAULT deploys the named contract and checks for FAULT
// with the given message.
func (e *Executor) DeployContractCheckFAULT(t testing.TB, name string, sender Signer, errMessage string, args ...any) {
	tx := e.NewDeployTx(t, name, sender, args...)
	e.AddNewBlock(t, tx)
	e.CheckFault(t, tx.Hash(), errMessage)
}

// NewDeployTx returns a new signed deployment transaction of the named
// contract.
func (e *Executor) NewDeployTx(t testing.TB, name string, sender Signer, args ...any) *types.Transaction {
	ctr := e.Chain.Contracts().ByName(name)
	require.NotNil(t, ctr, "unknown contract %s", name)
	data, err := ctr.Metadata().DeployData(args...)
	require.NoError(t, err)
	return e.NewTx(t, sender, nil, nil, data)
}

// NewAccount returns a new signer holding 100 ether (or the given amount
// of wei) transferred from the funder.
func (e *Executor) NewAccount(t testing.TB, balance ...*big.Int) Signer {
	acc, err := wallet.NewAccount()
	require.NoError(t, err)

	amount := new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))
	if len(balance) != 0 {
		amount = balance[0]
	}
	e.Transfer(t, e.Funder(), acc.Address, amount)
	return NewSingleSigner(acc)
}

// Transfer sends value wei from the signer to the address and checks for
// HALT.
func (e *Executor) Transfer(t testing.TB, from Signer, to common.Address, value *big.Int) common.Hash {
	tx := e.NewTx(t, from, &to, value, nil)
	e.AddNewBlock(t, tx)
	e.CheckHalt(t, tx.Hash())
	return tx.Hash()
}

// Balance returns the wei balance of the address.
func (e *Executor) Balance(addr common.Address) *big.Int {
	return e.Chain.GetBalance(addr)
}

// AddNewBlock creates a new block from the provided transactions and adds
// it on top of the chain.
func (e *Executor) AddNewBlock(t testing.TB, txs ...*types.Transaction) *block.Block {
	top, err := e.Chain.GetHeader(e.Chain.CurrentBlockHash())
	require.NoError(t, err)
	b := block.New(top, top.Timestamp+1, txs)
	require.NoError(t, e.Chain.AddBlock(b))
	return b
}

// AddBlockCheckHalt is a convenient wrapper over AddNewBlock and CheckHalt.
func (e *Executor) AddBlockCheckHalt(t testing.TB, txs ...*types.Transaction) *block.Block {
	b := e.AddNewBlock(t, txs...)
	for _, tx := range txs {
		e.CheckHalt(t, tx.Hash())
	}
	return b
}

// GetTxExecResult returns application execution results for the specified
// transaction.
func (e *Executor) GetTxExecResult(t testing.TB, h common.Hash) *state.AppExecResult {
	aer, err := e.Chain.GetAppExecResult(h)
	require.NoError(t, err)
	return aer
}

// CheckHalt checks that the transaction is persisted with HALT state.
func (e *Executor) CheckHalt(t testing.TB, h common.Hash) *state.AppExecResult {
	aer := e.GetTxExecResult(t, h)
	require.Equal(t, vmstate.Halt, aer.VMState, aer.FaultException)
	return aer
}

// CheckFault checks that the transaction is persisted with FAULT state.
// The raised exception is also checked to contain the specified substring.
func (e *Executor) CheckFault(t testing.TB, h common.Hash, s string) {
	aer := e.GetTxExecResult(t, h)
	require.Equal(t, vmstate.Fault, aer.VMState)
	require.True(t, strings.Contains(aer.FaultException, s),
		"expected: %s, got: %s", s, aer.FaultException)
}

// CheckLog checks that the transaction emitted the event with the given
// arguments (indexed ones included, in the ABI order) from the address.
func (e *Executor) CheckLog(t testing.TB, h common.Hash, addr common.Address, a *abi.ABI, event string, args ...any) {
	aer := e.CheckHalt(t, h)
	ev, ok := a.Events[event]
	require.True(t, ok, "unknown event %s", event)
	for _, l := range aer.Logs {
		if l.Address != addr || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		got, err := unpackLog(ev, l)
		require.NoError(t, err)
		if len(got) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if !equalValues(args[i], got[i]) {
				match = false
				break
			}
		}
		if match {
			return
		}
	}
	require.FailNow(t, fmt.Sprintf("%s event with %v not found in %s", event, args, h))
}

// unpackLog restores event arguments in the ABI order.
func unpackLog(ev abi.Event, l *types.Log) ([]any, error) {
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	topics := make(map[string]any)
	if err := abi.ParseTopicsIntoMap(topics, indexed, l.Topics[1:]); err != nil {
		return nil, err
	}
	data, err := ev.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, err
	}
	res := make([]any, 0, len(ev.Inputs))
	for _, in := range ev.Inputs {
		if in.Indexed {
			res = append(res, topics[in.Name])
			continue
		}
		res = append(res, data[0])
		data = data[1:]
	}
	return res, nil
}

// equalValues compares the expected value with the one decoded from ABI,
// integers can be given as any Go integer type or *big.Int.
func equalValues(expected, actual any) bool {
	if a, ok := toBig(actual); ok {
		exp, ok := toBig(expected)
		return ok && exp.Cmp(a) == 0
	}
	return reflect.DeepEqual(expected, actual)
}

func toBig(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return x, true
	case int:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return big.NewInt(int64(x)), true
	default:
		return nil, false
	}
}
