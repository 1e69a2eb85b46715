package neotest

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

// ContractInvoker is a client for a specific contract.
type ContractInvoker struct {
	*Executor
	Address common.Address
	ABI     *abi.ABI
	Signer  Signer
}

// NewInvoker creates a new ContractInvoker for the contract at the address
// with the given ABI and signer.
func (e *Executor) NewInvoker(addr common.Address, a *abi.ABI, signer Signer) *ContractInvoker {
	return &ContractInvoker{
		Executor: e,
		Address:  addr,
		ABI:      a,
		Signer:   signer,
	}
}

// NewContractInvoker creates a new ContractInvoker for the contract of the
// named implementation at the address, the funder is used as the signer.
func (e *Executor) NewContractInvoker(t testing.TB, name string, addr common.Address) *ContractInvoker {
	return e.NewInvoker(addr, e.ContractABI(t, name), e.Funder())
}

// WithSigners creates a new client with the provided signer.
func (c *ContractInvoker) WithSigners(signer Signer) *ContractInvoker {
	newC := *c
	newC.Signer = signer
	return &newC
}

// pack returns calldata for the method.
func (c *ContractInvoker) pack(t testing.TB, method string, args ...any) []byte {
	data, err := c.ABI.Pack(method, args...)
	require.NoError(t, err)
	return data
}

// PrepareInvoke creates a new invocation transaction.
func (c *ContractInvoker) PrepareInvoke(t testing.TB, method string, args ...any) *types.Transaction {
	return c.PrepareInvokeWithValue(t, nil, method, args...)
}

// PrepareInvokeWithValue creates a new invocation transaction sending value
// wei to the contract.
func (c *ContractInvoker) PrepareInvokeWithValue(t testing.TB, value *big.Int, method string, args ...any) *types.Transaction {
	return c.NewTx(t, c.Signer, &c.Address, value, c.pack(t, method, args...))
}

// Invoke invokes the method with the args, persists the transaction and
// checks the result using the provided expected value (unless it's nil).
// It returns the transaction hash.
func (c *ContractInvoker) Invoke(t testing.TB, result any, method string, args ...any) common.Hash {
	return c.InvokeWithValue(t, result, nil, method, args...)
}

// InvokeWithValue is the same as Invoke, but value wei are sent along.
func (c *ContractInvoker) InvokeWithValue(t testing.TB, result any, value *big.Int, method string, args ...any) common.Hash {
	tx := c.PrepareInvokeWithValue(t, value, method, args...)
	c.AddNewBlock(t, tx)
	aer := c.CheckHalt(t, tx.Hash())
	if result != nil {
		out := c.unpack(t, method, aer.ReturnData)
		require.NotEmpty(t, out, "%s has no results", method)
		require.True(t, equalValues(result, out[0]), "expected %v, got %v", result, out[0])
	}
	return tx.Hash()
}

// InvokeAndCheck invokes the method with the args, persists the transaction
// and checks the result using the provided function. It returns the
// transaction hash.
func (c *ContractInvoker) InvokeAndCheck(t testing.TB, checkResult func(t testing.TB, out []any), method string, args ...any) common.Hash {
	tx := c.PrepareInvoke(t, method, args...)
	c.AddNewBlock(t, tx)
	aer := c.CheckHalt(t, tx.Hash())
	if checkResult != nil {
		checkResult(t, c.unpack(t, method, aer.ReturnData))
	}
	return tx.Hash()
}

// InvokeFail invokes the method with the args, persists the transaction and
// checks the error message. It returns the transaction hash.
func (c *ContractInvoker) InvokeFail(t testing.TB, message string, method string, args ...any) common.Hash {
	return c.InvokeWithValueFail(t, message, nil, method, args...)
}

// InvokeWithValueFail is the same as InvokeFail, but value wei are sent
// along.
func (c *ContractInvoker) InvokeWithValueFail(t testing.TB, message string, value *big.Int, method string, args ...any) common.Hash {
	tx := c.PrepareInvokeWithValue(t, value, method, args...)
	c.AddNewBlock(t, tx)
	c.CheckFault(t, tx.Hash(), message)
	return tx.Hash()
}

// SendRaw persists the transaction sending value wei with raw calldata to
// the contract and returns its execution result.
func (c *ContractInvoker) SendRaw(t testing.TB, value *big.Int, data []byte) *state.AppExecResult {
	tx := c.NewTx(t, c.Signer, &c.Address, value, data)
	c.AddNewBlock(t, tx)
	return c.GetTxExecResult(t, tx.Hash())
}

// Call performs a read-only invocation of the method and returns unpacked
// results, HALT state is required.
func (c *ContractInvoker) Call(t testing.TB, method string, args ...any) []any {
	res := c.Chain.Call(c.Signer.Address(), &c.Address, nil, c.pack(t, method, args...))
	require.Equal(t, vmstate.Halt, res.VMState, res.FaultException)
	return c.unpack(t, method, res.ReturnData)
}

// CallOne performs a read-only invocation of the method expecting a single
// result.
func (c *ContractInvoker) CallOne(t testing.TB, method string, args ...any) any {
	out := c.Call(t, method, args...)
	require.Len(t, out, 1)
	return out[0]
}

// CallFail performs a read-only invocation of the method and checks that it
// faults with the message.
func (c *ContractInvoker) CallFail(t testing.TB, message string, method string, args ...any) {
	res := c.Chain.Call(c.Signer.Address(), &c.Address, nil, c.pack(t, method, args...))
	require.Equal(t, vmstate.Fault, res.VMState)
	require.True(t, strings.Contains(res.FaultException, message),
		"expected: %s, got: %s", message, res.FaultException)
}

func (c *ContractInvoker) unpack(t testing.TB, method string, data []byte) []any {
	out, err := c.ABI.Unpack(method, data)
	require.NoError(t, err)
	return out
}
