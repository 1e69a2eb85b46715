/*
Package invoker provides a convenient wrapper to perform test calls via RPC
client.

This layer builds on top of the basic RPC client and simplifies performing
contract calls: it packs parameters according to the contract ABI, executes
the call with eth_call at the current state and unpacks the results. It's
generic enough to be used for any contract, contract-specific packages build
on top of it.
*/
package invoker

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fracnft/fracnft/pkg/neorpc"
)

// RPCInvoke is a set of RPC methods needed to execute things at the current
// blockchain height.
type RPCInvoke interface {
	Call(args neorpc.TransactionArgs) ([]byte, error)
}

// Invoker allows to test-execute things using RPC client. Its API simplifies
// reusing the same sender for a series of invocations and at the same time
// uses regular Go types for call parameters. Invoker does not produce any
// transactions and does not change the state of the chain.
type Invoker struct {
	client RPCInvoke
	from   *common.Address
}

// New creates an Invoker to test-execute things at the current blockchain
// height. Calls are performed on behalf of from if it's not nil.
func New(client RPCInvoke, from *common.Address) *Invoker {
	return &Invoker{client, from}
}

// Sender returns the address calls are made from, it's nil for anonymous
// invokers.
func (v *Invoker) Sender() *common.Address {
	return v.from
}

// Call packs the method call with the given parameters according to the
// contract ABI, executes it and returns unpacked results.
func (v *Invoker) Call(contract common.Address, a *abi.ABI, method string, params ...any) ([]any, error) {
	data, err := a.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	raw, err := v.CallRaw(contract, data)
	if err != nil {
		return nil, err
	}
	res, err := a.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return res, nil
}

// CallRaw executes the call with the prepared call data and returns raw
// result data.
func (v *Invoker) CallRaw(contract common.Address, data []byte) ([]byte, error) {
	input := hexutil.Bytes(data)
	return v.client.Call(neorpc.TransactionArgs{
		From: v.from,
		To:   &contract,
		Data: &input,
	})
}
