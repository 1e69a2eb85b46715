/*
Package actor provides a way to change chain state via RPC client.

This layer builds on top of the basic RPC client and [invoker] package, it
simplifies creating, signing and sending transactions to the network (since
that's the only way chain state is changed). It's generic enough to be used
for any contract that you may want to invoke and contract-specific functions
can build on top of it.
*/
package actor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/neorpc"
	"github.com/fracnft/fracnft/pkg/rpcclient/invoker"
	"github.com/fracnft/fracnft/pkg/rpcclient/waiter"
	"github.com/fracnft/fracnft/pkg/wallet"
)

// RPCActor is an interface required from the RPC client to successfully
// create and send transactions.
type RPCActor interface {
	invoker.RPCInvoke

	ChainID() (uint64, error)
	GasPrice() (*big.Int, error)
	EstimateGas(args neorpc.TransactionArgs) (uint64, error)
	GetTransactionCount(addr common.Address, pending bool) (uint64, error)
	SendRawTransaction(tx *types.Transaction) (common.Hash, error)
}

// Actor keeps a connection to the RPC endpoint and allows to perform
// state-changing actions (via transactions that can also be created without
// sending them to the network) on behalf of a single account. It also
// provides an Invoker interface to perform test calls from the same account.
//
// Actor-specific APIs follow the naming scheme set by Invoker in method
// suffixes. *Call methods operate with ABI-packed function calls and require
// a contract address, its ABI, a method and parameters if any. *Run methods
// operate with the prepared call data. Prefixes denote the action to be
// performed, "Make" prefix is used for methods that create signed
// transactions, while "Send" prefix is used by methods that directly transmit
// created transactions to the RPC server.
//
// Gas limit is estimated by the node for every transaction unless it's set
// in Options, the estimation fails for the transactions that would be
// reverted, so they're never sent. Unchecked methods skip it.
//
// Actor also provides a Waiter interface to wait until transaction will be
// accepted to the chain. If RPCActor implements waiter.RPCPollingBased, the
// awaiting is done with periodical polls, otherwise it's not supported and
// waiter.ErrAwaitingNotSupported is returned.
//
// Nonces are taken from the pending state of the node, so transactions made
// with Make* methods should be sent in the same order they were created and
// before the next one is made.
type Actor struct {
	invoker.Invoker
	waiter.Waiter

	client  RPCActor
	opts    Options
	account *wallet.Account
	chainID uint64
	signer  types.Signer
}

// Options are used to create Actor with non-standard transaction parameters.
type Options struct {
	// GasLimit is set into every transaction if it's not zero, the limit is
	// estimated otherwise.
	GasLimit uint64
	// Waiter configures transaction awaiting.
	Waiter waiter.PollConfig
}

// New creates an Actor instance using the specified RPC interface and the
// account to sign transactions with. Upon Actor instance creation a ChainID
// call is made and the result of it is cached forever.
func New(ra RPCActor, acc *wallet.Account) (*Actor, error) {
	return NewTuned(ra, acc, Options{})
}

// NewTuned creates an Actor with the given options.
func NewTuned(ra RPCActor, acc *wallet.Account, opts Options) (*Actor, error) {
	if acc == nil {
		return nil, errors.New("sender account is required")
	}
	if acc.PrivateKey() == nil {
		return nil, fmt.Errorf("account %s is locked", acc.Address)
	}
	chainID, err := ra.ChainID()
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	from := acc.Address
	return &Actor{
		Invoker: *invoker.New(ra, &from),
		Waiter:  waiter.New(ra, opts.Waiter),
		client:  ra,
		opts:    opts,
		account: acc,
		chainID: chainID,
		signer:  types.NewEIP155Signer(new(big.Int).SetUint64(chainID)),
	}, nil
}

// Sender returns the address transactions are sent from.
func (a *Actor) Sender() common.Address {
	return a.account.Address
}

// GetChainID returns the chain ID transactions are signed for.
func (a *Actor) GetChainID() uint64 {
	return a.chainID
}

// GetRPCActor returns the RPC interface used by the Actor.
func (a *Actor) GetRPCActor() RPCActor {
	return a.client
}

// MakeCall creates a signed transaction calling the contract method with the
// given parameters, value is the amount of wei transferred with the call.
func (a *Actor) MakeCall(contract common.Address, cABI *abi.ABI, value *big.Int, method string, params ...any) (*types.Transaction, error) {
	data, err := cABI.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	return a.MakeRun(&contract, value, data)
}

// MakeRun creates a signed transaction with the given call data. A nil
// recipient makes a deployment transaction.
func (a *Actor) MakeRun(to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	gas := a.opts.GasLimit
	if gas == 0 {
		var err error
		gas, err = a.client.EstimateGas(a.callArgs(to, value, data))
		if err != nil {
			return nil, fmt.Errorf("test invocation failed: %w", err)
		}
	}
	return a.MakeUncheckedRun(to, value, data, gas)
}

// MakeUncheckedRun creates a signed transaction with the given call data and
// gas limit without test invocation. It's useful for the transactions that
// are expected to fail.
func (a *Actor) MakeUncheckedRun(to *common.Address, value *big.Int, data []byte, gas uint64) (*types.Transaction, error) {
	nonce, err := a.client.GetTransactionCount(a.account.Address, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	price, err := a.client.GasPrice()
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price,
		Gas:      gas,
		To:       to,
		Value:    value,
		Data:     data,
	})
	return a.account.SignTx(a.signer, tx)
}

// SendCall creates a transaction calling the contract method and sends it to
// the network.
func (a *Actor) SendCall(contract common.Address, cABI *abi.ABI, value *big.Int, method string, params ...any) (common.Hash, error) {
	tx, err := a.MakeCall(contract, cABI, value, method, params...)
	if err != nil {
		return common.Hash{}, err
	}
	return a.Send(tx)
}

// SendRun creates a transaction with the given call data and sends it to the
// network.
func (a *Actor) SendRun(to *common.Address, value *big.Int, data []byte) (common.Hash, error) {
	tx, err := a.MakeRun(to, value, data)
	if err != nil {
		return common.Hash{}, err
	}
	return a.Send(tx)
}

// SendUncheckedRun creates a transaction without test invocation and sends
// it to the network.
func (a *Actor) SendUncheckedRun(to *common.Address, value *big.Int, data []byte, gas uint64) (common.Hash, error) {
	tx, err := a.MakeUncheckedRun(to, value, data, gas)
	if err != nil {
		return common.Hash{}, err
	}
	return a.Send(tx)
}

// Send allows to send arbitrary prepared transaction to the network. It
// returns transaction hash.
func (a *Actor) Send(tx *types.Transaction) (common.Hash, error) {
	h, err := a.client.SendRawTransaction(tx)
	if err == nil && h != tx.Hash() {
		return h, errors.New("sent and actual tx hashes mismatch")
	}
	return h, err
}

func (a *Actor) callArgs(to *common.Address, value *big.Int, data []byte) neorpc.TransactionArgs {
	var (
		from  = a.account.Address
		input = hexutil.Bytes(data)
	)
	args := neorpc.TransactionArgs{
		From: &from,
		To:   to,
		Data: &input,
	}
	if value != nil {
		args.Value = (*hexutil.Big)(value)
	}
	return args
}
