/*
Package erc20 contains RPC wrappers for the ERC20Factory fungible token
contract, fractions of the locked NFTs are tokens of this kind.
*/
package erc20

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/core/native"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/fracnft/fracnft/pkg/rpcclient/unwrap"
)

// Invoker is used by TokenReader to call various safe methods.
type Invoker interface {
	Call(contract common.Address, a *abi.ABI, method string, params ...any) ([]any, error)
}

// Actor is used by Token to create and send transactions.
type Actor interface {
	Invoker

	MakeCall(contract common.Address, a *abi.ABI, value *big.Int, method string, params ...any) (*types.Transaction, error)
	MakeRun(to *common.Address, value *big.Int, data []byte) (*types.Transaction, error)
	SendCall(contract common.Address, a *abi.ABI, value *big.Int, method string, params ...any) (common.Hash, error)
	SendRun(to *common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// TokenReader represents safe (read-only) methods of the token.
type TokenReader struct {
	invoker Invoker
	hash    common.Address
}

// TokenWriter contains state-changing methods of the token.
type TokenWriter struct {
	hash  common.Address
	actor Actor
}

// Token provides full token interface, both safe and state-changing methods.
type Token struct {
	TokenReader
	TokenWriter
}

// TransferEvent represents a Transfer event, mints have zero From and burns
// have zero To.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

var contractABI = native.ABI(nativenames.ERC20Factory)

// ABI returns the contract interface.
func ABI() *abi.ABI {
	a := contractABI
	return &a
}

// NewReader creates an instance of TokenReader for the token with the given
// address using the given invoker.
func NewReader(invoker Invoker, hash common.Address) *TokenReader {
	return &TokenReader{invoker, hash}
}

// New creates an instance of Token for the token with the given address
// using the given actor.
func New(actor Actor, hash common.Address) *Token {
	return &Token{*NewReader(actor, hash), TokenWriter{hash, actor}}
}

// Deploy sends a transaction deploying a new standalone token with the whole
// supply minted to the recipient.
func Deploy(actor Actor, name, symbol string, supply *big.Int, recipient common.Address) (common.Hash, error) {
	data, err := native.NewContracts().ByName(nativenames.ERC20Factory).Metadata().DeployData(name, symbol, supply, recipient)
	if err != nil {
		return common.Hash{}, err
	}
	return actor.SendRun(nil, nil, data)
}

// Hash returns the token address.
func (t *TokenReader) Hash() common.Address {
	return t.hash
}

// Name returns the token name.
func (t *TokenReader) Name() (string, error) {
	return unwrap.UTF8String(t.invoker.Call(t.hash, &contractABI, "name"))
}

// Symbol returns the token symbol.
func (t *TokenReader) Symbol() (string, error) {
	return unwrap.UTF8String(t.invoker.Call(t.hash, &contractABI, "symbol"))
}

// Decimals returns the number of decimals used by the token.
func (t *TokenReader) Decimals() (int, error) {
	d, err := unwrap.Uint8(t.invoker.Call(t.hash, &contractABI, "decimals"))
	return int(d), err
}

// TotalSupply returns the current token supply, burns decrease it.
func (t *TokenReader) TotalSupply() (*big.Int, error) {
	return unwrap.BigInt(t.invoker.Call(t.hash, &contractABI, "totalSupply"))
}

// BalanceOf returns the token balance of the account.
func (t *TokenReader) BalanceOf(account common.Address) (*big.Int, error) {
	return unwrap.BigInt(t.invoker.Call(t.hash, &contractABI, "balanceOf", account))
}

// Allowance returns the amount the spender can transfer from the owner.
func (t *TokenReader) Allowance(owner, spender common.Address) (*big.Int, error) {
	return unwrap.BigInt(t.invoker.Call(t.hash, &contractABI, "allowance", owner, spender))
}

// Transfer creates and sends a transaction moving tokens of the sender.
func (t *TokenWriter) Transfer(to common.Address, amount *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "transfer", to, amount)
}

// TransferTransaction creates a signed transfer transaction.
func (t *TokenWriter) TransferTransaction(to common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "transfer", to, amount)
}

// Approve creates and sends a transaction setting the spender allowance.
func (t *TokenWriter) Approve(spender common.Address, amount *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "approve", spender, amount)
}

// ApproveTransaction creates a signed approval transaction.
func (t *TokenWriter) ApproveTransaction(spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "approve", spender, amount)
}

// TransferFrom creates and sends a transaction moving tokens of the owner
// within the sender allowance.
func (t *TokenWriter) TransferFrom(from, to common.Address, amount *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "transferFrom", from, to, amount)
}

// TransferFromTransaction creates a signed delegated transfer transaction.
func (t *TokenWriter) TransferFromTransaction(from, to common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "transferFrom", from, to, amount)
}

// Burn creates and sends a transaction destroying tokens of the sender.
func (t *TokenWriter) Burn(amount *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "burn", amount)
}

// BurnFrom creates and sends a transaction destroying tokens of the account
// within the sender allowance.
func (t *TokenWriter) BurnFrom(account common.Address, amount *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "burnFrom", account, amount)
}

// TransferEventsFromLogs returns all Transfer events emitted by the token
// with the given address in the logs.
func TransferEventsFromLogs(hash common.Address, logs []*types.Log) ([]*TransferEvent, error) {
	var (
		res []*TransferEvent
		ev  = contractABI.Events["Transfer"]
	)
	for i, l := range logs {
		if l.Address != hash || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		if len(l.Topics) != 3 {
			return nil, fmt.Errorf("log %d: wrong number of Transfer topics: %d", i, len(l.Topics))
		}
		vals, err := ev.Inputs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		value, err := unwrap.BigInt(vals, nil)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		res = append(res, &TransferEvent{
			From:  common.BytesToAddress(l.Topics[1].Bytes()),
			To:    common.BytesToAddress(l.Topics[2].Bytes()),
			Value: value,
		})
	}
	return res, nil
}
