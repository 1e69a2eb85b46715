/*
Package erc721 contains RPC wrappers for the TestNFT ERC-721 contract.

It's split into a read-only TokenReader and a full Token that can also change
the contract state via transactions sent with an actor.
*/
package erc721

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

// TokenReader represents safe (read-only) methods of the NFT contract.
type TokenReader struct {
	invoker Invoker
	hash    common.Address
}

// TokenWriter contains state-changing methods of the NFT contract. Every
// method has a *Transaction counterpart that creates a signed transaction
// without sending it.
type TokenWriter struct {
	hash  common.Address
	actor Actor
}

// Token provides full NFT interface, both safe and state-changing methods.
type Token struct {
	TokenReader
	TokenWriter
}

// TransferEvent represents a Transfer event as defined by ERC-721.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	TokenID *big.Int
}

var contractABI = native.ABI(nativenames.TestNFT)

// ABI returns the contract interface.
func ABI() *abi.ABI {
	a := contractABI
	return &a
}

// NewReader creates an instance of TokenReader for the contract with the
// given address using the given invoker.
func NewReader(invoker Invoker, hash common.Address) *TokenReader {
	return &TokenReader{invoker, hash}
}

// New creates an instance of Token for the contract with the given address
// using the given actor.
func New(actor Actor, hash common.Address) *Token {
	return &Token{*NewReader(actor, hash), TokenWriter{hash, actor}}
}

// DeployTransaction creates a signed transaction deploying a new NFT
// contract, its sender becomes the only account allowed to mint.
func DeployTransaction(actor Actor) (*types.Transaction, error) {
	data, err := native.NewContracts().ByName(nativenames.TestNFT).Metadata().DeployData()
	if err != nil {
		return nil, err
	}
	return actor.MakeRun(nil, nil, data)
}

// Deploy sends a transaction deploying a new NFT contract. The contract
// address is returned in the transaction receipt.
func Deploy(actor Actor) (common.Hash, error) {
	data, err := native.NewContracts().ByName(nativenames.TestNFT).Metadata().DeployData()
	if err != nil {
		return common.Hash{}, err
	}
	return actor.SendRun(nil, nil, data)
}

// Hash returns the contract address.
func (t *TokenReader) Hash() common.Address {
	return t.hash
}

// Name returns the collection name.
func (t *TokenReader) Name() (string, error) {
	return unwrap.UTF8String(t.invoker.Call(t.hash, &contractABI, "name"))
}

// Symbol returns the collection symbol.
func (t *TokenReader) Symbol() (string, error) {
	return unwrap.PrintableASCIIString(t.invoker.Call(t.hash, &contractABI, "symbol"))
}

// TokenURI returns the metadata URI of the token.
func (t *TokenReader) TokenURI(id *big.Int) (string, error) {
	return unwrap.UTF8String(t.invoker.Call(t.hash, &contractABI, "tokenURI", id))
}

// BalanceOf returns the number of tokens owned by the account.
func (t *TokenReader) BalanceOf(owner common.Address) (*big.Int, error) {
	return unwrap.BigInt(t.invoker.Call(t.hash, &contractABI, "balanceOf", owner))
}

// OwnerOf returns the owner of the token.
func (t *TokenReader) OwnerOf(id *big.Int) (common.Address, error) {
	return unwrap.Address(t.invoker.Call(t.hash, &contractABI, "ownerOf", id))
}

// GetApproved returns the account approved to transfer the token, it's zero
// if there is none.
func (t *TokenReader) GetApproved(id *big.Int) (common.Address, error) {
	return unwrap.Address(t.invoker.Call(t.hash, &contractABI, "getApproved", id))
}

// IsApprovedForAll returns true if the operator can transfer all tokens of
// the owner.
func (t *TokenReader) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	return unwrap.Bool(t.invoker.Call(t.hash, &contractABI, "isApprovedForAll", owner, operator))
}

// SupportsInterface checks the ERC-165 interface support.
func (t *TokenReader) SupportsInterface(id [4]byte) (bool, error) {
	return unwrap.Bool(t.invoker.Call(t.hash, &contractABI, "supportsInterface", id))
}

// MintNFT creates a transaction minting a new token with the given metadata
// URI to the recipient and sends it. Only the contract deployer can mint.
func (t *TokenWriter) MintNFT(to common.Address, uri string) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "mintNFT", to, uri)
}

// MintNFTTransaction creates a signed transaction minting a new token.
func (t *TokenWriter) MintNFTTransaction(to common.Address, uri string) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "mintNFT", to, uri)
}

// Approve creates and sends a transaction approving the account to transfer
// the token. Zero address clears the approval.
func (t *TokenWriter) Approve(to common.Address, id *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "approve", to, id)
}

// ApproveTransaction creates a signed approval transaction.
func (t *TokenWriter) ApproveTransaction(to common.Address, id *big.Int) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "approve", to, id)
}

// SetApprovalForAll creates and sends a transaction (dis)allowing the
// operator to transfer all tokens of the sender.
func (t *TokenWriter) SetApprovalForAll(operator common.Address, approved bool) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "setApprovalForAll", operator, approved)
}

// SetApprovalForAllTransaction creates a signed operator approval transaction.
func (t *TokenWriter) SetApprovalForAllTransaction(operator common.Address, approved bool) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "setApprovalForAll", operator, approved)
}

// TransferFrom creates and sends a transaction moving the token without the
// receiver check.
func (t *TokenWriter) TransferFrom(from, to common.Address, id *big.Int) (common.Hash, error) {
	return t.actor.SendCall(t.hash, &contractABI, nil, "transferFrom", from, to, id)
}

// TransferFromTransaction creates a signed unchecked transfer transaction.
func (t *TokenWriter) TransferFromTransaction(from, to common.Address, id *big.Int) (*types.Transaction, error) {
	return t.actor.MakeCall(t.hash, &contractABI, nil, "transferFrom", from, to, id)
}

// SafeTransferFrom creates and sends a transaction moving the token, contract
// receivers must accept it. Data is passed to the receiver if it's not nil.
func (t *TokenWriter) SafeTransferFrom(from, to common.Address, id *big.Int, data []byte) (common.Hash, error) {
	method, params := safeTransferParams(from, to, id, data)
	return t.actor.SendCall(t.hash, &contractABI, nil, method, params...)
}

// SafeTransferFromTransaction creates a signed safe transfer transaction.
func (t *TokenWriter) SafeTransferFromTransaction(from, to common.Address, id *big.Int, data []byte) (*types.Transaction, error) {
	method, params := safeTransferParams(from, to, id, data)
	return t.actor.MakeCall(t.hash, &contractABI, nil, method, params...)
}

func safeTransferParams(from, to common.Address, id *big.Int, data []byte) (string, []any) {
	if data == nil {
		return "safeTransferFrom", []any{from, to, id}
	}
	return "safeTransferFrom0", []any{from, to, id, data}
}

// TransferEventsFromLogs returns all Transfer events emitted by the contract
// with the given address in the logs. Logs of the other contracts and events
// are skipped.
func TransferEventsFromLogs(hash common.Address, logs []*types.Log) ([]*TransferEvent, error) {
	var (
		res []*TransferEvent
		ev  = contractABI.Events["Transfer"]
	)
	for i, l := range logs {
		if l.Address != hash || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		if len(l.Topics) != 4 {
			return nil, fmt.Errorf("log %d: wrong number of Transfer topics: %d", i, len(l.Topics))
		}
		res = append(res, &TransferEvent{
			From:    common.BytesToAddress(l.Topics[1].Bytes()),
			To:      common.BytesToAddress(l.Topics[2].Bytes()),
			TokenID: new(big.Int).SetBytes(l.Topics[3].Bytes()),
		})
	}
	return res, nil
}
