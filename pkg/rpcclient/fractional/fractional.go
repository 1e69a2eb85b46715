/*
Package fractional contains RPC wrappers for the FractionalizeNFT contract.

The contract locks an ERC-721 token and issues a new ERC-20 token for it.
Fraction holders need to approve the fractionalizer to burn their tokens
before redeeming the NFT or claiming a share of its buyout price.
*/
package fractional

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

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract common.Address, a *abi.ABI, method string, params ...any) ([]any, error)
}

// Actor is used by Contract to create and send transactions.
type Actor interface {
	Invoker

	MakeCall(contract common.Address, a *abi.ABI, value *big.Int, method string, params ...any) (*types.Transaction, error)
	MakeRun(to *common.Address, value *big.Int, data []byte) (*types.Transaction, error)
	SendCall(contract common.Address, a *abi.ABI, value *big.Int, method string, params ...any) (common.Hash, error)
	SendRun(to *common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// ContractReader represents safe (read-only) methods of the fractionalizer.
type ContractReader struct {
	invoker Invoker
	hash    common.Address
}

// ContractWriter contains state-changing methods of the fractionalizer.
type ContractWriter struct {
	hash  common.Address
	actor Actor
}

// Contract provides full fractionalizer interface.
type Contract struct {
	ContractReader
	ContractWriter
}

// FractionalizedEvent represents a Fractionalized event.
type FractionalizedEvent struct {
	FracNFTID     *big.Int
	OriginalOwner common.Address
	ERC20Address  common.Address
	ERC721Address common.Address
	NFTTokenID    *big.Int
	ERC20Supply   *big.Int
	BuyoutPrice   *big.Int
}

var contractABI = native.ABI(nativenames.FractionalizeNFT)

// ABI returns the contract interface.
func ABI() *abi.ABI {
	a := contractABI
	return &a
}

// NewReader creates an instance of ContractReader for the fractionalizer
// with the given address.
func NewReader(invoker Invoker, hash common.Address) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract for the fractionalizer with the given
// address using the given actor.
func New(actor Actor, hash common.Address) *Contract {
	return &Contract{*NewReader(actor, hash), ContractWriter{hash, actor}}
}

// Deploy sends a transaction deploying a new fractionalizer.
func Deploy(actor Actor) (common.Hash, error) {
	data, err := native.NewContracts().ByName(nativenames.FractionalizeNFT).Metadata().DeployData()
	if err != nil {
		return common.Hash{}, err
	}
	return actor.SendRun(nil, nil, data)
}

// Hash returns the fractionalizer address.
func (c *ContractReader) Hash() common.Address {
	return c.hash
}

// GetFracNftCount returns the number of listings ever created, their IDs
// are sequential starting from zero.
func (c *ContractReader) GetFracNftCount() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, &contractABI, "getFracNftCount"))
}

// FracNFT returns the listing with the given ID.
func (c *ContractReader) FracNFT(id *big.Int) (*native.FracNFT, error) {
	res, err := c.invoker.Call(c.hash, &contractABI, "fracNFTs", id)
	if err != nil {
		return nil, err
	}
	return listingFromValues(res)
}

// FracNFTs returns all listings of the fractionalizer.
func (c *ContractReader) FracNFTs() ([]*native.FracNFT, error) {
	count, err := c.GetFracNftCount()
	if err != nil {
		return nil, err
	}
	if !count.IsInt64() {
		return nil, fmt.Errorf("too many listings: %s", count)
	}
	res := make([]*native.FracNFT, 0, count.Int64())
	for i := int64(0); i < count.Int64(); i++ {
		l, err := c.FracNFT(big.NewInt(i))
		if err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		res = append(res, l)
	}
	return res, nil
}

func listingFromValues(v []any) (*native.FracNFT, error) {
	if len(v) != 10 {
		return nil, fmt.Errorf("wrong number of listing fields: %d", len(v))
	}
	var (
		l  = new(native.FracNFT)
		ok = true
		t  bool
		st uint8
	)
	l.FracNFTID, t = v[0].(*big.Int)
	ok = ok && t
	l.OriginalOwner, t = v[1].(common.Address)
	ok = ok && t
	l.NFTTokenID, t = v[2].(*big.Int)
	ok = ok && t
	l.ERC721Address, t = v[3].(common.Address)
	ok = ok && t
	l.ERC20Address, t = v[4].(common.Address)
	ok = ok && t
	l.ERC20Name, t = v[5].(string)
	ok = ok && t
	l.ERC20Symbol, t = v[6].(string)
	ok = ok && t
	l.ERC20Supply, t = v[7].(*big.Int)
	ok = ok && t
	l.BuyoutPrice, t = v[8].(*big.Int)
	ok = ok && t
	st, t = v[9].(uint8)
	ok = ok && t
	if !ok {
		return nil, fmt.Errorf("unexpected listing field types")
	}
	l.State = native.ListingState(st)
	return l, nil
}

// Fractionalize creates and sends a transaction locking the NFT and issuing
// supply fraction tokens to the sender. The fractionalizer must be approved
// to transfer the NFT beforehand. Nil or zero buyoutPrice disables buyouts.
func (c *ContractWriter) Fractionalize(nft common.Address, tokenID *big.Int, name, symbol string, supply, buyoutPrice *big.Int) (common.Hash, error) {
	method, params := fractionalizeParams(nft, tokenID, name, symbol, supply, buyoutPrice)
	return c.actor.SendCall(c.hash, &contractABI, nil, method, params...)
}

// FractionalizeTransaction creates a signed fractionalization transaction.
func (c *ContractWriter) FractionalizeTransaction(nft common.Address, tokenID *big.Int, name, symbol string, supply, buyoutPrice *big.Int) (*types.Transaction, error) {
	method, params := fractionalizeParams(nft, tokenID, name, symbol, supply, buyoutPrice)
	return c.actor.MakeCall(c.hash, &contractABI, nil, method, params...)
}

func fractionalizeParams(nft common.Address, tokenID *big.Int, name, symbol string, supply, buyoutPrice *big.Int) (string, []any) {
	if buyoutPrice == nil || buyoutPrice.Sign() == 0 {
		return "fractionalizeNft", []any{nft, tokenID, name, symbol, supply}
	}
	return "fractionalizeNft0", []any{nft, tokenID, name, symbol, supply, buyoutPrice}
}

// Buyout creates and sends a transaction buying the locked NFT out, price
// must be exactly the listing buyout price.
func (c *ContractWriter) Buyout(id *big.Int, price *big.Int) (common.Hash, error) {
	return c.actor.SendCall(c.hash, &contractABI, price, "buyout", id)
}

// BuyoutTransaction creates a signed buyout transaction.
func (c *ContractWriter) BuyoutTransaction(id *big.Int, price *big.Int) (*types.Transaction, error) {
	return c.actor.MakeCall(c.hash, &contractABI, price, "buyout", id)
}

// Redeem creates and sends a transaction burning the whole fraction supply
// held by the sender and returning the NFT to it.
func (c *ContractWriter) Redeem(id *big.Int) (common.Hash, error) {
	return c.actor.SendCall(c.hash, &contractABI, nil, "redeem", id)
}

// RedeemTransaction creates a signed redemption transaction.
func (c *ContractWriter) RedeemTransaction(id *big.Int) (*types.Transaction, error) {
	return c.actor.MakeCall(c.hash, &contractABI, nil, "redeem", id)
}

// Claim creates and sends a transaction burning fractions of the sender in
// exchange for the proportional share of the buyout price.
func (c *ContractWriter) Claim(id *big.Int) (common.Hash, error) {
	return c.actor.SendCall(c.hash, &contractABI, nil, "claim", id)
}

// ClaimTransaction creates a signed claim transaction.
func (c *ContractWriter) ClaimTransaction(id *big.Int) (*types.Transaction, error) {
	return c.actor.MakeCall(c.hash, &contractABI, nil, "claim", id)
}

// FractionalizedEventsFromLogs returns all Fractionalized events emitted by
// the fractionalizer with the given address in the logs.
func FractionalizedEventsFromLogs(hash common.Address, logs []*types.Log) ([]*FractionalizedEvent, error) {
	var (
		res []*FractionalizedEvent
		ev  = contractABI.Events["Fractionalized"]
	)
	for i, l := range logs {
		if l.Address != hash || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		if len(l.Topics) != 4 {
			return nil, fmt.Errorf("log %d: wrong number of Fractionalized topics: %d", i, len(l.Topics))
		}
		vals, err := ev.Inputs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		if len(vals) != 4 {
			return nil, fmt.Errorf("log %d: wrong number of Fractionalized values: %d", i, len(vals))
		}
		e := &FractionalizedEvent{
			FracNFTID:     new(big.Int).SetBytes(l.Topics[1].Bytes()),
			OriginalOwner: common.BytesToAddress(l.Topics[2].Bytes()),
			ERC20Address:  common.BytesToAddress(l.Topics[3].Bytes()),
		}
		var a, b, c, d bool
		e.ERC721Address, a = vals[0].(common.Address)
		e.NFTTokenID, b = vals[1].(*big.Int)
		e.ERC20Supply, c = vals[2].(*big.Int)
		e.BuyoutPrice, d = vals[3].(*big.Int)
		if !a || !b || !c || !d {
			return nil, fmt.Errorf("log %d: unexpected Fractionalized value types", i)
		}
		res = append(res, e)
	}
	return res, nil
}
