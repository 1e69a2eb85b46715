package interop

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/dao"
	"github.com/fracnft/fracnft/pkg/core/state"
	"go.uber.org/zap"
)

// MaxCallDepth is the maximum number of nested contract calls.
const MaxCallDepth = 64

// Frame is a single contract invocation frame.
type Frame struct {
	// Self is the address of the executing contract.
	Self common.Address
	// Caller is the immediate caller (msg.sender).
	Caller common.Address
	// Value is the amount of wei passed with the call (msg.value).
	Value *big.Int
	// Contract is the state of the executing contract.
	Contract *state.Contract
}

// Context represents context in which contracts are executed.
type Context struct {
	Block     *block.Header
	Tx        *types.Transaction
	Origin    common.Address
	DAO       *dao.Simple
	Contracts Registry
	Logs      []*types.Log
	Log       *zap.Logger

	frames []*Frame
}

// NewContext returns new interop context.
func NewContext(d *dao.Simple, contracts Registry, b *block.Header, tx *types.Transaction, origin common.Address, log *zap.Logger) *Context {
	return &Context{
		Block:     b,
		Tx:        tx,
		Origin:    origin,
		DAO:       d,
		Contracts: contracts,
		Logs:      make([]*types.Log, 0),
		Log:       log,
	}
}

// FaultError is returned from Execute when the invocation is reverted.
type FaultError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return e.Message
}

// Unwrap returns the error the contract panicked with, if any.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// ErrNoCode is returned when a deployment payload does not reference a known
// contract.
var ErrNoCode = errors.New("no such contract implementation")

// Frame returns the current invocation frame.
func (ic *Context) Frame() *Frame {
	if len(ic.frames) == 0 {
		panic("no active invocation frame")
	}
	return ic.frames[len(ic.frames)-1]
}

// Self returns the address of the executing contract.
func (ic *Context) Self() common.Address {
	return ic.Frame().Self
}

// Caller returns the immediate caller of the executing contract.
func (ic *Context) Caller() common.Address {
	return ic.Frame().Caller
}

// Value returns the amount of wei passed to the executing contract.
func (ic *Context) Value() *big.Int {
	return new(big.Int).Set(ic.Frame().Value)
}

// Depth returns the current call depth.
func (ic *Context) Depth() int {
	return len(ic.frames)
}

// Execute performs the top-level invocation made by the origin account.
// A nil to means a contract deployment from data with the given sender
// nonce. All the state changes are made to ic.DAO; the caller must discard
// them when a FaultError is returned.
func (ic *Context) Execute(to *common.Address, value *big.Int, data []byte, nonce uint64) (ret []byte, created *common.Address, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, created = nil, nil
			fe := &FaultError{Message: panicMessage(r)}
			fe.Err, _ = r.(error)
			err = fe
		}
	}()
	if value == nil {
		value = new(big.Int)
	}
	if to == nil {
		name, args, perr := ParseDeployData(data)
		if perr != nil {
			panic(perr)
		}
		addr := crypto.CreateAddress(ic.Origin, nonce)
		ic.create(ic.Origin, addr, name, value, args)
		return nil, &addr, nil
	}
	return ic.call(ic.Origin, *to, value, data), nil, nil
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsContract checks whether there is a contract deployed at the address.
func (ic *Context) IsContract(addr common.Address) bool {
	_, err := ic.DAO.GetContractState(addr)
	return err == nil
}

// BalanceOf returns the wei balance of the address.
func (ic *Context) BalanceOf(addr common.Address) *big.Int {
	acc, err := ic.DAO.GetAccountStateOrNew(addr)
	if err != nil {
		panic(err)
	}
	return acc.Balance
}

// Transfer moves wei between accounts, it reverts if the sender's balance
// is insufficient.
func (ic *Context) Transfer(from, to common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if amount.Sign() < 0 {
		panic("negative transfer amount")
	}
	src, err := ic.DAO.GetAccountStateOrNew(from)
	if err != nil {
		panic(err)
	}
	if src.Balance.Cmp(amount) < 0 {
		panic(fmt.Sprintf("insufficient balance: %s < %s", src.Balance, amount))
	}
	src.Balance.Sub(src.Balance, amount)
	if err := ic.DAO.PutAccountState(from, src); err != nil {
		panic(err)
	}
	dst, err := ic.DAO.GetAccountStateOrNew(to)
	if err != nil {
		panic(err)
	}
	dst.Balance.Add(dst.Balance, amount)
	if err := ic.DAO.PutAccountState(to, dst); err != nil {
		panic(err)
	}
}

// Call calls the contract at the given address from the executing contract
// passing value wei along. Reverts of the callee propagate to the caller.
// Calls to accounts without code only transfer the value.
func (ic *Context) Call(to common.Address, value *big.Int, data []byte) []byte {
	if value == nil {
		value = new(big.Int)
	}
	return ic.call(ic.Self(), to, value, data)
}

func (ic *Context) call(from, to common.Address, value *big.Int, data []byte) []byte {
	if len(ic.frames) >= MaxCallDepth {
		panic("max call depth exceeded")
	}
	ic.Transfer(from, to, value)

	cs, err := ic.DAO.GetContractState(to)
	if err != nil {
		return nil
	}
	ctr := ic.Contracts.ByName(cs.Name)
	if ctr == nil {
		panic(fmt.Errorf("%w: %s", ErrNoCode, cs.Name))
	}
	md := ctr.Metadata()

	ic.frames = append(ic.frames, &Frame{Self: to, Caller: from, Value: value, Contract: cs})
	defer func() { ic.frames = ic.frames[:len(ic.frames)-1] }()

	if len(data) == 0 {
		switch {
		case md.Receive != nil:
			md.Receive(ic, nil)
			return nil
		case md.Fallback != nil:
			return ic.fallback(md, data)
		default:
			panic("contract has neither receive nor fallback function")
		}
	}

	m, ok := md.GetMethod(data)
	if !ok {
		if md.Fallback != nil {
			return ic.fallback(md, data)
		}
		panic(fmt.Sprintf("method 0x%x not found", data[:min(4, len(data))]))
	}
	if value.Sign() > 0 && !m.MD.IsPayable() {
		panic(fmt.Sprintf("method %s is not payable", m.MD.RawName))
	}
	args, err := m.MD.Inputs.Unpack(data[4:])
	if err != nil {
		panic(fmt.Sprintf("invalid %s arguments: %v", m.MD.RawName, err))
	}
	res := m.Func(ic, args)
	out, err := m.MD.Outputs.Pack(res...)
	if err != nil {
		panic(fmt.Sprintf("failed to pack %s result: %v", m.MD.RawName, err))
	}
	return out
}

func (ic *Context) fallback(md *ContractMD, data []byte) []byte {
	if ic.Frame().Value.Sign() > 0 && !md.ABI.Fallback.IsPayable() {
		panic("fallback function is not payable")
	}
	md.Fallback(ic, []any{data})
	return nil
}

// Create deploys a new instance of the named contract from the executing
// contract and returns its address.
func (ic *Context) Create(name string, value *big.Int, args ...any) common.Address {
	ctr := ic.Contracts.ByName(name)
	if ctr == nil {
		panic(fmt.Errorf("%w: %s", ErrNoCode, name))
	}
	packed, err := ctr.Metadata().ABI.Pack("", args...)
	if err != nil {
		panic(err)
	}
	creator := ic.Frame().Contract
	addr := crypto.CreateAddress(creator.Address, creator.Nonce)
	creator.Nonce++
	if err := ic.DAO.PutContractState(creator); err != nil {
		panic(err)
	}
	if value == nil {
		value = new(big.Int)
	}
	ic.create(creator.Address, addr, name, value, packed)
	return addr
}

func (ic *Context) create(from, addr common.Address, name string, value *big.Int, args []byte) {
	ctr := ic.Contracts.ByName(name)
	if ctr == nil {
		panic(fmt.Errorf("%w: %s", ErrNoCode, name))
	}
	if ic.IsContract(addr) {
		panic(fmt.Sprintf("contract already exists at %s", addr))
	}
	md := ctr.Metadata()
	if value.Sign() > 0 && !md.ABI.Constructor.IsPayable() {
		panic("constructor is not payable")
	}
	cs := &state.Contract{
		Address:  addr,
		Name:     name,
		Deployer: from,
		Nonce:    1,
	}
	if ic.Block != nil {
		cs.Block = ic.Block.Index
	}
	if ic.Tx != nil {
		cs.TxHash = ic.Tx.Hash()
	}
	if err := ic.DAO.PutContractState(cs); err != nil {
		panic(err)
	}
	ic.Transfer(from, addr, value)

	ctorArgs, err := md.ABI.Constructor.Inputs.Unpack(args)
	if err != nil {
		panic(fmt.Sprintf("invalid constructor arguments: %v", err))
	}
	if md.Constructor == nil {
		return
	}
	if len(ic.frames) >= MaxCallDepth {
		panic("max call depth exceeded")
	}
	ic.frames = append(ic.frames, &Frame{Self: addr, Caller: from, Value: value, Contract: cs})
	defer func() { ic.frames = ic.frames[:len(ic.frames)-1] }()
	md.Constructor(ic, ctorArgs)
}
