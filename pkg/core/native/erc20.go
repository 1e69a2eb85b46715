package native

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/pkg/core/interop"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/holiman/uint256"
)

// ERC20 represents the fixed-supply fungible token deployed for every
// fractionalized NFT.
type ERC20 struct {
	interop.ContractMD
}

// Decimals is the number of decimals of every fraction token.
const Decimals = 18

const (
	erc20NameKey        = 0x01
	erc20SymbolKey      = 0x02
	erc20TotalSupplyKey = 0x03
	prefixBalance       = 0x14
	prefixAllowance     = 0x15
)

var _ interop.Contract = (*ERC20)(nil)

func newERC20() *ERC20 {
	e := &ERC20{ContractMD: *interop.NewContractMD(nativenames.ERC20Factory, erc20ABI)}
	e.Constructor = e.initialize
	e.AddMethod("name", e.name)
	e.AddMethod("symbol", e.symbol)
	e.AddMethod("decimals", e.decimals)
	e.AddMethod("totalSupply", e.totalSupply)
	e.AddMethod("balanceOf", e.balanceOf)
	e.AddMethod("transfer", e.transfer)
	e.AddMethod("allowance", e.allowance)
	e.AddMethod("approve", e.approve)
	e.AddMethod("transferFrom", e.transferFrom)
	e.AddMethod("burn", e.burn)
	e.AddMethod("burnFrom", e.burnFrom)
	return e
}

// Metadata implements the interop.Contract interface.
func (e *ERC20) Metadata() *interop.ContractMD {
	return &e.ContractMD
}

func (e *ERC20) initialize(ic *interop.Context, args []any) []any {
	ic.PutString([]byte{erc20NameKey}, toString(args[0]))
	ic.PutString([]byte{erc20SymbolKey}, toString(args[1]))
	e.mint(ic, toAddress(args[3]), toUint256(toBigInt(args[2])))
	return nil
}

func (e *ERC20) name(ic *interop.Context, _ []any) []any {
	return []any{ic.GetString([]byte{erc20NameKey})}
}

func (e *ERC20) symbol(ic *interop.Context, _ []any) []any {
	return []any{ic.GetString([]byte{erc20SymbolKey})}
}

func (e *ERC20) decimals(_ *interop.Context, _ []any) []any {
	return []any{uint8(Decimals)}
}

func (e *ERC20) totalSupply(ic *interop.Context, _ []any) []any {
	return []any{ic.GetUint256([]byte{erc20TotalSupplyKey}).ToBig()}
}

func (e *ERC20) balanceOf(ic *interop.Context, args []any) []any {
	return []any{e.getBalance(ic, toAddress(args[0])).ToBig()}
}

func (e *ERC20) getBalance(ic *interop.Context, acc common.Address) *uint256.Int {
	return ic.GetUint256(makeAddressKey(prefixBalance, acc))
}

func (e *ERC20) transfer(ic *interop.Context, args []any) []any {
	e.move(ic, ic.Caller(), toAddress(args[0]), toUint256(toBigInt(args[1])))
	return []any{true}
}

func makeAllowanceKey(owner, spender common.Address) []byte {
	return makeKey(prefixAllowance, owner.Bytes(), spender.Bytes())
}

func (e *ERC20) allowance(ic *interop.Context, args []any) []any {
	return []any{ic.GetUint256(makeAllowanceKey(toAddress(args[0]), toAddress(args[1]))).ToBig()}
}

func (e *ERC20) approve(ic *interop.Context, args []any) []any {
	e.setAllowance(ic, ic.Caller(), toAddress(args[0]), toUint256(toBigInt(args[1])))
	return []any{true}
}

func (e *ERC20) setAllowance(ic *interop.Context, owner, spender common.Address, amount *uint256.Int) {
	if spender == (common.Address{}) {
		panic("ERC20: approve to the zero address")
	}
	ic.PutUint256(makeAllowanceKey(owner, spender), amount)
	ic.Emit(&e.ContractMD, "Approval", owner, spender, amount.ToBig())
}

// spendAllowance decreases the allowance of the spender, the maximum
// allowance is never decreased.
func (e *ERC20) spendAllowance(ic *interop.Context, owner, spender common.Address, amount *uint256.Int) {
	key := makeAllowanceKey(owner, spender)
	current := ic.GetUint256(key)
	if current.Eq(maxUint256) {
		return
	}
	if current.Lt(amount) {
		panic("ERC20: insufficient allowance")
	}
	e.setAllowance(ic, owner, spender, new(uint256.Int).Sub(current, amount))
}

func (e *ERC20) transferFrom(ic *interop.Context, args []any) []any {
	from := toAddress(args[0])
	amount := toUint256(toBigInt(args[2]))
	e.spendAllowance(ic, from, ic.Caller(), amount)
	e.move(ic, from, toAddress(args[1]), amount)
	return []any{true}
}

func (e *ERC20) burn(ic *interop.Context, args []any) []any {
	e.burnTokens(ic, ic.Caller(), toUint256(toBigInt(args[0])))
	return nil
}

func (e *ERC20) burnFrom(ic *interop.Context, args []any) []any {
	acc := toAddress(args[0])
	amount := toUint256(toBigInt(args[1]))
	e.spendAllowance(ic, acc, ic.Caller(), amount)
	e.burnTokens(ic, acc, amount)
	return nil
}

func (e *ERC20) move(ic *interop.Context, from, to common.Address, amount *uint256.Int) {
	if from == (common.Address{}) {
		panic("ERC20: transfer from the zero address")
	}
	if to == (common.Address{}) {
		panic("ERC20: transfer to the zero address")
	}
	fromBalance := e.getBalance(ic, from)
	if fromBalance.Lt(amount) {
		panic("ERC20: transfer amount exceeds balance")
	}
	ic.PutUint256(makeAddressKey(prefixBalance, from), fromBalance.Sub(fromBalance, amount))
	toBalance := e.getBalance(ic, to)
	if _, overflow := toBalance.AddOverflow(toBalance, amount); overflow {
		panic("ERC20: balance overflow")
	}
	ic.PutUint256(makeAddressKey(prefixBalance, to), toBalance)
	ic.Emit(&e.ContractMD, "Transfer", from, to, amount.ToBig())
}

func (e *ERC20) mint(ic *interop.Context, to common.Address, amount *uint256.Int) {
	if to == (common.Address{}) {
		panic("ERC20: mint to the zero address")
	}
	supply := ic.GetUint256([]byte{erc20TotalSupplyKey})
	if _, overflow := supply.AddOverflow(supply, amount); overflow {
		panic("ERC20: total supply overflow")
	}
	ic.PutUint256([]byte{erc20TotalSupplyKey}, supply)
	balance := e.getBalance(ic, to)
	balance.Add(balance, amount)
	ic.PutUint256(makeAddressKey(prefixBalance, to), balance)
	ic.Emit(&e.ContractMD, "Transfer", common.Address{}, to, amount.ToBig())
}

func (e *ERC20) burnTokens(ic *interop.Context, from common.Address, amount *uint256.Int) {
	if from == (common.Address{}) {
		panic("ERC20: burn from the zero address")
	}
	balance := e.getBalance(ic, from)
	if balance.Lt(amount) {
		panic("ERC20: burn amount exceeds balance")
	}
	ic.PutUint256(makeAddressKey(prefixBalance, from), balance.Sub(balance, amount))
	supply := ic.GetUint256([]byte{erc20TotalSupplyKey})
	ic.PutUint256([]byte{erc20TotalSupplyKey}, supply.Sub(supply, amount))
	ic.Emit(&e.ContractMD, "Transfer", from, common.Address{}, amount.ToBig())
}
