package native

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/pkg/core/interop"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/holiman/uint256"
)

// NFT represents the ERC-721 token contract with per-token URIs that only
// its deployer can mint.
type NFT struct {
	interop.ContractMD
}

// Collection name and symbol of the NFT contract.
const (
	NFTName   = "TestNFT"
	NFTSymbol = "TNFT"
)

// ERC-165 interface identifiers.
var (
	InterfaceERC165         = [4]byte{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721         = [4]byte{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC721Metadata = [4]byte{0x5b, 0x5e, 0x13, 0x9f}
	// ERC721Received is the value onERC721Received must return to accept
	// a safe transfer.
	ERC721Received = [4]byte{0x15, 0x0b, 0x7a, 0x02}
)

const (
	nftOwnerKey      = 0x01
	nftCounterKey    = 0x02
	prefixTokenOwner = 0x0a
	prefixNFTBalance = 0x0b
	prefixApproved   = 0x0c
	prefixOperator   = 0x0d
	prefixTokenURI   = 0x0e
)

var _ interop.Contract = (*NFT)(nil)

func newNFT() *NFT {
	n := &NFT{ContractMD: *interop.NewContractMD(nativenames.TestNFT, testNFTABI)}
	n.Constructor = n.initialize
	n.AddMethod("mintNFT", n.mintNFT)
	n.AddMethod("name", n.name)
	n.AddMethod("symbol", n.symbol)
	n.AddMethod("tokenURI", n.tokenURI)
	n.AddMethod("balanceOf", n.balanceOf)
	n.AddMethod("ownerOf", n.ownerOf)
	n.AddMethod("approve", n.approve)
	n.AddMethod("getApproved", n.getApproved)
	n.AddMethod("setApprovalForAll", n.setApprovalForAll)
	n.AddMethod("isApprovedForAll", n.isApprovedForAll)
	n.AddMethod("transferFrom", n.transferFrom)
	n.AddMethod("safeTransferFrom", n.safeTransferFrom)
	n.AddMethod("safeTransferFrom0", n.safeTransferFrom)
	n.AddMethod("supportsInterface", n.supportsInterface)
	return n
}

// Metadata implements the interop.Contract interface.
func (n *NFT) Metadata() *interop.ContractMD {
	return &n.ContractMD
}

func (n *NFT) initialize(ic *interop.Context, _ []any) []any {
	ic.PutAddress([]byte{nftOwnerKey}, ic.Caller())
	return nil
}

func (n *NFT) mintNFT(ic *interop.Context, args []any) []any {
	if ic.Caller() != ic.GetAddress([]byte{nftOwnerKey}) {
		panic("Ownable: caller is not the owner")
	}
	to := toAddress(args[0])
	if to == (common.Address{}) {
		panic("ERC721: mint to the zero address")
	}
	id := ic.GetUint256([]byte{nftCounterKey})
	id.AddUint64(id, 1)
	ic.PutUint256([]byte{nftCounterKey}, id)

	ic.PutAddress(makeIDKey(prefixTokenOwner, id), to)
	n.addBalance(ic, to, 1)
	ic.PutString(makeIDKey(prefixTokenURI, id), toString(args[1]))
	ic.Emit(&n.ContractMD, "Transfer", common.Address{}, to, id.ToBig())
	return []any{id.ToBig()}
}

func (n *NFT) name(_ *interop.Context, _ []any) []any {
	return []any{NFTName}
}

func (n *NFT) symbol(_ *interop.Context, _ []any) []any {
	return []any{NFTSymbol}
}

func (n *NFT) tokenURI(ic *interop.Context, args []any) []any {
	id := toUint256(toBigInt(args[0]))
	n.requireOwner(ic, id)
	return []any{ic.GetString(makeIDKey(prefixTokenURI, id))}
}

func (n *NFT) balanceOf(ic *interop.Context, args []any) []any {
	owner := toAddress(args[0])
	if owner == (common.Address{}) {
		panic("ERC721: address zero is not a valid owner")
	}
	return []any{ic.GetUint256(makeAddressKey(prefixNFTBalance, owner)).ToBig()}
}

func (n *NFT) addBalance(ic *interop.Context, acc common.Address, delta int64) {
	key := makeAddressKey(prefixNFTBalance, acc)
	b := ic.GetUint256(key)
	if delta > 0 {
		b.AddUint64(b, uint64(delta))
	} else {
		b.SubUint64(b, uint64(-delta))
	}
	ic.PutUint256(key, b)
}

// requireOwner returns the token owner reverting for tokens not minted.
func (n *NFT) requireOwner(ic *interop.Context, id *uint256.Int) common.Address {
	owner := ic.GetAddress(makeIDKey(prefixTokenOwner, id))
	if owner == (common.Address{}) {
		panic("ERC721: invalid token ID")
	}
	return owner
}

func (n *NFT) ownerOf(ic *interop.Context, args []any) []any {
	return []any{n.requireOwner(ic, toUint256(toBigInt(args[0])))}
}

func (n *NFT) approve(ic *interop.Context, args []any) []any {
	to := toAddress(args[0])
	id := toUint256(toBigInt(args[1]))
	owner := n.requireOwner(ic, id)
	if to == owner {
		panic("ERC721: approval to current owner")
	}
	caller := ic.Caller()
	if caller != owner && !n.isOperator(ic, owner, caller) {
		panic("ERC721: approve caller is not token owner or approved for all")
	}
	n.setApproved(ic, owner, to, id)
	return nil
}

func (n *NFT) setApproved(ic *interop.Context, owner, to common.Address, id *uint256.Int) {
	ic.PutAddress(makeIDKey(prefixApproved, id), to)
	ic.Emit(&n.ContractMD, "Approval", owner, to, id.ToBig())
}

func (n *NFT) getApproved(ic *interop.Context, args []any) []any {
	id := toUint256(toBigInt(args[0]))
	n.requireOwner(ic, id)
	return []any{ic.GetAddress(makeIDKey(prefixApproved, id))}
}

func makeOperatorKey(owner, operator common.Address) []byte {
	return makeKey(prefixOperator, owner.Bytes(), operator.Bytes())
}

func (n *NFT) isOperator(ic *interop.Context, owner, operator common.Address) bool {
	return ic.GetBool(makeOperatorKey(owner, operator))
}

func (n *NFT) setApprovalForAll(ic *interop.Context, args []any) []any {
	operator := toAddress(args[0])
	approved := args[1].(bool)
	owner := ic.Caller()
	if owner == operator {
		panic("ERC721: approve to caller")
	}
	ic.PutBool(makeOperatorKey(owner, operator), approved)
	ic.Emit(&n.ContractMD, "ApprovalForAll", owner, operator, approved)
	return nil
}

func (n *NFT) isApprovedForAll(ic *interop.Context, args []any) []any {
	return []any{n.isOperator(ic, toAddress(args[0]), toAddress(args[1]))}
}

func (n *NFT) transferFrom(ic *interop.Context, args []any) []any {
	n.transfer(ic, toAddress(args[0]), toAddress(args[1]), toUint256(toBigInt(args[2])))
	return nil
}

func (n *NFT) safeTransferFrom(ic *interop.Context, args []any) []any {
	from := toAddress(args[0])
	to := toAddress(args[1])
	id := toUint256(toBigInt(args[2]))
	var data []byte
	if len(args) > 3 {
		data = args[3].([]byte)
	}
	n.transfer(ic, from, to, id)
	n.checkOnERC721Received(ic, from, to, id.ToBig(), data)
	return nil
}

func (n *NFT) transfer(ic *interop.Context, from, to common.Address, id *uint256.Int) {
	owner := n.requireOwner(ic, id)
	caller := ic.Caller()
	if caller != owner && !n.isOperator(ic, owner, caller) &&
		ic.GetAddress(makeIDKey(prefixApproved, id)) != caller {
		panic("ERC721: caller is not token owner or approved")
	}
	if owner != from {
		panic("ERC721: transfer from incorrect owner")
	}
	if to == (common.Address{}) {
		panic("ERC721: transfer to the zero address")
	}
	ic.PutAddress(makeIDKey(prefixApproved, id), common.Address{})
	n.addBalance(ic, from, -1)
	n.addBalance(ic, to, 1)
	ic.PutAddress(makeIDKey(prefixTokenOwner, id), to)
	ic.Emit(&n.ContractMD, "Transfer", from, to, id.ToBig())
}

// checkOnERC721Received makes sure that a contract recipient accepts the
// token.
func (n *NFT) checkOnERC721Received(ic *interop.Context, from, to common.Address, id *big.Int, data []byte) {
	if !ic.IsContract(to) {
		return
	}
	if data == nil {
		data = []byte{}
	}
	req, err := receiverABI.Pack("onERC721Received", ic.Caller(), from, id, data)
	if err != nil {
		panic(err)
	}
	ret := tryCall(ic, to, req)
	if len(ret) < 4 || !bytes.Equal(ret[:4], ERC721Received[:]) {
		panic("ERC721: transfer to non ERC721Receiver implementer")
	}
}

// tryCall calls the contract returning nil if it reverts. Callers must
// revert themselves in this case since callee changes are not rolled back.
func tryCall(ic *interop.Context, to common.Address, data []byte) (ret []byte) {
	defer func() {
		if r := recover(); r != nil {
			ret = nil
		}
	}()
	return ic.Call(to, nil, data)
}

func (n *NFT) supportsInterface(_ *interop.Context, args []any) []any {
	id := args[0].([4]byte)
	return []any{id == InterfaceERC165 || id == InterfaceERC721 || id == InterfaceERC721Metadata}
}
