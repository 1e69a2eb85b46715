package native

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/pkg/core/interop"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/holiman/uint256"
)

var (
	//go:embed abi/TestNFT.json
	testNFTABI string
	//go:embed abi/ERC20Factory.json
	erc20ABI string
	//go:embed abi/FractionalizeNFT.json
	fractionalizeABI string
)

var maxUint256 = new(uint256.Int).SetAllOne()

// receiverABI describes the IERC721Receiver interface safe transfers call.
var receiverABI = mustParseABI(`[{"type": "function", "name": "onERC721Received", "stateMutability": "nonpayable",
	"inputs": [{"name": "operator", "type": "address"}, {"name": "from", "type": "address"}, {"name": "tokenId", "type": "uint256"}, {"name": "data", "type": "bytes"}],
	"outputs": [{"name": "", "type": "bytes4"}]}]`)

// ABI returns the interface of the native contract with the given name, it's
// used by clients to pack calls and decode results. Unknown names get an
// empty ABI.
func ABI(name string) abi.ABI {
	switch name {
	case nativenames.TestNFT:
		return mustParseABI(testNFTABI)
	case nativenames.ERC20Factory:
		return mustParseABI(erc20ABI)
	case nativenames.FractionalizeNFT:
		return mustParseABI(fractionalizeABI)
	default:
		return abi.ABI{}
	}
}

func mustParseABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}

// makeKey creates a storage key from the prefix and key parts.
func makeKey(prefix byte, parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 1, n)
	k[0] = prefix
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

// makeAddressKey creates a key from the account address.
func makeAddressKey(prefix byte, addr common.Address) []byte {
	return makeKey(prefix, addr.Bytes())
}

// makeIDKey creates a key from the 256-bit identifier.
func makeIDKey(prefix byte, id *uint256.Int) []byte {
	b := id.Bytes32()
	return makeKey(prefix, b[:])
}

func toUint256(v *big.Int) *uint256.Int {
	u, overflow := uint256.FromBig(v)
	if overflow {
		panic("integer overflow")
	}
	return u
}

func toAddress(v any) common.Address {
	addr, ok := v.(common.Address)
	if !ok {
		panic(fmt.Sprintf("address expected, got %T", v))
	}
	return addr
}

func toBigInt(v any) *big.Int {
	i, ok := v.(*big.Int)
	if !ok {
		panic(fmt.Sprintf("integer expected, got %T", v))
	}
	return i
}

func toString(v any) string {
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("string expected, got %T", v))
	}
	return s
}

// callContract invokes the method of the contract at the given address
// packing arguments and unpacking results with the given ABI. Addresses
// without a contract revert.
func callContract(ic *interop.Context, to common.Address, value *big.Int, a *abi.ABI, method string, args ...any) []any {
	if !ic.IsContract(to) {
		panic(fmt.Sprintf("%s: call to non-contract %s", method, to))
	}
	data, err := a.Pack(method, args...)
	if err != nil {
		panic(err)
	}
	ret := ic.Call(to, value, data)
	res, err := a.Unpack(method, ret)
	if err != nil {
		panic(fmt.Sprintf("unexpected %s result: %v", method, err))
	}
	return res
}
