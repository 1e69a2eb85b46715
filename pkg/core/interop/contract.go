package interop

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// codePrefix marks deployment payloads and code of native contracts. It's
// the designated invalid EVM opcode so that such code can never be mistaken
// for runnable bytecode.
const codePrefix = 0xfe

// Method is a contract method implementation. It receives the arguments
// unpacked according to the method ABI and returns values to be packed
// according to the ABI outputs. Reverts are done via panic.
type Method func(ic *Context, args []any) []any

// MethodMD is a method with its ABI description.
type MethodMD struct {
	MD   abi.Method
	Func Method
}

// ContractMD represents a native contract implementation: its ABI and
// method table.
type ContractMD struct {
	Name    string
	ABI     abi.ABI
	Methods map[[4]byte]MethodMD

	// Constructor is called once upon deployment, it can be nil.
	Constructor Method
	// Receive handles calls with empty calldata.
	Receive Method
	// Fallback handles calls to unknown selectors (and calls with empty
	// calldata if there is no Receive).
	Fallback Method
}

// Contract is an interface for all native contracts.
type Contract interface {
	Metadata() *ContractMD
}

// Registry resolves contract implementations by name.
type Registry interface {
	ByName(name string) Contract
}

// NewContractMD returns Contract with the specified name and ABI given in
// its JSON form. It panics on invalid ABI since contracts are expected to
// be constructed from embedded and known to be valid definitions.
func NewContractMD(name string, abiJSON string) *ContractMD {
	a, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Errorf("invalid %s ABI: %w", name, err))
	}
	return &ContractMD{
		Name:    name,
		ABI:     a,
		Methods: make(map[[4]byte]MethodMD),
	}
}

// AddMethod binds the implementation to the ABI method with the given
// name. Overloaded methods are named as go-ethereum's abi names them
// (e.g. "safeTransferFrom0" for the second overload).
func (c *ContractMD) AddMethod(name string, f Method) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		panic(fmt.Sprintf("%s: method %s is missing from ABI", c.Name, name))
	}
	var sel [4]byte
	copy(sel[:], m.ID)
	c.Methods[sel] = MethodMD{MD: m, Func: f}
}

// GetMethod returns the method with the given selector.
func (c *ContractMD) GetMethod(sel []byte) (MethodMD, bool) {
	if len(sel) < 4 {
		return MethodMD{}, false
	}
	var key [4]byte
	copy(key[:], sel[:4])
	m, ok := c.Methods[key]
	return m, ok
}

// Code returns the marker code stored for deployed instances of the
// contract.
func (c *ContractMD) Code() []byte {
	return Code(c.Name)
}

// Code returns the marker code of the contract with the given name.
func Code(name string) []byte {
	code := make([]byte, 2+len(name))
	code[0] = codePrefix
	code[1] = byte(len(name))
	copy(code[2:], name)
	return code
}

// DeployData returns the transaction payload deploying the contract with
// the given constructor arguments.
func (c *ContractMD) DeployData(args ...any) ([]byte, error) {
	packed, err := c.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack constructor arguments: %w", err)
	}
	return append(c.Code(), packed...), nil
}

// ParseDeployData splits the deployment payload into the contract name and
// packed constructor arguments.
func ParseDeployData(data []byte) (string, []byte, error) {
	if len(data) < 2 || data[0] != codePrefix {
		return "", nil, errors.New("unknown contract code")
	}
	n := int(data[1])
	if n == 0 || len(data) < 2+n {
		return "", nil, errors.New("malformed contract code")
	}
	return string(data[2 : 2+n]), data[2+n:], nil
}
