package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fracnft/fracnft/pkg/neorpc"
)

type (
	// Param represents a param either passed to the server or to be sent to
	// a server using the client.
	Param struct {
		json.RawMessage
		cache any
	}

	// BlockNumber is a block number parameter, the special tags are
	// represented by negative values.
	BlockNumber int64
)

// Block tags.
const (
	LatestBlockNumber   BlockNumber = -1
	PendingBlockNumber  BlockNumber = -2
	EarliestBlockNumber BlockNumber = -3
)

var (
	jsonNullBytes       = []byte("null")
	jsonFalseBytes      = []byte("false")
	jsonTrueBytes       = []byte("true")
	errMissingParameter = errors.New("parameter is missing")
	errNotAString       = errors.New("not a string")
	errNotAnInt         = errors.New("not an integer")
	errNotABool         = errors.New("not a boolean")
)

func (p Param) String() string {
	str, _ := p.GetString()
	return str
}

// IsNull returns whether the parameter represents JSON nil value.
func (p *Param) IsNull() bool {
	return bytes.Equal(p.RawMessage, jsonNullBytes)
}

// GetString returns a string value of the parameter.
func (p *Param) GetString() (string, error) {
	if p == nil {
		return "", errMissingParameter
	}
	if p.IsNull() {
		return "", errNotAString
	}
	if p.cache == nil {
		var s string
		err := json.Unmarshal(p.RawMessage, &s)
		if err != nil {
			return "", errNotAString
		}
		p.cache = s
	}
	if s, ok := p.cache.(string); ok {
		return s, nil
	}
	return "", errNotAString
}

// GetBoolean returns a boolean value of the parameter.
func (p *Param) GetBoolean() (bool, error) {
	if p == nil {
		return false, errMissingParameter
	}
	switch {
	case bytes.Equal(p.RawMessage, jsonTrueBytes):
		return true, nil
	case bytes.Equal(p.RawMessage, jsonFalseBytes):
		return false, nil
	default:
		return false, errNotABool
	}
}

// GetBigInt returns a big-integer value of the parameter given either as
// a hex quantity ("0x2a") or as a JSON number.
func (p *Param) GetBigInt() (*big.Int, error) {
	if p == nil {
		return nil, errMissingParameter
	}
	if p.IsNull() {
		return nil, errNotAnInt
	}
	if s, err := p.GetString(); err == nil {
		v, err := hexutil.DecodeBig(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errNotAnInt, err)
		}
		return v, nil
	}
	var n json.Number
	if err := json.Unmarshal(p.RawMessage, &n); err != nil {
		return nil, errNotAnInt
	}
	v, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return nil, errNotAnInt
	}
	return v, nil
}

// GetUint64 returns an unsigned integer value of the parameter given either
// as a hex quantity or as a JSON number.
func (p *Param) GetUint64() (uint64, error) {
	v, err := p.GetBigInt()
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, errNotAnInt
	}
	return v.Uint64(), nil
}

// GetBlockNumber returns a block number of the parameter given as a hex
// quantity or one of "latest", "pending", "earliest", "safe", "finalized"
// tags. Missing parameter means "latest".
func (p *Param) GetBlockNumber() (BlockNumber, error) {
	if p == nil || p.IsNull() {
		return LatestBlockNumber, nil
	}
	s, err := p.GetString()
	if err == nil {
		switch s {
		case "latest", "safe", "finalized":
			return LatestBlockNumber, nil
		case "pending":
			return PendingBlockNumber, nil
		case "earliest":
			return EarliestBlockNumber, nil
		}
	}
	v, err := p.GetUint64()
	if err != nil {
		return 0, fmt.Errorf("invalid block number: %w", err)
	}
	if v > uint64(1<<63-1) {
		return 0, errNotAnInt
	}
	return BlockNumber(v), nil
}

// GetAddress returns an address value of the parameter encoded in hex.
func (p *Param) GetAddress() (common.Address, error) {
	s, err := p.GetString()
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// GetHash returns a 32-byte hash value of the parameter encoded in hex.
func (p *Param) GetHash() (common.Hash, error) {
	b, err := p.GetBytesHex()
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length %d", len(b))
	}
	return common.BytesToHash(b), nil
}

// GetBytesHex returns a []byte value of the parameter if it is a 0x-prefixed
// hex-encoded string.
func (p *Param) GetBytesHex() ([]byte, error) {
	s, err := p.GetString()
	if err != nil {
		return nil, err
	}
	return hexutil.Decode(s)
}

// GetTransactionArgs returns transaction arguments of eth_call and
// eth_sendTransaction.
func (p *Param) GetTransactionArgs() (*neorpc.TransactionArgs, error) {
	if p == nil {
		return nil, errMissingParameter
	}
	args := new(neorpc.TransactionArgs)
	jd := json.NewDecoder(bytes.NewReader(p.RawMessage))
	jd.DisallowUnknownFields()
	if err := jd.Decode(args); err != nil {
		return nil, fmt.Errorf("not a transaction object: %w", err)
	}
	return args, nil
}

// String implements the fmt.Stringer interface.
func (n BlockNumber) String() string {
	switch n {
	case LatestBlockNumber:
		return "latest"
	case PendingBlockNumber:
		return "pending"
	case EarliestBlockNumber:
		return "earliest"
	default:
		return strconv.FormatInt(int64(n), 10)
	}
}
