/*
Package unwrap provides a set of proxy methods to process call results.

Functions implemented there are intended to be used as wrappers for
invoker.Invoker.Call that returns ([]any, error) pair. These functions will
check for error, check the number of results, cast them to appropriate type
(if everything is OK) and then return a result or error. They're mostly useful
for other higher-level contract-specific packages.
*/
package unwrap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Item expects a single value returned and returns it.
func Item(r []any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if len(r) != 1 {
		return nil, fmt.Errorf("result has %d values instead of one", len(r))
	}
	return r[0], nil
}

// BigInt expects a single uint256 (or int256) value returned.
func BigInt(r []any, err error) (*big.Int, error) {
	return cast[*big.Int](r, err)
}

// Bool expects a single bool value returned.
func Bool(r []any, err error) (bool, error) {
	return cast[bool](r, err)
}

// Uint8 expects a single uint8 value returned.
func Uint8(r []any, err error) (uint8, error) {
	return cast[uint8](r, err)
}

// PrintableASCIIString expects a single string value returned that contains
// only printable ASCII characters.
func PrintableASCIIString(r []any, err error) (string, error) {
	s, err := UTF8String(r, err)
	if err != nil {
		return "", err
	}
	for _, c := range []byte(s) {
		if c < 32 || c >= 127 {
			return "", fmt.Errorf("string %q is not printable ASCII", s)
		}
	}
	return s, nil
}

// UTF8String expects a single string value returned.
func UTF8String(r []any, err error) (string, error) {
	return cast[string](r, err)
}

// Address expects a single address value returned.
func Address(r []any, err error) (common.Address, error) {
	return cast[common.Address](r, err)
}

func cast[T any](r []any, err error) (T, error) {
	var res T
	itm, err := Item(r, err)
	if err != nil {
		return res, err
	}
	res, ok := itm.(T)
	if !ok {
		return res, fmt.Errorf("unexpected result type %T", itm)
	}
	return res, nil
}
