package flags

import (
	"flag"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli"
)

// Address is a flag.Value holding an account or contract address.
type Address struct {
	IsSet bool
	Value common.Address
}

// AddressFlag is a cli.Flag taking an address, read it back with
// AddressFromContext.
type AddressFlag struct {
	Name  string
	Usage string
	Value Address
}

var (
	_ flag.Value = (*Address)(nil)
	_ cli.Flag   = AddressFlag{}
)

// String returns the checksummed hex address.
func (a Address) String() string {
	return a.Value.Hex()
}

// Set implements flag.Value, see ParseAddress for accepted formats.
func (a *Address) Set(s string) error {
	addr, err := ParseAddress(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.Value, a.IsSet = addr, true
	return nil
}

func (f AddressFlag) String() string {
	return usageLine(f.Name, f.Usage)
}

// GetName implements cli.Flag.
func (f AddressFlag) GetName() string {
	return f.Name
}

// Apply implements cli.Flag.
func (f AddressFlag) Apply(set *flag.FlagSet) {
	applyVar(set, f.Name, f.Usage, &f.Value)
}

// AddressFromContext returns the address given for the flag name, false
// when the flag is not on the command line.
func AddressFromContext(ctx *cli.Context, name string) (common.Address, bool) {
	a := ctx.Generic(name).(*Address)
	return a.Value, a.IsSet
}

// ParseAddress parses a 20-byte hex address, 0x prefix is optional.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}
