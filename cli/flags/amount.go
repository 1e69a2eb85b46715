package flags

import (
	"flag"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
	"github.com/urfave/cli"
)

// Amount is a wrapper for a non-negative integer amount with flag.Value
// methods. Values can be given in wei or with an "ether" or "gwei" suffix,
// fractional parts are only allowed with a suffix.
type Amount struct {
	Value *big.Int
}

// AmountFlag is a flag with type Amount.
type AmountFlag struct {
	Name  string
	Usage string
	Value Amount
}

var (
	_ flag.Value = (*Amount)(nil)
	_ cli.Flag   = AmountFlag{}
)

var units = []struct {
	suffix   string
	decimals int
}{
	{"ether", 18},
	{"gwei", 9},
	{"wei", 0},
}

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	if a.Value == nil {
		return "0"
	}
	return a.Value.String()
}

// Set implements the flag.Value interface.
func (a *Amount) Set(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.Value = v
	return nil
}

func (f AmountFlag) String() string {
	return usageLine(f.Name, f.Usage)
}

// GetName returns the name of the flag.
func (f AmountFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f AmountFlag) Apply(set *flag.FlagSet) {
	applyVar(set, f.Name, f.Usage, &f.Value)
}

// AmountFromContext returns the parsed amount for the flag name, nil is
// returned if the flag was not set.
func AmountFromContext(ctx *cli.Context, name string) *big.Int {
	return ctx.Generic(name).(*Amount).Value
}

// ParseAmount parses an amount in wei or in the units of its suffix.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	decimals := 0
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			decimals = u.decimals
			break
		}
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > decimals {
		return nil, fmt.Errorf("too many decimal places in %q", s)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	if whole == "" || strings.ContainsAny(digits, "+-") {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	return v, nil
}

// FormatEther formats the wei amount as ether.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	var sign string
	if wei.Sign() < 0 {
		sign = "-"
	}
	q, r := new(big.Int).QuoRem(new(big.Int).Abs(wei), big.NewInt(params.Ether), new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := r.String()
	frac = strings.Repeat("0", 18-len(frac)) + frac
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}
