package flags

import (
	"flag"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	for s, expected := range map[string]string{
		"0":           "0",
		"123":         "123",
		"123wei":      "123",
		"2 gwei":      "2000000000",
		"1.5gwei":     "1500000000",
		"1ether":      "1000000000000000000",
		"0.25ether":   "250000000000000000",
		"10.000ether": "10000000000000000000",
	} {
		v, err := ParseAmount(s)
		require.NoError(t, err, s)
		require.Equal(t, expected, v.String(), s)
	}
	for _, s := range []string{"", "kek", "-1", "+1", "1.5", "1.5wei", "0.0000000001gwei", ".5ether", "1e3"} {
		_, err := ParseAmount(s)
		require.Error(t, err, s)
	}
}

func TestFormatEther(t *testing.T) {
	require.Equal(t, "0", FormatEther(nil))
	require.Equal(t, "0", FormatEther(big.NewInt(0)))
	require.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	v, _ := new(big.Int).SetString("10250000000000000000", 10)
	require.Equal(t, "10.25", FormatEther(v))
	require.Equal(t, "-10.25", FormatEther(new(big.Int).Neg(v)))
}

func TestAmount(t *testing.T) {
	require.Equal(t, "0", Amount{}.String())

	f := flag.NewFlagSet("", flag.ContinueOnError)
	f.SetOutput(io.Discard) // don't pollute test output
	amount := AmountFlag{Name: "amount, a", Usage: "Amount to pass"}
	require.Equal(t, "--amount value, -a value\tAmount to pass", amount.String())
	require.Equal(t, "amount, a", amount.GetName())
	amount.Apply(f)
	require.NoError(t, f.Parse([]string{"--amount", "1gwei"}))
	require.Equal(t, "1000000000", f.Lookup("a").Value.String())
	require.Error(t, f.Parse([]string{"-a", "kek"}))
}
