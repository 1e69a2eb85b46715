package smartcontract_test

import (
	"math/big"
	"regexp"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/internal/testcli"
	"github.com/stretchr/testify/require"
)

// contractCmd returns the arguments of 'contract' subcommand signed by the
// development account with the given index.
func contractCmd(e *testcli.Executor, cmd string, signer int, args ...string) []string {
	res := append([]string{"fracnft", "contract", cmd}, e.SignerArgs(signer)...)
	return append(res, args...)
}

// readCmd returns the arguments of read-only 'contract' subcommand.
func readCmd(e *testcli.Executor, cmd string, args ...string) []string {
	res := []string{"fracnft", "contract", cmd, "--rpc-endpoint", e.Endpoint()}
	return append(res, args...)
}

func deployContract(t *testing.T, e *testcli.Executor, kind string) common.Address {
	e.Run(t, contractCmd(e, "deploy", 0, kind)...)
	aer := e.CheckTxPersisted(t)
	require.NotNil(t, aer.ContractAddress)
	line := e.GetNextLine(t)
	require.Equal(t, "Contract: "+aer.ContractAddress.Hex(), line)
	e.CheckEOF(t)
	return *aer.ContractAddress
}

// findAddress returns the address following the prefix in the output.
func findAddress(t *testing.T, e *testcli.Executor, prefix string) common.Address {
	m := regexp.MustCompile(prefix + `(0x[0-9a-fA-F]{40})`).FindStringSubmatch(e.Out.String())
	require.Len(t, m, 2, "no %q in output", prefix)
	return common.HexToAddress(m[1])
}

// mintAndFractionalize mints token 1 to the first account and fractionalizes
// it with the given extra arguments. It returns the addresses of the NFT, the
// fractionalizer and the fraction token.
func mintAndFractionalize(t *testing.T, e *testcli.Executor, extra ...string) (common.Address, common.Address, common.Address) {
	nft := deployContract(t, e, "nft")
	frac := deployContract(t, e, "fractionalizer")
	owner := e.Accounts[0].Address

	e.Run(t, contractCmd(e, "mint", 0,
		"--contract", nft.Hex(), "--to", owner.Hex(), "--uri", "ipfs://token/1", "--await")...)
	e.CheckTxPersisted(t)
	require.Contains(t, e.Out.String(), "Token ID: 1\n")

	e.Run(t, contractCmd(e, "approve", 0,
		"--contract", nft.Hex(), "--to", frac.Hex(), "--id", "1")...)
	e.CheckTxPersisted(t)
	e.CheckEOF(t)

	args := append([]string{"--contract", frac.Hex(), "--nft", nft.Hex(), "--id", "1",
		"--name", "Fraction", "--symbol", "FRC", "--supply", "1000", "--await"}, extra...)
	e.Run(t, contractCmd(e, "fractionalize", 0, args...)...)
	e.CheckTxPersisted(t)
	require.Contains(t, e.Out.String(), "Listing ID: 0\n")
	token := findAddress(t, e, "Token: ")

	e.Run(t, readCmd(e, "owner", "--contract", nft.Hex(), "--id", "1")...)
	e.CheckNextLine(t, "^"+frac.Hex()+"$")
	e.CheckEOF(t)
	return nft, frac, token
}

func TestBuyoutAndClaim(t *testing.T) {
	e := testcli.NewExecutor(t, true)
	var (
		owner  = e.Accounts[0].Address
		buyer  = e.Accounts[1].Address
		holder = e.Accounts[2].Address
	)
	nft, frac, token := mintAndFractionalize(t, e, "--buyout-price", "1ether")

	t.Run("token", func(t *testing.T) {
		e.Run(t, readCmd(e, "token", "--contract", token.Hex())...)
		e.CheckNextLine(t, `^Name:\s+Fraction$`)
		e.CheckNextLine(t, `^Symbol:\s+FRC$`)
		e.CheckNextLine(t, `^Decimals:\s+18$`)
		e.CheckNextLine(t, `^Total supply:\s+1000$`)
		e.CheckEOF(t)
	})

	e.Run(t, contractCmd(e, "transfer", 0,
		"--contract", token.Hex(), "--to", holder.Hex(), "--amount", "400")...)
	e.CheckTxPersisted(t)

	e.Run(t, readCmd(e, "balance", "--contract", token.Hex(), "--address", holder.Hex())...)
	e.CheckNextLine(t, "^400$")
	e.CheckEOF(t)

	t.Run("listing", func(t *testing.T) {
		e.Run(t, readCmd(e, "listing", "--contract", frac.Hex(), "--id", "0")...)
		e.CheckNextLine(t, `^ID:\s+0$`)
		e.CheckNextLine(t, `^State:\s+Fractionalized$`)
		e.CheckNextLine(t, `^Owner:\s+`+owner.Hex()+`$`)
		e.CheckNextLine(t, `^NFT:\s+`+nft.Hex()+`$`)
		e.CheckNextLine(t, `^Token ID:\s+1$`)
		e.CheckNextLine(t, `^Token:\s+`+token.Hex()+` \(Fraction, FRC\)$`)
		e.CheckNextLine(t, `^Supply:\s+1000$`)
		e.CheckNextLine(t, `^Buyout price:\s+1 ETH$`)
		e.CheckEOF(t)

		e.RunWithErrorCheck(t, "invalid fracNFT id 5", readCmd(e, "listing", "--contract", frac.Hex(), "--id", "5")...)
	})

	t.Run("redeem without the whole supply", func(t *testing.T) {
		e.RunWithErrorCheck(t, "redeemer must hold the entire ERC20 supply",
			contractCmd(e, "redeem", 0, "--contract", frac.Hex(), "--id", "0")...)
	})

	t.Run("buyout with wrong price", func(t *testing.T) {
		e.RunWithErrorCheck(t, "buyout requires exactly",
			contractCmd(e, "buyout", 1, "--contract", frac.Hex(), "--id", "0", "--value", "0.5ether")...)
	})

	t.Run("claim before buyout", func(t *testing.T) {
		e.RunWithErrorCheck(t, "fracNFT is Fractionalized",
			contractCmd(e, "claim", 2, "--contract", frac.Hex(), "--id", "0")...)
	})

	e.Run(t, contractCmd(e, "buyout", 1, "--contract", frac.Hex(), "--id", "0", "--value", "1ether")...)
	e.CheckTxPersisted(t)

	e.Run(t, readCmd(e, "owner", "--contract", nft.Hex(), "--id", "1")...)
	e.CheckNextLine(t, "^"+buyer.Hex()+"$")

	e.Run(t, readCmd(e, "balance", "--address", buyer.Hex())...)
	e.CheckNextLine(t, `^9999 ETH$`)

	t.Run("second buyout", func(t *testing.T) {
		e.RunWithErrorCheck(t, "fracNFT is BoughtOut",
			contractCmd(e, "buyout", 1, "--contract", frac.Hex(), "--id", "0", "--value", "1ether")...)
	})

	e.RunWithErrorCheck(t, "ERC20: insufficient allowance",
		contractCmd(e, "claim", 2, "--contract", frac.Hex(), "--id", "0")...)
	approveFractions(t, e, 2, token, frac, "400")

	e.Run(t, contractCmd(e, "claim", 2, "--contract", frac.Hex(), "--id", "0", "--await")...)
	e.CheckTxPersisted(t)
	require.Equal(t, 0, e.Chain.GetBalance(holder).Cmp(etherPlus(10000, "400000000000000000")))

	e.Run(t, readCmd(e, "balance", "--address", holder.Hex())...)
	e.CheckNextLine(t, `^10000\.4 ETH$`)
	e.Run(t, readCmd(e, "balance", "--contract", token.Hex(), "--address", holder.Hex())...)
	e.CheckNextLine(t, "^0$")

	e.RunWithErrorCheck(t, "nothing to claim",
		contractCmd(e, "claim", 2, "--contract", frac.Hex(), "--id", "0")...)

	approveFractions(t, e, 0, token, frac, "600")
	e.Run(t, contractCmd(e, "claim", 0, "--contract", frac.Hex(), "--id", "0")...)
	e.CheckTxPersisted(t)
	e.Run(t, readCmd(e, "balance", "--address", owner.Hex())...)
	e.CheckNextLine(t, `^10000\.6 ETH$`)

	e.Run(t, readCmd(e, "listing", "--contract", frac.Hex())...)
	e.CheckNextLine(t, `^Count: 1$`)
	e.CheckNextLine(t, `^$`)
	e.CheckNextLine(t, `^ID:\s+0$`)
	e.CheckNextLine(t, `^State:\s+BoughtOut$`)
}

func approveFractions(t *testing.T, e *testcli.Executor, signer int, token, frac common.Address, amount string) {
	e.Run(t, contractCmd(e, "approve", signer,
		"--contract", token.Hex(), "--to", frac.Hex(), "--amount", amount)...)
	e.CheckTxPersisted(t)
	e.CheckEOF(t)
}

func etherPlus(eth int64, wei string) *big.Int {
	res := new(big.Int).Mul(big.NewInt(eth), big.NewInt(1_000_000_000_000_000_000))
	w, _ := new(big.Int).SetString(wei, 10)
	return res.Add(res, w)
}

func TestRedeem(t *testing.T) {
	e := testcli.NewExecutor(t, true)
	owner := e.Accounts[0].Address
	nft, frac, token := mintAndFractionalize(t, e)

	e.Run(t, readCmd(e, "listing", "--contract", frac.Hex(), "--id", "0")...)
	require.Regexp(t, `Buyout price:\s+none`, e.Out.String())

	e.RunWithErrorCheck(t, "buyout is disabled for this fracNFT",
		contractCmd(e, "buyout", 1, "--contract", frac.Hex(), "--id", "0", "--value", "1ether")...)

	approveFractions(t, e, 0, token, frac, "1000")
	e.Run(t, contractCmd(e, "redeem", 0, "--contract", frac.Hex(), "--id", "0", "--await")...)
	e.CheckTxPersisted(t)
	require.Regexp(t, `Success:\s+true`, e.Out.String())

	e.Run(t, readCmd(e, "owner", "--contract", nft.Hex(), "--id", "1")...)
	e.CheckNextLine(t, "^"+owner.Hex()+"$")

	e.Run(t, readCmd(e, "token", "--contract", token.Hex())...)
	require.Regexp(t, `Total supply:\s+0\n`, e.Out.String())

	e.RunWithErrorCheck(t, "fracNFT is Redeemed",
		contractCmd(e, "redeem", 0, "--contract", frac.Hex(), "--id", "0")...)
}

func TestContractErrors(t *testing.T) {
	e := testcli.NewExecutor(t, true)
	nft := deployContract(t, e, "nft")

	t.Run("deploy", func(t *testing.T) {
		e.RunWithErrorCheck(t, "unknown contract", contractCmd(e, "deploy", 0, "token")...)
		e.RunWithErrorCheck(t, "no RPC endpoint", "fracnft", "contract", "deploy", "--dev-account", "0", "nft")
		e.RunWithErrorCheck(t, "no signing key", "fracnft", "contract", "deploy", "--rpc-endpoint", e.Endpoint(), "nft")
		e.RunWithErrorCheck(t, "conflicts", append(contractCmd(e, "deploy", 0, "--key", strings.Repeat("11", 32)), "nft")...)
	})
	t.Run("missing flags", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no contract address", contractCmd(e, "mint", 0, "--to", nft.Hex())...)
		e.RunWithErrorCheck(t, "no address specified, use '--to'", contractCmd(e, "mint", 0, "--contract", nft.Hex())...)
		e.RunWithErrorCheck(t, "no ID specified", readCmd(e, "owner", "--contract", nft.Hex())...)
		e.RunWithErrorCheck(t, "invalid ID", readCmd(e, "owner", "--contract", nft.Hex(), "--id", "-1")...)
		e.RunWithErrorCheck(t, "no amount specified", contractCmd(e, "transfer", 0, "--contract", nft.Hex(), "--to", nft.Hex())...)
		e.RunWithErrorCheck(t, "mutually exclusive", contractCmd(e, "approve", 0,
			"--contract", nft.Hex(), "--to", nft.Hex(), "--id", "1", "--amount", "1")...)
		e.RunWithErrorCheck(t, "name and symbol", contractCmd(e, "fractionalize", 0,
			"--contract", nft.Hex(), "--nft", nft.Hex(), "--id", "1", "--supply", "1")...)
	})
	t.Run("reverted", func(t *testing.T) {
		e.RunWithErrorCheck(t, "Ownable: caller is not the owner", contractCmd(e, "mint", 1,
			"--contract", nft.Hex(), "--to", e.Accounts[1].Address.Hex(), "--uri", "ipfs://x")...)
		e.RunWithErrorCheck(t, "ERC721: invalid token ID", readCmd(e, "owner", "--contract", nft.Hex(), "--id", "42")...)
	})
	t.Run("ether balance", func(t *testing.T) {
		e.Run(t, readCmd(e, "balance", "--address", e.Accounts[3].Address.Hex())...)
		e.CheckNextLine(t, `^10000 ETH$`)
		e.CheckEOF(t)
	})
}
