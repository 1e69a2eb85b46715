package smartcontract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/cli/flags"
	"github.com/fracnft/fracnft/cli/options"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/fracnft/fracnft/pkg/rpcclient/erc721"
	"github.com/fracnft/fracnft/pkg/rpcclient/fractional"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/urfave/cli"
)

// Deployable contract kinds.
const (
	kindNFT            = "nft"
	kindFractionalizer = "fractionalizer"
)

var (
	errNoContract = errors.New("no contract address specified, use '--contract' flag")
	errNoID       = errors.New("no ID specified, use '--id' flag")
)

var contractFlag = flags.AddressFlag{
	Name:  "contract, c",
	Usage: "address of the contract",
}

var idFlag = cli.StringFlag{
	Name:  "id",
	Usage: "token or listing ID",
}

// NewCommands returns 'contract' command.
func NewCommands() []cli.Command {
	readFlags := append([]cli.Flag{contractFlag}, options.RPC...)
	writeFlags := append([]cli.Flag{contractFlag, options.Await}, options.RPC...)
	writeFlags = append(writeFlags, options.Account...)
	deployFlags := append([]cli.Flag{}, options.RPC...)
	deployFlags = append(deployFlags, options.Account...)

	return []cli.Command{{
		Name:  "contract",
		Usage: "deploy and invoke NFT fractionalization contracts",
		Subcommands: []cli.Command{
			{
				Name:      "deploy",
				Usage:     "deploy a contract",
				UsageText: "fracnft contract deploy -r endpoint (-k key | -a index) nft|fractionalizer",
				Description: `Deploys either the ` + nativenames.TestNFT + ` ERC-721 contract (nft) or the
   ` + nativenames.FractionalizeNFT + ` contract (fractionalizer) and waits for the
   deployment. Transaction hash and contract address are printed.`,
				Action: deploy,
				Flags:  deployFlags,
			},
			{
				Name:      "mint",
				Usage:     "mint a new NFT (contract owner only)",
				UsageText: "fracnft contract mint -r endpoint (-k key | -a index) -c nft --to address --uri uri [--await]",
				Action:    mint,
				Flags: append([]cli.Flag{
					flags.AddressFlag{Name: "to", Usage: "owner of the new token"},
					cli.StringFlag{Name: "uri", Usage: "token URI"},
				}, writeFlags...),
			},
			{
				Name:      "approve",
				Usage:     "approve an NFT transfer or an ERC-20 allowance",
				UsageText: "fracnft contract approve -r endpoint (-k key | -a index) -c nft|token --to address (--id tokenID | --amount amount) [--await]",
				Description: `Approves the NFT with the given ID for transfer by the account (--id)
   or sets the ERC-20 allowance of the account (--amount). Redeeming and
   claiming burn fractions on behalf of their holder, so the fractionalizer
   needs an allowance for them.`,
				Action: approve,
				Flags: append([]cli.Flag{
					flags.AddressFlag{Name: "to", Usage: "approved account or contract"},
					idFlag,
					flags.AmountFlag{Name: "amount", Usage: "ERC-20 allowance"},
				}, writeFlags...),
			},
			{
				Name:      "owner",
				Usage:     "print the owner of an NFT",
				UsageText: "fracnft contract owner -r endpoint -c nft --id tokenID",
				Action:    ownerOf,
				Flags:     append([]cli.Flag{idFlag}, readFlags...),
			},
			{
				Name:      "fractionalize",
				Usage:     "lock an NFT and issue ERC-20 fractions against it",
				UsageText: "fracnft contract fractionalize -r endpoint (-k key | -a index) -c fractionalizer --nft address --id tokenID --name name --symbol symbol --supply amount [--buyout-price amount] [--await]",
				Description: `Locks the NFT in the fractionalizer and mints the supply of the new
   ERC-20 token to the sender. The fractionalizer must be approved to
   transfer the NFT first (see 'approve' command). Zero or missing buyout
   price disables buyouts of the listing.`,
				Action: fractionalize,
				Flags: append([]cli.Flag{
					flags.AddressFlag{Name: "nft", Usage: "ERC-721 contract address"},
					idFlag,
					cli.StringFlag{Name: "name", Usage: "ERC-20 token name"},
					cli.StringFlag{Name: "symbol", Usage: "ERC-20 token symbol"},
					flags.AmountFlag{Name: "supply", Usage: "ERC-20 token supply"},
					flags.AmountFlag{Name: "buyout-price", Usage: "buyout price (wei, gwei or ether suffix)"},
				}, writeFlags...),
			},
			{
				Name:      "listing",
				Usage:     "print fractionalized NFT listings",
				UsageText: "fracnft contract listing -r endpoint -c fractionalizer [--id listingID]",
				Action:    listing,
				Flags:     append([]cli.Flag{idFlag}, readFlags...),
			},
			{
				Name:      "buyout",
				Usage:     "buy the NFT of a listing out paying its buyout price",
				UsageText: "fracnft contract buyout -r endpoint (-k key | -a index) -c fractionalizer --id listingID --value amount [--await]",
				Action:    buyout,
				Flags: append([]cli.Flag{
					idFlag,
					flags.AmountFlag{Name: "value", Usage: "value to pay (wei, gwei or ether suffix)"},
				}, writeFlags...),
			},
			{
				Name:      "redeem",
				Usage:     "redeem the NFT of a listing burning the whole fraction supply",
				UsageText: "fracnft contract redeem -r endpoint (-k key | -a index) -c fractionalizer --id listingID [--await]",
				Action:    redeem,
				Flags:     append([]cli.Flag{idFlag}, writeFlags...),
			},
			{
				Name:      "claim",
				Usage:     "claim the share of the buyout price for the fractions held",
				UsageText: "fracnft contract claim -r endpoint (-k key | -a index) -c fractionalizer --id listingID [--await]",
				Action:    claim,
				Flags:     append([]cli.Flag{idFlag}, writeFlags...),
			},
			{
				Name:      "token",
				Usage:     "print ERC-20 token information",
				UsageText: "fracnft contract token -r endpoint -c token",
				Action:    tokenInfo,
				Flags:     readFlags,
			},
			{
				Name:      "balance",
				Usage:     "print the token balance of an account, or its ether balance if no contract is given",
				UsageText: "fracnft contract balance -r endpoint [-c token] --address address",
				Action:    balance,
				Flags: append([]cli.Flag{
					flags.AddressFlag{Name: "address", Usage: "account to check"},
				}, readFlags...),
			},
			{
				Name:      "transfer",
				Usage:     "transfer ERC-20 tokens",
				UsageText: "fracnft contract transfer -r endpoint (-k key | -a index) -c token --to address --amount amount [--await]",
				Action:    transfer,
				Flags: append([]cli.Flag{
					flags.AddressFlag{Name: "to", Usage: "receiver"},
					flags.AmountFlag{Name: "amount", Usage: "amount of tokens"},
				}, writeFlags...),
			},
		},
	}}
}

func deploy(ctx *cli.Context) error {
	kind := ctx.Args().First()
	if kind != kindNFT && kind != kindFractionalizer {
		return cli.NewExitError(fmt.Errorf("unknown contract %q, expected %s or %s", kind, kindNFT, kindFractionalizer), 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	var (
		h   common.Hash
		err error
	)
	switch kind {
	case kindNFT:
		h, err = erc721.Deploy(act)
	case kindFractionalizer:
		h, err = fractional.Deploy(act)
	}
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to deploy: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, h.Hex())

	aer, err := act.Wait(h, nil)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to await deployment: %w", err), 1)
	}
	if aer.VMState != vmstate.Halt || aer.ContractAddress == nil {
		return cli.NewExitError(fmt.Errorf("deployment failed: %s", aer.FaultException), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Contract: %s\n", aer.ContractAddress.Hex())
	return nil
}

// getContract returns the address of the contract given by the flag.
func getContract(ctx *cli.Context) (common.Address, error) {
	addr, ok := flags.AddressFromContext(ctx, "contract")
	if !ok {
		return common.Address{}, cli.NewExitError(errNoContract, 1)
	}
	return addr, nil
}

// getAddress returns the mandatory address flag value.
func getAddress(ctx *cli.Context, name string) (common.Address, error) {
	addr, ok := flags.AddressFromContext(ctx, name)
	if !ok {
		return common.Address{}, cli.NewExitError(fmt.Errorf("no address specified, use '--%s' flag", name), 1)
	}
	return addr, nil
}

// getID returns the token or listing ID.
func getID(ctx *cli.Context) (*big.Int, error) {
	s := ctx.String("id")
	if s == "" {
		return nil, cli.NewExitError(errNoID, 1)
	}
	id, ok := new(big.Int).SetString(s, 0)
	if !ok || id.Sign() < 0 {
		return nil, cli.NewExitError(fmt.Errorf("invalid ID: %q", s), 1)
	}
	return id, nil
}

// getAmount returns the mandatory amount flag value.
func getAmount(ctx *cli.Context, name string) (*big.Int, error) {
	v := flags.AmountFromContext(ctx, name)
	if v == nil {
		return nil, cli.NewExitError(fmt.Errorf("no amount specified, use '--%s' flag", name), 1)
	}
	return v, nil
}
