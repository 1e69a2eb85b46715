package smartcontract

import (
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/cli/flags"
	"github.com/fracnft/fracnft/cli/options"
	"github.com/fracnft/fracnft/cli/txctx"
	"github.com/fracnft/fracnft/pkg/core/native"
	"github.com/fracnft/fracnft/pkg/rpcclient/erc20"
	"github.com/fracnft/fracnft/pkg/rpcclient/erc721"
	"github.com/fracnft/fracnft/pkg/rpcclient/fractional"
	"github.com/urfave/cli"
)

func mint(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	to, err := getAddress(ctx, "to")
	if err != nil {
		return err
	}
	uri := ctx.String("uri")

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := erc721.New(act, contract).MintNFT(to, uri)
	aer, err := txctx.Send(ctx, act, h, err)
	if err != nil || aer == nil {
		return err
	}
	events, err := erc721.TransferEventsFromLogs(contract, aer.Logs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, ev := range events {
		fmt.Fprintf(ctx.App.Writer, "Token ID: %s\n", ev.TokenID)
	}
	return nil
}

func approve(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	to, err := getAddress(ctx, "to")
	if err != nil {
		return err
	}
	var (
		amount = flags.AmountFromContext(ctx, "amount")
		id     *big.Int
	)
	if amount == nil {
		id, err = getID(ctx)
		if err != nil {
			return err
		}
	} else if ctx.String("id") != "" {
		return cli.NewExitError("--id and --amount flags are mutually exclusive", 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	var h common.Hash
	if amount != nil {
		h, err = erc20.New(act, contract).Approve(to, amount)
	} else {
		h, err = erc721.New(act, contract).Approve(to, id)
	}
	_, err = txctx.Send(ctx, act, h, err)
	return err
}

func ownerOf(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	id, err := getID(ctx)
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	owner, err := erc721.NewReader(inv, contract).OwnerOf(id)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get owner of token %s: %w", id, err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, owner.Hex())
	return nil
}

func fractionalize(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	nft, err := getAddress(ctx, "nft")
	if err != nil {
		return err
	}
	id, err := getID(ctx)
	if err != nil {
		return err
	}
	supply, err := getAmount(ctx, "supply")
	if err != nil {
		return err
	}
	name, symbol := ctx.String("name"), ctx.String("symbol")
	if name == "" || symbol == "" {
		return cli.NewExitError("token name and symbol are required, use '--name' and '--symbol' flags", 1)
	}
	price := flags.AmountFromContext(ctx, "buyout-price")

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := fractional.New(act, contract).Fractionalize(nft, id, name, symbol, supply, price)
	aer, err := txctx.Send(ctx, act, h, err)
	if err != nil || aer == nil {
		return err
	}
	events, err := fractional.FractionalizedEventsFromLogs(contract, aer.Logs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, ev := range events {
		fmt.Fprintf(ctx.App.Writer, "Listing ID: %s\n", ev.FracNFTID)
		fmt.Fprintf(ctx.App.Writer, "Token: %s\n", ev.ERC20Address.Hex())
	}
	return nil
}

func listing(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	r := fractional.NewReader(inv, contract)
	if ctx.String("id") != "" {
		id, err := getID(ctx)
		if err != nil {
			return err
		}
		l, err := r.FracNFT(id)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to get listing %s: %w", id, err), 1)
		}
		printListing(ctx.App.Writer, l)
		return nil
	}
	ls, err := r.FracNFTs()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get listings: %w", err), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Count: %d\n", len(ls))
	for _, l := range ls {
		fmt.Fprintln(ctx.App.Writer)
		printListing(ctx.App.Writer, l)
	}
	return nil
}

func printListing(w io.Writer, l *native.FracNFT) {
	tw := tabwriter.NewWriter(w, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", l.FracNFTID)
	_, _ = fmt.Fprintf(tw, "State:\t%s\n", l.State)
	_, _ = fmt.Fprintf(tw, "Owner:\t%s\n", l.OriginalOwner.Hex())
	_, _ = fmt.Fprintf(tw, "NFT:\t%s\n", l.ERC721Address.Hex())
	_, _ = fmt.Fprintf(tw, "Token ID:\t%s\n", l.NFTTokenID)
	_, _ = fmt.Fprintf(tw, "Token:\t%s (%s, %s)\n", l.ERC20Address.Hex(), l.ERC20Name, l.ERC20Symbol)
	_, _ = fmt.Fprintf(tw, "Supply:\t%s\n", l.ERC20Supply)
	if l.BuyoutPrice.Sign() == 0 {
		_, _ = fmt.Fprintf(tw, "Buyout price:\tnone\n")
	} else {
		_, _ = fmt.Fprintf(tw, "Buyout price:\t%s ETH\n", flags.FormatEther(l.BuyoutPrice))
	}
	_ = tw.Flush()
}

func buyout(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	id, err := getID(ctx)
	if err != nil {
		return err
	}
	value, err := getAmount(ctx, "value")
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := fractional.New(act, contract).Buyout(id, value)
	_, err = txctx.Send(ctx, act, h, err)
	return err
}

func redeem(ctx *cli.Context) error {
	return invokeListing(ctx, (*fractional.Contract).Redeem)
}

func claim(ctx *cli.Context) error {
	return invokeListing(ctx, (*fractional.Contract).Claim)
}

// invokeListing sends a fractionalizer transaction that only takes the
// listing ID.
func invokeListing(ctx *cli.Context, method func(*fractional.Contract, *big.Int) (common.Hash, error)) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	id, err := getID(ctx)
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := method(fractional.New(act, contract), id)
	_, err = txctx.Send(ctx, act, h, err)
	return err
}

func tokenInfo(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	r := erc20.NewReader(inv, contract)
	name, err := r.Name()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get token name: %w", err), 1)
	}
	symbol, err := r.Symbol()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get token symbol: %w", err), 1)
	}
	decimals, err := r.Decimals()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get token decimals: %w", err), 1)
	}
	supply, err := r.TotalSupply()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get total supply: %w", err), 1)
	}
	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", name)
	_, _ = fmt.Fprintf(tw, "Symbol:\t%s\n", symbol)
	_, _ = fmt.Fprintf(tw, "Decimals:\t%d\n", decimals)
	_, _ = fmt.Fprintf(tw, "Total supply:\t%s\n", supply)
	_ = tw.Flush()
	return nil
}

func balance(ctx *cli.Context) error {
	addr, err := getAddress(ctx, "address")
	if err != nil {
		return err
	}
	contract, hasContract := flags.AddressFromContext(ctx, "contract")

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	if !hasContract {
		b, err := c.GetBalance(addr)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to get balance: %w", err), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "%s ETH\n", flags.FormatEther(b))
		return nil
	}
	// Both ERC-20 and ERC-721 have the same balanceOf signature.
	b, err := erc20.NewReader(inv, contract).BalanceOf(addr)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get token balance: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, b.String())
	return nil
}

func transfer(ctx *cli.Context) error {
	contract, err := getContract(ctx)
	if err != nil {
		return err
	}
	to, err := getAddress(ctx, "to")
	if err != nil {
		return err
	}
	amount, err := getAmount(ctx, "amount")
	if err != nil {
		return err
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := erc20.New(act, contract).Transfer(to, amount)
	_, err = txctx.Send(ctx, act, h, err)
	return err
}
