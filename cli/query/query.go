package query

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fracnft/fracnft/cli/flags"
	"github.com/fracnft/fracnft/cli/options"
	"github.com/fracnft/fracnft/cli/txctx"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/urfave/cli"
)

// NewCommands returns 'query' command.
func NewCommands() []cli.Command {
	queryTxFlags := append([]cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Output full tx info and execution logs",
		},
	}, options.RPC...)
	queryBalanceFlags := append([]cli.Flag{
		flags.AddressFlag{
			Name:  "address",
			Usage: "Account to check",
		},
	}, options.RPC...)
	return []cli.Command{{
		Name:  "query",
		Usage: "Query data from RPC node",
		Subcommands: []cli.Command{
			{
				Name:      "tx",
				Usage:     "Query transaction status",
				UsageText: "fracnft query tx <hash> -r endpoint [-s timeout] [-v]",
				Action:    queryTx,
				Flags:     queryTxFlags,
			},
			{
				Name:      "height",
				Usage:     "Get node height",
				UsageText: "fracnft query height -r endpoint [-s timeout]",
				Action:    queryHeight,
				Flags:     options.RPC,
			},
			{
				Name:      "balance",
				Usage:     "Get ether balance of the account",
				UsageText: "fracnft query balance -r endpoint [-s timeout] --address address",
				Action:    queryBalance,
				Flags:     queryBalanceFlags,
			},
		},
	}}
}

func queryTx(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) == 0 {
		return cli.NewExitError("transaction hash is missing", 1)
	}
	raw, err := hexutil.Decode(args[0])
	if err != nil || len(raw) != common.HashLength {
		return cli.NewExitError(fmt.Sprintf("invalid tx hash: %s", args[0]), 1)
	}
	txHash := common.BytesToHash(raw)

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	tx, err := c.GetTransactionByHash(txHash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var res *state.AppExecResult
	if tx.BlockHash != (common.Hash{}) {
		res, err = c.GetApplicationLog(txHash)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	txctx.DumpApplicationLog(ctx.App.Writer, res, tx, ctx.Bool("verbose"))
	return nil
}

func queryHeight(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(errors.New("unexpected arguments"), 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	height, err := c.BlockNumber()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Latest block: %d\n", height)
	return nil
}

func queryBalance(ctx *cli.Context) error {
	addr, ok := flags.AddressFromContext(ctx, "address")
	if !ok {
		return cli.NewExitError("no address specified, use '--address' flag", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	b, err := c.GetBalance(addr)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s ETH\n", flags.FormatEther(b))
	return nil
}
