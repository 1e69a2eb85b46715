/*
Package txctx contains helper functions that deal with transactions in CLI
context.
*/
package txctx

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/cli/flags"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/neorpc/result"
	"github.com/fracnft/fracnft/pkg/rpcclient/waiter"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/urfave/cli"
)

// Send prints the hash of the sent transaction and, if --await flag is set,
// waits for its execution result and prints it. A transaction that hasn't
// succeeded makes an error. The result is nil unless it was awaited.
func Send(ctx *cli.Context, w waiter.Waiter, h common.Hash, err error) (*state.AppExecResult, error) {
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to send transaction: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, h.Hex())
	if !ctx.Bool("await") {
		return nil, nil
	}
	return Await(ctx, w, h)
}

// Await waits for the transaction execution result and prints it.
func Await(ctx *cli.Context, w waiter.Waiter, h common.Hash) (*state.AppExecResult, error) {
	aer, err := w.Wait(h, nil)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to await transaction %s: %w", h.Hex(), err), 1)
	}
	DumpApplicationLog(ctx.App.Writer, aer, nil, false)
	if aer.VMState != vmstate.Halt {
		return aer, cli.NewExitError(fmt.Errorf("transaction %s failed: %s", h.Hex(), aer.FaultException), 1)
	}
	return aer, nil
}

// DumpApplicationLog prints the execution result of the transaction. Either
// of them can be nil, verbose adds transaction details and logs.
func DumpApplicationLog(w io.Writer, res *state.AppExecResult, tx *result.Transaction, verbose bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 4, '\t', 0)
	switch {
	case res != nil:
		_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", res.Container.Hex())
	case tx != nil:
		_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", tx.Hash.Hex())
	}
	_, _ = fmt.Fprintf(tw, "OnChain:\t%t\n", res != nil)
	if res != nil {
		_, _ = fmt.Fprintf(tw, "BlockHash:\t%s\n", res.BlockHash.Hex())
		_, _ = fmt.Fprintf(tw, "BlockIndex:\t%d\n", res.BlockIndex)
		_, _ = fmt.Fprintf(tw, "Success:\t%t\n", res.VMState == vmstate.Halt)
		if res.VMState != vmstate.Halt {
			_, _ = fmt.Fprintf(tw, "Exception:\t%s\n", res.FaultException)
		}
		if res.ContractAddress != nil {
			_, _ = fmt.Fprintf(tw, "Contract:\t%s\n", res.ContractAddress.Hex())
		}
	}
	if verbose {
		if tx != nil {
			_, _ = fmt.Fprintf(tw, "From:\t%s\n", tx.From.Hex())
			if tx.To != nil {
				_, _ = fmt.Fprintf(tw, "To:\t%s\n", tx.To.Hex())
			}
			_, _ = fmt.Fprintf(tw, "Nonce:\t%d\n", uint64(tx.Nonce))
			if tx.Value != nil {
				_, _ = fmt.Fprintf(tw, "Value:\t%s ETH\n", flags.FormatEther(tx.Value.ToInt()))
			}
			_, _ = fmt.Fprintf(tw, "Input:\t%s\n", tx.Input.String())
		}
		if res != nil {
			for _, l := range res.Logs {
				_, _ = fmt.Fprintf(tw, "Log:\t%s %d topics, %d bytes of data\n", l.Address.Hex(), len(l.Topics), len(l.Data))
			}
		}
	}
	_ = tw.Flush()
}
