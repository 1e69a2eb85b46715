/*
Package app assembles the fracnft command line application.
*/
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fracnft/fracnft/cli/query"
	"github.com/fracnft/fracnft/cli/server"
	"github.com/fracnft/fracnft/cli/smartcontract"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/urfave/cli"
)

// New returns the fracnft application with node, contract and query
// commands.
func New() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		_, _ = fmt.Fprintf(c.App.Writer, "%s\nVersion: %s\nGoVersion: %s\n",
			c.App.Name, c.App.Version, runtime.Version())
	}
	a := cli.NewApp()
	a.Name = "fracnft"
	a.Usage = "NFT fractionalization development node and client"
	a.Version = config.Version
	a.ErrWriter = os.Stdout

	for _, cmds := range [][]cli.Command{
		server.NewCommands(),
		smartcontract.NewCommands(),
		query.NewCommands(),
	} {
		a.Commands = append(a.Commands, cmds...)
	}
	return a
}
