package main

import (
	"testing"

	"github.com/fracnft/fracnft/internal/testcli"
	"github.com/stretchr/testify/require"
)

func TestCLIVersion(t *testing.T) {
	e := testcli.NewExecutor(t, false)
	e.Run(t, "fracnft", "--version")
	e.CheckNextLine(t, "^fracnft")
	e.CheckNextLine(t, "^Version:")
	e.CheckNextLine(t, "^GoVersion:")
	e.CheckEOF(t)
}

func TestCLICommands(t *testing.T) {
	e := testcli.NewExecutor(t, false)
	for _, name := range []string{"node", "db", "contract", "query"} {
		require.NotNil(t, e.CLI.Command(name), name)
	}
}
