/*
Package testcli contains an executor for CLI tests running commands against
an in-memory chain served over RPC.
*/
package testcli

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/cli/app"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/services/rpcsrv"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/fracnft/fracnft/pkg/wallet"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zaptest"
)

// ConfigPath is the path to the configuration directory relative to the
// command packages.
const ConfigPath = "../../config"

// Executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type Executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Chain is a blockchain instance (can be empty).
	Chain *core.Blockchain
	// Config is the configuration the chain was created with.
	Config config.Config
	// RPC is an RPC server to query (can be empty).
	RPC *rpcsrv.Server
	// Accounts are the prefunded chain accounts.
	Accounts []*wallet.Account
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

// NewTestChain creates a running in-memory chain with an RPC server
// serving it. Both are stopped on test cleanup.
func NewTestChain(t *testing.T, f func(*config.Config)) (*core.Blockchain, *rpcsrv.Server, config.Config) {
	cfg, err := config.Load(ConfigPath, config.UnitTestNet)
	require.NoError(t, err, "could not load config")
	if f != nil {
		f(&cfg)
	}

	logger := zaptest.NewLogger(t)
	chain, err := core.NewBlockchain(storage.NewMemoryStore(), cfg.Blockchain(), logger)
	require.NoError(t, err, "could not create chain")
	go chain.Run()
	t.Cleanup(chain.Close)

	errCh := make(chan error, 2)
	rpcServer := rpcsrv.New(chain, cfg.ApplicationConfiguration.RPC, cfg.GenerateUserAgent(), logger, errCh)
	rpcServer.Start()
	t.Cleanup(rpcServer.Shutdown)
	return chain, rpcServer, cfg
}

// NewExecutor creates an executor, needChain tells whether a chain and an
// RPC server are required.
func NewExecutor(t *testing.T, needChain bool) *Executor {
	return NewExecutorWithConfig(t, needChain, nil)
}

// NewExecutorWithConfig is similar to NewExecutor, but allows to override
// the chain configuration.
func NewExecutorWithConfig(t *testing.T, needChain bool, f func(*config.Config)) *Executor {
	e := &Executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	if needChain {
		e.Chain, e.RPC, e.Config = NewTestChain(t, f)
		e.Accounts = e.Chain.GetAccounts()
	}
	return e
}

// Endpoint returns the URL of the RPC server.
func (e *Executor) Endpoint() string {
	return "http://" + e.RPC.Addresses()[0]
}

// SignerArgs returns the arguments choosing the development account with
// the given index for transaction signing.
func (e *Executor) SignerArgs(index int) []string {
	return []string{
		"--rpc-endpoint", e.Endpoint(),
		"--dev-account", strconv.Itoa(index),
		"--seed", e.Config.ProtocolConfiguration.Seed,
	}
}

// GetNextLine returns the next line of the command output.
func (e *Executor) GetNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

// CheckNextLine checks the next line of the command output against the
// regular expression.
func (e *Executor) CheckNextLine(t *testing.T, expected string) {
	line := e.GetNextLine(t)
	e.CheckLine(t, line, expected)
}

// CheckLine checks the line against the regular expression.
func (e *Executor) CheckLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

// CheckEOF checks that the whole output was read.
func (e *Executor) CheckEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *Executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// RunWithErrorCheck runs command and checks that the error message
// contains the substring.
func (e *Executor) RunWithErrorCheck(t *testing.T, msg string, args ...string) {
	ch := setExitFunc()
	err := e.run(args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), msg)
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *Executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *Executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}

// GetAppExecResult waits for the transaction with hash h to be persisted
// and returns its execution result.
func (e *Executor) GetAppExecResult(t *testing.T, h common.Hash) *state.AppExecResult {
	var aer *state.AppExecResult
	require.Eventually(t, func() bool {
		var err error
		aer, err = e.Chain.GetAppExecResult(h)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "too long time waiting for block")
	return aer
}

// CheckTxPersisted reads the transaction hash from the next output line
// (after the optional prefix) and checks the transaction has succeeded.
func (e *Executor) CheckTxPersisted(t *testing.T, prefix ...string) *state.AppExecResult {
	line := strings.TrimSpace(e.GetNextLine(t))
	if len(prefix) > 0 {
		line = strings.TrimPrefix(line, prefix[0])
	}
	h := common.HexToHash(line)
	require.NotEqual(t, common.Hash{}, h, "can't decode tx hash: %s", line)

	aer := e.GetAppExecResult(t, h)
	require.Equal(t, vmstate.Halt, aer.VMState, aer.FaultException)
	return aer
}
