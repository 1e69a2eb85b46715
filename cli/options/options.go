/*
Package options holds the flags shared by fracnft commands and turns them
into configuration, RPC clients and signing accounts.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/io"
	"github.com/fracnft/fracnft/pkg/rpcclient"
	"github.com/fracnft/fracnft/pkg/rpcclient/actor"
	"github.com/fracnft/fracnft/pkg/rpcclient/invoker"
	"github.com/fracnft/fracnft/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultTimeout bounds a command talking to the node.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is used instead of DefaultTimeout with --await.
	DefaultAwaitableTimeout = 30 * time.Second
	// DefaultDevSeed derives the devnet accounts.
	DefaultDevSeed = "fracnft devnet"
)

// RPCEndpointFlag is the node URL flag name.
const RPCEndpointFlag = "rpc-endpoint"

// Network selects the bundled configuration.
var Network = []cli.Flag{
	cli.BoolFlag{Name: "devnet", Usage: "use development network configuration (if --config-file option is not specified, default)"},
	cli.BoolFlag{Name: "unittest", Hidden: true},
}

// RPC flags are used by every command talking to a node.
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Account flags choose the transaction signer, either a raw key or a
// devnet account.
var Account = []cli.Flag{
	cli.StringFlag{
		Name:  "key, k",
		Usage: "hex-encoded private key to sign transactions with; conflicts with --dev-account flag",
	},
	cli.IntFlag{
		Name:  "dev-account, a",
		Value: -1,
		Usage: "index of the development account to sign transactions with; conflicts with --key flag",
	},
	cli.StringFlag{
		Name:  "seed",
		Value: DefaultDevSeed,
		Usage: "seed development accounts are derived from",
	},
}

// Await makes transaction commands wait for the receipt.
var Await = cli.BoolFlag{
	Name:  "await",
	Usage: "wait for the transaction to be included in a block and print the execution result",
}

// Config is the configuration directory, files in it are named after the
// network.
var Config = cli.StringFlag{
	Name:  "config-path",
	Usage: "path to directory with per-network configuration files (may be overridden by --config-file option for the configuration file)",
}

// ConfigFile points to a single configuration file.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the node configuration file (overrides --config-path option)",
}

// Debug forces the debug log level.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

var (
	errNoEndpoint              = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r'")
	errNoAccount               = errors.New("no signing key specified, use '--key' or '--dev-account' flag")
	errConflictingAccountFlags = errors.New("--key flag conflicts with --dev-account flag, please, provide one of them")
)

// GetNetwork returns the network chosen by the Network flags, DevNet by
// default.
func GetNetwork(ctx *cli.Context) string {
	if ctx.Bool("unittest") {
		return config.UnitTestNet
	}
	return config.DevNet
}

// GetTimeoutContext returns a context expiring after --timeout. Without an
// explicit timeout awaiting commands get DefaultAwaitableTimeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	timeout := ctx.Duration("timeout")
	switch {
	case !ctx.IsSet("timeout") && ctx.Bool("await"):
		timeout = DefaultAwaitableTimeout
	case timeout == 0:
		timeout = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// GetRPCClient creates a client for --rpc-endpoint bound to gctx.
func GetRPCClient(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, cli.ExitCoder) {
	endpoint := ctx.String(RPCEndpointFlag)
	if endpoint == "" {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	c, err := rpcclient.New(gctx, endpoint, rpcclient.Options{})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetRPCWithInvoker is GetRPCClient plus an invoker for read-only calls
// from the zero address.
func GetRPCWithInvoker(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, *invoker.Invoker, cli.ExitCoder) {
	c, err := GetRPCClient(gctx, ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, invoker.New(c, nil), nil
}

// GetRPCWithActor is GetRPCClient plus an actor signing with the account
// chosen by the Account flags.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, *actor.Actor, cli.ExitCoder) {
	acc, err := GetAccFromContext(ctx)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	c, exitErr := GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	a, err := actor.New(c, acc)
	if err != nil {
		c.Close()
		return nil, nil, cli.NewExitError(fmt.Errorf("failed to create Actor: %w", err), 1)
	}
	return c, a, nil
}

// GetAccFromContext returns the account given with --key or --dev-account,
// exactly one of them must be set.
func GetAccFromContext(ctx *cli.Context) (*wallet.Account, error) {
	key, index := ctx.String("key"), ctx.Int("dev-account")
	switch {
	case key != "" && index >= 0:
		return nil, errConflictingAccountFlags
	case key != "":
		acc, err := wallet.NewAccountFromHex(key)
		if err != nil {
			return nil, fmt.Errorf("invalid key: %w", err)
		}
		return acc, nil
	case index < 0:
		return nil, errNoAccount
	}
	accs, err := wallet.DevAccounts(ctx.String("seed"), index+1)
	if err != nil {
		return nil, err
	}
	return accs[index], nil
}

// GetConfigFromContext loads --config-file if given, otherwise the network
// file from --config-path or the default directory.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if file := ctx.String("config-file"); file != "" {
		return config.LoadFile(file)
	}
	dir := ctx.String("config-path")
	if dir == "" {
		dir = config.DefaultConfigPath
	}
	return config.Load(dir, GetNetwork(ctx))
}

// HandleLoggingParams builds the node logger from cfg. debug overrides the
// configured level. The returned level can be changed at runtime.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	zc.Encoding = "console"
	if cfg.LogEncoding != "" {
		zc.Encoding = cfg.LogEncoding
	}
	ec := &zc.EncoderConfig
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if cfg.LogPath != "" {
		if err := io.MakeDirForFile(cfg.LogPath, "logger"); err != nil {
			return nil, nil, err
		}
		zc.OutputPaths = []string{cfg.LogPath}
	}
	log, err := zc.Build()
	return log, &zc.Level, err
}
