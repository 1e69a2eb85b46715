package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fracnft/fracnft/cli/flags"
	"github.com/fracnft/fracnft/cli/options"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/chaindump"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/services/metrics"
	"github.com/fracnft/fracnft/pkg/services/rpcsrv"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns 'node' and 'db' commands.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{options.Config, options.ConfigFile}
	cfgFlags = append(cfgFlags, options.Network...)
	cfgFlags = append(cfgFlags, options.Debug)

	var cfgWithCountFlags = make([]cli.Flag, len(cfgFlags))
	copy(cfgWithCountFlags, cfgFlags)
	cfgWithCountFlags = append(cfgWithCountFlags,
		cli.Uint64Flag{
			Name:  "count, c",
			Usage: "number of blocks to be processed (default or 0: all chain)",
		},
	)
	var cfgCountOutFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountOutFlags, cfgWithCountFlags)
	cfgCountOutFlags = append(cfgCountOutFlags,
		cli.Uint64Flag{
			Name:  "start, s",
			Usage: "block number to start from (default: 0)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Output file (stdout if not given)",
		},
	)
	var cfgCountInFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountInFlags, cfgWithCountFlags)
	cfgCountInFlags = append(cfgCountInFlags,
		cli.StringFlag{
			Name:  "in, i",
			Usage: "Input file (stdin if not given)",
		},
	)
	return []cli.Command{
		{
			Name:      "node",
			Usage:     "start a fracnft development node",
			UsageText: "fracnft node [--config-path path] [-d] [--devnet] [--config-file file]",
			Action:    startServer,
			Flags:     cfgFlags,
		},
		{
			Name:  "db",
			Usage: "database manipulations",
			Subcommands: []cli.Command{
				{
					Name:      "dump",
					Usage:     "dump blocks (starting with block #0) to the file",
					UsageText: "fracnft db dump [-o file] [-s start] [-c count] [--config-path path] [--devnet] [--config-file file]",
					Action:    dumpDB,
					Flags:     cfgCountOutFlags,
				},
				{
					Name:      "restore",
					Usage:     "restore blocks from the file",
					UsageText: "fracnft db restore [-i file] [-c count] [-d] [--config-path path] [--devnet] [--config-file file]",
					Action:    restoreDB,
					Flags:     cfgCountInFlags,
				},
			},
		},
	}
}

func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}

// initBlockChain opens the configured storage and creates a chain on top
// of it.
func initBlockChain(cfg config.Config, log *zap.Logger) (*core.Blockchain, storage.Store, error) {
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}

	chain, err := core.NewBlockchain(store, cfg.Blockchain(), log)
	if err != nil {
		errText := "could not initialize blockchain: %w"
		errArgs := []any{err}
		closeErr := store.Close()
		if closeErr != nil {
			errText += "; failed to close the DB: %w"
			errArgs = append(errArgs, closeErr)
		}

		return nil, nil, cli.NewExitError(fmt.Errorf(errText, errArgs...), 1)
	}
	return chain, store, nil
}

// initBCWithMetrics initializes the chain with the metrics services and
// starts them all.
func initBCWithMetrics(cfg config.Config, log *zap.Logger) (*core.Blockchain, *metrics.Service, *metrics.Service, error) {
	chain, _, err := initBlockChain(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.ApplicationConfiguration.Pprof, log)

	go chain.Run()
	err = prometheus.Start()
	if err != nil {
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	err = pprof.Start()
	if err != nil {
		prometheus.ShutDown()
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Pprof service: %w", err), 1)
	}

	return chain, prometheus, pprof, nil
}

func dumpDB(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.NewExitError(fmt.Errorf("additional arguments given while this command expects none"), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	count := ctx.Uint64("count")
	start := ctx.Uint64("start")

	var outStream io.Writer = ctx.App.Writer
	if out := ctx.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("can't create file: %w", err), 1)
		}
		defer f.Close()
		outStream = f
	}

	chain, prometheus, pprof, err := initBCWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	}()

	chainCount := chain.BlockHeight() + 1
	if start+count > chainCount {
		return cli.NewExitError(fmt.Errorf("chain is not that high (%d) to dump %d blocks starting from %d", chainCount-1, count, start), 1)
	}
	if count == 0 {
		count = chainCount - start
	}
	if err := rlp.Encode(outStream, &chaindump.Header{Start: start, Count: count}); err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := chaindump.Dump(chain, outStream, start, count); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func restoreDB(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.NewExitError(fmt.Errorf("additional arguments given while this command expects none"), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	var inStream io.Reader = os.Stdin
	if in := ctx.String("in"); in != "" {
		f, err := os.Open(in)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		inStream = f
	}
	s := rlp.NewStream(inStream, 0)
	var hdr chaindump.Header
	if err := s.Decode(&hdr); err != nil {
		return cli.NewExitError(fmt.Errorf("invalid dump header: %w", err), 1)
	}

	chain, prometheus, pprof, err := initBCWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	}()

	height := chain.BlockHeight()
	if hdr.Start > height+1 {
		return cli.NewExitError(fmt.Errorf("dump file start %d is higher than the chain height %d", hdr.Start, height), 1)
	}
	skip := height + 1 - hdr.Start
	if skip > hdr.Count {
		skip = hdr.Count
	}
	count := hdr.Count - skip
	if c := ctx.Uint64("count"); c != 0 {
		if c > count {
			return cli.NewExitError(fmt.Errorf("input file has only %d new blocks", count), 1)
		}
		count = c
	}
	log.Info("initialize restore",
		zap.Uint64("start", hdr.Start),
		zap.Uint64("height", height),
		zap.Uint64("skip", skip),
		zap.Uint64("count", count))

	f := func(b *block.Block) error {
		log.Debug("block restored", zap.Uint64("index", b.Index), zap.Int("txs", len(b.Transactions)))
		return nil
	}
	err = chaindump.Restore(chain, s, skip, count, f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func startServer(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.NewExitError(fmt.Errorf("additional arguments given while this command expects none"), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var logDebug = ctx.Bool("debug")
	log, logLevel, err := options.HandleLoggingParams(logDebug, cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	grace, cancel := context.WithCancel(newGraceContext())
	defer cancel()

	chain, prometheus, pprof, err := initBCWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	}()

	errChan := make(chan error, 2)
	rpcServer := rpcsrv.New(chain, cfg.ApplicationConfiguration.RPC, cfg.GenerateUserAgent(), log, errChan)
	rpcServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sighup)

	printNodeInfo(ctx.App.Writer, cfg, chain, rpcServer)

	var shutdownErr error
Main:
	for {
		select {
		case err := <-errChan:
			shutdownErr = fmt.Errorf("server error: %w", err)
			cancel()
		case sig := <-sigCh:
			log.Info("signal received", zap.Stringer("name", sig))
			cfgnew, err := options.GetConfigFromContext(ctx)
			if err != nil {
				log.Warn("can't reread the config file, signal ignored", zap.Error(err))
				break // Continue working.
			}
			if !logDebug && cfgnew.ApplicationConfiguration.LogLevel != "" {
				newLevel, err := zapcore.ParseLevel(cfgnew.ApplicationConfiguration.LogLevel)
				if err != nil {
					log.Warn("wrong LogLevel in ApplicationConfiguration, ignoring", zap.Error(err))
				} else {
					log.Warn("using new logging level", zap.Stringer("level", newLevel))
					logLevel.SetLevel(newLevel)
				}
			}
			rpcServer.Shutdown()
			rpcServer = rpcsrv.New(chain, cfgnew.ApplicationConfiguration.RPC, cfg.GenerateUserAgent(), log, errChan)
			rpcServer.Start()

			pprof.ShutDown()
			pprof = metrics.NewPprofService(cfgnew.ApplicationConfiguration.Pprof, log)
			if err := pprof.Start(); err != nil {
				shutdownErr = fmt.Errorf("failed to restart Pprof service: %w", err)
				cancel()
			}
			prometheus.ShutDown()
			prometheus = metrics.NewPrometheusService(cfgnew.ApplicationConfiguration.Prometheus, log)
			if err := prometheus.Start(); err != nil {
				shutdownErr = fmt.Errorf("failed to restart Prometheus service: %w", err)
				cancel()
			}
		case <-grace.Done():
			signal.Stop(sigCh)
			rpcServer.Shutdown()
			break Main
		}
	}

	if shutdownErr != nil {
		return cli.NewExitError(shutdownErr, 1)
	}

	return nil
}

// printNodeInfo prints the node identity, its endpoints and the prefunded
// development accounts with their keys.
func printNodeInfo(w io.Writer, cfg config.Config, chain *core.Blockchain, rpcServer *rpcsrv.Server) {
	fmt.Fprintln(w, cfg.GenerateUserAgent())
	fmt.Fprintf(w, "Chain ID: %d\n", cfg.ProtocolConfiguration.ChainID)
	if cfg.ApplicationConfiguration.RPC.Enabled {
		for _, addr := range rpcServer.Addresses() {
			fmt.Fprintf(w, "JSON-RPC: http://%s\n", addr)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Accounts")
	fmt.Fprintln(w, "========")
	balance := flags.FormatEther(cfg.ProtocolConfiguration.InitialBalanceWei())
	for i, acc := range chain.GetAccounts() {
		fmt.Fprintf(w, "(%d) %s (%s ETH)\n", i, acc.Address.Hex(), balance)
		fmt.Fprintf(w, "    Private key: %s\n", hexutil.Encode(acc.PrivateKey().Bytes()))
	}
	fmt.Fprintln(w)
}
