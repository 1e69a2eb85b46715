package server

import (
	"flag"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core/storage/dbconfig"
	"github.com/fracnft/fracnft/pkg/neotest"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

const goodCfg = "../../config"

// writeConfig stores the unit test network configuration with a BoltDB
// backend at dbPath into a new directory and returns the directory.
func writeConfig(t *testing.T, dbPath string, f func(*config.Config)) string {
	cfg, err := config.Load(goodCfg, config.UnitTestNet)
	require.NoError(t, err)
	cfg.ApplicationConfiguration.DBConfiguration = dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: dbPath},
	}
	if f != nil {
		f(&cfg)
	}
	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "protocol.unit_testnet.yml"), out, os.ModePerm))
	return dir
}

func newContext(t *testing.T, cfgPath string, f func(set *flag.FlagSet)) *cli.Context {
	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	set.String("config-path", cfgPath, "")
	set.Bool("unittest", true, "")
	set.Bool("debug", true, "")
	if f != nil {
		f(set)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestNewCommands(t *testing.T) {
	cmds := NewCommands()
	require.Len(t, cmds, 2)
	require.Equal(t, "node", cmds[0].Name)
	require.Equal(t, "db", cmds[1].Name)
	require.Len(t, cmds[1].Subcommands, 2)
}

func TestInitBlockChain(t *testing.T) {
	t.Run("bad storage", func(t *testing.T) {
		_, _, err := initBlockChain(config.Config{}, nil)
		require.Error(t, err)
	})

	t.Run("empty logger", func(t *testing.T) {
		_, _, err := initBlockChain(config.Config{
			ApplicationConfiguration: config.ApplicationConfiguration{
				DBConfiguration: dbconfig.DBConfiguration{
					Type: dbconfig.InMemoryDB,
				},
			},
		}, nil)
		require.Error(t, err)
	})

	t.Run("positive", func(t *testing.T) {
		cfg, err := config.Load(goodCfg, config.UnitTestNet)
		require.NoError(t, err)
		chain, store, err := initBlockChain(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, store)
		require.EqualValues(t, 0, chain.BlockHeight())
		chain.Close()
	})
}

func TestInitBCWithMetrics(t *testing.T) {
	cfg, err := config.Load(goodCfg, config.UnitTestNet)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)

	t.Run("bad store", func(t *testing.T) {
		_, _, _, err := initBCWithMetrics(config.Config{}, logger)
		require.Error(t, err)
	})

	t.Run("bad metrics address", func(t *testing.T) {
		badCfg := cfg
		badCfg.ApplicationConfiguration.Prometheus = config.BasicService{
			Enabled:   true,
			Addresses: []string{"bad address"},
		}
		_, _, _, err := initBCWithMetrics(badCfg, logger)
		require.Error(t, err)
	})

	cfg.ApplicationConfiguration.Prometheus = config.BasicService{
		Enabled:   true,
		Addresses: []string{"localhost:0"},
	}
	chain, prometheus, pprof, err := initBCWithMetrics(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	})
	require.EqualValues(t, cfg.ProtocolConfiguration.ChainID, chain.GetConfig().ChainID)
	require.NotEqual(t, "localhost:0", prometheus.Addresses()[0])
}

// fillChain adds a few blocks to the chain stored at the configured path.
func fillChain(t *testing.T, cfgPath string, blocks int) {
	cfg, err := config.Load(cfgPath, config.UnitTestNet)
	require.NoError(t, err)
	chain, _, err := initBlockChain(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer chain.Close()

	accs := neotest.NewSigners(chain.GetAccounts()...)
	e := neotest.NewExecutor(t, chain, accs...)
	for i := 0; i < blocks; i++ {
		e.Transfer(t, accs[i%2], accs[2].Address(), big.NewInt(int64(i+1)))
	}
}

func chainHeight(t *testing.T, cfgPath string) uint64 {
	cfg, err := config.Load(cfgPath, config.UnitTestNet)
	require.NoError(t, err)
	chain, _, err := initBlockChain(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer chain.Close()
	return chain.BlockHeight()
}

func TestDumpDB(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "chain.bolt"), nil)
	fillChain(t, cfgPath, 3)
	testDump := filepath.Join(t.TempDir(), "chain.dump")

	t.Run("too low chain", func(t *testing.T) {
		ctx := newContext(t, cfgPath, func(set *flag.FlagSet) {
			set.Uint64("start", 0, "")
			set.Uint64("count", 5, "")
			set.String("out", testDump, "")
		})
		require.Error(t, dumpDB(ctx))
	})

	t.Run("bad out", func(t *testing.T) {
		ctx := newContext(t, cfgPath, func(set *flag.FlagSet) {
			set.String("out", filepath.Join(t.TempDir(), "missing", "chain.dump"), "")
		})
		require.Error(t, dumpDB(ctx))
	})

	t.Run("positive", func(t *testing.T) {
		ctx := newContext(t, cfgPath, func(set *flag.FlagSet) {
			set.Uint64("start", 0, "")
			set.Uint64("count", 2, "")
			set.String("out", testDump, "")
		})
		require.NoError(t, dumpDB(ctx))
		fi, err := os.Stat(testDump)
		require.NoError(t, err)
		require.NotZero(t, fi.Size())
	})
}

func TestRestoreDB(t *testing.T) {
	srcCfg := writeConfig(t, filepath.Join(t.TempDir(), "chain.bolt"), nil)
	fillChain(t, srcCfg, 4)
	testDump := filepath.Join(t.TempDir(), "chain.dump")
	partialDump := filepath.Join(t.TempDir(), "partial.dump")

	require.NoError(t, dumpDB(newContext(t, srcCfg, func(set *flag.FlagSet) {
		set.String("out", testDump, "")
	})))
	require.NoError(t, dumpDB(newContext(t, srcCfg, func(set *flag.FlagSet) {
		set.Uint64("start", 3, "")
		set.String("out", partialDump, "")
	})))

	dstCfg := writeConfig(t, filepath.Join(t.TempDir(), "restored.bolt"), nil)
	restoreCtx := func(in string, count uint64) *cli.Context {
		return newContext(t, dstCfg, func(set *flag.FlagSet) {
			set.String("in", in, "")
			set.Uint64("count", count, "")
		})
	}

	t.Run("invalid in", func(t *testing.T) {
		require.Error(t, restoreDB(restoreCtx("unknown-file", 0)))
	})
	t.Run("corrupted header", func(t *testing.T) {
		inPath := filepath.Join(t.TempDir(), "bad.dump")
		require.NoError(t, os.WriteFile(inPath, []byte{0xc2, 1}, os.ModePerm))
		require.Error(t, restoreDB(restoreCtx(inPath, 0)))
	})
	t.Run("dump is too high", func(t *testing.T) {
		require.Error(t, restoreDB(restoreCtx(partialDump, 0)))
	})
	t.Run("too many blocks requested", func(t *testing.T) {
		require.Error(t, restoreDB(restoreCtx(testDump, 10)))
	})
	t.Run("genesis mismatch", func(t *testing.T) {
		otherCfg := writeConfig(t, filepath.Join(t.TempDir(), "other.bolt"), func(c *config.Config) {
			c.ProtocolConfiguration.GenesisTime++
		})
		ctx := newContext(t, otherCfg, func(set *flag.FlagSet) {
			set.String("in", testDump, "")
		})
		// Genesis is skipped, the first restored block doesn't fit.
		require.Error(t, restoreDB(ctx))
	})

	require.NoError(t, restoreDB(restoreCtx(testDump, 2)))
	require.EqualValues(t, 2, chainHeight(t, dstCfg))

	// Incremental restore from a dump starting in the middle.
	require.NoError(t, restoreDB(restoreCtx(partialDump, 0)))
	require.EqualValues(t, 4, chainHeight(t, dstCfg))

	// Everything is already there.
	require.NoError(t, restoreDB(restoreCtx(testDump, 0)))
	require.EqualValues(t, 4, chainHeight(t, dstCfg))
	require.EqualValues(t, 4, chainHeight(t, srcCfg))
}
