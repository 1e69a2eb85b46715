/*
Package chain contains functions creating new test blockchain instances.
Chains created here are running in-memory and have a set of prefunded
accounts derived from a fixed seed.
*/
package chain

import (
	"testing"
	"time"

	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/neotest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	// ChainID is the identifier of test chains.
	ChainID = 1337
	// Seed is the phrase test accounts are derived from.
	Seed = "fracnft test chain"
	// AccountCount is the number of prefunded test accounts.
	AccountCount = 10
	// InitialBalance of test accounts in ether.
	InitialBalance = 10000
	// genesisTime is 2023-11-14T22:13:20Z.
	genesisTime = 1700000000
)

// NewSingle creates a new blockchain instance with prefunded accounts. It
// returns the chain and the accounts, the chain is closed on test cleanup.
func NewSingle(t testing.TB) (*core.Blockchain, []neotest.Signer) {
	return NewSingleWithCustomConfig(t, nil)
}

// NewSingleWithCustomConfig is similar to NewSingle, but allows to override
// the default configuration.
func NewSingleWithCustomConfig(t testing.TB, f func(*config.Blockchain)) (*core.Blockchain, []neotest.Signer) {
	return NewSingleWithCustomConfigAndStore(t, f, nil, true)
}

// NewSingleWithCustomConfigAndStore is similar to NewSingleWithCustomConfig, but
// also allows to override the backend Store. If run is true the chain loop
// is started.
func NewSingleWithCustomConfigAndStore(t testing.TB, f func(*config.Blockchain), st storage.Store, run bool) (*core.Blockchain, []neotest.Signer) {
	cfg := config.Blockchain{
		ProtocolConfiguration: config.ProtocolConfiguration{
			ChainID:        ChainID,
			Seed:           Seed,
			Accounts:       AccountCount,
			InitialBalance: InitialBalance,
			BlockTime:      0,
			GenesisTime:    genesisTime,
		},
		ExecResultCacheSize: config.DefaultExecResultCacheSize,
	}
	if f != nil {
		f(&cfg)
	}
	if st == nil {
		st = storage.NewMemoryStore()
	}
	bc, err := core.NewBlockchain(st, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	if run {
		go bc.Run()
		t.Cleanup(bc.Close)
	}
	return bc, neotest.NewSigners(bc.GetAccounts()...)
}

// WaitHeight waits until the chain reaches the height or fails the test.
func WaitHeight(t testing.TB, bc *core.Blockchain, height uint64) {
	require.Eventually(t, func() bool { return bc.BlockHeight() >= height },
		5*time.Second, 10*time.Millisecond, "chain didn't reach height %d", height)
}
