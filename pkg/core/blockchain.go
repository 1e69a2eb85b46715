package core

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/dao"
	"github.com/fracnft/fracnft/pkg/core/interop"
	"github.com/fracnft/fracnft/pkg/core/native"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/fracnft/fracnft/pkg/wallet"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Tuning parameters.
const (
	version = "0.1.0"

	defaultExecResultCacheSize = 1024
)

var (
	// ErrInvalidChainID is returned for transactions not protected by the
	// chain's EIP-155 identifier.
	ErrInvalidChainID = errors.New("invalid chain id")
	// ErrInvalidSignature is returned when the transaction sender can't be
	// recovered.
	ErrInvalidSignature = errors.New("invalid transaction signature")
	// ErrInvalidNonce is returned when the transaction nonce doesn't match
	// the sender's account nonce.
	ErrInvalidNonce = errors.New("invalid nonce")
	// ErrInsufficientFunds is returned when the sender can't pay for the
	// transferred value and fee.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAlreadyExists is returned for transactions already in the chain or
	// in the pool.
	ErrAlreadyExists = dao.ErrAlreadyExists
	// ErrInvalidBlockIndex is returned when a block doesn't follow the
	// current chain tip.
	ErrInvalidBlockIndex = errors.New("invalid block index")
	// ErrInvalidPrevHash is returned when a block doesn't reference the
	// current chain tip.
	ErrInvalidPrevHash = errors.New("invalid previous block hash")
)

// Blockchain represents the blockchain. It maintains internal state
// representing the current chain tip, it executes transactions and stores
// their results.
type Blockchain struct {
	config config.Blockchain

	// lock protects the tip and the state from concurrent modifications
	// and reads.
	lock sync.RWMutex

	dao       *dao.Simple
	contracts *native.Contracts
	signer    types.Signer

	// top is the header of the current chain tip.
	top block.Header

	accounts []*wallet.Account

	execCache *lru.Cache

	// Pending transactions waiting for the next block.
	poolLock sync.Mutex
	pool     []*types.Transaction
	poolCh   chan struct{}

	log *zap.Logger

	stopCh      chan struct{}
	runToExitCh chan struct{}
	isRunning   atomic.Bool

	events  chan bcEvent
	subCh   chan any
	unsubCh chan any
}

// bcEvent is an internal event generated by the Blockchain and then
// broadcasted to other parties. It joins the new block and associated
// execution results.
type bcEvent struct {
	block   *block.Block
	results []*state.AppExecResult
}

// NewBlockchain returns a new blockchain object that will use the
// given Store as its underlying storage. For it to work correctly you need
// to spawn a goroutine for its Run method after this initialization.
func NewBlockchain(s storage.Store, cfg config.Blockchain, log *zap.Logger) (*Blockchain, error) {
	if log == nil {
		return nil, errors.New("empty logger")
	}
	if err := cfg.ProtocolConfiguration.Validate(); err != nil {
		return nil, err
	}
	if cfg.ExecResultCacheSize <= 0 {
		cfg.ExecResultCacheSize = defaultExecResultCacheSize
		log.Info("ExecResultCacheSize is not set or wrong, using default value",
			zap.Int("ExecResultCacheSize", cfg.ExecResultCacheSize))
	}
	cache, err := lru.New(cfg.ExecResultCacheSize)
	if err != nil {
		return nil, err
	}
	accs, err := wallet.DevAccounts(cfg.Seed, cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("can't derive accounts: %w", err)
	}
	bc := &Blockchain{
		config:      cfg,
		dao:         dao.NewSimple(s),
		contracts:   native.NewContracts(),
		signer:      types.NewEIP155Signer(new(big.Int).SetUint64(cfg.ChainID)),
		accounts:    accs,
		execCache:   cache,
		poolCh:      make(chan struct{}, 1),
		log:         log,
		stopCh:      make(chan struct{}),
		runToExitCh: make(chan struct{}),
		events:      make(chan bcEvent),
		subCh:       make(chan any),
		unsubCh:     make(chan any),
	}
	if err := bc.init(); err != nil {
		return nil, err
	}
	return bc, nil
}

func (bc *Blockchain) init() error {
	ver, err := bc.dao.GetVersion()
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("can't read storage version: %w", err)
		}
		bc.log.Info("no storage version found! creating genesis block")
		return bc.createGenesis()
	}
	if ver != version {
		return fmt.Errorf("storage version mismatch (expected=%s, actual=%s)", version, ver)
	}

	height, hash, err := bc.dao.GetCurrentBlockHeight()
	if err != nil {
		return fmt.Errorf("can't read current block: %w", err)
	}
	b, err := bc.dao.GetBlock(height)
	if err != nil {
		return fmt.Errorf("can't read block %d: %w", height, err)
	}
	if b.Hash() != hash {
		return fmt.Errorf("current block hash mismatch: stored %s, computed %s", hash, b.Hash())
	}
	bc.top = b.Header
	bc.log.Info("restoring blockchain", zap.String("version", ver), zap.Uint64("height", height))
	updateBlockHeightMetric(height)
	return nil
}

// createGenesis funds development accounts and stores the genesis block.
func (bc *Blockchain) createGenesis() error {
	genesis := block.New(nil, bc.config.GenesisTime, nil)
	balance := bc.config.InitialBalanceWei()
	for _, acc := range bc.accounts {
		st := state.NewAccount()
		st.Balance.Set(balance)
		if err := bc.dao.PutAccountState(acc.Address, st); err != nil {
			return err
		}
	}
	if err := bc.dao.StoreAsBlock(genesis); err != nil {
		return err
	}
	bc.dao.StoreAsCurrentBlock(genesis)
	bc.dao.PutVersion(version)
	if _, err := bc.dao.Persist(); err != nil {
		return fmt.Errorf("can't persist genesis: %w", err)
	}
	bc.top = genesis.Header
	updateBlockHeightMetric(0)
	return nil
}

// Run runs chain loop, it needs to be run as goroutine and executing it is
// critical for correct Blockchain operation.
func (bc *Blockchain) Run() {
	bc.isRunning.Store(true)
	defer close(bc.runToExitCh)

	go bc.notificationDispatcher()

	var tick <-chan time.Time
	if bc.config.BlockTime > 0 {
		ticker := time.NewTicker(bc.config.BlockTime)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-bc.stopCh:
			return
		case <-bc.poolCh:
			if bc.config.BlockTime == 0 {
				bc.produceBlock()
			}
		case <-tick:
			bc.produceBlock()
		}
	}
}

// produceBlock makes a block out of the pending transactions. The pool stays
// locked until the block is stored, so that pooled nonces are always checked
// against the state including all previously pooled transactions.
// Transactions failing verification are dropped and the block is made again
// from the rest.
func (bc *Blockchain) produceBlock() {
	bc.poolLock.Lock()
	defer bc.poolLock.Unlock()
	txs := bc.pool
	bc.pool = nil

	for len(txs) > 0 {
		bc.lock.RLock()
		top := bc.top
		bc.lock.RUnlock()

		b := block.New(&top, bc.nextTimestamp(&top), txs)
		err := bc.AddBlock(b)
		if err == nil {
			return
		}
		var txErr *invalidTxError
		if !errors.As(err, &txErr) {
			bc.log.Error("failed to add produced block",
				zap.Uint64("index", b.Index),
				zap.Int("txs", len(txs)),
				zap.Error(err))
			return
		}
		bc.log.Warn("dropping invalid pooled transaction",
			zap.Stringer("tx", txErr.hash),
			zap.Error(txErr.err))
		txs = slices.DeleteFunc(txs, func(tx *types.Transaction) bool {
			return tx.Hash() == txErr.hash
		})
	}
}

// invalidTxError is returned from AddBlock for a block with a transaction
// that can't be applied to the state.
type invalidTxError struct {
	hash common.Hash
	err  error
}

func (e *invalidTxError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.hash, e.err)
}

func (e *invalidTxError) Unwrap() error {
	return e.err
}

// nextTimestamp returns the timestamp for the block following prev, it
// never goes back in time.
func (bc *Blockchain) nextTimestamp(prev *block.Header) uint64 {
	ts := uint64(time.Now().Unix())
	if ts < prev.Timestamp {
		ts = prev.Timestamp
	}
	return ts
}

// Close stops Blockchain's internal loop, syncs changes to persistent
// storage and closes it. The Blockchain is no longer functional after the
// call to Close.
func (bc *Blockchain) Close() {
	if bc.isRunning.Load() {
		close(bc.stopCh)
		<-bc.runToExitCh
	}
	bc.lock.Lock()
	defer bc.lock.Unlock()
	if _, err := bc.dao.Persist(); err != nil {
		bc.log.Warn("failed to persist", zap.Error(err))
	}
	if err := bc.dao.Store.Close(); err != nil {
		bc.log.Warn("failed to close db", zap.Error(err))
	}
}

// AddBlock accepts a successive block for the Blockchain, verifies it,
// executes its transactions and stores the results.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	bc.lock.Lock()
	results, err := bc.addBlock(b)
	bc.lock.Unlock()
	if err != nil {
		return err
	}
	if bc.isRunning.Load() {
		select {
		case bc.events <- bcEvent{block: b, results: results}:
		case <-bc.stopCh:
		}
	}
	return nil
}

func (bc *Blockchain) addBlock(b *block.Block) ([]*state.AppExecResult, error) {
	if b.Index != bc.top.Index+1 {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidBlockIndex, bc.top.Index+1, b.Index)
	}
	if b.PrevHash != bc.top.Hash() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrevHash, b.PrevHash)
	}
	if b.Timestamp < bc.top.Timestamp {
		return nil, fmt.Errorf("block timestamp %d is before the previous one %d", b.Timestamp, bc.top.Timestamp)
	}
	if b.Trimmed {
		return nil, errors.New("can't add trimmed block")
	}
	if err := b.Verify(); err != nil {
		return nil, fmt.Errorf("block %s is invalid: %w", b.Hash(), err)
	}
	return bc.storeBlock(b)
}

// storeBlock performs chain update using the block given, it executes all
// transactions with all appropriate side-effects and updates Blockchain
// state. This is the only way to change Blockchain state.
func (bc *Blockchain) storeBlock(b *block.Block) ([]*state.AppExecResult, error) {
	var (
		start    = time.Now()
		cache    = bc.dao.GetPrivate()
		hash     = b.Hash()
		results  = make([]*state.AppExecResult, 0, len(b.Transactions))
		logIndex uint
		faulted  int
	)
	for i, tx := range b.Transactions {
		aer, err := bc.applyTransaction(cache, &b.Header, hash, uint(i), tx)
		if err != nil {
			return nil, &invalidTxError{hash: tx.Hash(), err: err}
		}
		for _, l := range aer.Logs {
			l.Index = logIndex
			logIndex++
		}
		if aer.VMState != vmstate.Halt {
			faulted++
			bc.log.Debug("transaction faulted",
				zap.Stringer("tx", tx.Hash()),
				zap.String("exception", aer.FaultException))
		}
		results = append(results, aer)
	}
	if err := cache.StoreAsBlock(b); err != nil {
		return nil, err
	}
	cache.StoreAsCurrentBlock(b)
	if _, err := cache.Persist(); err != nil {
		return nil, fmt.Errorf("failed to persist block changes: %w", err)
	}
	if _, err := bc.dao.Persist(); err != nil {
		return nil, fmt.Errorf("failed to persist block: %w", err)
	}
	bc.top = b.Header
	for _, aer := range results {
		bc.execCache.Add(aer.Container, aer)
	}
	updateBlockHeightMetric(b.Index)
	updateTxMetrics(len(results), faulted)
	bc.log.Debug("persisted block",
		zap.Uint64("index", b.Index),
		zap.Int("txs", len(b.Transactions)),
		zap.Duration("took", time.Since(start)))
	return results, nil
}

// applyTransaction charges the sender and executes the transaction on top
// of d. State changes of a faulted execution are discarded, the nonce
// increment and the fee are kept.
func (bc *Blockchain) applyTransaction(d *dao.Simple, h *block.Header, blockHash common.Hash, index uint, tx *types.Transaction) (*state.AppExecResult, error) {
	from, err := bc.verifyTx(d, tx, 0, nil)
	if err != nil {
		return nil, err
	}
	txCache := d.GetPrivate()
	acc, err := txCache.GetAccountStateOrNew(from)
	if err != nil {
		return nil, err
	}
	nonce := acc.Nonce
	acc.Nonce++
	acc.Balance.Sub(acc.Balance, fee(tx))
	if err := txCache.PutAccountState(from, acc); err != nil {
		return nil, err
	}

	exec := txCache.GetPrivate()
	ic := interop.NewContext(exec, bc.contracts, h, tx, from, bc.log)
	ret, created, err := ic.Execute(tx.To(), tx.Value(), tx.Data(), nonce)

	aer := &state.AppExecResult{
		Container:  tx.Hash(),
		BlockIndex: h.Index,
		BlockHash:  blockHash,
		TxIndex:    index,
		From:       from,
		To:         tx.To(),
	}
	if err != nil {
		aer.VMState = vmstate.Fault
		aer.FaultException = err.Error()
		aer.Logs = []*types.Log{}
	} else {
		if _, err := exec.Persist(); err != nil {
			return nil, err
		}
		aer.VMState = vmstate.Halt
		aer.ReturnData = ret
		aer.ContractAddress = created
		aer.Logs = ic.Logs
		for _, l := range aer.Logs {
			l.BlockNumber = h.Index
			l.TxHash = aer.Container
			l.TxIndex = index
			l.BlockHash = blockHash
		}
	}
	if err := txCache.StoreAsTransaction(tx, h.Index, aer); err != nil {
		return nil, err
	}
	if _, err := txCache.Persist(); err != nil {
		return nil, err
	}
	return aer, nil
}

// fee returns the amount of wei the sender pays for the transaction on top
// of its value.
func fee(tx *types.Transaction) *big.Int {
	return new(big.Int).Sub(tx.Cost(), tx.Value())
}

// verifyTx checks the transaction against the state in d. pending is the
// number of transactions from the same sender preceding it and spent is
// their total cost (nil for none). It returns the transaction sender.
func (bc *Blockchain) verifyTx(d *dao.Simple, tx *types.Transaction, pending uint64, spent *big.Int) (common.Address, error) {
	if !tx.Protected() || tx.ChainId().Uint64() != bc.config.ChainID {
		return common.Address{}, fmt.Errorf("%w: %s", ErrInvalidChainID, tx.ChainId())
	}
	from, err := types.Sender(bc.signer, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if d.HasTransaction(tx.Hash()) {
		return common.Address{}, ErrAlreadyExists
	}
	acc, err := d.GetAccountStateOrNew(from)
	if err != nil {
		return common.Address{}, err
	}
	if tx.Nonce() != acc.Nonce+pending {
		return common.Address{}, fmt.Errorf("%w: expected %d, got %d", ErrInvalidNonce, acc.Nonce+pending, tx.Nonce())
	}
	need := tx.Cost()
	if spent != nil {
		need.Add(need, spent)
	}
	if acc.Balance.Cmp(need) < 0 {
		return common.Address{}, fmt.Errorf("%w: have %s, want %s", ErrInsufficientFunds, acc.Balance, need)
	}
	return from, nil
}

// PoolTx verifies the transaction and adds it to the set of transactions
// included into the next block.
func (bc *Blockchain) PoolTx(tx *types.Transaction) error {
	bc.poolLock.Lock()
	defer bc.poolLock.Unlock()

	from, err := types.Sender(bc.signer, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var (
		pending uint64
		spent   = new(big.Int)
	)
	for _, ptx := range bc.pool {
		if ptx.Hash() == tx.Hash() {
			return ErrAlreadyExists
		}
		if sender, _ := types.Sender(bc.signer, ptx); sender == from {
			pending++
			spent.Add(spent, ptx.Cost())
		}
	}
	bc.lock.RLock()
	_, err = bc.verifyTx(bc.dao, tx, pending, spent)
	bc.lock.RUnlock()
	if err != nil {
		return err
	}
	bc.pool = append(bc.pool, tx)
	select {
	case bc.poolCh <- struct{}{}:
	default:
	}
	return nil
}

// GetPendingNonce returns the nonce the next transaction of the address
// should have, pooled transactions are taken into account.
func (bc *Blockchain) GetPendingNonce(addr common.Address) uint64 {
	bc.poolLock.Lock()
	defer bc.poolLock.Unlock()
	nonce := bc.GetNonce(addr)
	for _, ptx := range bc.pool {
		if sender, _ := types.Sender(bc.signer, ptx); sender == addr {
			nonce++
		}
	}
	return nonce
}

// Call performs a read-only invocation on top of the current state as if it
// was made in the next block. No changes are persisted.
func (bc *Blockchain) Call(from common.Address, to *common.Address, value *big.Int, data []byte) *state.Execution {
	bc.lock.RLock()
	defer bc.lock.RUnlock()

	h := &block.Header{
		Index:     bc.top.Index + 1,
		PrevHash:  bc.top.Hash(),
		Timestamp: bc.nextTimestamp(&bc.top),
	}
	d := bc.dao.GetPrivate()
	acc, err := d.GetAccountStateOrNew(from)
	if err != nil {
		return &state.Execution{VMState: vmstate.Fault, FaultException: err.Error()}
	}
	ic := interop.NewContext(d, bc.contracts, h, nil, from, bc.log)
	ret, created, err := ic.Execute(to, value, data, acc.Nonce)
	if err != nil {
		return &state.Execution{VMState: vmstate.Fault, FaultException: err.Error(), Logs: []*types.Log{}}
	}
	return &state.Execution{
		VMState:         vmstate.Halt,
		ReturnData:      ret,
		Logs:            ic.Logs,
		ContractAddress: created,
	}
}

// BlockHeight returns the height/index of the highest block.
func (bc *Blockchain) BlockHeight() uint64 {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.top.Index
}

// CurrentBlockHash returns the highest processed block hash.
func (bc *Blockchain) CurrentBlockHash() common.Hash {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.top.Hash()
}

// GetHeaderHash returns hash of the header/block with specified index, if
// Blockchain doesn't have a hash for this height, zero hash is returned.
func (bc *Blockchain) GetHeaderHash(index uint64) common.Hash {
	b, err := bc.dao.GetBlock(index)
	if err != nil {
		return common.Hash{}
	}
	return b.Hash()
}

// GetHeader returns data block header identified with the given hash value.
func (bc *Blockchain) GetHeader(hash common.Hash) (*block.Header, error) {
	b, err := bc.getTrimmedBlock(hash)
	if err != nil {
		return nil, err
	}
	return &b.Header, nil
}

func (bc *Blockchain) getTrimmedBlock(hash common.Hash) (*block.Block, error) {
	index, err := bc.dao.GetBlockIndex(hash)
	if err != nil {
		return nil, err
	}
	return bc.dao.GetBlock(index)
}

// GetBlock returns a Block by the given hash with all of its transactions.
func (bc *Blockchain) GetBlock(hash common.Hash) (*block.Block, error) {
	b, err := bc.getTrimmedBlock(hash)
	if err != nil {
		return nil, err
	}
	txs := make([]*types.Transaction, 0, len(b.TxHashes))
	for _, h := range b.TxHashes {
		tx, _, err := bc.dao.GetTransaction(h)
		if err != nil {
			return nil, fmt.Errorf("can't get transaction %s: %w", h, err)
		}
		txs = append(txs, tx)
	}
	return &block.Block{Header: b.Header, Transactions: txs}, nil
}

// HasTransaction returns true if the blockchain contains the given
// transaction hash.
func (bc *Blockchain) HasTransaction(hash common.Hash) bool {
	return bc.dao.HasTransaction(hash)
}

// GetTransaction returns a TX and its height by the given hash.
func (bc *Blockchain) GetTransaction(hash common.Hash) (*types.Transaction, uint64, error) {
	return bc.dao.GetTransaction(hash)
}

// GetAppExecResult returns application execution result by the given
// transaction hash.
func (bc *Blockchain) GetAppExecResult(hash common.Hash) (*state.AppExecResult, error) {
	if aer, ok := bc.execCache.Get(hash); ok {
		return aer.(*state.AppExecResult), nil
	}
	aer, err := bc.dao.GetAppExecResult(hash)
	if err != nil {
		return nil, err
	}
	bc.execCache.Add(hash, aer)
	return aer, nil
}

// GetBalance returns the wei balance of the account.
func (bc *Blockchain) GetBalance(addr common.Address) *big.Int {
	acc, err := bc.dao.GetAccountStateOrNew(addr)
	if err != nil {
		return new(big.Int)
	}
	return acc.Balance
}

// GetNonce returns the number of transactions sent from the account.
func (bc *Blockchain) GetNonce(addr common.Address) uint64 {
	acc, err := bc.dao.GetAccountStateOrNew(addr)
	if err != nil {
		return 0
	}
	return acc.Nonce
}

// GetContractState returns the contract deployed at the address.
func (bc *Blockchain) GetContractState(addr common.Address) (*state.Contract, error) {
	return bc.dao.GetContractState(addr)
}

// GetCode returns the code stored for the contract at the address or nil
// for accounts without code.
func (bc *Blockchain) GetCode(addr common.Address) []byte {
	cs, err := bc.dao.GetContractState(addr)
	if err != nil {
		return nil
	}
	return interop.Code(cs.Name)
}

// GetConfig returns the config stored in the blockchain.
func (bc *Blockchain) GetConfig() config.Blockchain {
	return bc.config
}

// GetAccounts returns prefunded development accounts.
func (bc *Blockchain) GetAccounts() []*wallet.Account {
	return bc.accounts
}

// Contracts returns the set of native contracts.
func (bc *Blockchain) Contracts() *native.Contracts {
	return bc.contracts
}

// Signer returns the transaction signer of the chain.
func (bc *Blockchain) Signer() types.Signer {
	return bc.signer
}

// notificationDispatcher manages subscription to events and broadcasts new
// events.
func (bc *Blockchain) notificationDispatcher() {
	var (
		// These are just sets of subscribers, though modelled as maps
		// for ease of management (not a lot of subscriptions is really
		// expected, but maps are convenient for adding/deleting elements).
		blockFeed     = make(map[chan *block.Block]bool)
		executionFeed = make(map[chan *state.AppExecResult]bool)
	)
	for {
		select {
		case <-bc.stopCh:
			return
		case sub := <-bc.subCh:
			switch ch := sub.(type) {
			case chan *block.Block:
				blockFeed[ch] = true
			case chan *state.AppExecResult:
				executionFeed[ch] = true
			default:
				panic(fmt.Sprintf("bad subscription: %T", sub))
			}
		case unsub := <-bc.unsubCh:
			switch ch := unsub.(type) {
			case chan *block.Block:
				delete(blockFeed, ch)
			case chan *state.AppExecResult:
				delete(executionFeed, ch)
			default:
				panic(fmt.Sprintf("bad unsubscription: %T", unsub))
			}
		case event := <-bc.events:
			// We don't want to waste time looping through transactions when there are no
			// subscribers.
			if len(executionFeed) != 0 {
				for _, aer := range event.results {
					for ch := range executionFeed {
						ch <- aer
					}
				}
			}
			for ch := range blockFeed {
				ch <- event.block
			}
		}
	}
}

// SubscribeForBlocks adds given channel to new block event broadcasting, so
// when there is a new block added to the chain you'll receive it via this
// channel. Make sure it's read from regularly as not reading these events
// might affect other Blockchain functions. Make sure you're not changing the
// received blocks, as it may affect the functionality of other subscribers.
func (bc *Blockchain) SubscribeForBlocks(ch chan *block.Block) {
	bc.subCh <- ch
}

// SubscribeForExecutions adds given channel to new transaction execution
// event broadcasting, so when an execution happens you'll receive it via
// this channel. Executions are sent before the block they belong to.
func (bc *Blockchain) SubscribeForExecutions(ch chan *state.AppExecResult) {
	bc.subCh <- ch
}

// UnsubscribeFromBlocks unsubscribes given channel from new block
// notifications, you can close it afterwards. Passing non-subscribed channel
// is a no-op, but the method can read from this channel (discarding any read
// data).
func (bc *Blockchain) UnsubscribeFromBlocks(ch chan *block.Block) {
unsubloop:
	for {
		select {
		case <-ch:
		case bc.unsubCh <- ch:
			break unsubloop
		}
	}
}

// UnsubscribeFromExecutions unsubscribes given channel from new execution
// notifications, you can close it afterwards. Passing non-subscribed channel
// is a no-op, but the method can read from this channel (discarding any read
// data).
func (bc *Blockchain) UnsubscribeFromExecutions(ch chan *state.AppExecResult) {
unsubloop:
	for {
		select {
		case <-ch:
		case bc.unsubCh <- ch:
			break unsubloop
		}
	}
}
