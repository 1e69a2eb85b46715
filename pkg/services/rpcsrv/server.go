package rpcsrv

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/fracnft/fracnft/pkg/neorpc"
	"github.com/fracnft/fracnft/pkg/neorpc/result"
	"github.com/fracnft/fracnft/pkg/services/rpcsrv/params"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/fracnft/fracnft/pkg/wallet"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type (
	// Ledger abstracts away the Blockchain as used by the RPC server.
	Ledger interface {
		BlockHeight() uint64
		Call(from common.Address, to *common.Address, value *big.Int, data []byte) *state.Execution
		CurrentBlockHash() common.Hash
		GetAccounts() []*wallet.Account
		GetAppExecResult(hash common.Hash) (*state.AppExecResult, error)
		GetBalance(addr common.Address) *big.Int
		GetBlock(hash common.Hash) (*block.Block, error)
		GetCode(addr common.Address) []byte
		GetConfig() config.Blockchain
		GetHeaderHash(index uint64) common.Hash
		GetNonce(addr common.Address) uint64
		GetPendingNonce(addr common.Address) uint64
		GetTransaction(hash common.Hash) (*types.Transaction, uint64, error)
		PoolTx(tx *types.Transaction) error
		Signer() types.Signer
		SubscribeForBlocks(ch chan *block.Block)
		SubscribeForExecutions(ch chan *state.AppExecResult)
		UnsubscribeFromBlocks(ch chan *block.Block)
		UnsubscribeFromExecutions(ch chan *state.AppExecResult)
	}

	// Server represents the JSON-RPC 2.0 server.
	Server struct {
		http      []*http.Server
		chain     Ledger
		config    config.RPC
		userAgent string
		// wsReadLimit represents web-socket message limit for a receiving side.
		wsReadLimit int64
		upgrader    websocket.Upgrader
		log         *zap.Logger
		shutdown    chan struct{}
		started     *atomic.Bool
		errChan     chan error

		// sendLock serializes nonce assignment for eth_sendTransaction.
		sendLock sync.Mutex

		subsLock    sync.RWMutex
		subscribers map[*subscriber]bool

		subsCounterLock sync.RWMutex
		blockSubs       int
		logSubs         int

		blockCh     chan *block.Block
		executionCh chan *state.AppExecResult
	}
)

const (
	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2

	// defaultGasLimit is used for transactions that don't specify gas and
	// returned by eth_estimateGas. Gas is not metered by the chain.
	defaultGasLimit = 10_000_000

	// transferGas is the estimation for plain value transfers.
	transferGas = 21000
)

var rpcHandlers = map[string]func(*Server, params.Params) (any, *neorpc.Error){
	"eth_accounts":              (*Server).accounts,
	"eth_blockNumber":           (*Server).blockNumber,
	"eth_call":                  (*Server).call,
	"eth_chainId":               (*Server).chainID,
	"eth_estimateGas":           (*Server).estimateGas,
	"eth_gasPrice":              (*Server).gasPrice,
	"eth_getBalance":            (*Server).getBalance,
	"eth_getBlockByHash":        (*Server).getBlockByHash,
	"eth_getBlockByNumber":      (*Server).getBlockByNumber,
	"eth_getCode":               (*Server).getCode,
	"eth_getTransactionByHash":  (*Server).getTransactionByHash,
	"eth_getTransactionCount":   (*Server).getTransactionCount,
	"eth_getTransactionReceipt": (*Server).getTransactionReceipt,
	"eth_sendRawTransaction":    (*Server).sendRawTransaction,
	"eth_sendTransaction":       (*Server).sendTransaction,
	"fracnft_getApplicationLog": (*Server).getApplicationLog,
	"net_version":               (*Server).netVersion,
	"web3_clientVersion":        (*Server).clientVersion,
}

var rpcWsHandlers = map[string]func(*Server, params.Params, *subscriber) (any, *neorpc.Error){
	"eth_subscribe":   (*Server).subscribe,
	"eth_unsubscribe": (*Server).unsubscribe,
}

// nullResult is returned for missing blocks, transactions and receipts.
var nullResult = json.RawMessage("null")

// New creates a new Server struct. Errors of the listening goroutines are
// passed to errChan.
func New(chain Ledger, conf config.RPC, userAgent string, log *zap.Logger, errChan chan error) *Server {
	addrs := conf.GetAddresses()
	httpServers := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		httpServers[i] = &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if conf.MaxWebSocketClients == 0 {
		conf.MaxWebSocketClients = config.DefaultMaxWebSocketClients
		log.Info("MaxWebSocketClients is not set or wrong, setting default value", zap.Int("MaxWebSocketClients", config.DefaultMaxWebSocketClients))
	}
	if conf.MaxRequestBodyBytes == 0 {
		conf.MaxRequestBodyBytes = config.DefaultMaxRequestBodyBytes
	}
	var wsOriginChecker func(*http.Request) bool
	if conf.EnableCORSWorkaround {
		wsOriginChecker = func(_ *http.Request) bool { return true }
	}
	return &Server{
		http:        httpServers,
		chain:       chain,
		config:      conf,
		userAgent:   userAgent,
		wsReadLimit: int64(conf.MaxRequestBodyBytes),
		upgrader:    websocket.Upgrader{CheckOrigin: wsOriginChecker},
		log:         log.With(zap.String("service", "RPC")),
		shutdown:    make(chan struct{}),
		started:     atomic.NewBool(false),
		errChan:     errChan,

		subscribers: make(map[*subscriber]bool),
		// These are NOT buffered to preserve original order of events.
		blockCh:     make(chan *block.Block),
		executionCh: make(chan *state.AppExecResult),
	}
}

// Name returns service name.
func (s *Server) Name() string {
	return "rpc"
}

// Addresses returns the addresses the server listens on, they're only
// final after Start.
func (s *Server) Addresses() []string {
	res := make([]string, len(s.http))
	for i, srv := range s.http {
		res[i] = srv.Addr
	}
	return res
}

// Start creates a new JSON-RPC server listening on the configured addresses.
// It creates goroutines needed internally and it returns its errors via
// errChan passed to New(). The Server only starts once, subsequent calls to
// Start are no-op.
func (s *Server) Start() {
	if !s.config.Enabled {
		s.log.Info("RPC server is not enabled")
		return
	}
	if !s.started.CAS(false, true) {
		s.log.Info("RPC server already started")
		return
	}
	go s.handleSubEvents()
	for _, srv := range s.http {
		srv.Handler = http.HandlerFunc(s.handleHTTPRequest)
		s.log.Info("starting rpc-server", zap.String("endpoint", srv.Addr))

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			s.errChan <- err
			return
		}
		srv.Addr = ln.Addr().String() // set Addr to the actual address
		go func(srv *http.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("failed to start RPC server", zap.Error(err))
				s.errChan <- err
			}
		}(srv, ln)
	}
}

// Shutdown stops the RPC server if it's running. It can only be called once,
// subsequent calls to Shutdown on the same instance are no-op. The instance
// that was stopped can not be started again by calling Start (use a new
// instance if needed).
func (s *Server) Shutdown() {
	if !s.started.CAS(true, false) {
		return
	}
	// Signal to websocket writer routines and handleSubEvents.
	close(s.shutdown)

	for _, srv := range s.http {
		s.log.Info("shutting down RPC server", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			s.log.Warn("error during RPC (http) server shutdown", zap.Error(err))
		}
	}

	// Wait for handleSubEvents to finish.
	<-s.executionCh
}

func (s *Server) handleHTTPRequest(w http.ResponseWriter, httpRequest *http.Request) {
	req := params.NewRequest()

	if httpRequest.Method == http.MethodGet && websocket.IsWebSocketUpgrade(httpRequest) {
		// Technically there is a race between this check and
		// s.subscribers modification below, but it's tiny and
		// not really critical.
		s.subsLock.RLock()
		numOfSubs := len(s.subscribers)
		s.subsLock.RUnlock()
		if numOfSubs >= s.config.MaxWebSocketClients {
			s.writeHTTPErrorResponse(
				params.NewIn(),
				w,
				neorpc.NewInternalServerError("websocket users limit reached"),
			)
			return
		}
		ws, err := s.upgrader.Upgrade(w, httpRequest, nil)
		if err != nil {
			s.log.Info("websocket connection upgrade failed", zap.Error(err))
			return
		}
		resChan := make(chan abstractResult) // response.abstract or response.abstractBatch
		subChan := make(chan *websocket.PreparedMessage, notificationBufSize)
		subscr := &subscriber{writer: subChan, ws: ws, feeds: make(map[string]feed)}
		s.subsLock.Lock()
		s.subscribers[subscr] = true
		s.subsLock.Unlock()
		wsClients.Inc()
		go s.handleWsWrites(ws, resChan, subChan)
		s.handleWsReads(ws, resChan, subscr)
		return
	}

	if httpRequest.Method == http.MethodOptions && s.config.EnableCORSWorkaround { // Preflight CORS.
		setCORSOriginHeaders(w.Header())
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST") // GET for websockets.
		w.Header().Set("Access-Control-Max-Age", "21600")           // 6 hours.
		return
	}

	if httpRequest.Method != http.MethodPost {
		s.writeHTTPErrorResponse(
			params.NewIn(),
			w,
			neorpc.NewInvalidParamsError(fmt.Sprintf("invalid method '%s', please retry with 'POST'", httpRequest.Method)),
		)
		return
	}

	httpRequest.Body = http.MaxBytesReader(w, httpRequest.Body, int64(s.config.MaxRequestBodyBytes))
	err := req.DecodeData(httpRequest.Body)
	if err != nil {
		s.writeHTTPErrorResponse(params.NewIn(), w, neorpc.NewParseError(err.Error()))
		return
	}

	resp := s.handleRequest(req, nil)
	s.writeHTTPServerResponse(req, w, resp)
}

func (s *Server) handleRequest(req *params.Request, sub *subscriber) abstractResult {
	if req.In != nil {
		req.In.Method = escapeForLog(req.In.Method) // No valid method name will be changed by it.
		return s.handleIn(req.In, sub)
	}
	resp := make(abstractBatch, len(req.Batch))
	for i, in := range req.Batch {
		in.Method = escapeForLog(in.Method) // No valid method name will be changed by it.
		resp[i] = s.handleIn(&in, sub)
	}
	return resp
}

func (s *Server) handleIn(req *params.In, sub *subscriber) abstract {
	var res any
	var resErr *neorpc.Error
	if req.JSONRPC != neorpc.JSONRPCVersion {
		return s.packResponse(req, nil, neorpc.NewInvalidParamsError(fmt.Sprintf("problem parsing JSON: invalid version, expected 2.0 got '%s'", req.JSONRPC)))
	}

	reqParams := params.Params(req.RawParams)

	s.log.Debug("processing rpc request",
		zap.String("method", req.Method),
		zap.Stringer("params", reqParams))

	start := time.Now()
	defer func() { addReqTimeMetric(req.Method, time.Since(start)) }()

	resErr = neorpc.NewMethodNotFoundError(fmt.Sprintf("method %q not supported", req.Method))
	handler, ok := rpcHandlers[req.Method]
	if ok {
		res, resErr = handler(s, reqParams)
	} else if sub != nil {
		handler, ok := rpcWsHandlers[req.Method]
		if ok {
			res, resErr = handler(s, reqParams, sub)
		}
	}
	return s.packResponse(req, res, resErr)
}

func (s *Server) handleWsWrites(ws *websocket.Conn, resChan <-chan abstractResult, subChan <-chan *websocket.PreparedMessage) {
	pingTicker := time.NewTicker(wsPingPeriod)
eventloop:
	for {
		select {
		case <-s.shutdown:
			break eventloop
		case event, ok := <-subChan:
			if !ok {
				break eventloop
			}
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WritePreparedMessage(event); err != nil {
				break eventloop
			}
		case res, ok := <-resChan:
			if !ok {
				break eventloop
			}
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteJSON(res); err != nil {
				break eventloop
			}
		case <-pingTicker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				break eventloop
			}
		}
	}
	ws.Close()
	pingTicker.Stop()
	// Drain notification channel as there might be some goroutines blocked
	// on it.
drainloop:
	for {
		select {
		case _, ok := <-subChan:
			if !ok {
				break drainloop
			}
		default:
			break drainloop
		}
	}
}

func (s *Server) handleWsReads(ws *websocket.Conn, resChan chan<- abstractResult, subscr *subscriber) {
	ws.SetReadLimit(s.wsReadLimit)
	err := ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
requestloop:
	for err == nil {
		req := params.NewRequest()
		err := ws.ReadJSON(req)
		if err != nil {
			break
		}
		res := s.handleRequest(req, subscr)
		res.RunForErrors(func(jsonErr *neorpc.Error) {
			s.logRequestError(req, jsonErr)
		})
		select {
		case <-s.shutdown:
			break requestloop
		case resChan <- res:
		}
	}

	s.subsLock.Lock()
	delete(s.subscribers, subscr)
	wsClients.Dec()
	feeds := subscr.feeds
	subscr.feeds = nil
	s.subsLock.Unlock()
	s.subsCounterLock.Lock()
	for _, f := range feeds {
		s.unsubscribeFromChannel(f.event)
	}
	s.subsCounterLock.Unlock()
	close(resChan)
	ws.Close()
}

func (s *Server) accounts(_ params.Params) (any, *neorpc.Error) {
	accs := s.chain.GetAccounts()
	res := make([]common.Address, len(accs))
	for i, acc := range accs {
		res[i] = acc.Address
	}
	return res, nil
}

func (s *Server) blockNumber(_ params.Params) (any, *neorpc.Error) {
	return hexutil.Uint64(s.chain.BlockHeight()), nil
}

func (s *Server) chainID(_ params.Params) (any, *neorpc.Error) {
	return hexutil.Uint64(s.chain.GetConfig().ChainID), nil
}

func (s *Server) netVersion(_ params.Params) (any, *neorpc.Error) {
	return strconv.FormatUint(s.chain.GetConfig().ChainID, 10), nil
}

func (s *Server) clientVersion(_ params.Params) (any, *neorpc.Error) {
	return s.userAgent, nil
}

func (s *Server) gasPrice(_ params.Params) (any, *neorpc.Error) {
	return (*hexutil.Big)(new(big.Int)), nil
}

// stateParam checks that the block parameter refers to the current state,
// historical states are not kept. It returns true for the pending state.
func (s *Server) stateParam(p *params.Param) (bool, *neorpc.Error) {
	n, err := p.GetBlockNumber()
	if err != nil {
		return false, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	switch n {
	case params.LatestBlockNumber:
		return false, nil
	case params.PendingBlockNumber:
		return true, nil
	case params.EarliestBlockNumber:
		n = 0
	}
	if uint64(n) != s.chain.BlockHeight() {
		return false, neorpc.NewInvalidParamsError(fmt.Sprintf("state of block %s is not available", n))
	}
	return false, nil
}

func (s *Server) addressAndState(reqParams params.Params) (common.Address, bool, *neorpc.Error) {
	addr, err := reqParams.Value(0).GetAddress()
	if err != nil {
		return common.Address{}, false, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	pending, respErr := s.stateParam(reqParams.Value(1))
	return addr, pending, respErr
}

func (s *Server) getBalance(reqParams params.Params) (any, *neorpc.Error) {
	addr, _, respErr := s.addressAndState(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	return (*hexutil.Big)(s.chain.GetBalance(addr)), nil
}

func (s *Server) getTransactionCount(reqParams params.Params) (any, *neorpc.Error) {
	addr, pending, respErr := s.addressAndState(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if pending {
		return hexutil.Uint64(s.chain.GetPendingNonce(addr)), nil
	}
	return hexutil.Uint64(s.chain.GetNonce(addr)), nil
}

func (s *Server) getCode(reqParams params.Params) (any, *neorpc.Error) {
	addr, _, respErr := s.addressAndState(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	return hexutil.Bytes(s.chain.GetCode(addr)), nil
}

// invocation runs the transaction arguments against the current state.
func (s *Server) invocation(reqParams params.Params) (*neorpc.TransactionArgs, *state.Execution, *neorpc.Error) {
	args, err := reqParams.Value(0).GetTransactionArgs()
	if err != nil {
		return nil, nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	if len(reqParams) > 1 {
		if _, respErr := s.stateParam(reqParams.Value(1)); respErr != nil {
			return nil, nil, respErr
		}
	}
	var (
		from  common.Address
		value = new(big.Int)
	)
	if args.From != nil {
		from = *args.From
	}
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	return args, s.chain.Call(from, args.To, value, args.CallData()), nil
}

func (s *Server) call(reqParams params.Params) (any, *neorpc.Error) {
	_, res, respErr := s.invocation(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if res.VMState != vmstate.Halt {
		return nil, neorpc.NewExecutionRevertedError(res.FaultException)
	}
	return hexutil.Bytes(res.ReturnData), nil
}

func (s *Server) estimateGas(reqParams params.Params) (any, *neorpc.Error) {
	args, res, respErr := s.invocation(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if res.VMState != vmstate.Halt {
		return nil, neorpc.NewExecutionRevertedError(res.FaultException)
	}
	if args.To != nil && len(args.CallData()) == 0 && len(s.chain.GetCode(*args.To)) == 0 {
		return hexutil.Uint64(transferGas), nil
	}
	return hexutil.Uint64(defaultGasLimit), nil
}

func (s *Server) sendRawTransaction(reqParams params.Params) (any, *neorpc.Error) {
	raw, err := reqParams.Value(0).GetBytesHex()
	if err != nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, fmt.Sprintf("can't decode transaction: %s", err))
	}
	if err := s.chain.PoolTx(tx); err != nil {
		txRejected.Inc()
		return nil, neorpc.NewTransactionRejectedError(err.Error())
	}
	return tx.Hash(), nil
}

func (s *Server) sendTransaction(reqParams params.Params) (any, *neorpc.Error) {
	args, err := reqParams.Value(0).GetTransactionArgs()
	if err != nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	if args.From == nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, "missing sender")
	}
	var acc *wallet.Account
	for _, a := range s.chain.GetAccounts() {
		if a.Address == *args.From {
			acc = a
			break
		}
	}
	if acc == nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, fmt.Sprintf("unknown account %s", args.From))
	}

	s.sendLock.Lock()
	defer s.sendLock.Unlock()

	inner := &types.LegacyTx{
		To:       args.To,
		Gas:      defaultGasLimit,
		GasPrice: new(big.Int),
		Value:    new(big.Int),
		Data:     args.CallData(),
	}
	if args.Nonce != nil {
		inner.Nonce = uint64(*args.Nonce)
	} else {
		inner.Nonce = s.chain.GetPendingNonce(acc.Address)
	}
	if args.Gas != nil {
		inner.Gas = uint64(*args.Gas)
	}
	if args.GasPrice != nil {
		inner.GasPrice = args.GasPrice.ToInt()
	}
	if args.Value != nil {
		inner.Value = args.Value.ToInt()
	}
	tx, err := acc.SignTx(s.chain.Signer(), types.NewTx(inner))
	if err != nil {
		return nil, neorpc.NewInternalServerError(fmt.Sprintf("can't sign transaction: %s", err))
	}
	if err := s.chain.PoolTx(tx); err != nil {
		txRejected.Inc()
		return nil, neorpc.NewTransactionRejectedError(err.Error())
	}
	return tx.Hash(), nil
}

func (s *Server) hashFromParam(param *params.Param) (common.Hash, *neorpc.Error) {
	h, err := param.GetHash()
	if err != nil {
		return common.Hash{}, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	return h, nil
}

// appExecResult returns the execution result of the transaction, nil
// result and nil error mean there is no such transaction.
func (s *Server) appExecResult(reqParams params.Params) (*state.AppExecResult, *neorpc.Error) {
	h, respErr := s.hashFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	aer, err := s.chain.GetAppExecResult(h)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, neorpc.NewInternalServerError(fmt.Sprintf("can't get execution result: %s", err))
	}
	return aer, nil
}

func (s *Server) getTransactionReceipt(reqParams params.Params) (any, *neorpc.Error) {
	aer, respErr := s.appExecResult(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if aer == nil {
		return nullResult, nil
	}
	return aer.Receipt(), nil
}

func (s *Server) getApplicationLog(reqParams params.Params) (any, *neorpc.Error) {
	aer, respErr := s.appExecResult(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if aer == nil {
		return nil, neorpc.ErrUnknownTransaction
	}
	return aer, nil
}

func (s *Server) getTransactionByHash(reqParams params.Params) (any, *neorpc.Error) {
	aer, respErr := s.appExecResult(reqParams)
	if respErr != nil {
		return nil, respErr
	}
	if aer == nil {
		return nullResult, nil
	}
	tx, _, err := s.chain.GetTransaction(aer.Container)
	if err != nil {
		return nil, neorpc.NewInternalServerError(fmt.Sprintf("can't get transaction: %s", err))
	}
	return result.NewTransaction(tx, aer.From, aer.BlockHash, aer.BlockIndex, uint64(aer.TxIndex)), nil
}

func (s *Server) getBlockByNumber(reqParams params.Params) (any, *neorpc.Error) {
	n, err := reqParams.Value(0).GetBlockNumber()
	if err != nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	height := s.chain.BlockHeight()
	var index uint64
	switch n {
	case params.LatestBlockNumber, params.PendingBlockNumber:
		index = height
	case params.EarliestBlockNumber:
		index = 0
	default:
		index = uint64(n)
	}
	if index > height {
		return nullResult, nil
	}
	return s.blockResult(s.chain.GetHeaderHash(index), reqParams.Value(1))
}

func (s *Server) getBlockByHash(reqParams params.Params) (any, *neorpc.Error) {
	h, respErr := s.hashFromParam(reqParams.Value(0))
	if respErr != nil {
		return nil, respErr
	}
	return s.blockResult(h, reqParams.Value(1))
}

func (s *Server) blockResult(h common.Hash, fullParam *params.Param) (any, *neorpc.Error) {
	var full bool
	if fullParam != nil {
		var err error
		full, err = fullParam.GetBoolean()
		if err != nil {
			return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
		}
	}
	b, err := s.chain.GetBlock(h)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nullResult, nil
		}
		return nil, neorpc.NewInternalServerError(fmt.Sprintf("can't get block: %s", err))
	}
	var senders []common.Address
	if full {
		senders = make([]common.Address, len(b.Transactions))
		for i, tx := range b.Transactions {
			senders[i], err = types.Sender(s.chain.Signer(), tx)
			if err != nil {
				return nil, neorpc.NewInternalServerError(fmt.Sprintf("can't recover sender of %s: %s", tx.Hash(), err))
			}
		}
	}
	return result.NewBlock(b, full, senders), nil
}

// subscribe handles subscription requests from websocket clients.
func (s *Server) subscribe(reqParams params.Params, sub *subscriber) (any, *neorpc.Error) {
	streamName, err := reqParams.Value(0).GetString()
	if err != nil {
		return nil, neorpc.ErrInvalidParams
	}
	event, err := neorpc.GetEventIDFromString(streamName)
	if err != nil {
		return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, err.Error())
	}
	var filter any
	if p := reqParams.Value(1); p != nil && !p.IsNull() {
		if event != neorpc.LogEventID {
			return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, fmt.Sprintf("%s subscription doesn't accept filters", event))
		}
		var flt neorpc.LogFilter
		if err := json.Unmarshal(p.RawMessage, &flt); err != nil {
			return nil, neorpc.WrapErrorWithData(neorpc.ErrInvalidParams, fmt.Sprintf("invalid filter: %s", err))
		}
		filter = flt
	}

	s.subsLock.Lock()
	if sub.feeds == nil {
		s.subsLock.Unlock()
		return nil, neorpc.NewInternalServerError("subscriber is closed")
	}
	if s.config.MaxWebSocketFeeds > 0 && len(sub.feeds) >= s.config.MaxWebSocketFeeds {
		s.subsLock.Unlock()
		return nil, neorpc.NewInternalServerError("maximum number of subscriptions is reached")
	}
	subID := subscriptionID(uuid.New())
	sub.feeds[subID] = feed{event: event, filter: filter}
	s.subsLock.Unlock()

	s.subsCounterLock.Lock()
	select {
	case <-s.shutdown:
		s.subsCounterLock.Unlock()
		return nil, neorpc.NewInternalServerError("server is shutting down")
	default:
	}
	s.subscribeToChannel(event)
	s.subsCounterLock.Unlock()
	return subID, nil
}

// subscribeToChannel subscribes RPC server to appropriate chain events if
// it's not yet subscribed for them. It's supposed to be called with
// s.subsCounterLock taken by the caller.
func (s *Server) subscribeToChannel(event neorpc.EventID) {
	switch event {
	case neorpc.BlockEventID:
		if s.blockSubs == 0 {
			s.chain.SubscribeForBlocks(s.blockCh)
		}
		s.blockSubs++
	case neorpc.LogEventID:
		if s.logSubs == 0 {
			s.chain.SubscribeForExecutions(s.executionCh)
		}
		s.logSubs++
	}
}

// unsubscribe handles unsubscription requests from websocket clients.
func (s *Server) unsubscribe(reqParams params.Params, sub *subscriber) (any, *neorpc.Error) {
	id, err := reqParams.Value(0).GetString()
	if err != nil {
		return nil, neorpc.ErrInvalidParams
	}
	s.subsLock.Lock()
	f, ok := sub.feeds[id]
	if ok {
		delete(sub.feeds, id)
	}
	s.subsLock.Unlock()
	if !ok {
		return false, nil
	}

	s.subsCounterLock.Lock()
	s.unsubscribeFromChannel(f.event)
	s.subsCounterLock.Unlock()
	return true, nil
}

// unsubscribeFromChannel unsubscribes RPC server from appropriate chain events
// if there are no other subscribers for it. It must be called with
// s.subsCounterLock held by the caller.
func (s *Server) unsubscribeFromChannel(event neorpc.EventID) {
	switch event {
	case neorpc.BlockEventID:
		s.blockSubs--
		if s.blockSubs == 0 {
			s.chain.UnsubscribeFromBlocks(s.blockCh)
		}
	case neorpc.LogEventID:
		s.logSubs--
		if s.logSubs == 0 {
			s.chain.UnsubscribeFromExecutions(s.executionCh)
		}
	}
}

func (s *Server) handleSubEvents() {
chloop:
	for {
		var events []event
		select {
		case <-s.shutdown:
			break chloop
		case b := <-s.blockCh:
			events = append(events, event{id: neorpc.BlockEventID, payload: result.NewHeader(&b.Header)})
		case aer := <-s.executionCh:
			if aer.VMState != vmstate.Halt {
				continue
			}
			for _, l := range aer.Logs {
				events = append(events, event{id: neorpc.LogEventID, payload: l})
			}
		}
		s.subsLock.RLock()
		for _, e := range events {
			s.deliver(e)
		}
		s.subsLock.RUnlock()
	}
	// It's important to do it with subsCounterLock held because no subscription routine
	// should be running concurrently to this one. And even if one is to run
	// after unlock, it'll see closed s.shutdown and won't subscribe.
	s.subsCounterLock.Lock()
	// There might be no subscription in reality, but it's not a problem as
	// core.Blockchain allows unsubscribing non-subscribed channels.
	s.chain.UnsubscribeFromBlocks(s.blockCh)
	s.chain.UnsubscribeFromExecutions(s.executionCh)
	s.subsCounterLock.Unlock()
drainloop:
	for {
		select {
		case <-s.blockCh:
		case <-s.executionCh:
		default:
			break drainloop
		}
	}
	// It's not required closing these, but since they're drained already
	// this is safe and it also allows to give a signal to Shutdown routine.
	close(s.blockCh)
	close(s.executionCh)
}

// deliver sends the event to every matching feed, it must be called with
// s.subsLock read-locked.
func (s *Server) deliver(e event) {
	payload, err := json.Marshal(e.payload)
	if err != nil {
		s.log.Error("failed to marshal notification",
			zap.Error(err),
			zap.Stringer("type", e.id))
		return
	}
	for sub := range s.subscribers {
		if sub.overflown.Load() {
			continue
		}
		for id, f := range sub.feeds {
			if !f.Matches(e) {
				continue
			}
			b, err := json.Marshal(neorpc.Notification{
				JSONRPC: neorpc.JSONRPCVersion,
				Method:  neorpc.SubscriptionMethod,
				Params: neorpc.SubscriptionResult{
					Subscription: id,
					Result:       json.RawMessage(payload),
				},
			})
			if err != nil {
				s.log.Error("failed to marshal notification", zap.Error(err))
				return
			}
			msg, err := websocket.NewPreparedMessage(websocket.TextMessage, b)
			if err != nil {
				s.log.Error("failed to prepare notification message",
					zap.Error(err),
					zap.Stringer("type", e.id))
				return
			}
			select {
			case sub.writer <- msg:
			default:
				sub.overflown.Store(true)
				s.log.Warn("subscriber is too slow, disconnecting")
				go sub.ws.Close()
			}
			if sub.overflown.Load() {
				break
			}
		}
	}
}

func (s *Server) packResponse(r *params.In, result any, respErr *neorpc.Error) abstract {
	resp := abstract{
		Header: neorpc.Header{
			JSONRPC: r.JSONRPC,
			ID:      r.RawID,
		},
	}
	if respErr != nil {
		resp.Error = respErr
	} else {
		resp.Result = result
	}
	return resp
}

// logRequestError is a request error logger.
func (s *Server) logRequestError(r *params.Request, jsonErr *neorpc.Error) {
	logFields := []zap.Field{
		zap.Int64("code", jsonErr.Code),
	}
	if len(jsonErr.Data) != 0 {
		logFields = append(logFields, zap.String("cause", jsonErr.Data))
	}

	if r.In != nil {
		logFields = append(logFields, zap.String("method", r.In.Method))
		params := params.Params(r.In.RawParams)
		logFields = append(logFields, zap.Any("params", params))
	}

	logText := "Error encountered with rpc request"
	switch jsonErr.Code {
	case neorpc.InternalServerErrorCode:
		s.log.Error(logText, logFields...)
	default:
		s.log.Info(logText, logFields...)
	}
}

// writeHTTPErrorResponse writes an error response to the ResponseWriter.
func (s *Server) writeHTTPErrorResponse(r *params.In, w http.ResponseWriter, jsonErr *neorpc.Error) {
	resp := s.packResponse(r, nil, jsonErr)
	s.writeHTTPServerResponse(&params.Request{In: r}, w, resp)
}

func setCORSOriginHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
}

func (s *Server) writeHTTPServerResponse(r *params.Request, w http.ResponseWriter, resp abstractResult) {
	// Errors can happen in many places and we can only catch ALL of them here.
	resp.RunForErrors(func(jsonErr *neorpc.Error) {
		s.logRequestError(r, jsonErr)
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if s.config.EnableCORSWorkaround {
		setCORSOriginHeaders(w.Header())
	}
	if r.In != nil {
		resp := resp.(abstract)
		if resp.Error != nil {
			w.WriteHeader(getHTTPCodeForError(resp.Error))
		}
	}

	encoder := json.NewEncoder(w)
	err := encoder.Encode(resp)

	if err != nil {
		switch {
		case r.In != nil:
			s.log.Error("Error encountered while encoding response",
				zap.String("err", err.Error()),
				zap.String("method", r.In.Method))
		case r.Batch != nil:
			s.log.Error("Error encountered while encoding batch response",
				zap.String("err", err.Error()))
		}
	}
}

func escapeForLog(in string) string {
	return strings.Map(func(c rune) rune {
		if !strconv.IsGraphic(c) {
			return -1
		}
		return c
	}, in)
}

// subscriptionID returns the printable form of the subscription id.
func subscriptionID(id uuid.UUID) string {
	return "0x" + hex.EncodeToString(id[:])
}
