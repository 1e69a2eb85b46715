package rpcsrv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/fracnft/fracnft/pkg/core"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/fracnft/fracnft/pkg/neorpc"
	"github.com/fracnft/fracnft/pkg/neorpc/result"
	"github.com/fracnft/fracnft/pkg/neotest/chain"
	"github.com/fracnft/fracnft/pkg/vm/vmstate"
	"github.com/fracnft/fracnft/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type executor struct {
	chain   *core.Blockchain
	httpSrv *httptest.Server
}

type rpcTestCase struct {
	name    string
	params  string
	fail    bool
	errCode int64
	result  func(e *executor) any
	check   func(t *testing.T, e *executor, result any)
}

const testUserAgent = "/fracnft:test/"

var rpcTestCases = map[string][]rpcTestCase{
	"eth_chainId": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any {
				v := hexutil.Uint64(chain.ChainID)
				return &v
			},
		},
	},
	"net_version": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any {
				v := "1337"
				return &v
			},
		},
	},
	"web3_clientVersion": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any {
				v := testUserAgent
				return &v
			},
		},
	},
	"eth_blockNumber": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any {
				v := hexutil.Uint64(e.chain.BlockHeight())
				return &v
			},
		},
	},
	"eth_gasPrice": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any { return new(hexutil.Big) },
			check: func(t *testing.T, e *executor, res any) {
				require.Equal(t, 0, res.(*hexutil.Big).ToInt().Sign())
			},
		},
	},
	"eth_accounts": {
		{
			name:   "positive",
			params: `[]`,
			result: func(e *executor) any { return new([]common.Address) },
			check: func(t *testing.T, e *executor, res any) {
				accs := *res.(*[]common.Address)
				require.Len(t, accs, chain.AccountCount)
				require.Equal(t, e.chain.GetAccounts()[0].Address, accs[0])
			},
		},
	},
	"eth_getBalance": {
		{
			name:   "positive",
			params: `["` + testAccount(0).Hex() + `", "latest"]`,
			result: func(e *executor) any { return new(hexutil.Big) },
			check: func(t *testing.T, e *executor, res any) {
				expected := e.chain.GetBalance(testAccount(0))
				require.Equal(t, 0, expected.Cmp(res.(*hexutil.Big).ToInt()))
				require.Equal(t, 1, expected.Sign())
			},
		},
		{
			name:   "no block parameter",
			params: `["` + testAccount(1).Hex() + `"]`,
			result: func(e *executor) any { return new(hexutil.Big) },
			check: func(t *testing.T, e *executor, res any) {
				require.Equal(t, 0, e.chain.GetBalance(testAccount(1)).Cmp(res.(*hexutil.Big).ToInt()))
			},
		},
		{
			name:   "unknown account",
			params: `["0x00000000000000000000000000000000000000aa", "latest"]`,
			result: func(e *executor) any { return new(hexutil.Big) },
			check: func(t *testing.T, e *executor, res any) {
				require.Equal(t, 0, res.(*hexutil.Big).ToInt().Sign())
			},
		},
		{
			name:    "invalid address",
			params:  `["0x12", "latest"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "historical state",
			params:  `["` + testAccount(0).Hex() + `", "0x5"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "no params",
			params:  `[]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_getTransactionCount": {
		{
			name:   "latest",
			params: `["` + testAccount(0).Hex() + `", "latest"]`,
			result: func(e *executor) any { return new(hexutil.Uint64) },
			check: func(t *testing.T, e *executor, res any) {
				require.EqualValues(t, e.chain.GetNonce(testAccount(0)), *res.(*hexutil.Uint64))
			},
		},
		{
			name:   "pending",
			params: `["` + testAccount(0).Hex() + `", "pending"]`,
			result: func(e *executor) any { return new(hexutil.Uint64) },
			check: func(t *testing.T, e *executor, res any) {
				require.EqualValues(t, e.chain.GetPendingNonce(testAccount(0)), *res.(*hexutil.Uint64))
			},
		},
		{
			name:    "bad block tag",
			params:  `["` + testAccount(0).Hex() + `", "recent"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_getCode": {
		{
			name:   "externally owned account",
			params: `["` + testAccount(0).Hex() + `", "latest"]`,
			result: func(e *executor) any { return new(hexutil.Bytes) },
			check: func(t *testing.T, e *executor, res any) {
				require.Empty(t, *res.(*hexutil.Bytes))
			},
		},
	},
	"eth_getBlockByNumber": {
		{
			name:   "genesis",
			params: `["earliest", false]`,
			result: func(e *executor) any { return new(result.Block) },
			check: func(t *testing.T, e *executor, res any) {
				b := res.(*result.Block)
				require.EqualValues(t, 0, b.Number)
				require.Equal(t, e.chain.GetHeaderHash(0), b.Hash)
				require.Empty(t, b.Transactions.Full)
			},
		},
		{
			name:    "bad number",
			params:  `["one", false]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "bad full flag",
			params:  `["latest", 1]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_getBlockByHash": {
		{
			name:   "genesis",
			params: `["` + genesisHashPlaceholder + `", true]`,
			result: func(e *executor) any { return new(result.Block) },
			check: func(t *testing.T, e *executor, res any) {
				b := res.(*result.Block)
				require.Equal(t, e.chain.GetHeaderHash(0), b.Hash)
			},
		},
		{
			name:    "bad hash",
			params:  `["0x1234", true]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_call": {
		{
			name:    "unknown field",
			params:  `[{"foo": 1}, "latest"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "no params",
			params:  `[]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_sendRawTransaction": {
		{
			name:    "not a hex",
			params:  `["transaction"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "bad transaction",
			params:  `["0x0102"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_sendTransaction": {
		{
			name:    "no sender",
			params:  `[{"to": "` + testAccount(1).Hex() + `"}]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "unknown sender",
			params:  `[{"from": "0x00000000000000000000000000000000000000aa", "to": "` + testAccount(1).Hex() + `"}]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
		{
			name:    "bad nonce",
			params:  `[{"from": "` + testAccount(2).Hex() + `", "to": "` + testAccount(1).Hex() + `", "nonce": "0x10"}]`,
			fail:    true,
			errCode: neorpc.TransactionRejectedCode,
		},
	},
	"fracnft_getApplicationLog": {
		{
			name:    "unknown transaction",
			params:  `["` + common.HexToHash("0xff").Hex() + `"]`,
			fail:    true,
			errCode: neorpc.ResourceNotFoundCode,
		},
		{
			name:    "bad hash",
			params:  `["0xff"]`,
			fail:    true,
			errCode: neorpc.InvalidParamsCode,
		},
	},
	"eth_unknownMethod": {
		{
			name:    "not supported",
			params:  `[]`,
			fail:    true,
			errCode: neorpc.MethodNotFoundCode,
		},
	},
}

// genesisHashPlaceholder is replaced by the genesis hash of the test chain.
const genesisHashPlaceholder = "GENESIS"

// testAccounts are the prefunded accounts of test chains.
var testAccounts = mustDevAccounts()

func mustDevAccounts() []*wallet.Account {
	accs, err := wallet.DevAccounts(chain.Seed, chain.AccountCount)
	if err != nil {
		panic(err)
	}
	return accs
}

func testAccount(i int) common.Address {
	return testAccounts[i].Address
}

func (tc rpcTestCase) getResultPair(e *executor) (expected any, res any) {
	expected = tc.result(e)
	resVal := reflect.New(reflect.TypeOf(expected).Elem())
	return expected, resVal.Interface()
}

func initServerWithInMemoryChain(t *testing.T) (*core.Blockchain, *Server, *httptest.Server) {
	return initServerWithCustomConfig(t, nil)
}

func initServerWithCustomConfig(t *testing.T, f func(*config.RPC)) (*core.Blockchain, *Server, *httptest.Server) {
	bc, _ := chain.NewSingle(t)

	cfg, err := config.Load("../../../config", config.UnitTestNet)
	require.NoError(t, err)
	rpcCfg := cfg.ApplicationConfiguration.RPC
	if f != nil {
		f(&rpcCfg)
	}
	logger := zaptest.NewLogger(t)
	rpcServer := New(bc, rpcCfg, testUserAgent, logger, make(chan error, 1))
	rpcServer.Start()
	t.Cleanup(rpcServer.Shutdown)

	handler := http.HandlerFunc(rpcServer.handleHTTPRequest)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return bc, rpcServer, srv
}

func doRPCCall(rpcCall string, url string, t *testing.T) []byte {
	cl := http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Post(url, "application/json", strings.NewReader(rpcCall))
	require.NoErrorf(t, err, "could not make a POST request")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoErrorf(t, err, "could not read response from the request: %s", rpcCall)
	return bytes.TrimSpace(body)
}

func checkErrGetResult(t *testing.T, body []byte, expectingFail bool, expectedErrCode int64) json.RawMessage {
	var resp neorpc.Response
	err := json.Unmarshal(body, &resp)
	require.Nil(t, err)
	if expectingFail {
		require.NotNil(t, resp.Error)
		assert.NotEqual(t, 0, resp.Error.Code)
		assert.NotEqual(t, "", resp.Error.Message)
		if expectedErrCode != 0 {
			assert.Equal(t, expectedErrCode, resp.Error.Code, resp.Error.Error())
		}
	} else {
		assert.Nil(t, resp.Error)
	}
	return resp.Result
}

func rpcCall(method string, params string) string {
	return fmt.Sprintf(`{"jsonrpc": "2.0", "id": 1, "method": "%s", "params": %s}`, method, params)
}

// call performs a successful RPC call and unmarshals its result into res.
func (e *executor) call(t *testing.T, method string, params string, res any) {
	body := doRPCCall(rpcCall(method, params), e.httpSrv.URL, t)
	raw := checkErrGetResult(t, body, false, 0)
	require.NoError(t, json.Unmarshal(raw, res), string(raw))
}

// callFail performs an RPC call expected to fail with the code.
func (e *executor) callFail(t *testing.T, method string, params string, code int64) *neorpc.Error {
	body := doRPCCall(rpcCall(method, params), e.httpSrv.URL, t)
	var resp neorpc.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Error, string(body))
	require.Equal(t, code, resp.Error.Code, resp.Error.Error())
	return resp.Error
}

// waitReceipt polls for the receipt of the transaction until it's included
// into a block.
func (e *executor) waitReceipt(t *testing.T, h common.Hash) *types.Receipt {
	var (
		r    *types.Receipt
		call = rpcCall("eth_getTransactionReceipt", `["`+h.Hex()+`"]`)
		cl   = http.Client{Timeout: time.Second}
	)
	require.Eventually(t, func() bool {
		resp, err := cl.Post(e.httpSrv.URL, "application/json", strings.NewReader(call))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var res neorpc.Response
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || res.Error != nil {
			return false
		}
		if string(res.Result) == "null" {
			return false
		}
		rec := new(types.Receipt)
		if err := json.Unmarshal(res.Result, rec); err != nil {
			return false
		}
		r = rec
		return true
	}, 5*time.Second, 10*time.Millisecond)
	return r
}

func TestRPC(t *testing.T) {
	bc, _, httpSrv := initServerWithInMemoryChain(t)
	e := &executor{chain: bc, httpSrv: httpSrv}
	genesis := bc.GetHeaderHash(0).Hex()

	for method, cases := range rpcTestCases {
		t.Run(method, func(t *testing.T) {
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					params := strings.ReplaceAll(tc.params, genesisHashPlaceholder, genesis)
					body := doRPCCall(rpcCall(method, params), httpSrv.URL, t)
					res := checkErrGetResult(t, body, tc.fail, tc.errCode)
					if tc.fail {
						return
					}

					expected, res2 := tc.getResultPair(e)
					err := json.Unmarshal(res, res2)
					require.NoErrorf(t, err, "could not parse response: %s", res)

					if tc.check == nil {
						assert.Equal(t, expected, res2)
					} else {
						tc.check(t, e, res2)
					}
				})
			}
		})
	}
}

func TestRPC_MissingObjects(t *testing.T) {
	bc, _, httpSrv := initServerWithInMemoryChain(t)
	e := &executor{chain: bc, httpSrv: httpSrv}
	missing := `["` + common.HexToHash("0xabcd").Hex() + `"]`

	for _, tc := range []struct {
		method string
		params string
	}{
		{"eth_getTransactionReceipt", missing},
		{"eth_getTransactionByHash", missing},
		{"eth_getBlockByHash", `["` + common.HexToHash("0xabcd").Hex() + `", false]`},
		{"eth_getBlockByNumber", `["0x10", false]`},
	} {
		t.Run(tc.method, func(t *testing.T) {
			body := doRPCCall(rpcCall(tc.method, tc.params), e.httpSrv.URL, t)
			res := checkErrGetResult(t, body, false, 0)
			require.Equal(t, "null", string(res))
		})
	}
}

func TestRPC_Workflow(t *testing.T) {
	bc, _, httpSrv := initServerWithInMemoryChain(t)
	e := &executor{chain: bc, httpSrv: httpSrv}
	owner := bc.GetAccounts()[0].Address
	holder := bc.GetAccounts()[1].Address
	nftABI := bc.Contracts().ByName(nativenames.TestNFT).Metadata().ABI

	deployData, err := bc.Contracts().ByName(nativenames.TestNFT).Metadata().DeployData()
	require.NoError(t, err)

	var deployHash common.Hash
	e.call(t, "eth_sendTransaction", fmt.Sprintf(`[{"from": "%s", "data": "%s"}]`,
		owner.Hex(), hexutil.Encode(deployData)), &deployHash)
	rec := e.waitReceipt(t, deployHash)
	require.Equal(t, types.ReceiptStatusSuccessful, rec.Status)
	nftAddr := rec.ContractAddress
	require.NotEqual(t, common.Address{}, nftAddr)

	t.Run("code", func(t *testing.T) {
		var code hexutil.Bytes
		e.call(t, "eth_getCode", `["`+nftAddr.Hex()+`", "latest"]`, &code)
		require.Equal(t, bc.GetCode(nftAddr), []byte(code))
	})

	t.Run("estimate gas", func(t *testing.T) {
		var gas hexutil.Uint64
		e.call(t, "eth_estimateGas", fmt.Sprintf(`[{"from": "%s", "to": "%s", "value": "0x1"}]`,
			owner.Hex(), holder.Hex()), &gas)
		require.EqualValues(t, transferGas, gas)

		data, err := nftABI.Pack("name")
		require.NoError(t, err)
		e.call(t, "eth_estimateGas", fmt.Sprintf(`[{"to": "%s", "data": "%s"}]`,
			nftAddr.Hex(), hexutil.Encode(data)), &gas)
		require.EqualValues(t, defaultGasLimit, gas)
	})

	mintData, err := nftABI.Pack("mintNFT", holder, "ipfs://token/1")
	require.NoError(t, err)

	t.Run("call reverted", func(t *testing.T) {
		rpcErr := e.callFail(t, "eth_call", fmt.Sprintf(`[{"from": "%s", "to": "%s", "input": "%s"}, "latest"]`,
			holder.Hex(), nftAddr.Hex(), hexutil.Encode(mintData)), neorpc.ExecutionRevertedCode)
		require.Contains(t, rpcErr.Data, "Ownable: caller is not the owner")
	})

	var mintHash common.Hash
	e.call(t, "eth_sendTransaction", fmt.Sprintf(`[{"from": "%s", "to": "%s", "data": "%s"}]`,
		owner.Hex(), nftAddr.Hex(), hexutil.Encode(mintData)), &mintHash)
	rec = e.waitReceipt(t, mintHash)
	require.Equal(t, types.ReceiptStatusSuccessful, rec.Status)
	require.Len(t, rec.Logs, 1)
	require.Equal(t, nftAddr, rec.Logs[0].Address)
	require.Equal(t, nftABI.Events["Transfer"].ID, rec.Logs[0].Topics[0])

	t.Run("call", func(t *testing.T) {
		data, err := nftABI.Pack("ownerOf", big.NewInt(1))
		require.NoError(t, err)
		var ret hexutil.Bytes
		e.call(t, "eth_call", fmt.Sprintf(`[{"to": "%s", "data": "%s"}, "latest"]`,
			nftAddr.Hex(), hexutil.Encode(data)), &ret)
		out, err := nftABI.Unpack("ownerOf", ret)
		require.NoError(t, err)
		require.Equal(t, holder, out[0])
	})

	t.Run("transaction by hash", func(t *testing.T) {
		var tx result.Transaction
		e.call(t, "eth_getTransactionByHash", `["`+mintHash.Hex()+`"]`, &tx)
		require.Equal(t, mintHash, tx.Hash)
		require.Equal(t, owner, tx.From)
		require.Equal(t, nftAddr, *tx.To)
		require.Equal(t, rec.BlockHash, tx.BlockHash)
		require.Equal(t, mintData, []byte(tx.Input))
	})

	t.Run("block with transactions", func(t *testing.T) {
		var b result.Block
		e.call(t, "eth_getBlockByNumber", fmt.Sprintf(`["0x%x", true]`, rec.BlockNumber.Uint64()), &b)
		require.Equal(t, rec.BlockHash, b.Hash)
		require.Len(t, b.Transactions.Full, 1)
		require.Equal(t, mintHash, b.Transactions.Full[0].Hash)
		require.Equal(t, owner, b.Transactions.Full[0].From)

		e.call(t, "eth_getBlockByHash", `["`+rec.BlockHash.Hex()+`", false]`, &b)
		require.Equal(t, []common.Hash{mintHash}, b.Transactions.Hashes)
	})

	t.Run("application log", func(t *testing.T) {
		var aer state.AppExecResult
		e.call(t, "fracnft_getApplicationLog", `["`+mintHash.Hex()+`"]`, &aer)
		require.Equal(t, vmstate.Halt, aer.VMState)
		require.Equal(t, mintHash, aer.Container)
		require.Equal(t, owner, aer.From)
		require.Len(t, aer.Logs, 1)
	})

	t.Run("nonce", func(t *testing.T) {
		var n hexutil.Uint64
		e.call(t, "eth_getTransactionCount", `["`+owner.Hex()+`", "latest"]`, &n)
		require.EqualValues(t, 2, n)
	})

	t.Run("raw transaction", func(t *testing.T) {
		acc := bc.GetAccounts()[3]
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    bc.GetNonce(acc.Address),
			To:       &holder,
			Value:    big.NewInt(1000),
			Gas:      transferGas,
			GasPrice: new(big.Int),
		})
		tx, err := acc.SignTx(bc.Signer(), tx)
		require.NoError(t, err)
		raw, err := tx.MarshalBinary()
		require.NoError(t, err)
		before := bc.GetBalance(holder)

		var h common.Hash
		e.call(t, "eth_sendRawTransaction", `["`+hexutil.Encode(raw)+`"]`, &h)
		require.Equal(t, tx.Hash(), h)
		rec := e.waitReceipt(t, h)
		require.Equal(t, types.ReceiptStatusSuccessful, rec.Status)
		require.Equal(t, new(big.Int).Add(before, big.NewInt(1000)), bc.GetBalance(holder))

		e.callFail(t, "eth_sendRawTransaction", `["`+hexutil.Encode(raw)+`"]`, neorpc.TransactionRejectedCode)
	})

	t.Run("failed transaction receipt", func(t *testing.T) {
		var h common.Hash
		e.call(t, "eth_sendTransaction", fmt.Sprintf(`[{"from": "%s", "to": "%s", "data": "%s"}]`,
			holder.Hex(), nftAddr.Hex(), hexutil.Encode(mintData)), &h)
		rec := e.waitReceipt(t, h)
		require.Equal(t, types.ReceiptStatusFailed, rec.Status)

		var aer state.AppExecResult
		e.call(t, "fracnft_getApplicationLog", `["`+h.Hex()+`"]`, &aer)
		require.Equal(t, vmstate.Fault, aer.VMState)
		require.Contains(t, aer.FaultException, "Ownable: caller is not the owner")
	})
}

func TestRPC_Batch(t *testing.T) {
	_, _, httpSrv := initServerWithInMemoryChain(t)

	body := doRPCCall(`[{"jsonrpc": "2.0", "id": 1, "method": "eth_chainId", "params": []},
		{"jsonrpc": "2.0", "id": 2, "method": "eth_unknown", "params": []}]`, httpSrv.URL, t)
	var resp []neorpc.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp, 2)
	require.Nil(t, resp[0].Error)
	require.Equal(t, `"0x539"`, string(resp[0].Result))
	require.Equal(t, json.RawMessage("2"), resp[1].ID)
	require.NotNil(t, resp[1].Error)
	require.EqualValues(t, neorpc.MethodNotFoundCode, resp[1].Error.Code)
}

func TestRPC_BadRequests(t *testing.T) {
	_, _, httpSrv := initServerWithInMemoryChain(t)

	t.Run("invalid version", func(t *testing.T) {
		body := doRPCCall(`{"jsonrpc": "1.0", "id": 1, "method": "eth_chainId", "params": []}`, httpSrv.URL, t)
		checkErrGetResult(t, body, true, neorpc.InvalidParamsCode)
	})
	t.Run("invalid JSON", func(t *testing.T) {
		body := doRPCCall(`{"jsonrpc": "2.0", "id": 1, "method": `, httpSrv.URL, t)
		checkErrGetResult(t, body, true, neorpc.BadRequestCode)
	})
	t.Run("empty batch", func(t *testing.T) {
		body := doRPCCall(`[]`, httpSrv.URL, t)
		checkErrGetResult(t, body, true, neorpc.BadRequestCode)
	})
	t.Run("GET", func(t *testing.T) {
		resp, err := http.Get(httpSrv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
	t.Run("HTTP code", func(t *testing.T) {
		resp, err := http.Post(httpSrv.URL, "application/json", strings.NewReader(rpcCall("eth_unknown", "[]")))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

// callsMetric returns the number of calls of the method as gathered from
// the default registry.
func callsMetric(t *testing.T, method string) float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "fracnft_rpc_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "method" && l.GetValue() == method {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRPC_Metrics(t *testing.T) {
	_, _, httpSrv := initServerWithInMemoryChain(t)

	before := callsMetric(t, "eth_chainId")
	for i := 0; i < 3; i++ {
		body := doRPCCall(rpcCall("eth_chainId", "[]"), httpSrv.URL, t)
		checkErrGetResult(t, body, false, 0)
	}
	require.Equal(t, before+3, callsMetric(t, "eth_chainId"))

	body := doRPCCall(rpcCall("eth_unknown", "[]"), httpSrv.URL, t)
	checkErrGetResult(t, body, true, neorpc.MethodNotFoundCode)
	require.Zero(t, callsMetric(t, "eth_unknown"))
}

func TestRPC_RequestBodyLimit(t *testing.T) {
	_, _, httpSrv := initServerWithCustomConfig(t, func(c *config.RPC) {
		c.MaxRequestBodyBytes = 64
	})
	body := doRPCCall(rpcCall("eth_getBalance", `["`+strings.Repeat("0", 100)+`", "latest"]`), httpSrv.URL, t)
	checkErrGetResult(t, body, true, neorpc.BadRequestCode)
}

func TestRPC_CORS(t *testing.T) {
	_, _, httpSrv := initServerWithCustomConfig(t, func(c *config.RPC) {
		c.EnableCORSWorkaround = true
	})
	req, err := http.NewRequest(http.MethodOptions, httpSrv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST", resp.Header.Get("Access-Control-Allow-Methods"))

	resp, err = http.Post(httpSrv.URL, "application/json", strings.NewReader(rpcCall("eth_chainId", "[]")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_StartShutdown(t *testing.T) {
	bc, _ := chain.NewSingle(t)
	cfg := config.RPC{
		BasicService: config.BasicService{
			Enabled:   true,
			Addresses: []string{"localhost:0", "localhost:0"},
		},
	}
	srv := New(bc, cfg, testUserAgent, zaptest.NewLogger(t), make(chan error, 1))
	require.Equal(t, "rpc", srv.Name())
	require.Len(t, srv.Addresses(), 1)

	srv.Start()
	srv.Start() // no-op
	addr := srv.Addresses()[0]
	require.NotEqual(t, "localhost:0", addr)

	resp, err := http.Post("http://"+addr, "application/json", strings.NewReader(rpcCall("eth_chainId", "[]")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	srv.Shutdown()
	srv.Shutdown() // no-op
	_, err = http.Post("http://"+addr, "application/json", strings.NewReader(rpcCall("eth_chainId", "[]")))
	require.Error(t, err)
}

func TestServer_Disabled(t *testing.T) {
	bc, _ := chain.NewSingle(t)
	srv := New(bc, config.RPC{}, testUserAgent, zaptest.NewLogger(t), make(chan error, 1))
	srv.Start()
	srv.Shutdown()
}
