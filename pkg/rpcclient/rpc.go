package rpcclient

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/neorpc"
	"github.com/fracnft/fracnft/pkg/neorpc/result"
)

const (
	latestState  = "latest"
	pendingState = "pending"
)

// ChainID returns the chain ID transactions must be signed for.
func (c *Client) ChainID() (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest("eth_chainId", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// NetVersion returns the network ID as a decimal number.
func (c *Client) NetVersion() (uint64, error) {
	var resp string
	if err := c.performRequest("net_version", nil, &resp); err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(resp, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad network ID %q: %w", resp, err)
	}
	return id, nil
}

// ClientVersion returns the node user agent.
func (c *Client) ClientVersion() (string, error) {
	var resp string
	if err := c.performRequest("web3_clientVersion", nil, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// BlockNumber returns the index of the latest block.
func (c *Client) BlockNumber() (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest("eth_blockNumber", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// GasPrice returns the gas price the node suggests.
func (c *Client) GasPrice() (*big.Int, error) {
	var resp hexutil.Big
	if err := c.performRequest("eth_gasPrice", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ToInt(), nil
}

// Accounts returns the unlocked accounts of the node, eth_sendTransaction
// can only use them as senders.
func (c *Client) Accounts() ([]common.Address, error) {
	var resp []common.Address
	if err := c.performRequest("eth_accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBalance returns the current balance of the account in wei.
func (c *Client) GetBalance(addr common.Address) (*big.Int, error) {
	var resp hexutil.Big
	if err := c.performRequest("eth_getBalance", []any{addr, latestState}, &resp); err != nil {
		return nil, err
	}
	return resp.ToInt(), nil
}

// GetTransactionCount returns the account nonce. The pending one counts
// transactions still waiting in the pool.
func (c *Client) GetTransactionCount(addr common.Address, pending bool) (uint64, error) {
	var (
		resp hexutil.Uint64
		tag  = latestState
	)
	if pending {
		tag = pendingState
	}
	if err := c.performRequest("eth_getTransactionCount", []any{addr, tag}, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// GetCode returns the contract code marker for the address, it's empty for
// ordinary accounts.
func (c *Client) GetCode(addr common.Address) ([]byte, error) {
	var resp hexutil.Bytes
	if err := c.performRequest("eth_getCode", []any{addr, latestState}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Call executes the message against the current state without creating a
// transaction and returns the result data. A reverted call returns the
// error with neorpc.ExecutionRevertedCode.
func (c *Client) Call(args neorpc.TransactionArgs) ([]byte, error) {
	var resp hexutil.Bytes
	if err := c.performRequest("eth_call", []any{args, latestState}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// EstimateGas returns the gas limit sufficient for the message.
func (c *Client) EstimateGas(args neorpc.TransactionArgs) (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest("eth_estimateGas", []any{args}, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// SendTransaction makes the node sign the message with one of its unlocked
// accounts and broadcast the result.
func (c *Client) SendTransaction(args neorpc.TransactionArgs) (common.Hash, error) {
	var resp common.Hash
	if err := c.performRequest("eth_sendTransaction", []any{args}, &resp); err != nil {
		return common.Hash{}, err
	}
	return resp, nil
}

// SendRawTransaction broadcasts the signed transaction.
func (c *Client) SendRawTransaction(tx *types.Transaction) (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	var resp common.Hash
	if err := c.performRequest("eth_sendRawTransaction", []any{hexutil.Bytes(raw)}, &resp); err != nil {
		return common.Hash{}, err
	}
	return resp, nil
}

// GetTransactionReceipt returns the receipt of the accepted transaction,
// ErrNotFound is returned for the unknown ones.
func (c *Client) GetTransactionReceipt(h common.Hash) (*types.Receipt, error) {
	var resp *types.Receipt
	if err := c.performRequest("eth_getTransactionReceipt", []any{h}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("receipt %s: %w", h, ErrNotFound)
	}
	return resp, nil
}

// GetTransactionByHash returns the accepted transaction.
func (c *Client) GetTransactionByHash(h common.Hash) (*result.Transaction, error) {
	var resp *result.Transaction
	if err := c.performRequest("eth_getTransactionByHash", []any{h}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("transaction %s: %w", h, ErrNotFound)
	}
	return resp, nil
}

// GetBlockByNumber returns the block with the given index. Transactions are
// only returned in full when full is set, hashes are returned otherwise.
func (c *Client) GetBlockByNumber(index uint64, full bool) (*result.Block, error) {
	return c.getBlock("eth_getBlockByNumber", hexutil.Uint64(index), full)
}

// GetBlockByHash returns the block with the given hash.
func (c *Client) GetBlockByHash(h common.Hash, full bool) (*result.Block, error) {
	return c.getBlock("eth_getBlockByHash", h, full)
}

func (c *Client) getBlock(method string, param any, full bool) (*result.Block, error) {
	var resp *result.Block
	if err := c.performRequest(method, []any{param, full}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("block %v: %w", param, ErrNotFound)
	}
	return resp, nil
}

// GetApplicationLog returns the execution result of the accepted
// transaction including the FAULT exception if there is any.
func (c *Client) GetApplicationLog(h common.Hash) (*state.AppExecResult, error) {
	var resp = new(state.AppExecResult)
	if err := c.performRequest("fracnft_getApplicationLog", []any{h}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
