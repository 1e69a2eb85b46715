/*
Package neorpc contains a set of types used for JSON-RPC communication with
fracnft nodes. It defines basic request/response types as well as a set of
errors and additional parameters used for specific requests/responses.
*/
package neorpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"

	// SubscriptionMethod is the method name of subscription notifications.
	SubscriptionMethod = "eth_subscription"
)

type (
	// Request represents JSON-RPC request. It's generic enough to be used in many
	// generic JSON-RPC communication scenarios, yet at the same time it's
	// tailored for the fracnft RPC client needs.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params []any `json:"params"`
		// ID is an identifier associated with this request. JSON-RPC itself allows
		// any strings to be used for it as well, but the client uses numeric
		// identifiers.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header, it's used
	// to construct type-specific responses.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0
	// response: http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a type used to represent wire format of subscription
	// events. They look like requests without ID, the method is always
	// SubscriptionMethod.
	Notification struct {
		JSONRPC string             `json:"jsonrpc"`
		Method  string             `json:"method"`
		Params  SubscriptionResult `json:"params"`
	}

	// SubscriptionResult is an event delivered to the subscription with the
	// given ID. Result is a JSON-marshallable event on the server side and
	// json.RawMessage after decoding.
	SubscriptionResult struct {
		Subscription string `json:"subscription"`
		Result       any    `json:"result"`
	}

	// RawNotification is a client-side counterpart of Notification with the
	// event left undecoded.
	RawNotification struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  struct {
			Subscription string          `json:"subscription"`
			Result       json.RawMessage `json:"result"`
		} `json:"params"`
	}

	// TransactionArgs are the arguments of eth_call and eth_sendTransaction.
	TransactionArgs struct {
		From     *common.Address `json:"from,omitempty"`
		To       *common.Address `json:"to,omitempty"`
		Gas      *hexutil.Uint64 `json:"gas,omitempty"`
		GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
		Value    *hexutil.Big    `json:"value,omitempty"`
		Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
		Data     *hexutil.Bytes  `json:"data,omitempty"`
		// Input is an alias of Data used by newer clients, it takes
		// precedence when both are set.
		Input *hexutil.Bytes `json:"input,omitempty"`
	}
)

// CallData returns the call data of the arguments, Input takes precedence
// over Data.
func (a *TransactionArgs) CallData() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}
