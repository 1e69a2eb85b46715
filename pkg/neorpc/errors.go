package neorpc

import (
	"fmt"
)

type (
	// Error represents JSON-RPC 2.0 error type.
	Error struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data,omitempty"`
	}
)

// Standard RPC error codes defined by the JSON-RPC 2.0 specification.
const (
	// InternalServerErrorCode is returned for internal RPC server error.
	InternalServerErrorCode = -32603
	// BadRequestCode is returned on parse error.
	BadRequestCode = -32700
	// InvalidRequestCode is returned on invalid request.
	InvalidRequestCode = -32600
	// MethodNotFoundCode is returned on unknown method calling.
	MethodNotFoundCode = -32601
	// InvalidParamsCode is returned on request with invalid params.
	InvalidParamsCode = -32602
)

// Ethereum-specific error codes.
const (
	// TransactionRejectedCode is returned for transactions that can't be
	// accepted into the pool.
	TransactionRejectedCode = -32003
	// ResourceNotFoundCode is returned when the requested block, transaction
	// or receipt doesn't exist.
	ResourceNotFoundCode = -32001
	// ExecutionRevertedCode is returned for eth_call invocations ending in
	// FAULT, the revert reason is in Data.
	ExecutionRevertedCode = 3
)

var (
	// ErrInvalidParams represents a generic "Invalid params" error.
	ErrInvalidParams = NewInvalidParamsError("")
	// ErrUnknownBlock is returned for requests for missing blocks.
	ErrUnknownBlock = NewError(ResourceNotFoundCode, "Unknown block", "")
	// ErrUnknownTransaction is returned for requests for missing
	// transactions.
	ErrUnknownTransaction = NewError(ResourceNotFoundCode, "Unknown transaction", "")
)

// NewError is an Error constructor that takes Error contents from its parameters.
func NewError(code int64, message string, data string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError is a constructor for parse error.
func NewParseError(data string) *Error {
	return NewError(BadRequestCode, "Parse error", data)
}

// NewInvalidRequestError is a constructor for invalid request error.
func NewInvalidRequestError(data string) *Error {
	return NewError(InvalidRequestCode, "Invalid request", data)
}

// NewMethodNotFoundError is a constructor for unknown method error.
func NewMethodNotFoundError(data string) *Error {
	return NewError(MethodNotFoundCode, "Method not found", data)
}

// NewInvalidParamsError is a constructor for invalid params error.
func NewInvalidParamsError(data string) *Error {
	return NewError(InvalidParamsCode, "Invalid params", data)
}

// NewInternalServerError is a constructor for internal server error.
func NewInternalServerError(data string) *Error {
	return NewError(InternalServerErrorCode, "Internal error", data)
}

// NewTransactionRejectedError is a constructor for transaction rejection
// error.
func NewTransactionRejectedError(data string) *Error {
	return NewError(TransactionRejectedCode, "Transaction rejected", data)
}

// NewExecutionRevertedError is a constructor for eth_call revert error, the
// reason is the FAULT exception.
func NewExecutionRevertedError(reason string) *Error {
	return NewError(ExecutionRevertedCode, "execution reverted", reason)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %s", e.Message, e.Code, e.Data)
}

// Is denotes whether the error matches the target one.
func (e *Error) Is(target error) bool {
	clTarget, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == clTarget.Code
}

// WrapErrorWithData returns copy of the given error with the specified data and cause.
// It does not modify the source error.
func WrapErrorWithData(e *Error, data string) *Error {
	return NewError(e.Code, e.Message, data)
}
