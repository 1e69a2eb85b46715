/*
Package waiter provides transaction awaiting for the RPC client based on
periodical application log polls.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/neorpc"
)

const (
	// DefaultPollRetryCount is a threshold for a number of subsequent failed
	// attempts to get block count from the RPC server for PollingBased. If it
	// fails to retrieve block count DefaultPollRetryCount times in a row then
	// transaction awaiting attempt is considered to be failed and an error is
	// returned.
	DefaultPollRetryCount = 3
	// DefaultPollInterval is a time interval between subsequent polls.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultBlockWindow is the number of blocks the transaction should be
	// accepted in after the awaiting has started.
	DefaultBlockWindow = 20
)

var (
	// ErrTxNotAccepted is returned when transaction wasn't accepted to the
	// chain even after BlockWindow blocks were persisted.
	ErrTxNotAccepted = errors.New("transaction was not accepted to chain")
	// ErrContextDone is returned when Waiter context has been done in the
	// middle of transaction awaiting process and no result was received yet.
	ErrContextDone = errors.New("waiter context done")
	// ErrAwaitingNotSupported is returned from Wait method if Waiter instance
	// doesn't support transaction awaiting. It's compatible with
	// [errors.ErrUnsupported].
	ErrAwaitingNotSupported = fmt.Errorf("%w: awaiting", errors.ErrUnsupported)
)

type (
	// Waiter is an interface providing transaction awaiting functionality.
	Waiter interface {
		// Wait allows to wait until transaction will be accepted to the chain.
		// It can be used as a wrapper for Send calls and accepts transaction
		// hash and an error. It returns transaction execution result or an
		// error if transaction wasn't accepted to the chain. "Already exists"
		// error is not treated as an error by this routine because such
		// transaction can be waited for in a usual way.
		Wait(h common.Hash, err error) (*state.AppExecResult, error)
		// WaitAny waits until at least one of the specified transactions will
		// be accepted to the chain. It returns execution result of this
		// transaction or an error if none of them was accepted.
		WaitAny(ctx context.Context, hashes ...common.Hash) (*state.AppExecResult, error)
	}
	// RPCPollingBased is an interface that enables transaction awaiting
	// functionality based on periodical BlockNumber and ApplicationLog polls.
	RPCPollingBased interface {
		// Context should return the RPC client context to be able to
		// gracefully shut down all running processes (if so).
		Context() context.Context
		BlockNumber() (uint64, error)
		GetApplicationLog(h common.Hash) (*state.AppExecResult, error)
	}
)

// Null is a Waiter stub that doesn't support transaction awaiting functionality.
type Null struct{}

// PollingBased is a polling-based Waiter.
type PollingBased struct {
	polling RPCPollingBased
	config  PollConfig
}

// PollConfig is a configuration for PollingBased waiter.
type PollConfig struct {
	// PollInterval is a time interval between subsequent polls,
	// DefaultPollInterval is used if not set.
	PollInterval time.Duration
	// RetryCount is the number of retry attempts while fetching a subsequent
	// block number before an error is returned from Wait or WaitAny.
	RetryCount int
	// BlockWindow is the number of blocks after which not yet accepted
	// transaction is considered to be lost, DefaultBlockWindow is used if
	// not set.
	BlockWindow uint64
}

// errIsAlreadyExists is a helper for the node errors returned for the
// transactions that are already in the pool.
func errIsAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// New creates Waiter instance. It returns polling-based waiter if base
// implements RPCPollingBased and a stub otherwise.
func New(base any, config PollConfig) Waiter {
	if pollW, ok := base.(RPCPollingBased); ok {
		return NewPollingBased(pollW, config)
	}
	return NewNull()
}

// NewNull creates an instance of Waiter stub.
func NewNull() Null {
	return Null{}
}

// Wait implements Waiter interface.
func (Null) Wait(h common.Hash, err error) (*state.AppExecResult, error) {
	if err != nil {
		return nil, err
	}
	return nil, ErrAwaitingNotSupported
}

// WaitAny implements Waiter interface.
func (Null) WaitAny(ctx context.Context, hashes ...common.Hash) (*state.AppExecResult, error) {
	return nil, ErrAwaitingNotSupported
}

// NewPollingBased creates an instance of Waiter supporting poll-based
// transaction awaiting. Zero configuration values are replaced with
// defaults.
func NewPollingBased(waiter RPCPollingBased, config PollConfig) *PollingBased {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.RetryCount <= 0 {
		config.RetryCount = DefaultPollRetryCount
	}
	if config.BlockWindow == 0 {
		config.BlockWindow = DefaultBlockWindow
	}
	return &PollingBased{
		polling: waiter,
		config:  config,
	}
}

// Wait implements Waiter interface.
func (w *PollingBased) Wait(h common.Hash, err error) (*state.AppExecResult, error) {
	if err != nil && !errIsAlreadyExists(err) {
		return nil, err
	}
	return w.WaitAny(context.TODO(), h)
}

// WaitAny implements Waiter interface.
func (w *PollingBased) WaitAny(ctx context.Context, hashes ...common.Hash) (*state.AppExecResult, error) {
	var (
		startHeight   uint64
		started       bool
		failedAttempt int
	)
	timer := time.NewTicker(w.config.PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			height, err := w.polling.BlockNumber()
			if err != nil {
				failedAttempt++
				if failedAttempt > w.config.RetryCount {
					return nil, fmt.Errorf("failed to retrieve block number: %w", err)
				}
				continue
			}
			failedAttempt = 0
			if !started {
				startHeight, started = height, true
			}
			for _, h := range hashes {
				res, err := w.polling.GetApplicationLog(h)
				if err == nil {
					return res, nil
				}
				if !errors.Is(err, neorpc.ErrUnknownTransaction) {
					return nil, fmt.Errorf("failed to retrieve application log: %w", err)
				}
			}
			if height >= startHeight+w.config.BlockWindow {
				return nil, ErrTxNotAccepted
			}
		case <-w.polling.Context().Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, w.polling.Context().Err())
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}
