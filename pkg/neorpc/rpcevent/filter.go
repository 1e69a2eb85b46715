/*
Package rpcevent matches chain events against subscription filters.
*/
package rpcevent

import (
	"slices"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fracnft/fracnft/pkg/neorpc"
)

type (
	// Comparator is a subscription, Filter returns nil when the
	// subscriber wants every event of the stream.
	Comparator interface {
		EventID() neorpc.EventID
		Filter() any
	}
	// Container is an event sent to subscribers.
	Container interface {
		EventID() neorpc.EventID
		EventPayload() any
	}
)

// Matches tells whether r should be sent to the f subscriber.
func Matches(f Comparator, r Container) bool {
	if f.EventID() != r.EventID() {
		return false
	}
	filter := f.Filter()
	if filter == nil {
		return true
	}
	if f.EventID() != neorpc.LogEventID {
		return false
	}
	return logMatches(filter.(neorpc.LogFilter), r.EventPayload().(*types.Log))
}

// logMatches implements eth_subscribe "logs" filtering: any of the
// addresses and, per position, any of the topics. Empty lists match
// everything.
func logMatches(filt neorpc.LogFilter, l *types.Log) bool {
	if len(filt.Address) != 0 && !slices.Contains(filt.Address, l.Address) {
		return false
	}
	if len(filt.Topics) > len(l.Topics) {
		return false
	}
	for i, alts := range filt.Topics {
		if len(alts) != 0 && !slices.Contains(alts, l.Topics[i]) {
			return false
		}
	}
	return true
}
