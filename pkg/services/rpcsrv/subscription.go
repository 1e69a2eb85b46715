package rpcsrv

import (
	"github.com/fracnft/fracnft/pkg/neorpc"
	"github.com/fracnft/fracnft/pkg/neorpc/rpcevent"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

type (
	// subscriber is an event subscriber.
	subscriber struct {
		writer    chan<- *websocket.PreparedMessage
		ws        *websocket.Conn
		overflown atomic.Bool
		// feeds are indexed by subscription id, nil for disconnected
		// subscribers. Protected by Server.subsLock.
		feeds map[string]feed
	}
	// feed stores subscriber's desired event ID with filter.
	feed struct {
		event  neorpc.EventID
		filter any
	}
	// event is a chain event ready to be matched against feeds.
	event struct {
		id      neorpc.EventID
		payload any
	}
)

// EventID implements rpcevent.Comparator interface and returns notification ID.
func (f feed) EventID() neorpc.EventID {
	return f.event
}

// Filter implements rpcevent.Comparator interface and returns notification filter.
func (f feed) Filter() any {
	return f.filter
}

// Matches returns true if the event should be delivered to the feed.
func (f feed) Matches(e event) bool {
	return rpcevent.Matches(f, e)
}

// EventID implements rpcevent.Container interface.
func (e event) EventID() neorpc.EventID {
	return e.id
}

// EventPayload implements rpcevent.Container interface.
func (e event) EventPayload() any {
	return e.payload
}

// This sets notification messages buffer depth. It may seem to be quite
// big, but there is a big gap in speed between internal event processing
// and networking communication that is combined with spiky nature of our
// event generation process, which leads to lots of events generated in
// a short time and they will put some pressure to this buffer (consider
// a block full of fractionalizations with several logs each).
const notificationBufSize = 1024
