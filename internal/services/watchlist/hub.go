package watchlist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"crypto-pulse/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber is one live connection receiving a user's watchlist events.
type Subscriber struct {
	ConnID      ulid.ULID
	UserID      bson.ObjectID
	ConnectedAt time.Time
	Ch          chan Event
	Done        chan struct{}
}

// Hub fans watchlist events out to every connection of the affected user.
// Slow consumers lose events instead of blocking the request that caused them.
type Hub struct {
	mu         sync.RWMutex
	byUser     map[bson.ObjectID]map[ulid.ULID]*Subscriber
	byConn     map[ulid.ULID]bson.ObjectID
	bufferSize int
	dropped    atomic.Uint64
}

// NewHub creates a hub whose subscriber channels hold bufferSize events.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Hub{
		byUser:     make(map[bson.ObjectID]map[ulid.ULID]*Subscriber),
		byConn:     make(map[ulid.ULID]bson.ObjectID),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a connection and returns it with its cancel func.
func (h *Hub) Subscribe(connID ulid.ULID, userID bson.ObjectID) (*Subscriber, func()) {
	sub := &Subscriber{
		ConnID:      connID,
		UserID:      userID,
		ConnectedAt: time.Now(),
		Ch:          make(chan Event, h.bufferSize),
		Done:        make(chan struct{}),
	}

	h.mu.Lock()
	conns, ok := h.byUser[userID]
	if !ok {
		conns = make(map[ulid.ULID]*Subscriber)
		h.byUser[userID] = conns
	}
	conns[connID] = sub
	h.byConn[connID] = userID
	h.mu.Unlock()

	logger.L().Debug("watchlist subscriber added", "conn_id", connID.String(), "user_id", userID.Hex())
	return sub, func() { h.Unsubscribe(connID) }
}

// Unsubscribe removes the connection and closes its channels. Unknown or
// already removed ids are ignored.
func (h *Hub) Unsubscribe(connID ulid.ULID) {
	h.mu.Lock()
	userID, ok := h.byConn[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.byConn, connID)

	conns := h.byUser[userID]
	sub := conns[connID]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(h.byUser, userID)
	}
	h.mu.Unlock()

	if sub != nil {
		close(sub.Done)
		close(sub.Ch)
	}
	logger.L().Debug("watchlist subscriber removed", "conn_id", connID.String())
}

// Broadcast delivers ev to every connection of ev.UserID without blocking.
func (h *Hub) Broadcast(_ context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.byUser[ev.UserID] {
		select {
		case sub.Ch <- ev:
		default:
			h.dropped.Add(1)
			logger.L().Warn("outbox full, dropping watchlist event",
				"conn_id", sub.ConnID.String(), "user_id", ev.UserID.Hex(), "event_type", ev.Type)
		}
	}
}

// Stats reports the live connection count and total dropped events.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	h.mu.RLock()
	subscribers = len(h.byConn)
	h.mu.RUnlock()
	return subscribers, h.dropped.Load()
}
