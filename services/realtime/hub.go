// Package realtime maintains long-lived per-user streaming connections and
// fans event payloads out to them.
package realtime

import (
	"context"
	"sync"
	"time"

	"barberly/models"
	"barberly/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is one named event pushed down a stream connection.
type Message struct {
	Event string
	Data  interface{}
}

// Connection is a registered stream. The hub owns the lifecycle of C; the
// transport handler reads from it until it is closed.
type Connection struct {
	ID       string
	UserID   string
	TenantID string
	Role     string
	C        chan Message

	mu     sync.Mutex
	closed bool
}

// trySend enqueues without blocking. Returns false once the connection is
// closed or its buffer is full.
func (c *Connection) trySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.C <- msg:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.C)
	}
}

// Hub is the process-wide connection registry. The map is shared mutable
// state touched by every request goroutine, so all access is mutex-guarded.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	// KeepAlive is the heartbeat interval the stream handler uses to keep
	// intermediary proxies from closing idle connections.
	KeepAlive time.Duration

	logger *zap.Logger
}

// NewHub creates an empty hub with a 30 second keep-alive interval.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:     make(map[string]*Connection),
		KeepAlive: 30 * time.Second,
		logger:    logger,
	}
}

// AddConnection registers a new stream for the given identity and returns it.
func (h *Hub) AddConnection(userID, tenantID, role string) *Connection {
	conn := &Connection{
		ID:       uuid.New().String(),
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		C:        make(chan Message, 16),
	}
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	h.logger.Debug("stream connected",
		zap.String("connId", conn.ID),
		zap.String("userId", userID),
		zap.String("tenantId", tenantID),
	)
	return conn
}

// RemoveConnection unregisters a stream. Idempotent; invoked on transport
// close and on write failure.
func (h *Hub) RemoveConnection(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	if ok {
		conn.close()
		h.logger.Debug("stream disconnected", zap.String("connId", connID))
	}
}

// RemoveUser drops every connection belonging to a user.
func (h *Hub) RemoveUser(userID string) {
	for _, conn := range h.snapshot() {
		if conn.UserID == userID {
			h.RemoveConnection(conn.ID)
		}
	}
}

// SendToUser delivers an event to all of a user's live connections. Returns
// false when the user has none. A full send buffer counts as a dead transport
// and auto-removes the connection.
func (h *Hub) SendToUser(userID, event string, data interface{}) bool {
	delivered := false
	for _, conn := range h.snapshot() {
		if conn.UserID != userID {
			continue
		}
		if h.trySend(conn, Message{Event: event, Data: data}) {
			delivered = true
		}
	}
	return delivered
}

// SendToTenant fans an event out to every connection of a tenant whose role
// is not excluded, returning the delivery count.
func (h *Hub) SendToTenant(tenantID, event string, data interface{}, excludeRoles ...string) int {
	excluded := make(map[string]bool, len(excludeRoles))
	for _, r := range excludeRoles {
		excluded[r] = true
	}

	count := 0
	for _, conn := range h.snapshot() {
		if conn.TenantID != tenantID || excluded[conn.Role] {
			continue
		}
		if h.trySend(conn, Message{Event: event, Data: data}) {
			count++
		}
	}
	return count
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		out = append(out, conn)
	}
	return out
}

func (h *Hub) trySend(conn *Connection, msg Message) bool {
	if conn.trySend(msg) {
		return true
	}
	// Slow or dead consumer; treat as a disconnect.
	h.logger.Warn("stream write failed, dropping connection",
		zap.String("connId", conn.ID),
		zap.String("userId", conn.UserID),
	)
	h.RemoveConnection(conn.ID)
	return false
}

// EventHandler adapts the hub into an event bus subscriber that broadcasts
// every reservation event to the owning tenant's connections.
func (h *Hub) EventHandler() events.HandlerFunc {
	return func(ctx context.Context, evt models.Event) error {
		h.SendToTenant(evt.TenantID, string(evt.Type), evt.Reservation)
		return nil
	}
}
