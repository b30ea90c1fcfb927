// Package hub implements the real-time notification fan-out: a registry of
// websocket connections that all join the single "TicketUpdates" broadcast
// group and receive ticket/comment events. Delivery is at-most-once and
// best-effort; a slow or dead connection never blocks the others.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GroupTicketUpdates is the single broadcast group. Connections join it
// automatically on register.
const GroupTicketUpdates = "TicketUpdates"

// Transport is the write side of one client connection. Implementations must
// be safe for use by the connection's single writer goroutine.
type Transport interface {
	WriteMessage(data []byte) error
	Close() error
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is one registered client connection.
type Conn struct {
	id        string
	transport Transport
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Hub maintains the connection registry and group membership. All methods
// are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*Conn
	members map[string]bool // conn id -> in TicketUpdates group

	bufSize int
	logger  *zap.Logger
}

// New creates a hub. bufSize is the per-connection send queue length; a
// connection whose queue is full has further events dropped.
func New(logger *zap.Logger, bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		conns:   make(map[string]*Conn),
		members: make(map[string]bool),
		bufSize: bufSize,
		logger:  logger,
	}
}

// Register adds a connection, auto-joins it to the TicketUpdates group and
// starts its writer goroutine. The returned Conn stays valid until
// Unregister.
func (h *Hub) Register(t Transport) *Conn {
	conn := &Conn{
		id:        uuid.NewString(),
		transport: t,
		send:      make(chan []byte, h.bufSize),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[conn.id] = conn
	h.members[conn.id] = true
	total := len(h.conns)
	h.mu.Unlock()

	go h.writeLoop(conn)

	h.logger.Info("client connected", zap.String("conn_id", conn.id), zap.Int("total", total))
	return conn
}

// Unregister removes a connection and closes its transport. Safe to call
// multiple times.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	_, known := h.conns[conn.id]
	delete(h.conns, conn.id)
	delete(h.members, conn.id)
	total := len(h.conns)
	h.mu.Unlock()

	if !known {
		return
	}
	conn.close()
	_ = conn.transport.Close()
	h.logger.Info("client disconnected", zap.String("conn_id", conn.id), zap.Int("total", total))
}

// Join adds the connection to the TicketUpdates group.
func (h *Hub) Join(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn.id]; ok {
		h.members[conn.id] = true
	}
}

// Leave removes the connection from the TicketUpdates group without
// disconnecting it.
func (h *Hub) Leave(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.members, conn.id)
}

// GroupSize returns the current TicketUpdates membership count.
func (h *Hub) GroupSize() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Broadcast delivers the event to every connection currently in the group.
// Connections joining after the call do not receive it. Per-connection
// failures are contained; the caller gets no delivery report.
func (h *Hub) Broadcast(ctx context.Context, event Event) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		h.logger.Error("marshal event payload", zap.String("event", event.Name()), zap.Error(err))
		return
	}
	h.broadcastRaw(event.Name(), payload)
}

func (h *Hub) broadcastRaw(name string, payload json.RawMessage) {
	data, err := json.Marshal(envelope{Event: name, Payload: payload})
	if err != nil {
		h.logger.Error("marshal envelope", zap.String("event", name), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.members))
	for id := range h.members {
		if conn, ok := h.conns[id]; ok {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		select {
		case <-conn.done:
		case conn.send <- data:
		default:
			// Queue full: the client is too slow, drop this event for it.
			h.logger.Warn("send queue full, dropping event",
				zap.String("conn_id", conn.id), zap.String("event", name))
		}
	}
}

func (h *Hub) writeLoop(conn *Conn) {
	for {
		select {
		case <-conn.done:
			return
		case data := <-conn.send:
			if err := conn.transport.WriteMessage(data); err != nil {
				h.logger.Debug("write failed, dropping connection",
					zap.String("conn_id", conn.id), zap.Error(err))
				h.Unregister(conn)
				return
			}
		}
	}
}
