// Package ws carries session events to WebSocket connections. Connections
// are addressed by id and grouped by room code.
package ws

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/coder/websocket"

	"github.com/aaronzipp/echo-chamber/internal/metrics"
	"github.com/aaronzipp/echo-chamber/internal/models"
)

// Hub tracks live connections and their room subscriptions
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{} // room code -> connection ids

	opts    Options
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHub creates a hub. Unset buffer and timing options fall back to
// DefaultOptions; a zero MaxMessagesPerSecond disables rate limiting.
func NewHub(opts Options, m *metrics.Metrics, logger *slog.Logger) *Hub {
	def := DefaultOptions()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		opts:    opts,
		metrics: m,
		log:     logger,
	}
}

// Register adds a connection under id
func (h *Hub) Register(id string, conn *websocket.Conn) *Client {
	c := newClient(id, conn, h)

	h.mu.Lock()
	h.clients[id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.IncrementConnections()
	h.log.Info("connection registered", "conn", id, "connections", total)
	return c
}

// Unregister removes a connection and all of its room subscriptions
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	for code, members := range h.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.DecrementConnections()
		h.log.Info("connection removed", "conn", id, "connections", total)
	}
}

// Subscribe adds a connection to a room's broadcast group
func (h *Hub) Subscribe(id, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; !ok {
		return
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]struct{})
	}
	h.rooms[code][id] = struct{}{}
}

// Unsubscribe removes a connection from a room's broadcast group
func (h *Hub) Unsubscribe(id, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[code]
	delete(members, id)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// CloseRoom drops a room's broadcast group
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}

// RoomSize returns how many connections are subscribed to a room
func (h *Hub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver sends session events to their recipients. Recipients are collected
// under the lock and written to without it.
func (h *Hub) Deliver(out []models.Outbound) {
	for _, ev := range out {
		data, err := encode(Frame{Type: ev.Type, Payload: ev.Payload})
		if err != nil {
			h.log.Error("encoding event", "type", ev.Type, "error", err)
			continue
		}

		targets := h.recipients(ev)
		sent := 0
		for _, c := range targets {
			if c.Send(data) {
				sent++
			}
		}
		h.log.Debug("delivered event", "type", ev.Type, "room", ev.Room, "to", ev.To, "sent", sent, "targets", len(targets))
	}
}

// Reply answers a request frame carrying ackID
func (h *Hub) Reply(id, ackID string, payload any) {
	h.sendFrame(id, Frame{Type: models.MsgTypeAck, ID: ackID, Payload: payload})
}

// SendError sends an error notice to one connection
func (h *Hub) SendError(id, message string) {
	h.sendFrame(id, Frame{Type: models.MsgTypeError, Payload: ErrorPayload{Message: message}})
}

// Shutdown closes every connection
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.log.Info("closing connections", "connections", len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
}

func (h *Hub) sendFrame(id string, f Frame) {
	data, err := encode(f)
	if err != nil {
		h.log.Error("encoding frame", "type", f.Type, "error", err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if ok {
		c.Send(data)
	}
}

func (h *Hub) recipients(ev models.Outbound) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if ev.To != "" {
		if c, ok := h.clients[ev.To]; ok {
			return []*Client{c}
		}
		return nil
	}

	ids := make([]string, 0, len(h.rooms[ev.Room]))
	for id := range h.rooms[ev.Room] {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
