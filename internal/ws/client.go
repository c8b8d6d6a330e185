package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// RateLimitWindow is the window MaxMessagesPerSecond is counted over
const RateLimitWindow = time.Second

// Options tunes per-connection behavior
type Options struct {
	SendBuffer           int
	WriteTimeout         time.Duration
	PingInterval         time.Duration
	MaxMessagesPerSecond int
}

// DefaultOptions returns the values used when nothing is configured
func DefaultOptions() Options {
	return Options{
		SendBuffer:           256,
		WriteTimeout:         10 * time.Second,
		PingInterval:         30 * time.Second,
		MaxMessagesPerSecond: 10,
	}
}

// Client is a single WebSocket connection with its own send goroutine
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	log  *slog.Logger

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:        id,
		conn:      conn,
		send:      make(chan []byte, hub.opts.SendBuffer),
		hub:       hub,
		log:       hub.log.With("conn", id),
		lastReset: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Run starts the write pump and reads frames until the connection ends,
// passing each one to handle. It blocks until the read side is done.
func (c *Client) Run(handle func(c *Client, data []byte)) {
	go c.writePump()
	c.readPump(handle)
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, c.hub.opts.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				if c.ctx.Err() == nil {
					c.log.Warn("write failed", "error", err)
					c.hub.metrics.IncrementBroadcastErrors()
				}
				return
			}
			c.hub.metrics.IncrementMessagesSent()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, c.hub.opts.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				if c.ctx.Err() == nil {
					c.log.Info("ping failed", "error", err)
				}
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump hands inbound frames to handle, one at a time
func (c *Client) readPump(handle func(c *Client, data []byte)) {
	defer c.Close()

	for {
		_, message, err := c.conn.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if c.ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					c.log.Info("read failed", "error", err)
					c.hub.metrics.IncrementConnectionErrors()
				}
			}
			return
		}

		if !c.checkRateLimit() {
			c.log.Warn("rate limit exceeded")
			c.hub.metrics.IncrementRateLimitViolations()
			c.hub.SendError(c.ID, ErrMsgRateLimited)
			continue
		}

		c.hub.metrics.IncrementMessagesReceived()
		handle(c, message)
	}
}

// checkRateLimit reports whether the client is within its message budget
func (c *Client) checkRateLimit() bool {
	max := c.hub.opts.MaxMessagesPerSecond
	if max <= 0 {
		return true
	}

	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= max
}

// Send queues a frame. A full queue means the client is too slow to keep up;
// it is closed rather than allowed to block the sender.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		c.log.Warn("send buffer full, closing slow client")
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close shuts the connection down; safe to call more than once
func (c *Client) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.closeMu.Unlock()

	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	c.cancel()
}
