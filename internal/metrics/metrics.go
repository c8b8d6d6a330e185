// Package metrics keeps process-wide counters for the connection layer and
// the sessions it drives.
package metrics

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Capacity thresholds used by the health status
const (
	WarnConnections     = 8000
	CriticalConnections = 9000
	WarnRooms           = 800
	CriticalRooms       = 900
	WarnErrors          = 100
)

// Health status values
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Metrics tracks server activity
type Metrics struct {
	// Connections
	activeConnections atomic.Int64
	totalConnections  atomic.Int64
	activeRooms       atomic.Int64

	// Messages
	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
	lastMessageTime  atomic.Int64 // unix seconds

	// Sessions
	gamesStarted   atomic.Int64
	roundsResolved atomic.Int64

	// Errors
	connectionErrors    atomic.Int64
	broadcastErrors     atomic.Int64
	rateLimitViolations atomic.Int64

	startTime time.Time
}

// New creates a metrics tracker
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
	m.totalConnections.Add(1)
}

func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

func (m *Metrics) IncrementRooms() {
	m.activeRooms.Add(1)
}

func (m *Metrics) DecrementRooms() {
	m.activeRooms.Add(-1)
}

func (m *Metrics) IncrementMessagesReceived() {
	m.messagesReceived.Add(1)
	m.lastMessageTime.Store(time.Now().Unix())
}

func (m *Metrics) IncrementMessagesSent() {
	m.messagesSent.Add(1)
}

func (m *Metrics) IncrementGamesStarted() {
	m.gamesStarted.Add(1)
}

func (m *Metrics) IncrementRoundsResolved() {
	m.roundsResolved.Add(1)
}

func (m *Metrics) IncrementConnectionErrors() {
	m.connectionErrors.Add(1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	m.broadcastErrors.Add(1)
}

func (m *Metrics) IncrementRateLimitViolations() {
	m.rateLimitViolations.Add(1)
}

// Snapshot is a point-in-time view of all counters
type Snapshot struct {
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	ActiveRooms       int64 `json:"active_rooms"`

	MessagesReceived  int64   `json:"messages_received"`
	MessagesSent      int64   `json:"messages_sent"`
	MessagesPerSecond float64 `json:"messages_per_second"`
	LastMessageTime   string  `json:"last_message_time"`

	GamesStarted   int64 `json:"games_started"`
	RoundsResolved int64 `json:"rounds_resolved"`

	ConnectionErrors    int64 `json:"connection_errors"`
	BroadcastErrors     int64 `json:"broadcast_errors"`
	RateLimitViolations int64 `json:"rate_limit_violations"`

	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryUsageMB uint64 `json:"memory_usage_mb"`
	NumGoroutines int    `json:"num_goroutines"`

	HealthStatus string `json:"health_status"`
}

// Snapshot returns the current values
func (m *Metrics) Snapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.startTime)
	received := m.messagesReceived.Load()
	var perSecond float64
	if secs := uptime.Seconds(); secs > 0 {
		perSecond = float64(received) / secs
	}

	lastMsg := "never"
	if ts := m.lastMessageTime.Load(); ts > 0 {
		lastMsg = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}

	return Snapshot{
		ActiveConnections:   m.activeConnections.Load(),
		TotalConnections:    m.totalConnections.Load(),
		ActiveRooms:         m.activeRooms.Load(),
		MessagesReceived:    received,
		MessagesSent:        m.messagesSent.Load(),
		MessagesPerSecond:   perSecond,
		LastMessageTime:     lastMsg,
		GamesStarted:        m.gamesStarted.Load(),
		RoundsResolved:      m.roundsResolved.Load(),
		ConnectionErrors:    m.connectionErrors.Load(),
		BroadcastErrors:     m.broadcastErrors.Load(),
		RateLimitViolations: m.rateLimitViolations.Load(),
		UptimeSeconds:       int64(uptime.Seconds()),
		MemoryUsageMB:       memStats.Alloc / 1024 / 1024,
		NumGoroutines:       runtime.NumGoroutine(),
		HealthStatus:        m.healthStatus(),
	}
}

func (m *Metrics) healthStatus() string {
	conns := m.activeConnections.Load()
	rooms := m.activeRooms.Load()
	errs := m.connectionErrors.Load() + m.broadcastErrors.Load()

	if conns > CriticalConnections || rooms > CriticalRooms {
		return StatusCritical
	}
	if conns > WarnConnections || rooms > WarnRooms || errs > WarnErrors {
		return StatusWarning
	}
	return StatusHealthy
}
