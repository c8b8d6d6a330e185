// Package session implements the per-room state machine:
//
//	lobby → playing ⇄ round_end → game_end
//
// Every operation on a Session runs under the session's mutex and returns the
// events it produced instead of sending them, so that delivery happens after
// the lock is released.
package session

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/aaronzipp/echo-chamber/internal/game"
	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/render"
)

// Session is one running instance of the exercise
type Session struct {
	mu   sync.Mutex
	room *models.Room
	rng  game.Rand
	log  *slog.Logger
}

// New creates a session in the lobby state. A nil rng gets a time-seeded source
// and a nil logger discards output.
func New(code, host string, params models.Params, rng game.Rand, logger *slog.Logger) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		room: models.NewRoom(code, host, params),
		rng:  rng,
		log:  logger.With("room", code),
	}
}

// Code returns the session code
func (s *Session) Code() string {
	return s.room.Code
}

// Params returns the session parameters
func (s *Session) Params() models.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Params
}

// Status returns the current lifecycle state
func (s *Session) Status() models.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Status
}

// PlayerCount returns the current roster size
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.room.Players)
}

// IsHost reports whether id is the facilitator
func (s *Session) IsHost(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.IsHost(id)
}

// HasPlayer reports whether id is on the roster
func (s *Session) HasPlayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.room.Players[id]
	return ok
}

// PlayerName returns the stored display name of a participant
func (s *Session) PlayerName(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.room.Players[id]
	if !ok {
		return "", false
	}
	return p.Name, true
}

// HostView returns the facilitator view
func (s *Session) HostView() render.HostView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Host(s.room)
}

// Join adds a participant. Only valid in the lobby. Names are NFC-normalized
// and truncated to game.MaxNameLength runes.
func (s *Session) Join(id, name string) ([]models.Outbound, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrInvalidName
	}
	if utf8.RuneCountInString(name) > game.MaxNameLength {
		name = string([]rune(name)[:game.MaxNameLength])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.Status != models.StatusLobby {
		return nil, fmt.Errorf("join %s: %w", s.room.Code, ErrGameAlreadyStarted)
	}

	s.room.Players[id] = &models.Player{
		ID:        id,
		Name:      name,
		Neighbors: []string{},
		History:   []models.HistoryEntry{},
	}
	s.log.Info("player joined", "player", id, "name", name, "players", len(s.room.Players))

	return s.hostUpdate(nil), nil
}

// Start assigns roles, seeds opinions, builds the communication graph and
// opens round 1. Only the facilitator may start, only from the lobby, and
// only with at least game.MinPlayers participants.
func (s *Session) Start(callerID string) ([]models.Outbound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room
	if !room.IsHost(callerID) {
		return nil, fmt.Errorf("start %s: %w", room.Code, ErrNotAuthorized)
	}
	if room.Status != models.StatusLobby {
		return nil, fmt.Errorf("start %s: %w", room.Code, ErrGameAlreadyStarted)
	}
	if len(room.Players) < game.MinPlayers {
		return nil, fmt.Errorf("start %s with %d players: %w", room.Code, len(room.Players), ErrInsufficientPlayers)
	}

	ids := slices.Sorted(maps.Keys(room.Players))
	_, roles := game.AssignRoles(ids, room.Params.AdvocateRatio, s.rng)
	for _, id := range ids {
		p := room.Players[id]
		p.Role = roles[id]
		p.SetOpinion(game.SeedOpinion(p.Role, room.Params.Theta))
		p.History = []models.HistoryEntry{{Round: 0, Opinion: p.Opinion()}}
	}

	// graph positions are drawn independently of the role shuffle
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	for id, nbs := range game.GenerateNetwork(ids, room.Params.NetworkType, s.rng) {
		room.Players[id].Neighbors = nbs
	}

	room.CurrentRound = 1
	room.Status = models.StatusPlaying
	clear(room.Messages)

	s.log.Info("game started",
		"players", len(ids),
		"advocates", game.AdvocateCount(len(ids), room.Params.AdvocateRatio),
		"network", room.Params.NetworkType)

	out := []models.Outbound{
		models.ToRoom(room.Code, models.MsgTypeGameStarted, render.GameStarted{
			CurrentRound: room.CurrentRound,
			TotalRounds:  room.Params.TotalRounds,
		}),
	}
	for _, id := range ids {
		out = append(out, models.ToConn(id, models.MsgTypePlayerState, render.Player(room, room.Players[id])))
	}
	return s.hostUpdate(out), nil
}

// Submit records a participant's message for the current round. Invalid
// input, submissions outside the playing state and submissions from
// non-participants are dropped without error. When every participant has
// submitted, the round resolves before Submit returns.
func (s *Session) Submit(id string, raw any) []models.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room
	if room.Status != models.StatusPlaying {
		return nil
	}
	if _, ok := room.Players[id]; !ok {
		return nil
	}
	msg, ok := game.ParseMessage(raw)
	if !ok {
		s.log.Debug("dropped invalid message", "player", id, "message", raw)
		return nil
	}

	room.Messages[id] = msg

	out := s.hostUpdate(nil)
	out = append(out, models.ToConn(id, models.MsgTypeMessageReceived, true))

	if room.AllSubmitted() {
		out = append(out, s.resolveRound()...)
	}
	return out
}

// Advance moves from round_end to the next round, or to game_end after the
// last round. Calls from anyone but the facilitator fail with
// ErrNotAuthorized; calls in any other state are ignored.
func (s *Session) Advance(callerID string) ([]models.Outbound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room
	if !room.IsHost(callerID) {
		return nil, fmt.Errorf("advance %s: %w", room.Code, ErrNotAuthorized)
	}
	if room.Status != models.StatusRoundEnd {
		return nil, nil
	}

	var out []models.Outbound
	if room.CurrentRound >= room.Params.TotalRounds {
		room.Status = models.StatusGameEnd
		s.log.Info("game ended", "rounds", room.CurrentRound)
		out = append(out, models.ToRoom(room.Code, models.MsgTypeGameEnded, render.GameEnded{Theta: room.Params.Theta}))
	} else {
		room.CurrentRound++
		clear(room.Messages)
		room.Status = models.StatusPlaying
		s.log.Info("round started", "round", room.CurrentRound)
		out = append(out, models.ToRoom(room.Code, models.MsgTypeRoundStarted, render.RoundStarted{CurrentRound: room.CurrentRound}))
	}
	return s.hostUpdate(out), nil
}

// Leave removes a connection from the session in any state. Roles and
// neighbor sets of the remaining participants are left untouched. If the
// facilitator leaves, the session keeps running without one. Leave reports
// whether the session is now abandoned: no facilitator and no participants.
func (s *Session) Leave(id string) (out []models.Outbound, abandoned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room
	if room.IsHost(id) {
		room.Host = ""
		s.log.Warn("facilitator left, session continues without one", "host", id)
	}
	if _, ok := room.Players[id]; ok {
		delete(room.Players, id)
		delete(room.Messages, id)
		s.log.Info("player left", "player", id, "players", len(room.Players), "status", room.Status)

		out = s.hostUpdate(nil)
		if room.Status == models.StatusPlaying && room.AllSubmitted() {
			out = append(out, s.resolveRound()...)
		}
	}
	return out, room.Host == "" && len(room.Players) == 0
}

// hostUpdate appends a facilitator view to out, if there is a facilitator
func (s *Session) hostUpdate(out []models.Outbound) []models.Outbound {
	if s.room.Host == "" {
		return out
	}
	return append(out, models.ToConn(s.room.Host, models.MsgTypeHostUpdate, render.Host(s.room)))
}
