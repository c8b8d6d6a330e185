// Package render builds the role-scoped views of a room that are sent to
// the facilitator and to each participant. Callers must hold the session lock.
package render

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/aaronzipp/echo-chamber/internal/models"
)

// HostPlayer is the facilitator's view of one participant
type HostPlayer struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Role           models.Role           `json:"role"`
	CurrentOpinion *float64              `json:"currentOpinion"`
	HasSubmitted   bool                  `json:"hasSubmitted"`
	Neighbors      []string              `json:"neighbors"`
	Score          *float64              `json:"score"`
	History        []models.HistoryEntry `json:"history"`
}

// HostView is the full-visibility state sent to the facilitator
type HostView struct {
	Code         string                `json:"code"`
	GameState    models.GameStatus     `json:"gameState"`
	CurrentRound int                   `json:"currentRound"`
	Params       models.Params         `json:"params"`
	Players      map[string]HostPlayer `json:"players"`
	Submitted    int                   `json:"submitted"`
	Rounds       []models.RoundRecord  `json:"rounds"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// NeighborRef names a neighbor for the participant's own view
type NeighborRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerState is the private state each participant receives at game start
type PlayerState struct {
	Role           models.Role   `json:"role"`
	Neighbors      []string      `json:"neighbors"`
	NeighborNames  []NeighborRef `json:"neighborNames"`
	CurrentOpinion float64       `json:"currentOpinion"`
	Theta          float64       `json:"theta"`
	Bias           float64       `json:"bias"`
	TotalRounds    int           `json:"totalRounds"`
	TimerDuration  int           `json:"timerDuration"`
}

// AdvocateMessage is another Advocate's message, visible only to Advocates.
// Msg is nil if that Advocate did not submit this round.
type AdvocateMessage struct {
	From string `json:"from"`
	Msg  *int   `json:"msg"`
}

// RoundEnded is the private payload each participant receives when a round resolves
type RoundEnded struct {
	Round                 int               `json:"round"`
	NeighborMessages      []int             `json:"neighborMessages"`
	NewOpinion            float64           `json:"newOpinion"`
	AvgTruthSeekerOpinion float64           `json:"avgTruthSeekerOpinion"`
	AdvocateMessages      []AdvocateMessage `json:"advocateMessages"`
	Score                 *float64          `json:"score"`
}

// GameStarted is broadcast to the room when the game begins
type GameStarted struct {
	CurrentRound int `json:"currentRound"`
	TotalRounds  int `json:"totalRounds"`
}

// RoundStarted is broadcast to the room when the facilitator opens the next round
type RoundStarted struct {
	CurrentRound int `json:"currentRound"`
}

// GameEnded reveals the hidden state to everyone
type GameEnded struct {
	Theta float64 `json:"theta"`
}

// Host builds the facilitator view
func Host(room *models.Room) HostView {
	players := make(map[string]HostPlayer, len(room.Players))
	for id, p := range room.Players {
		players[id] = HostPlayer{
			ID:             p.ID,
			Name:           p.Name,
			Role:           p.Role,
			CurrentOpinion: cloneFloat(p.CurrentOpinion),
			HasSubmitted:   room.HasSubmitted(id),
			Neighbors:      slices.Clone(nonNil(p.Neighbors)),
			Score:          cloneFloat(p.Score),
			History:        slices.Clone(nonNilHistory(p.History)),
		}
	}
	return HostView{
		Code:         room.Code,
		GameState:    room.Status,
		CurrentRound: room.CurrentRound,
		Params:       room.Params,
		Players:      players,
		Submitted:    len(room.Messages),
		Rounds:       slices.Clone(room.Rounds),
		CreatedAt:    room.CreatedAt,
	}
}

// Player builds a participant's private state
func Player(room *models.Room, p *models.Player) PlayerState {
	refs := make([]NeighborRef, 0, len(p.Neighbors))
	for _, id := range p.Neighbors {
		ref := NeighborRef{ID: id}
		if nb, ok := room.Players[id]; ok {
			ref.Name = nb.Name
		}
		refs = append(refs, ref)
	}
	return PlayerState{
		Role:           p.Role,
		Neighbors:      slices.Clone(nonNil(p.Neighbors)),
		NeighborNames:  refs,
		CurrentOpinion: p.Opinion(),
		Theta:          room.Params.Theta,
		Bias:           room.Params.Bias,
		TotalRounds:    room.Params.TotalRounds,
		TimerDuration:  room.Params.TimerDuration,
	}
}

// Round builds a participant's round result. Only Advocates see other
// Advocates' messages, regardless of graph adjacency.
func Round(room *models.Room, p *models.Player, avg float64) RoundEnded {
	out := RoundEnded{
		Round:                 room.CurrentRound,
		NeighborMessages:      NeighborMessages(room.Messages, p.Neighbors),
		NewOpinion:            p.Opinion(),
		AvgTruthSeekerOpinion: avg,
		AdvocateMessages:      []AdvocateMessage{},
		Score:                 cloneFloat(p.Score),
	}
	if !p.IsAdvocate() {
		return out
	}
	for _, other := range sortedPlayers(room.Players) {
		if !other.IsAdvocate() || other.ID == p.ID {
			continue
		}
		am := AdvocateMessage{From: other.Name}
		if msg, ok := room.Messages[other.ID]; ok {
			am.Msg = &msg
		}
		out.AdvocateMessages = append(out.AdvocateMessages, am)
	}
	return out
}

// NeighborMessages returns the buffered messages of the given neighbors in
// neighbor order, skipping those who did not submit
func NeighborMessages(messages map[string]int, neighbors []string) []int {
	out := make([]int, 0, len(neighbors))
	for _, id := range neighbors {
		if msg, ok := messages[id]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// sortedPlayers converts map to a slice sorted by name
func sortedPlayers(players map[string]*models.Player) []*models.Player {
	list := slices.Collect(maps.Values(players))
	sort.Slice(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a == b {
			return list[i].ID < list[j].ID
		}
		return a < b
	})
	return list
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilHistory(h []models.HistoryEntry) []models.HistoryEntry {
	if h == nil {
		return []models.HistoryEntry{}
	}
	return h
}
