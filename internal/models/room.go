package models

import "time"

// Room is the authoritative state of one session (ephemeral).
// It carries no lock of its own; the owning session serializes access.
type Room struct {
	Code         string
	Host         string // facilitator connection id, empty once the facilitator left
	Params       Params
	Players      map[string]*Player // connection id -> Player
	Status       GameStatus
	CurrentRound int
	Messages     map[string]int // messages submitted this round
	Rounds       []RoundRecord
	CreatedAt    time.Time
}

// RoundRecord is the immutable summary of a resolved round
type RoundRecord struct {
	Round                 int            `json:"round"`
	Messages              map[string]int `json:"messages"`
	AvgTruthSeekerOpinion float64        `json:"avgTruthSeekerOpinion"`
}

// NewRoom creates a room in the lobby state
func NewRoom(code, host string, params Params) *Room {
	return &Room{
		Code:      code,
		Host:      host,
		Params:    params,
		Players:   make(map[string]*Player),
		Status:    StatusLobby,
		Messages:  make(map[string]int),
		CreatedAt: time.Now(),
	}
}

// HasSubmitted reports whether the player has a message buffered this round
func (r *Room) HasSubmitted(playerID string) bool {
	_, ok := r.Messages[playerID]
	return ok
}

// AllSubmitted reports whether every current participant has submitted.
// An empty roster never counts as complete.
func (r *Room) AllSubmitted() bool {
	return len(r.Players) > 0 && len(r.Messages) == len(r.Players)
}

// IsHost reports whether id is the facilitator of this room
func (r *Room) IsHost(id string) bool {
	return r.Host != "" && r.Host == id
}
