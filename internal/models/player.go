package models

// Role is the part a participant plays once the game has started
type Role string

const (
	RoleNone        Role = ""
	RoleTruthSeeker Role = "Truth-Seeker"
	RoleAdvocate    Role = "Advocate"
)

// HistoryEntry is one point of a participant's opinion trajectory.
// SentMessage is nil for the seed entry and for rounds the participant skipped.
type HistoryEntry struct {
	Round       int     `json:"round"`
	Opinion     float64 `json:"opinion"`
	SentMessage *int    `json:"sentMessage,omitempty"`
}

// Player represents a participant in a session
type Player struct {
	ID             string
	Name           string
	Role           Role
	CurrentOpinion *float64
	Neighbors      []string
	History        []HistoryEntry
	Score          *float64
}

// IsAdvocate reports whether the player was assigned the Advocate role
func (p *Player) IsAdvocate() bool {
	return p.Role == RoleAdvocate
}

// IsTruthSeeker reports whether the player was assigned the Truth-Seeker role
func (p *Player) IsTruthSeeker() bool {
	return p.Role == RoleTruthSeeker
}

// Opinion returns the current opinion, or 0 before roles are assigned
func (p *Player) Opinion() float64 {
	if p.CurrentOpinion == nil {
		return 0
	}
	return *p.CurrentOpinion
}

// SetOpinion replaces the current opinion
func (p *Player) SetOpinion(v float64) {
	p.CurrentOpinion = &v
}
