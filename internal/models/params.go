package models

// NetworkType selects the communication graph topology
type NetworkType string

const (
	NetworkFullyConnected NetworkType = "fully_connected"
	NetworkCircle         NetworkType = "circle"
	NetworkLine           NetworkType = "line"
	NetworkSparse         NetworkType = "sparse"
)

// Params holds the game parameters, fixed once a session starts
type Params struct {
	Theta         float64     `json:"theta"`
	Bias          float64     `json:"bias"`
	Alpha         float64     `json:"alpha"`
	TotalRounds   int         `json:"totalRounds"`
	TimerDuration int         `json:"timerDuration"`
	NetworkType   NetworkType `json:"networkType"`
	AdvocateRatio float64     `json:"advocateRatio"`
}

// AdvocateTarget is the value Advocates try to pull Truth-Seekers toward
func (p Params) AdvocateTarget() float64 {
	return p.Theta + p.Bias
}

// ParamsInput is the facilitator's create request. Nil fields fall back to defaults.
type ParamsInput struct {
	Theta         *float64 `json:"theta"`
	Bias          *float64 `json:"bias"`
	Alpha         *float64 `json:"alpha"`
	TotalRounds   *int     `json:"totalRounds"`
	TimerDuration *int     `json:"timerDuration"`
	NetworkType   string   `json:"networkType"`
	AdvocateRatio *float64 `json:"advocateRatio"`
}
