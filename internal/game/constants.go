package game

const (
	// MinPlayers is the minimum number of participants required to start a game
	MinPlayers = 2

	// MinMessage and MaxMessage bound a valid submitted message
	MinMessage = 1
	MaxMessage = 100

	// TruthSeekerSeedOpinion is every Truth-Seeker's opinion before round 1
	TruthSeekerSeedOpinion = 50.0

	// SparseEdgeCutoff drops a random edge when the draw is at or below it (edge probability 0.4)
	SparseEdgeCutoff = 0.6

	// MaxScore is awarded for a zero deviation; scores never drop below zero
	MaxScore = 100.0

	// MaxNameLength caps a display name, in runes
	MaxNameLength = 50

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes
	RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Parameter defaults applied when the facilitator leaves a field out
const (
	DefaultTheta         = 50.0
	DefaultBias          = 8.0
	DefaultAlpha         = 0.4
	DefaultTotalRounds   = 6
	DefaultTimerDuration = 60
	DefaultAdvocateRatio = 0.3
)
