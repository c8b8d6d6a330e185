package models

// GameStatus represents the lifecycle state of a session
type GameStatus string

const (
	StatusLobby    GameStatus = "lobby"
	StatusPlaying  GameStatus = "playing"
	StatusRoundEnd GameStatus = "round_end"
	StatusGameEnd  GameStatus = "game_end"
)
