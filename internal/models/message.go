package models

import "encoding/json"

// Envelope is the JSON frame exchanged over a connection
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypeCreateRoom    = "create_room"
	MsgTypeJoinRoom      = "join_room"
	MsgTypeStartGame     = "start_game"
	MsgTypeSubmitMessage = "submit_message"
	MsgTypeNextRound     = "next_round"
)

// Server → Client message types
const (
	MsgTypeAck             = "ack"
	MsgTypeError           = "error"
	MsgTypeHostUpdate      = "host_update"
	MsgTypePlayerState     = "player_state"
	MsgTypeGameStarted     = "game_started"
	MsgTypeRoundStarted    = "round_started"
	MsgTypeMessageReceived = "message_received"
	MsgTypeRoundEnded      = "round_ended"
	MsgTypeGameEnded       = "game_ended"
)

// Outbound is an event produced by a session transition, addressed either to
// one connection (To) or to every connection in the room (Room).
type Outbound struct {
	To      string
	Room    string
	Type    string
	Payload any
}

// ToConn addresses an event to a single connection
func ToConn(id, msgType string, payload any) Outbound {
	return Outbound{To: id, Type: msgType, Payload: payload}
}

// ToRoom addresses an event to every connection in a room
func ToRoom(code, msgType string, payload any) Outbound {
	return Outbound{Room: code, Type: msgType, Payload: payload}
}
