package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/session"
)

// User-facing error messages
const (
	MsgRoomNotFound        = "Room not found"
	MsgNotAuthorized       = "Not authorized or room not found"
	MsgGameInProgress      = "Game already in progress"
	MsgInsufficientPlayers = "Need at least 2 players to start"
	MsgNameRequired        = "Name is required"
	MsgInternal            = "Something went wrong"
)

// ackPayload is the reply to a request frame
type ackPayload struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	RoomCode string         `json:"roomCode,omitempty"`
	Params   *models.Params `json:"params,omitempty"`
	Player   *playerRef     `json:"player,omitempty"`
}

type playerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type joinRoomPayload struct {
	PlayerName string `json:"playerName"`
	RoomCode   string `json:"roomCode"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type submitMessagePayload struct {
	RoomCode string `json:"roomCode"`
	Message  any    `json:"message"`
}

// decodePayload unmarshals a frame payload; an absent payload leaves v untouched
func decodePayload(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// decodeRoomCode accepts either {"roomCode": "..."} or a bare string
func decodeRoomCode(raw json.RawMessage) (string, error) {
	var code string
	if err := json.Unmarshal(bytes.TrimSpace(raw), &code); err == nil {
		return code, nil
	}
	var p roomPayload
	if err := decodePayload(raw, &p); err != nil {
		return "", err
	}
	return p.RoomCode, nil
}

// userMessage maps a session error onto the text shown to the client
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrRoomNotFound):
		return MsgRoomNotFound
	case errors.Is(err, session.ErrNotAuthorized):
		return MsgNotAuthorized
	case errors.Is(err, session.ErrGameAlreadyStarted):
		return MsgGameInProgress
	case errors.Is(err, session.ErrInsufficientPlayers):
		return MsgInsufficientPlayers
	case errors.Is(err, session.ErrInvalidName):
		return MsgNameRequired
	default:
		return MsgInternal
	}
}

// reply sends an ack if the request asked for one. Acks go out before the
// events of the same request.
func (ctx *Context) reply(connID string, env models.Envelope, payload ackPayload) {
	if env.ID == "" {
		return
	}
	ctx.Hub.Reply(connID, env.ID, payload)
}

// fail replies with the user message for err
func (ctx *Context) fail(connID string, env models.Envelope, err error) {
	ctx.reply(connID, env, ackPayload{Success: false, Message: userMessage(err)})
}

// deliver hands session events to the hub and counts resolved rounds
func (ctx *Context) deliver(out []models.Outbound) {
	if len(out) == 0 {
		return
	}
	for _, ev := range out {
		if ev.Type == models.MsgTypeRoundEnded {
			ctx.Metrics.IncrementRoundsResolved()
			break
		}
	}
	ctx.Hub.Deliver(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
