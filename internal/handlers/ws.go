package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/ws"
)

// HandleWS upgrades the request and serves one connection until it closes.
// Each connection gets a fresh identity; it is the facilitator of rooms it
// creates and the participant of rooms it joins.
func (ctx *Context) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: ctx.AllowedOrigins,
	})
	if err != nil {
		ctx.Logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		ctx.Metrics.IncrementConnectionErrors()
		return
	}

	id := uuid.NewString()
	client := ctx.Hub.Register(id, conn)
	defer ctx.disconnect(id)

	client.Run(ctx.dispatch)
}

// dispatch routes one inbound frame
func (ctx *Context) dispatch(c *ws.Client, data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctx.Logger.Debug("malformed frame", "conn", c.ID, "error", err)
		ctx.Hub.SendError(c.ID, ws.ErrMsgInvalidMessage)
		return
	}

	ctx.Logger.Debug("frame received", "conn", c.ID, "type", env.Type)

	switch env.Type {
	case models.MsgTypeCreateRoom:
		ctx.handleCreateRoom(c.ID, env)
	case models.MsgTypeJoinRoom:
		ctx.handleJoinRoom(c.ID, env)
	case models.MsgTypeStartGame:
		ctx.handleStartGame(c.ID, env)
	case models.MsgTypeSubmitMessage:
		ctx.handleSubmitMessage(c.ID, env)
	case models.MsgTypeNextRound:
		ctx.handleNextRound(c.ID, env)
	default:
		ctx.Hub.SendError(c.ID, ws.ErrMsgUnknownType)
	}
}
