package handlers

import (
	"github.com/aaronzipp/echo-chamber/internal/game"
	"github.com/aaronzipp/echo-chamber/internal/models"
)

// handleCreateRoom opens a new session with the sender as facilitator
func (ctx *Context) handleCreateRoom(connID string, env models.Envelope) {
	var in models.ParamsInput
	if err := decodePayload(env.Payload, &in); err != nil {
		ctx.Logger.Debug("bad create_room payload", "conn", connID, "error", err)
		ctx.reply(connID, env, ackPayload{Success: false, Message: "Invalid room parameters"})
		return
	}

	params := game.NormalizeParams(in)
	s := ctx.Registry.Create(connID, params)
	ctx.Metrics.IncrementRooms()
	ctx.Hub.Subscribe(connID, s.Code())

	ctx.reply(connID, env, ackPayload{Success: true, RoomCode: s.Code(), Params: &params})
	ctx.deliver([]models.Outbound{models.ToConn(connID, models.MsgTypeHostUpdate, s.HostView())})
}

// handleJoinRoom adds the sender to a lobby
func (ctx *Context) handleJoinRoom(connID string, env models.Envelope) {
	var p joinRoomPayload
	if err := decodePayload(env.Payload, &p); err != nil {
		ctx.Logger.Debug("bad join_room payload", "conn", connID, "error", err)
		ctx.reply(connID, env, ackPayload{Success: false, Message: MsgRoomNotFound})
		return
	}

	s, err := ctx.Registry.Lookup(p.RoomCode)
	if err != nil {
		ctx.fail(connID, env, err)
		return
	}

	// subscribe first so a start racing this join is not missed
	ctx.Hub.Subscribe(connID, s.Code())
	out, err := s.Join(connID, p.PlayerName)
	if err != nil {
		if !s.IsHost(connID) && !s.HasPlayer(connID) {
			ctx.Hub.Unsubscribe(connID, s.Code())
		}
		ctx.Logger.Info("join rejected", "conn", connID, "room", s.Code(), "error", err)
		ctx.fail(connID, env, err)
		return
	}

	name, _ := s.PlayerName(connID)
	ctx.reply(connID, env, ackPayload{
		Success:  true,
		RoomCode: s.Code(),
		Player:   &playerRef{ID: connID, Name: name},
	})
	ctx.deliver(out)
}
