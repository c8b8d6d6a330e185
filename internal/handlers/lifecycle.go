package handlers

import (
	"fmt"

	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/session"
)

// handleStartGame starts a session on the facilitator's request
func (ctx *Context) handleStartGame(connID string, env models.Envelope) {
	code, err := decodeRoomCode(env.Payload)
	if err != nil {
		ctx.fail(connID, env, session.ErrNotAuthorized)
		return
	}

	s, ok := ctx.Registry.Get(code)
	if !ok {
		ctx.fail(connID, env, fmt.Errorf("start %s: %w", code, session.ErrNotAuthorized))
		return
	}

	out, err := s.Start(connID)
	if err != nil {
		ctx.Logger.Info("start rejected", "conn", connID, "room", s.Code(), "error", err)
		ctx.fail(connID, env, err)
		return
	}

	ctx.Metrics.IncrementGamesStarted()
	ctx.reply(connID, env, ackPayload{Success: true})
	ctx.deliver(out)
}

// handleNextRound advances a session past a finished round
func (ctx *Context) handleNextRound(connID string, env models.Envelope) {
	code, err := decodeRoomCode(env.Payload)
	if err != nil {
		ctx.fail(connID, env, session.ErrNotAuthorized)
		return
	}
	s, ok := ctx.Registry.Get(code)
	if !ok {
		ctx.fail(connID, env, session.ErrNotAuthorized)
		return
	}

	out, err := s.Advance(connID)
	if err != nil {
		ctx.Logger.Debug("advance ignored", "conn", connID, "room", s.Code(), "error", err)
		ctx.fail(connID, env, err)
		return
	}

	ctx.reply(connID, env, ackPayload{Success: true})
	ctx.deliver(out)
}

// disconnect removes a closed connection from every session it took part
// in. Sessions left with neither facilitator nor participants are deleted.
func (ctx *Context) disconnect(connID string) {
	ctx.Hub.Unregister(connID)

	for _, s := range ctx.Registry.SessionsWith(connID) {
		out, abandoned := s.Leave(connID)
		ctx.deliver(out)

		if abandoned && ctx.Registry.Delete(s.Code()) {
			ctx.Hub.CloseRoom(s.Code())
			ctx.Metrics.DecrementRooms()
		}
	}
}
