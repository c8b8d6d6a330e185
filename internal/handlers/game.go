package handlers

import (
	"github.com/aaronzipp/echo-chamber/internal/models"
)

// handleSubmitMessage records a participant's message for the current round.
// Unknown rooms and invalid messages are dropped; the ack, if requested,
// reports whether the message was accepted.
func (ctx *Context) handleSubmitMessage(connID string, env models.Envelope) {
	var p submitMessagePayload
	if err := decodePayload(env.Payload, &p); err != nil {
		ctx.Logger.Debug("bad submit_message payload", "conn", connID, "error", err)
		ctx.reply(connID, env, ackPayload{Success: false})
		return
	}

	s, ok := ctx.Registry.Get(p.RoomCode)
	if !ok {
		ctx.reply(connID, env, ackPayload{Success: false})
		return
	}

	out := s.Submit(connID, p.Message)
	ctx.reply(connID, env, ackPayload{Success: len(out) > 0})
	ctx.deliver(out)
}
