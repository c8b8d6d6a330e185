package session

import (
	"maps"
	"slices"

	"github.com/aaronzipp/echo-chamber/internal/game"
	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/render"
)

// resolveRound closes the current round: Truth-Seekers move toward the mean
// of their neighbors' messages, history is appended, scores are set on the
// last round and every participant gets a private result. Must be called with
// the lock held and the room in the playing state.
func (s *Session) resolveRound() []models.Outbound {
	room := s.room
	alpha := room.Params.Alpha
	ids := slices.Sorted(maps.Keys(room.Players))

	// updates read only the message buffer, so their order does not matter
	var sum float64
	var truthSeekers int
	for _, id := range ids {
		p := room.Players[id]
		if !p.IsTruthSeeker() {
			continue
		}
		received := render.NeighborMessages(room.Messages, p.Neighbors)
		p.SetOpinion(game.UpdateOpinion(p.Opinion(), alpha, received))
		sum += p.Opinion()
		truthSeekers++
	}

	var avg float64
	if truthSeekers > 0 {
		avg = sum / float64(truthSeekers)
	}

	for _, id := range ids {
		p := room.Players[id]
		entry := models.HistoryEntry{Round: room.CurrentRound, Opinion: p.Opinion()}
		if msg, ok := room.Messages[id]; ok {
			entry.SentMessage = &msg
		}
		p.History = append(p.History, entry)
	}

	room.Rounds = append(room.Rounds, models.RoundRecord{
		Round:                 room.CurrentRound,
		Messages:              maps.Clone(room.Messages),
		AvgTruthSeekerOpinion: avg,
	})

	if room.CurrentRound >= room.Params.TotalRounds {
		theta, bias := room.Params.Theta, room.Params.Bias
		for _, id := range ids {
			p := room.Players[id]
			var score float64
			if p.IsAdvocate() {
				score = game.AdvocateScore(avg, theta, bias)
			} else {
				score = game.TruthSeekerScore(p.Opinion(), theta)
			}
			p.Score = &score
		}
	}

	room.Status = models.StatusRoundEnd
	s.log.Info("round resolved",
		"round", room.CurrentRound,
		"messages", len(room.Messages),
		"avg_truth_seeker_opinion", avg,
		"final", room.CurrentRound >= room.Params.TotalRounds)

	out := make([]models.Outbound, 0, len(ids)+1)
	for _, id := range ids {
		out = append(out, models.ToConn(id, models.MsgTypeRoundEnded, render.Round(room, room.Players[id], avg)))
	}
	return s.hostUpdate(out)
}
