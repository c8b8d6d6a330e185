package session_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/aaronzipp/echo-chamber/internal/game"
	"github.com/aaronzipp/echo-chamber/internal/models"
	"github.com/aaronzipp/echo-chamber/internal/render"
	"github.com/aaronzipp/echo-chamber/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const host = "host"

func newSession(t *testing.T, params models.Params, seed int64) *session.Session {
	t.Helper()
	return session.New("ABC123", host, params, rand.New(rand.NewSource(seed)), nil)
}

func defaultParams() models.Params {
	return game.NormalizeParams(models.ParamsInput{})
}

func joinN(t *testing.T, s *session.Session, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
		_, err := s.Join(ids[i], fmt.Sprintf("Player %d", i))
		require.NoError(t, err)
	}
	return ids
}

func eventsOf(out []models.Outbound, msgType string) []models.Outbound {
	var found []models.Outbound
	for _, o := range out {
		if o.Type == msgType {
			found = append(found, o)
		}
	}
	return found
}

func eventFor(t *testing.T, out []models.Outbound, msgType, to string) models.Outbound {
	t.Helper()
	for _, o := range out {
		if o.Type == msgType && o.To == to {
			return o
		}
	}
	t.Fatalf("no %s event for %s", msgType, to)
	return models.Outbound{}
}

func lastHostView(t *testing.T, out []models.Outbound) render.HostView {
	t.Helper()
	updates := eventsOf(out, models.MsgTypeHostUpdate)
	require.NotEmpty(t, updates)
	return updates[len(updates)-1].Payload.(render.HostView)
}

func roleOf(t *testing.T, s *session.Session, id string) models.Role {
	t.Helper()
	p, ok := s.HostView().Players[id]
	require.True(t, ok)
	return p.Role
}

func TestJoin(t *testing.T) {
	t.Run("adds player and updates facilitator", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)

		out, err := s.Join("p1", "  Ada  ")
		require.NoError(t, err)

		view := lastHostView(t, out)
		assert.Equal(t, host, eventsOf(out, models.MsgTypeHostUpdate)[0].To)
		require.Contains(t, view.Players, "p1")
		p := view.Players["p1"]
		assert.Equal(t, "Ada", p.Name)
		assert.Equal(t, models.RoleNone, p.Role)
		assert.Nil(t, p.CurrentOpinion)
		assert.Nil(t, p.Score)
		assert.Empty(t, p.Neighbors)
		assert.Empty(t, p.History)

		name, ok := s.PlayerName("p1")
		assert.True(t, ok)
		assert.Equal(t, "Ada", name)
	})

	t.Run("rejects blank names", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)

		_, err := s.Join("p1", "   ")
		assert.ErrorIs(t, err, session.ErrInvalidName)
		assert.Zero(t, s.PlayerCount())
	})

	t.Run("truncates long names", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)

		long := ""
		for range 80 {
			long += "é"
		}
		_, err := s.Join("p1", long)
		require.NoError(t, err)
		assert.Equal(t, []rune(long)[:game.MaxNameLength], []rune(s.HostView().Players["p1"].Name))
	})

	t.Run("normalizes names to NFC", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)

		_, err := s.Join("p1", "Jose\u0301")
		require.NoError(t, err)
		name, _ := s.PlayerName("p1")
		assert.Equal(t, "Jos\u00e9", name)
	})

	t.Run("fails once the game has started", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)

		_, err = s.Join("late", "Late")
		assert.ErrorIs(t, err, session.ErrGameAlreadyStarted)
		assert.False(t, s.HasPlayer("late"))
	})
}

func TestStart(t *testing.T) {
	t.Run("requires facilitator", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 3)

		_, err := s.Start(ids[0])
		assert.ErrorIs(t, err, session.ErrNotAuthorized)
		assert.Equal(t, models.StatusLobby, s.Status())
	})

	t.Run("requires two players", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		joinN(t, s, 1)

		out, err := s.Start(host)
		assert.ErrorIs(t, err, session.ErrInsufficientPlayers)
		assert.Nil(t, out)
		assert.Equal(t, models.StatusLobby, s.Status())
		assert.Equal(t, 1, s.PlayerCount())
		assert.Equal(t, models.RoleNone, roleOf(t, s, "p0"))
	})

	t.Run("only once", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)

		_, err = s.Start(host)
		assert.ErrorIs(t, err, session.ErrGameAlreadyStarted)
	})

	t.Run("assigns roles, opinions, graph and notifies everyone", func(t *testing.T) {
		params := defaultParams()
		params.Theta = 30
		params.NetworkType = models.NetworkFullyConnected
		s := newSession(t, params, 5)
		ids := joinN(t, s, 10)

		out, err := s.Start(host)
		require.NoError(t, err)

		started := eventsOf(out, models.MsgTypeGameStarted)
		require.Len(t, started, 1)
		assert.Equal(t, "ABC123", started[0].Room)
		assert.Equal(t, render.GameStarted{CurrentRound: 1, TotalRounds: 6}, started[0].Payload)

		view := lastHostView(t, out)
		assert.Equal(t, models.StatusPlaying, view.GameState)
		assert.Equal(t, 1, view.CurrentRound)

		advocates := 0
		for _, id := range ids {
			p := view.Players[id]
			require.NotNil(t, p.CurrentOpinion)
			switch p.Role {
			case models.RoleAdvocate:
				advocates++
				assert.Equal(t, 30.0, *p.CurrentOpinion)
			case models.RoleTruthSeeker:
				assert.Equal(t, 50.0, *p.CurrentOpinion)
			default:
				t.Fatalf("player %s has no role", id)
			}
			assert.Equal(t, []models.HistoryEntry{{Round: 0, Opinion: *p.CurrentOpinion}}, p.History)
			assert.Len(t, p.Neighbors, 9)
			assert.NotContains(t, p.Neighbors, id)
			assert.Nil(t, p.Score)

			state := eventFor(t, out, models.MsgTypePlayerState, id).Payload.(render.PlayerState)
			assert.Equal(t, p.Role, state.Role)
			assert.Equal(t, p.Neighbors, state.Neighbors)
			assert.Equal(t, *p.CurrentOpinion, state.CurrentOpinion)
			assert.Equal(t, 30.0, state.Theta)
			assert.Equal(t, 8.0, state.Bias)
		}
		assert.Equal(t, 3, advocates)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("ignored outside playing", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 2)

		assert.Nil(t, s.Submit(ids[0], 50))
		assert.Zero(t, s.HostView().Submitted)
	})

	t.Run("acknowledges valid messages", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 3)
		_, err := s.Start(host)
		require.NoError(t, err)

		out := s.Submit(ids[0], "42")

		ack := eventFor(t, out, models.MsgTypeMessageReceived, ids[0])
		assert.Equal(t, true, ack.Payload)
		view := lastHostView(t, out)
		assert.True(t, view.Players[ids[0]].HasSubmitted)
		assert.False(t, view.Players[ids[1]].HasSubmitted)
		assert.Equal(t, 1, view.Submitted)
	})

	t.Run("out of range messages never resolve the round", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)
		s.Submit(ids[0], 50)

		for _, bad := range []any{0, 101, "abc", nil, 12.5} {
			assert.Nil(t, s.Submit(ids[1], bad), "message %v", bad)
		}

		view := s.HostView()
		assert.Equal(t, models.StatusPlaying, view.GameState)
		assert.Equal(t, 1, view.Submitted)
		assert.False(t, view.Players[ids[1]].HasSubmitted)
	})

	t.Run("ignored from non-participants", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)

		assert.Nil(t, s.Submit(host, 50))
		assert.Nil(t, s.Submit("stranger", 50))
		assert.Zero(t, s.HostView().Submitted)
	})

	t.Run("resubmitting overwrites", func(t *testing.T) {
		params := defaultParams()
		params.NetworkType = models.NetworkFullyConnected
		params.AdvocateRatio = 0
		params.Alpha = 1
		s := newSession(t, params, 1)
		ids := joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)

		s.Submit(ids[0], 10)
		s.Submit(ids[0], 20)
		assert.Equal(t, 1, s.HostView().Submitted)
		out := s.Submit(ids[1], 60)

		// alpha 1: each opinion becomes the other's message
		r1 := eventFor(t, out, models.MsgTypeRoundEnded, ids[1]).Payload.(render.RoundEnded)
		assert.Equal(t, []int{20}, r1.NeighborMessages)
		assert.InDelta(t, 20.0, r1.NewOpinion, 1e-9)
	})
}

func TestRoundResolution_ThreePlayersAllSendNinety(t *testing.T) {
	params := models.Params{
		Theta:         50,
		Bias:          8,
		Alpha:         0.5,
		TotalRounds:   1,
		TimerDuration: 60,
		NetworkType:   models.NetworkFullyConnected,
		AdvocateRatio: 0.3,
	}
	s := newSession(t, params, 9)
	ids := joinN(t, s, 3)
	_, err := s.Start(host)
	require.NoError(t, err)

	var advocate string
	for _, id := range ids {
		if roleOf(t, s, id) == models.RoleAdvocate {
			require.Empty(t, advocate, "more than one advocate")
			advocate = id
		}
	}
	require.NotEmpty(t, advocate)

	var out []models.Outbound
	for _, id := range ids {
		out = s.Submit(id, 90)
	}

	view := lastHostView(t, out)
	assert.Equal(t, models.StatusRoundEnd, view.GameState)
	for _, id := range ids {
		p := view.Players[id]
		require.NotNil(t, p.Score)
		assert.InDelta(t, 0.0, *p.Score, 1e-9)

		result := eventFor(t, out, models.MsgTypeRoundEnded, id).Payload.(render.RoundEnded)
		assert.InDelta(t, 70.0, result.AvgTruthSeekerOpinion, 1e-9)
		require.NotNil(t, result.Score)
		if id == advocate {
			assert.InDelta(t, 50.0, result.NewOpinion, 1e-9)
		} else {
			assert.InDelta(t, 70.0, result.NewOpinion, 1e-9)
			assert.Contains(t, result.NeighborMessages, 90)
		}
	}
	require.Len(t, view.Rounds, 1)
	assert.InDelta(t, 70.0, view.Rounds[0].AvgTruthSeekerOpinion, 1e-9)
}

func TestRoundResolution_ScoresOnlyOnFinalRound(t *testing.T) {
	params := defaultParams()
	params.TotalRounds = 2
	s := newSession(t, params, 3)
	ids := joinN(t, s, 4)
	_, err := s.Start(host)
	require.NoError(t, err)

	var out []models.Outbound
	for _, id := range ids {
		out = s.Submit(id, 55)
	}
	for _, p := range lastHostView(t, out).Players {
		assert.Nil(t, p.Score)
	}
	for _, id := range ids {
		assert.Nil(t, eventFor(t, out, models.MsgTypeRoundEnded, id).Payload.(render.RoundEnded).Score)
	}

	out, err = s.Advance(host)
	require.NoError(t, err)
	started := eventsOf(out, models.MsgTypeRoundStarted)
	require.Len(t, started, 1)
	assert.Equal(t, render.RoundStarted{CurrentRound: 2}, started[0].Payload)
	assert.Zero(t, lastHostView(t, out).Submitted)

	for _, id := range ids {
		out = s.Submit(id, 55)
	}
	for _, p := range lastHostView(t, out).Players {
		assert.NotNil(t, p.Score)
		assert.Len(t, p.History, 3)
	}
}

func TestRoundResolution_HistoryRecordsSentMessages(t *testing.T) {
	params := defaultParams()
	params.NetworkType = models.NetworkLine
	s := newSession(t, params, 2)
	ids := joinN(t, s, 3)
	_, err := s.Start(host)
	require.NoError(t, err)

	s.Submit(ids[0], 10)
	s.Submit(ids[1], 20)
	out := s.Submit(ids[2], 30)

	view := lastHostView(t, out)
	for i, id := range ids {
		h := view.Players[id].History
		require.Len(t, h, 2)
		assert.Equal(t, 1, h[1].Round)
		require.NotNil(t, h[1].SentMessage)
		assert.Equal(t, (i+1)*10, *h[1].SentMessage)
	}
}

func TestRoundResolution_AdvocatesSeeEachOther(t *testing.T) {
	params := defaultParams()
	params.AdvocateRatio = 0.5
	params.NetworkType = models.NetworkLine
	s := newSession(t, params, 4)
	ids := joinN(t, s, 4)
	_, err := s.Start(host)
	require.NoError(t, err)

	var out []models.Outbound
	for i, id := range ids {
		out = s.Submit(id, 10+i)
	}

	view := lastHostView(t, out)
	for _, id := range ids {
		result := eventFor(t, out, models.MsgTypeRoundEnded, id).Payload.(render.RoundEnded)
		if view.Players[id].Role == models.RoleAdvocate {
			require.Len(t, result.AdvocateMessages, 1)
			assert.NotEqual(t, view.Players[id].Name, result.AdvocateMessages[0].From)
			assert.NotNil(t, result.AdvocateMessages[0].Msg)
		} else {
			assert.Empty(t, result.AdvocateMessages)
		}
	}
}

func TestRoundResolution_OrderIndependent(t *testing.T) {
	params := defaultParams()
	params.NetworkType = models.NetworkSparse
	params.AdvocateRatio = 0.25
	messages := map[string]int{"p0": 12, "p1": 77, "p2": 40, "p3": 93, "p4": 5, "p5": 61, "p6": 30, "p7": 88}

	run := func(order []string) render.HostView {
		s := newSession(t, params, 21)
		joinN(t, s, 8)
		_, err := s.Start(host)
		require.NoError(t, err)
		var out []models.Outbound
		for _, id := range order {
			out = s.Submit(id, messages[id])
		}
		return lastHostView(t, out)
	}

	forward := run([]string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"})
	backward := run([]string{"p7", "p6", "p5", "p4", "p3", "p2", "p1", "p0"})

	for id, p := range forward.Players {
		assert.InDelta(t, *p.CurrentOpinion, *backward.Players[id].CurrentOpinion, 1e-9)
	}
}

func TestAdvance(t *testing.T) {
	params := defaultParams()
	params.TotalRounds = 1
	s := newSession(t, params, 1)
	ids := joinN(t, s, 2)
	_, err := s.Start(host)
	require.NoError(t, err)

	t.Run("ignored while playing", func(t *testing.T) {
		out, err := s.Advance(host)
		assert.NoError(t, err)
		assert.Nil(t, out)
		assert.Equal(t, models.StatusPlaying, s.Status())
	})

	for _, id := range ids {
		s.Submit(id, 50)
	}

	t.Run("facilitator only", func(t *testing.T) {
		_, err := s.Advance(ids[0])
		assert.ErrorIs(t, err, session.ErrNotAuthorized)
		assert.Equal(t, models.StatusRoundEnd, s.Status())
	})

	t.Run("ends the game after the last round", func(t *testing.T) {
		out, err := s.Advance(host)
		require.NoError(t, err)

		ended := eventsOf(out, models.MsgTypeGameEnded)
		require.Len(t, ended, 1)
		assert.Equal(t, "ABC123", ended[0].Room)
		assert.Equal(t, render.GameEnded{Theta: 50}, ended[0].Payload)
		assert.Equal(t, models.StatusGameEnd, s.Status())
	})

	t.Run("game end is terminal", func(t *testing.T) {
		out, err := s.Advance(host)
		assert.NoError(t, err)
		assert.Nil(t, out)
		assert.Nil(t, s.Submit(ids[0], 50))
		_, err = s.Start(host)
		assert.ErrorIs(t, err, session.ErrGameAlreadyStarted)
		assert.Equal(t, models.StatusGameEnd, s.Status())
	})
}

func TestLeave(t *testing.T) {
	t.Run("removes player in lobby", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 2)

		out, abandoned := s.Leave(ids[0])
		assert.False(t, abandoned)
		assert.NotContains(t, lastHostView(t, out).Players, ids[0])
	})

	t.Run("completion uses the current roster", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 3)
		_, err := s.Start(host)
		require.NoError(t, err)
		s.Submit(ids[0], 40)
		s.Submit(ids[1], 60)

		out, _ := s.Leave(ids[2])

		assert.Equal(t, models.StatusRoundEnd, s.Status())
		assert.Len(t, eventsOf(out, models.MsgTypeRoundEnded), 2)
	})

	t.Run("drops the leaver's buffered message", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 3)
		_, err := s.Start(host)
		require.NoError(t, err)
		s.Submit(ids[0], 40)

		s.Leave(ids[0])

		view := s.HostView()
		assert.Zero(t, view.Submitted)
		assert.LessOrEqual(t, view.Submitted, len(view.Players))
		assert.Equal(t, models.StatusPlaying, view.GameState)
	})

	t.Run("facilitator leaving stalls facilitator actions only", func(t *testing.T) {
		params := defaultParams()
		params.TotalRounds = 2
		s := newSession(t, params, 1)
		ids := joinN(t, s, 2)
		_, err := s.Start(host)
		require.NoError(t, err)

		out, abandoned := s.Leave(host)
		assert.Empty(t, out)
		assert.False(t, abandoned)

		s.Submit(ids[0], 30)
		out = s.Submit(ids[1], 70)
		assert.Len(t, eventsOf(out, models.MsgTypeRoundEnded), 2)
		assert.Empty(t, eventsOf(out, models.MsgTypeHostUpdate))
		assert.Equal(t, models.StatusRoundEnd, s.Status())

		_, err = s.Advance(host)
		assert.ErrorIs(t, err, session.ErrNotAuthorized)
		_, err = s.Advance("")
		assert.ErrorIs(t, err, session.ErrNotAuthorized)
	})

	t.Run("abandoned once nobody is left", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		ids := joinN(t, s, 2)
		s.Leave(host)

		_, abandoned := s.Leave(ids[0])
		assert.False(t, abandoned)
		_, abandoned = s.Leave(ids[1])
		assert.True(t, abandoned)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		s := newSession(t, defaultParams(), 1)
		joinN(t, s, 2)

		out, abandoned := s.Leave("nobody")
		assert.Empty(t, out)
		assert.False(t, abandoned)
		assert.Equal(t, 2, s.PlayerCount())
	})
}

func TestConcurrentSubmissions(t *testing.T) {
	params := defaultParams()
	params.TotalRounds = 1
	s := newSession(t, params, 8)
	ids := joinN(t, s, 40)
	_, err := s.Start(host)
	require.NoError(t, err)

	var mu sync.Mutex
	resolved := 0
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := s.Submit(id, 1+i%100)
			mu.Lock()
			resolved += len(eventsOf(out, models.MsgTypeRoundEnded))
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(ids), resolved, "round must resolve exactly once")
	view := s.HostView()
	assert.Equal(t, models.StatusRoundEnd, view.GameState)
	for _, p := range view.Players {
		assert.NotNil(t, p.Score)
	}
}
