package server

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomz197/chainbreaker/internal/clock"
	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/stats"
)

func newTestServer(t *testing.T) (*Server, *clock.Manual, *stats.MemoryKV) {
	t.Helper()
	clk := clock.NewManual()
	kv := stats.NewMemoryKV()
	srv := NewServer(kv, game.DefaultTable(),
		WithScheduler(clk),
		WithLogger(log.New(io.Discard)),
	)
	return srv, clk, kv
}

func TestRegisterAssignsControllers(t *testing.T) {
	srv, _, _ := newTestServer(t)

	a := srv.RegisterClient("alice")
	b := srv.RegisterClient("bob")

	assert.Equal(t, 2, srv.Players())
	assert.NotEqual(t, a.ID, b.ID)
	require.NotNil(t, a.Controller)
	assert.NotSame(t, a.Controller, b.Controller)
	assert.Equal(t, game.PhaseMenu, a.Controller.Snapshot().Phase)
}

func TestUnregisterSettlesSessionPerUser(t *testing.T) {
	srv, clk, kv := newTestServer(t)
	h := srv.RegisterClient("alice")

	h.Controller.StartGame(game.TierMortal)
	clk.Advance(game.IntroDelay + 3*time.Second)
	snap := h.Controller.Snapshot()
	require.Equal(t, game.PhasePlay, snap.Phase)
	h.Controller.SelectSymbol(snap.Target[0])

	srv.UnregisterClient(h.ID)
	assert.Equal(t, 0, srv.Players())
	assert.Equal(t, game.PhaseMenu, h.Controller.Snapshot().Phase)

	_, open := <-h.EventsCh
	assert.False(t, open, "events channel closed")

	got := stats.NewStore(kv, stats.WithKey(stats.UserKey("alice"))).Load()
	assert.Equal(t, 110, got.HighScore)
	assert.Equal(t, 1, got.TotalGamesPlayed)
	assert.Equal(t, 1, got.TotalChainsBroken)

	other := stats.NewStore(kv, stats.WithKey(stats.UserKey("bob"))).Load()
	assert.Equal(t, stats.Aggregate{}, other)

	srv.UnregisterClient(h.ID)
}

func TestReturningUserSeesStats(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.RegisterClient("carol")
	h.Controller.StartGame(game.TierDemon)
	srv.UnregisterClient(h.ID)

	again := srv.RegisterClient("carol")
	assert.Equal(t, 1, again.Controller.Stats().TotalGamesPlayed)
}

func TestShutdownNotifiesAndWaits(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.RegisterClient("dave")

	go func() {
		ev := <-h.EventsCh
		if ev.Type == EventServerShutdown {
			srv.UnregisterClient(h.ID)
		}
	}()

	done := make(chan struct{})
	go func() {
		srv.Shutdown(5 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return after clients left")
	}
	assert.Equal(t, 0, srv.Players())
}

func TestShutdownTimesOut(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.RegisterClient("erin")

	start := time.Now()
	srv.Shutdown(50 * time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, srv.Players())
}

func TestRegisterDuringShutdownGetsNotice(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.Shutdown(0)

	h := srv.RegisterClient("late")
	select {
	case ev := <-h.EventsCh:
		assert.Equal(t, EventServerShutdown, ev.Type)
	default:
		t.Fatal("expected shutdown event")
	}
}

func TestRegisterRacingShutdownAlwaysNotified(t *testing.T) {
	for i := 0; i < 200; i++ {
		srv, _, _ := newTestServer(t)

		start := make(chan struct{})
		done := make(chan struct{})
		go func() {
			<-start
			srv.Shutdown(0)
			close(done)
		}()

		close(start)
		h := srv.RegisterClient("racer")
		<-done

		select {
		case ev := <-h.EventsCh:
			require.Equal(t, EventServerShutdown, ev.Type)
		default:
			t.Fatalf("iteration %d: client registered during shutdown was not notified", i)
		}
	}
}

func TestTopScoresOrdersLivePlayers(t *testing.T) {
	srv, clk, _ := newTestServer(t)
	srv.RegisterClient("idle")
	low := srv.RegisterClient("low")
	high := srv.RegisterClient("high")
	tie := srv.RegisterClient("tie")

	for _, h := range []*ClientHandle{low, high, tie} {
		h.Controller.StartGame(game.TierMortal)
	}
	clk.Advance(game.IntroDelay + 3*time.Second)

	pick := func(h *ClientHandle, n int) {
		for i := 0; i < n; i++ {
			snap := h.Controller.Snapshot()
			h.Controller.SelectSymbol(snap.Target[len(snap.Player)])
		}
	}
	pick(low, 1)
	pick(high, 3)
	pick(tie, 1)

	top := srv.TopScores(5)
	require.Len(t, top, 3, "menu players are not ranked")
	assert.Equal(t, "high", top[0].Username)
	assert.Equal(t, 360, top[0].Score)
	assert.Equal(t, game.TierMortal, top[0].Tier)
	assert.Equal(t, "low", top[1].Username, "earlier client wins a tie")
	assert.Equal(t, "tie", top[2].Username)

	assert.Len(t, srv.TopScores(1), 1)
	assert.Nil(t, srv.TopScores(0))
}
