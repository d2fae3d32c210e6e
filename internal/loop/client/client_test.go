package client

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomz197/chainbreaker/internal/clock"
	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/input"
	"github.com/tomz197/chainbreaker/internal/loop/server"
	"github.com/tomz197/chainbreaker/internal/stats"
)

type fixture struct {
	srv *server.Server
	clk *clock.Manual
	out *bytes.Buffer
	c   *Client
}

func newFixture(t *testing.T, keys string) *fixture {
	t.Helper()
	clk := clock.NewManual()
	srv := server.NewServer(stats.NewMemoryKV(), game.DefaultTable(),
		server.WithScheduler(clk),
		server.WithLogger(log.New(io.Discard)),
	)
	out := &bytes.Buffer{}
	c := NewClient(srv, bufio.NewReader(strings.NewReader(keys)), out, ClientOptions{
		Username:     "tester",
		Profile:      termenv.Ascii,
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
	})
	return &fixture{srv: srv, clk: clk, out: out, c: c}
}

func (f *fixture) press(keys string) {
	f.c.dispatch(input.Parse([]byte(keys)))
}

func (f *fixture) phase() game.Phase {
	return f.c.ctrl.Snapshot().Phase
}

func (f *fixture) toPlay(t *testing.T) {
	t.Helper()
	f.press("1")
	f.clk.Advance(game.IntroDelay + 3*time.Second)
	require.Equal(t, game.PhasePlay, f.phase())
}

// keyFor returns the key that picks sym from the current pool.
func (f *fixture) keyFor(t *testing.T, sym game.Symbol) string {
	t.Helper()
	for i, s := range f.c.ctrl.Snapshot().Available {
		if s.ID == sym.ID {
			return input.SymbolKey(i)
		}
	}
	t.Fatalf("symbol %s not in pool", sym.ID)
	return ""
}

func (f *fixture) frame(t *testing.T) string {
	t.Helper()
	f.out.Reset()
	require.NoError(t, f.c.drawFrame())
	return f.out.String()
}

func TestMenuKeysPickTier(t *testing.T) {
	f := newFixture(t, "")
	f.press("x")
	assert.Equal(t, game.PhaseMenu, f.phase())

	f.press("3")
	snap := f.c.ctrl.Snapshot()
	assert.Equal(t, game.PhaseIntro, snap.Phase)
	assert.Equal(t, game.TierInfernal, snap.Difficulty)
}

func TestPlayKeysSelectSymbols(t *testing.T) {
	f := newFixture(t, "")
	f.toPlay(t)

	target := f.c.ctrl.Snapshot().Target
	f.press(f.keyFor(t, target[0]) + f.keyFor(t, target[1]))
	snap := f.c.ctrl.Snapshot()
	assert.Len(t, snap.Player, 2)
	assert.Equal(t, 2, snap.Combo)

	f.press(f.keyFor(t, target[2]))
	assert.Equal(t, game.PhaseLevelComplete, f.phase())

	f.press(" ")
	assert.Equal(t, game.PhaseMemorize, f.phase())
	assert.Equal(t, 2, f.c.ctrl.Snapshot().Level)
}

func TestFailureContinueRetries(t *testing.T) {
	f := newFixture(t, "")
	f.toPlay(t)

	f.clk.Advance(10 * time.Second)
	require.Equal(t, game.PhaseFailure, f.phase())

	f.press("\r")
	assert.Equal(t, game.PhaseMemorize, f.phase())
}

func TestMenuKeyLeavesGame(t *testing.T) {
	f := newFixture(t, "")
	f.press("2")
	require.Equal(t, game.PhaseIntro, f.phase())

	f.press("m")
	assert.Equal(t, game.PhaseMenu, f.phase())
	assert.Equal(t, 1, f.c.ctrl.Stats().TotalGamesPlayed)
}

func TestGameOverKeys(t *testing.T) {
	f := newFixture(t, "")
	f.press("3")
	f.clk.Advance(game.IntroDelay + 2*time.Second)
	require.Equal(t, game.PhasePlay, f.phase())

	// Infernal has two lives: time out twice.
	f.clk.Advance(6 * time.Second)
	f.press("\r")
	f.clk.Advance(2*time.Second + 6*time.Second)
	require.Equal(t, game.PhaseGameOver, f.phase())

	f.press("1")
	snap := f.c.ctrl.Snapshot()
	assert.Equal(t, game.PhaseIntro, snap.Phase)
	assert.Equal(t, game.TierMortal, snap.Difficulty)
}

func TestDrawGameOverShowsEmptyHearts(t *testing.T) {
	f := newFixture(t, "")
	f.press("3")
	f.clk.Advance(game.IntroDelay + 2*time.Second)
	f.clk.Advance(6 * time.Second)
	f.press("\r")
	f.clk.Advance(2*time.Second + 6*time.Second)
	require.Equal(t, game.PhaseGameOver, f.phase())
	require.Equal(t, 1, f.c.ctrl.Snapshot().Lives)

	frame := f.frame(t)
	assert.Contains(t, frame, "Lives ♡♡")
	assert.NotContains(t, frame, "♥")
}

func TestQuitKeyIsNotAnAction(t *testing.T) {
	f := newFixture(t, "")
	f.press("q1")
	assert.Equal(t, game.PhaseMenu, f.phase())
}

func TestDrawMenuAndPlay(t *testing.T) {
	f := newFixture(t, "")
	menu := f.frame(t)
	assert.Contains(t, menu, "C H A I N")
	assert.Contains(t, menu, "Mortal")
	assert.Contains(t, menu, "Infernal")
	assert.Contains(t, menu, "tester")

	f.toPlay(t)
	play := f.frame(t)
	assert.Contains(t, play, "Level 1/10")
	assert.Contains(t, play, "[1]")
	assert.Contains(t, play, "Skull")
}

func TestDrawSkipsUnchangedFrames(t *testing.T) {
	f := newFixture(t, "")
	f.press("1")
	require.NotEmpty(t, f.frame(t))
	assert.Empty(t, f.frame(t), "static intro frame is not resent")
}

func TestShutdownEventShowsNotice(t *testing.T) {
	f := newFixture(t, "")
	f.srv.Shutdown(0)

	f.c.processServerEvents()
	require.True(t, f.c.state.shuttingDown)
	assert.Contains(t, f.frame(t), "SERVER SHUTTING DOWN")

	f.c.state.delta = 11 * time.Second
	f.c.updateShutdownState()
	assert.False(t, f.c.state.Running)
}

func TestClosedEventsStopClient(t *testing.T) {
	f := newFixture(t, "")
	f.srv.UnregisterClient(f.c.handle.ID)
	f.c.processServerEvents()
	assert.False(t, f.c.state.Running)
}

func TestInactivityWarningSwallowsKey(t *testing.T) {
	f := newFixture(t, "")
	f.c.lastInput = time.Now().Add(-100 * time.Second)
	f.c.processInput()
	require.True(t, f.c.state.isInactive)
	assert.Contains(t, f.frame(t), "INACTIVITY WARNING")
}

func TestRunQuitsAndUnregisters(t *testing.T) {
	f := newFixture(t, "q")
	require.Equal(t, 1, f.srv.Players())

	done := make(chan error, 1)
	go func() { done <- f.c.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not quit")
	}
	assert.Equal(t, 0, f.srv.Players())
}
