// Package game implements the Chain Breaker session state machine: the
// symbol catalog, difficulty tiers, sequence generation and the controller
// that moves a session through its phases.
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tomz197/chainbreaker/internal/clock"
	"github.com/tomz197/chainbreaker/internal/stats"
)

// Controller owns one Session and the player's lifetime stats.
//
// All mutations happen under mu, including timer callbacks, so the session
// behaves as if driven from a single thread. At most one phase timer
// (intro, reveal or play countdown) and one shake timer exist at a time;
// each callback checks it is still the current handle before acting.
type Controller struct {
	mu     sync.Mutex
	sched  clock.Scheduler
	rng    *rand.Rand
	table  Table
	store  *stats.Store
	logger *log.Logger

	state   Session
	stats   stats.Aggregate
	settled bool // current session already merged into stats

	phaseTimer clock.Handle
	shakeTimer clock.Handle
	revealStep time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the real-time scheduler.
func WithScheduler(s clock.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithRand sets the random source used for sequences.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithTable replaces the default difficulty table.
func WithTable(t Table) Option {
	return func(c *Controller) { c.table = t }
}

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller in the Menu phase and loads stats
// from store.
func NewController(store *stats.Store, opts ...Option) *Controller {
	c := &Controller{
		sched:   clock.Real{},
		table:   DefaultTable(),
		store:   store,
		logger:  log.Default(),
		settled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c.stats = store.Load()
	c.state = menuSession(TierDemon)
	if d, ok := c.table.Get(TierDemon); ok {
		c.state.Lives = d.Lives
	}
	return c
}

// Snapshot returns a copy of the session for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, _ := c.table.Get(c.state.Difficulty)
	return Snapshot{
		Session:   c.state.clone(),
		Available: Available(c.state.Level),
		Config:    d,
	}
}

// Stats returns the lifetime aggregate.
func (c *Controller) Stats() stats.Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Table returns the difficulty table in use.
func (c *Controller) Table() Table {
	return c.table
}

// StartGame begins a new session at tier. It is honoured from Menu,
// GameOver and Victory.
func (c *Controller) StartGame(tier Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Phase {
	case PhaseMenu, PhaseGameOver, PhaseVictory:
		c.startLocked(tier)
	}
}

// Restart starts a new session with the current tier after GameOver or Victory.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Phase {
	case PhaseGameOver, PhaseVictory:
		c.startLocked(c.state.Difficulty)
	}
}

// SelectSymbol records the player's next pick. Ignored outside Play.
func (c *Controller) SelectSymbol(sym Symbol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(sym)
}

// SelectIndex picks the i-th symbol of the current pool. Ignored outside
// Play or when i is out of range.
func (c *Controller) SelectIndex(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pool := Available(c.state.Level)
	if i < 0 || i >= len(pool) {
		return
	}
	c.selectLocked(pool[i])
}

// NextLevel advances from LevelComplete to the next level, or to Victory
// once VictoryLevel is cleared.
func (c *Controller) NextLevel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseLevelComplete {
		return
	}
	c.stopPhaseTimerLocked()

	if c.state.Level+1 > VictoryLevel {
		c.setPhaseLocked(PhaseVictory)
		c.settleLocked()
		return
	}

	d := c.difficultyLocked()
	c.state.Level++
	c.state.Target = Generate(c.rng, SymbolCount(c.state.Level, d), Available(c.state.Level))
	c.state.Player = nil
	c.state.RevealIndex = 0
	c.state.TimeRemaining = d.MemorizeTime
	c.enterMemorizeLocked()
}

// RetryLevel replays the current sequence after a Failure.
func (c *Controller) RetryLevel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseFailure {
		return
	}
	c.stopShakeTimerLocked()
	c.state.Shaking = false
	c.state.Player = nil
	c.enterMemorizeLocked()
}

// ReturnToMenu abandons or closes the session, merging its results into
// the lifetime stats.
func (c *Controller) ReturnToMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == PhaseMenu {
		return
	}
	c.stopPhaseTimerLocked()
	c.stopShakeTimerLocked()
	c.settleLocked()

	tier := c.state.Difficulty
	c.logger.Debug("returned to menu", "session", c.state.ID, "phase", c.state.Phase)
	c.state = menuSession(tier)
	c.state.Lives = c.difficultyLocked().Lives
}

func (c *Controller) startLocked(tier Tier) {
	d, ok := c.table.Get(tier)
	if !ok {
		c.logger.Warn("start ignored: unknown tier", "tier", tier)
		return
	}
	c.settleLocked()
	c.stopPhaseTimerLocked()
	c.stopShakeTimerLocked()

	c.stats = stats.RecordGameStart(c.stats)
	c.store.Save(c.stats)

	c.state = Session{
		ID:            uuid.NewString(),
		Phase:         PhaseIntro,
		Level:         1,
		Lives:         d.Lives,
		Difficulty:    tier,
		Target:        Generate(c.rng, SymbolCount(1, d), Available(1)),
		TimeRemaining: d.MemorizeTime,
	}
	c.settled = false
	c.logger.Info("game started", "session", c.state.ID, "tier", tier, "lives", d.Lives)

	c.schedulePhaseLocked(IntroDelay, c.enterMemorizeLocked)
}

// enterMemorizeLocked starts revealing Target one symbol per step.
func (c *Controller) enterMemorizeLocked() {
	d := c.difficultyLocked()
	c.setPhaseLocked(PhaseMemorize)
	c.state.RevealIndex = 0
	c.state.Player = nil
	c.state.TimeRemaining = d.MemorizeTime

	n := max(len(c.state.Target), 1)
	c.revealStep = d.MemorizeTime / time.Duration(n)
	c.schedulePhaseLocked(c.revealStep, c.revealNextLocked)
}

func (c *Controller) revealNextLocked() {
	c.state.RevealIndex++
	c.state.TimeRemaining = max(c.state.TimeRemaining-c.revealStep, 0)
	if c.state.RevealIndex < len(c.state.Target) {
		c.schedulePhaseLocked(c.revealStep, c.revealNextLocked)
		return
	}
	c.enterPlayLocked()
}

func (c *Controller) enterPlayLocked() {
	c.setPhaseLocked(PhasePlay)
	c.state.RevealIndex = 0
	c.state.Player = nil
	c.state.TimeRemaining = c.difficultyLocked().PlayTime
	c.schedulePhaseLocked(min(PlayTick, c.state.TimeRemaining), c.playTickLocked)
}

func (c *Controller) playTickLocked() {
	c.state.TimeRemaining -= PlayTick
	if c.state.TimeRemaining > 0 {
		c.schedulePhaseLocked(min(PlayTick, c.state.TimeRemaining), c.playTickLocked)
		return
	}
	c.state.TimeRemaining = 0
	c.timeoutLocked()
}

// timeoutLocked handles the play countdown running out. Unlike a wrong
// pick, the partial Player sequence is kept for the Failure screen.
func (c *Controller) timeoutLocked() {
	if c.state.Lives <= 1 {
		c.gameOverLocked()
		return
	}
	c.state.Lives--
	c.state.Combo = 0
	c.shakeLocked()
	c.setPhaseLocked(PhaseFailure)
}

func (c *Controller) selectLocked(sym Symbol) {
	if c.state.Phase != PhasePlay || len(c.state.Player) >= len(c.state.Target) {
		return
	}

	expected := c.state.Target[len(c.state.Player)]
	if sym.ID == expected.ID {
		d := c.difficultyLocked()
		c.state.Player = append(c.state.Player, sym)
		c.state.Combo++
		c.state.MaxCombo = max(c.state.MaxCombo, c.state.Combo)
		c.state.ChainsBroken++
		c.state.Score += PointsFor(c.state.Combo, d)

		if len(c.state.Player) == len(c.state.Target) {
			c.stopPhaseTimerLocked()
			c.setPhaseLocked(PhaseLevelComplete)
		}
		return
	}

	c.state.Combo = 0
	c.shakeLocked()
	c.stopPhaseTimerLocked()
	if c.state.Lives <= 1 {
		c.gameOverLocked()
		return
	}
	c.state.Lives--
	c.state.Player = nil
	c.setPhaseLocked(PhaseFailure)
}

// gameOverLocked closes the session. The last life is not decremented.
func (c *Controller) gameOverLocked() {
	c.stopPhaseTimerLocked()
	c.setPhaseLocked(PhaseGameOver)
	c.settleLocked()
}

func (c *Controller) shakeLocked() {
	c.state.Shaking = true
	c.stopShakeTimerLocked()

	var h clock.Handle
	h = c.sched.AfterFunc(ShakeDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.shakeTimer != h {
			return
		}
		c.shakeTimer = nil
		c.state.Shaking = false
	})
	c.shakeTimer = h
}

// settleLocked merges the session into the lifetime stats, once.
func (c *Controller) settleLocked() {
	if c.settled {
		return
	}
	c.settled = true
	c.stats = stats.MergeSession(c.stats, stats.SessionResult{
		Score:        c.state.Score,
		Level:        c.state.Level,
		MaxCombo:     c.state.MaxCombo,
		ChainsBroken: c.state.ChainsBroken,
	})
	c.store.Save(c.stats)
	c.logger.Info("session settled",
		"session", c.state.ID, "score", c.state.Score, "level", c.state.Level, "phase", c.state.Phase)
}

// schedulePhaseLocked replaces the phase timer. fn runs with mu held.
func (c *Controller) schedulePhaseLocked(d time.Duration, fn func()) {
	c.stopPhaseTimerLocked()

	var h clock.Handle
	h = c.sched.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.phaseTimer != h {
			return
		}
		c.phaseTimer = nil
		fn()
	})
	c.phaseTimer = h
}

func (c *Controller) stopPhaseTimerLocked() {
	if c.phaseTimer != nil {
		c.phaseTimer.Stop()
		c.phaseTimer = nil
	}
}

func (c *Controller) stopShakeTimerLocked() {
	if c.shakeTimer != nil {
		c.shakeTimer.Stop()
		c.shakeTimer = nil
	}
}

func (c *Controller) setPhaseLocked(p Phase) {
	if c.state.Phase != p {
		c.logger.Debug("phase", "session", c.state.ID, "from", c.state.Phase, "to", p, "level", c.state.Level)
	}
	c.state.Phase = p
}

func (c *Controller) difficultyLocked() Difficulty {
	d, _ := c.table.Get(c.state.Difficulty)
	return d
}
