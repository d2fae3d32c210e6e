package game

import (
	"slices"
	"time"
)

// Phase is the stage a session is in.
type Phase int

const (
	PhaseMenu          Phase = iota // Difficulty selection
	PhaseIntro                      // Level banner, no input
	PhaseMemorize                   // Sequence being revealed
	PhasePlay                       // Player reproduces the sequence
	PhaseLevelComplete              // Sequence reproduced
	PhaseFailure                    // Life lost, retry offered
	PhaseGameOver                   // No lives left
	PhaseVictory                    // VictoryLevel cleared
)

var phaseNames = [...]string{
	PhaseMenu:          "menu",
	PhaseIntro:         "intro",
	PhaseMemorize:      "memorize",
	PhasePlay:          "play",
	PhaseLevelComplete: "level_complete",
	PhaseFailure:       "failure",
	PhaseGameOver:      "game_over",
	PhaseVictory:       "victory",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Session is the mutable state of one game. The controller owns it;
// everyone else sees copies via Snapshot.
type Session struct {
	ID            string
	Phase         Phase
	Level         int
	Score         int
	Lives         int
	Difficulty    Tier
	Target        []Symbol
	Player        []Symbol
	RevealIndex   int
	TimeRemaining time.Duration
	Combo         int
	MaxCombo      int
	ChainsBroken  int
	Shaking       bool
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	Session
	Available []Symbol   // Pool the player picks from this level
	Config    Difficulty // Settings of the session's tier
}

// Revealed returns the symbol being shown during Memorize.
func (s Snapshot) Revealed() (Symbol, bool) {
	if s.Phase != PhaseMemorize || s.RevealIndex < 0 || s.RevealIndex >= len(s.Target) {
		return Symbol{}, false
	}
	return s.Target[s.RevealIndex], true
}

func (s Session) clone() Session {
	s.Target = slices.Clone(s.Target)
	s.Player = slices.Clone(s.Player)
	return s
}

func menuSession(tier Tier) Session {
	return Session{
		Phase:      PhaseMenu,
		Level:      1,
		Difficulty: tier,
	}
}
