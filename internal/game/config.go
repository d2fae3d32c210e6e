package game

import "time"

// Game configuration constants shared by every tier.

// Progression
const (
	VictoryLevel = 10 // Clearing this level wins the game
)

// Timing
const (
	IntroDelay    = 2000 * time.Millisecond // Intro screen before the first reveal
	ShakeDuration = 500 * time.Millisecond  // Failure feedback pulse
	PlayTick      = 100 * time.Millisecond  // Play countdown resolution
)
