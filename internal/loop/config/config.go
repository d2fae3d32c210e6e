// Package config centralizes the client loop's tunable parameters.
package config

import "time"

// Render area. Larger terminals get the area centered.
const (
	MaxTermWidth  = 100
	MaxTermHeight = 34
)

// Player
const (
	MaxUsernameLength = 16 // Maximum display length for player usernames
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	PromptBlinkMillis     = 600
)

// Hub
const (
	EventBufferSize      = 16
	ShutdownPollInterval = 200 * time.Millisecond
)
