package client

import (
	"time"

	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/input"
)

// ClientState holds per-connection loop state. The game itself lives in the
// controller; this is only what the frame loop needs between frames.
type ClientState struct {
	Input         input.Input
	Running       bool          // Client loop running
	delta         time.Duration // Frame delta time
	shuttingDown  bool          // Server announced shutdown
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown
	isInactive    bool          // Whether the client is in inactive warning state
	wasInactive   bool
	prevPhase     game.Phase // Phase drawn last frame, for full clears on change
	prevShutdown  bool
	width         int // Render area
	height        int
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:   true,
		prevPhase: -1,
	}
}
