// Package client runs the per-connection frame loop: it reads keys, drives
// the player's game controller and renders the current phase.
package client

import (
	"bufio"
	"io"
	"time"

	"github.com/muesli/termenv"
	"github.com/tomz197/chainbreaker/internal/draw"
	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/input"
	"github.com/tomz197/chainbreaker/internal/loop/config"
	"github.com/tomz197/chainbreaker/internal/loop/server"
)

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	ctrl         *game.Controller
	state        *ClientState
	chunkWriter  *draw.ChunkWriter // Accumulates frame text for chunked output
	palette      *draw.Palette
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Profile      termenv.Profile
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	handle := gs.RegisterClient(opts.Username)
	state := NewClientState()

	termWidth, termHeight, _ := draw.TerminalSizeRawWith(termSizeFunc)
	width, height, offsetCol, offsetRow := draw.ClampArea(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight)
	state.width, state.height = width, height

	return &Client{
		server:       gs,
		handle:       handle,
		ctrl:         handle.Controller,
		state:        state,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		palette:      draw.NewPalette(w, opts.Profile),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
	}
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	// Unregister from server
	defer c.server.UnregisterClient(c.handle.ID)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process input
		c.processInput()

		// Check for server events
		c.processServerEvents()

		// Handle screen resize
		c.updateScreen()

		// Drive the game from this frame's keys
		if c.state.shuttingDown {
			c.updateShutdownState()
		} else if !c.state.isInactive {
			c.dispatch(c.state.Input)
		}

		// Draw frame
		if err := c.drawFrame(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads this frame's keys and tracks inactivity.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	wasInactive := c.state.isInactive
	if c.state.Input.Any() {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	// The key that dismisses the warning does nothing else.
	if wasInactive && !c.state.isInactive {
		quit := c.state.Input.Quit
		c.state.Input = input.Input{Number: -1, Quit: quit}
	}

	if c.state.Input.Quit || c.state.Input.Closed {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				if !c.state.shuttingDown {
					c.state.shuttingDown = true
					c.state.shutdownTimer = config.ShutdownDisplaySeconds
				}
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to the max render area.
// On actual size changes, clears the terminal to remove residual text
// outside the new area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	width, height, offsetCol, offsetRow := draw.ClampArea(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight)

	oldCol, oldRow := c.chunkWriter.Offset()
	if width != c.state.width || height != c.state.height || offsetCol != oldCol || offsetRow != oldRow {
		c.chunkWriter.ClearScreen()
	}
	c.state.width, c.state.height = width, height
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// dispatch maps keys to controller actions for the current phase.
func (c *Client) dispatch(in input.Input) {
	if in.Quit {
		return
	}
	phase := c.ctrl.Snapshot().Phase

	if in.Menu && phase != game.PhaseMenu {
		c.ctrl.ReturnToMenu()
		return
	}

	switch phase {
	case game.PhaseMenu:
		if tier, ok := tierForKey(in.Number); ok {
			c.ctrl.StartGame(tier)
		}
	case game.PhasePlay:
		for _, slot := range in.Symbols {
			c.ctrl.SelectIndex(slot)
		}
	case game.PhaseLevelComplete:
		if in.Continue() {
			c.ctrl.NextLevel()
		}
	case game.PhaseFailure:
		if in.Continue() {
			c.ctrl.RetryLevel()
		}
	case game.PhaseGameOver, game.PhaseVictory:
		if tier, ok := tierForKey(in.Number); ok {
			c.ctrl.StartGame(tier)
		} else if in.Continue() {
			c.ctrl.Restart()
		}
	}
}

// tierForKey maps menu keys 1..3 to tiers.
func tierForKey(n int) (game.Tier, bool) {
	if n < 1 || n > len(game.Tiers) {
		return "", false
	}
	return game.Tiers[n-1], true
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
