package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/chainbreaker/internal/draw"
	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/input"
	"github.com/tomz197/chainbreaker/internal/loop/config"
)

// shakeOffset is how far the frame jumps while the session is shaking.
const shakeOffset = 2

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	snap := c.ctrl.Snapshot()
	cw := c.chunkWriter

	// On phase or overlay transitions, do a full terminal clear
	// so text from the previous screen doesn't persist.
	if snap.Phase != c.state.prevPhase ||
		c.state.isInactive != c.state.wasInactive ||
		c.state.shuttingDown != c.state.prevShutdown {
		cw.ClearScreen()
		c.state.prevPhase = snap.Phase
		c.state.wasInactive = c.state.isInactive
		c.state.prevShutdown = c.state.shuttingDown
	}

	centerY := c.state.height / 2
	switch {
	case c.state.shuttingDown:
		c.drawShutdownScreen(centerY)
	case c.state.isInactive:
		c.drawInactivityScreen(centerY)
	default:
		c.drawPhase(snap, centerY)
	}

	return cw.FlushChanged()
}

func (c *Client) drawPhase(snap game.Snapshot, centerY int) {
	switch snap.Phase {
	case game.PhaseMenu:
		c.drawMenuScreen(centerY)
	case game.PhaseIntro:
		c.drawIntroScreen(snap, centerY)
	case game.PhaseMemorize:
		c.drawMemorizeScreen(snap, centerY)
	case game.PhasePlay:
		c.drawPlayScreen(snap, centerY)
	case game.PhaseLevelComplete:
		c.drawLevelCompleteScreen(snap, centerY)
	case game.PhaseFailure:
		c.drawFailureScreen(snap, centerY)
	case game.PhaseGameOver:
		c.drawGameOverScreen(snap, centerY)
	case game.PhaseVictory:
		c.drawVictoryScreen(snap, centerY)
	}
}

// line writes s centered on row, blanking the rest of the row. Rows outside
// the render area are dropped.
func (c *Client) line(row int, s string) {
	c.lineShifted(row, 0, s)
}

func (c *Client) lineShifted(row, shift int, s string) {
	if row < 1 || row > c.state.height {
		return
	}
	w := c.state.width
	c.chunkWriter.WriteLine(draw.CenterCol(w, s)+shift, row, w, s)
}

// blink reports whether blinking prompts are in their visible half.
func blink() bool {
	return time.Now().UnixMilli()/config.PromptBlinkMillis%2 == 0
}

func (c *Client) prompt(row int, s string) {
	if blink() {
		c.line(row, ">>  "+s+"  <<")
	} else {
		c.line(row, "")
	}
}

// icon renders a symbol glyph in its catalog colour.
func (c *Client) icon(s game.Symbol) string {
	return c.palette.Colored(s.Color, s.Icon)
}

// chain renders symbols joined by links, padding to length with placeholders.
func (c *Client) chain(syms []game.Symbol, length int) string {
	parts := make([]string, 0, max(length, len(syms)))
	for _, s := range syms {
		parts = append(parts, c.icon(s))
	}
	for len(parts) < length {
		parts = append(parts, c.palette.Dim("?"))
	}
	return strings.Join(parts, c.palette.Dim(" ─ "))
}

func (c *Client) hearts(lives, total int) string {
	return c.palette.Warn(strings.Repeat("♥", max(lives, 0))) +
		c.palette.Dim(strings.Repeat("♡", max(total-lives, 0)))
}

var titleBox = draw.Box([]string{"C H A I N    B R E A K E R"})

// drawMenuScreen draws tier selection and lifetime stats.
func (c *Client) drawMenuScreen(centerY int) {
	p := c.palette
	table := c.ctrl.Table()
	agg := c.ctrl.Stats()

	row := centerY - 9
	for i, l := range titleBox {
		c.line(row+i, p.Title(l))
	}
	c.line(row+4, p.Dim("~ Break the chain. Remember the dark. ~"))

	for i, tier := range game.Tiers {
		d := table[tier]
		head := fmt.Sprintf("[%d] %-9s %d lives  x%g", i+1, d.Name, d.Lives, d.ScoreMultiplier)
		c.line(row+6+i*2, p.Accent(head))
		c.line(row+7+i*2, p.Dim(d.Description))
	}

	c.line(row+13, "Lifetime")
	c.line(row+14, fmt.Sprintf("High score %d  ·  Max level %d  ·  Games %d  ·  Chains %d  ·  Best combo x%d",
		agg.HighScore, agg.MaxLevel, agg.TotalGamesPlayed, agg.TotalChainsBroken, agg.BestCombo))

	c.prompt(row+16, "Press 1-3 to descend")

	footer := "Q to quit"
	if n := c.server.Players(); n > 1 {
		footer = fmt.Sprintf("Souls online: %d  ·  %s", n, footer)
	}
	if c.username != "" {
		footer = draw.Truncate(c.username, config.MaxUsernameLength) + "  ·  " + footer
	}
	c.line(row+18, p.Dim(footer))

	if top := c.server.TopScores(3); len(top) > 0 {
		names := make([]string, len(top))
		for i, e := range top {
			names[i] = fmt.Sprintf("%s %d (L%d)", draw.Truncate(e.Username, config.MaxUsernameLength), e.Score, e.Level)
		}
		c.line(row+19, p.Accent("Deepest souls: "+strings.Join(names, "  ·  ")))
	} else {
		c.line(row+19, "")
	}
}

// drawIntroScreen draws the level banner and its quote.
func (c *Client) drawIntroScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	c.line(centerY-3, p.Title(fmt.Sprintf("L E V E L   %d", snap.Level)))
	c.line(centerY-1, p.Dim(`"`+game.QuoteForLevel(snap.Level)+`"`))
	c.line(centerY+1, fmt.Sprintf("%s  ·  Score %d  ·  Lives %s", snap.Config.Name, snap.Score, c.hearts(snap.Lives, snap.Config.Lives)))
	c.line(centerY+3, "Memorize the chain...")
}

// drawMemorizeScreen reveals the current symbol.
func (c *Client) drawMemorizeScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	shift := c.shakeShift(snap)
	c.lineShifted(centerY-6, shift, p.Title("M E M O R I Z E"))
	c.line(centerY-4, fmt.Sprintf("Level %d  ·  Symbol %d of %d", snap.Level, min(snap.RevealIndex+1, len(snap.Target)), len(snap.Target)))

	body := "   "
	if sym, ok := snap.Revealed(); ok {
		body = c.icon(sym) + "  " + p.Colored(sym.Color, sym.Name)
	}
	for i, l := range draw.Box([]string{body}) {
		c.line(centerY-2+i, l)
	}

	dots := make([]string, len(snap.Target))
	for i := range snap.Target {
		switch {
		case i < snap.RevealIndex:
			dots[i] = p.Dim("●")
		case i == snap.RevealIndex:
			dots[i] = p.Accent("◉")
		default:
			dots[i] = p.Dim("○")
		}
	}
	c.line(centerY+2, strings.Join(dots, " "))
	c.line(centerY+4, p.Dim(draw.Bar(c.state.width/2, fraction(snap.TimeRemaining, snap.Config.MemorizeTime))))
	c.line(centerY+6, p.Dim("M menu  ·  Q quit"))
}

// drawPlayScreen draws the HUD, timer, the entered chain and the symbol pool.
func (c *Client) drawPlayScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	shift := c.shakeShift(snap)

	hud := fmt.Sprintf("Level %d/%d   Score %-7d   Lives %s   Combo x%-3d",
		snap.Level, game.VictoryLevel, snap.Score, c.hearts(snap.Lives, snap.Config.Lives), snap.Combo)
	c.line(1, hud)

	secs := fmt.Sprintf(" %4.1fs", snap.TimeRemaining.Seconds())
	bar := draw.Bar(max(c.state.width-len(secs)-10, 10), fraction(snap.TimeRemaining, snap.Config.PlayTime))
	if snap.TimeRemaining < snap.Config.PlayTime/4 {
		bar = p.Warn(bar)
	}
	c.line(3, bar+secs)

	c.lineShifted(centerY-5, shift, p.Title("B R E A K   T H E   C H A I N"))
	c.lineShifted(centerY-3, shift, c.chain(snap.Player, len(snap.Target)))
	c.line(centerY-1, p.Dim(fmt.Sprintf("%d / %d", len(snap.Player), len(snap.Target))))

	perRow := 4
	if c.state.width < 90 {
		perRow = 3
	}
	row := centerY + 1
	for start := 0; start < len(snap.Available); start += perRow {
		end := min(start+perRow, len(snap.Available))
		cells := make([]string, 0, perRow)
		for i := start; i < end; i++ {
			sym := snap.Available[i]
			cells = append(cells, fmt.Sprintf("[%s] %s %s", input.SymbolKey(i), c.icon(sym),
				p.Colored(sym.Color, fmt.Sprintf("%-13s", sym.Name))))
		}
		c.line(row, strings.Join(cells, " "))
		row++
	}

	c.line(centerY+6, p.Dim("Keys 1-9 0 - = pick  ·  M menu  ·  Q quit"))
	if n := c.server.Players(); n > 1 {
		c.line(c.state.height, p.Dim(fmt.Sprintf("Souls online: %-4d", n)))
	}
}

// drawLevelCompleteScreen congratulates and offers the next level.
func (c *Client) drawLevelCompleteScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	c.line(centerY-4, p.Good("C H A I N   B R O K E N"))
	c.line(centerY-2, c.chain(snap.Target, len(snap.Target)))
	c.line(centerY, fmt.Sprintf("Level %d cleared  ·  Score %d  ·  Combo x%d  ·  Best x%d",
		snap.Level, snap.Score, snap.Combo, snap.MaxCombo))
	if snap.Level >= game.VictoryLevel {
		c.prompt(centerY+2, "Press ENTER to escape the abyss")
	} else {
		c.prompt(centerY+2, fmt.Sprintf("Press ENTER for level %d", snap.Level+1))
	}
	c.line(centerY+4, p.Dim("M menu  ·  Q quit"))
}

// drawFailureScreen shows the missed chain and offers a retry.
func (c *Client) drawFailureScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	shift := c.shakeShift(snap)
	c.lineShifted(centerY-5, shift, p.Warn("T H E   C H A I N   H O L D S"))

	reason := "Wrong symbol."
	if snap.TimeRemaining <= 0 {
		reason = "Time ran out."
	}
	c.line(centerY-3, reason)
	c.line(centerY-1, "Chain  "+c.chain(snap.Target, len(snap.Target)))
	if len(snap.Player) > 0 {
		c.line(centerY, "You    "+c.chain(snap.Player, len(snap.Player)))
	} else {
		c.line(centerY, "")
	}
	c.line(centerY+2, "Lives remaining "+c.hearts(snap.Lives, snap.Config.Lives))
	c.prompt(centerY+4, "Press ENTER to try again")
	c.line(centerY+6, p.Dim("M menu  ·  Q quit"))
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawGameOverScreen shows the final result of a lost session.
func (c *Client) drawGameOverScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	row := centerY - 7
	for i, l := range gameOverArt {
		c.line(row+i, p.Warn(l))
	}
	c.line(row+len(gameOverArt)+1, "Lives "+c.hearts(0, snap.Config.Lives))
	c.drawResult(snap, row+len(gameOverArt)+1)
}

var victoryBox = draw.Box([]string{"V I C T O R Y"})

// drawVictoryScreen shows the final result of a won session.
func (c *Client) drawVictoryScreen(snap game.Snapshot, centerY int) {
	p := c.palette
	row := centerY - 7
	for i, l := range victoryBox {
		c.line(row+i, p.Good(l))
	}
	c.line(row+4, p.Dim("You escaped the abyss."))
	c.drawResult(snap, row+5)
}

func (c *Client) drawResult(snap game.Snapshot, row int) {
	agg := c.ctrl.Stats()
	c.line(row+1, fmt.Sprintf("Final score %d  ·  %s", snap.Score, snap.Config.Name))
	c.line(row+2, fmt.Sprintf("Level %d  ·  Best combo x%d  ·  Chains broken %d",
		snap.Level, snap.MaxCombo, snap.ChainsBroken))
	if snap.Score > 0 && snap.Score >= agg.HighScore {
		c.line(row+3, c.palette.Accent("New high score!"))
	} else {
		c.line(row+3, c.palette.Dim(fmt.Sprintf("High score %d", agg.HighScore)))
	}
	c.prompt(row+5, "Press ENTER to play again")
	c.line(row+7, c.palette.Dim("1-3 choose tier  ·  M menu  ·  Q quit"))
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerY int) {
	c.line(centerY-2, c.palette.Warn("INACTIVITY WARNING"))

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.line(centerY, msg)
	c.line(centerY+2, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerY int) {
	c.line(centerY-3, c.palette.Warn("SERVER SHUTTING DOWN"))
	c.line(centerY-1, "The server is restarting for maintenance.")
	c.line(centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.line(centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.line(centerY+4, "Press Q to disconnect now")
}

// shakeShift returns the horizontal jolt for this frame.
func (c *Client) shakeShift(snap game.Snapshot) int {
	if !snap.Shaking {
		return 0
	}
	if time.Now().UnixMilli()/50%2 == 0 {
		return shakeOffset
	}
	return -shakeOffset
}

func fraction(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
