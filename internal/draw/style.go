package draw

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette styles text for one output. SSH sessions each get their own, so the
// colour profile follows the connecting terminal rather than the host.
type Palette struct {
	r      *lipgloss.Renderer
	title  lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	good   lipgloss.Style
	accent lipgloss.Style
}

// NewPalette creates a palette rendering for w with the given colour profile.
func NewPalette(w io.Writer, profile termenv.Profile) *Palette {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Palette{
		r:      r,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#888888")),
		warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff6600")),
		good:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff66")),
		accent: r.NewStyle().Foreground(lipgloss.Color("#ffcc00")),
	}
}

// ProfileFor picks a colour profile from TERM and COLORTERM values.
func ProfileFor(termName, colorTerm string) termenv.Profile {
	switch strings.ToLower(colorTerm) {
	case "truecolor", "24bit":
		return termenv.TrueColor
	}
	switch {
	case termName == "" || termName == "dumb":
		return termenv.Ascii
	case strings.Contains(termName, "256color"):
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}

// Colored renders text in a hex colour.
func (p *Palette) Colored(hex, text string) string {
	return p.r.NewStyle().Foreground(lipgloss.Color(hex)).Render(text)
}

// Title renders headline text.
func (p *Palette) Title(s string) string { return p.title.Render(s) }

// Dim renders secondary text.
func (p *Palette) Dim(s string) string { return p.dim.Render(s) }

// Warn renders failure text.
func (p *Palette) Warn(s string) string { return p.warn.Render(s) }

// Good renders success text.
func (p *Palette) Good(s string) string { return p.good.Render(s) }

// Accent renders highlighted values.
func (p *Palette) Accent(s string) string { return p.accent.Render(s) }
