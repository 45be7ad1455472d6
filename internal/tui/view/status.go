package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fleetctl/internal/config"
)

// Presentation is how one service status renders: a one-cell symbol plus
// the style applied to the symbol and the status text.
type Presentation struct {
	Symbol string
	Style  lipgloss.Style
}

// statusPresentation maps each status variant to its dashboard rendering.
// The mapping lives here, in the presentation layer, not on the status type
// itself.
var statusPresentation = map[config.ServiceStatus]Presentation{
	config.StatusNotInstalled: {Symbol: "◌", Style: TextMutedStyle},
	config.StatusStopped:      {Symbol: "○", Style: TextSecondaryStyle},
	config.StatusStarting:     {Symbol: "◐", Style: TextWarningStyle},
	config.StatusRunning:      {Symbol: "●", Style: TextSuccessStyle},
	config.StatusUnhealthy:    {Symbol: "✕", Style: TextErrorStyle},
	config.StatusError:        {Symbol: "✕", Style: TextErrorStyle.Copy().Bold(true)},
}

// StatusPresentation returns the rendering for a status, falling back to a
// neutral question mark for values outside the known set.
func StatusPresentation(s config.ServiceStatus) Presentation {
	if p, ok := statusPresentation[s]; ok {
		return p
	}
	return Presentation{Symbol: "?", Style: TextMutedStyle}
}

// StatusLabel renders "symbol status" with the status style applied, e.g.
// "● running" in green.
func StatusLabel(s config.ServiceStatus) string {
	p := StatusPresentation(s)
	return p.Style.Render(fmt.Sprintf("%s %s", p.Symbol, string(s)))
}

// SafeIcon wraps an icon with trailing spacing sized to its display width,
// so double-width glyphs do not swallow the following character.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return icon + strings.Repeat(" ", spaces)
}

// Truncate shortens s to fit width cells, appending an ellipsis when it had
// to cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// PadRight pads s with spaces to exactly width cells, truncating first when
// it is too long.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	return runewidth.FillRight(s, width)
}
