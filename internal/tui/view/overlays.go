package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fleetctl/internal/envfile"
	"fleetctl/internal/tui/model"
)

// StreamOverlaySize returns the stream viewport dimensions for the current
// terminal size; the controller uses it when opening the overlay and on
// resize.
func StreamOverlaySize(termWidth, termHeight int) (width, height int) {
	totalW := termWidth * 8 / 10
	totalH := termHeight * 7 / 10
	width = totalW - OverlayStyle.GetHorizontalFrameSize()
	height = totalH - OverlayStyle.GetVerticalFrameSize() - 2 // title + margin
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return width, height
}

func renderStreamOverlay(m *model.Model) string {
	verb := "Logs"
	if m.StreamAction == model.ActionInstall {
		verb = "Install"
	}
	title := fmt.Sprintf("%s: %s", verb, m.StreamService.ID)
	if m.StreamDone {
		title += " — finished"
	}
	titleView := OverlayTitleStyle.Render(title + "  (↑/↓ scroll · y copy · esc close)")

	content := lipgloss.JoinVertical(lipgloss.Left, titleView, m.StreamViewport.View())
	return OverlayStyle.Render(content)
}

func renderEnvOverlay(m *model.Model) string {
	titleView := OverlayTitleStyle.Render(fmt.Sprintf("Env: %s (.env)", m.EnvService.ID))

	nameW := 4
	for _, name := range m.EnvNames {
		if len(name) > nameW {
			nameW = len(name)
		}
	}

	var rows []string
	if len(m.EnvNames) == 0 {
		rows = append(rows, TextMutedStyle.Render("No variables declared and no .env entries."))
	}
	for i, name := range m.EnvNames {
		selected := i == m.EnvCursor
		label := PadRight(name, nameW+2)

		var row string
		switch {
		case selected && m.EnvEditing:
			row = "▸ " + label + m.EnvInput.View()
		case selected:
			// Plain run for the highlight, annotation appended outside it.
			row = RowSelectedStyle.Render("▸ " + label + stripToPlain(m, name))
		default:
			row = "  " + label + envValueView(m, name)
		}
		if !m.EnvEditing || !selected {
			if note := envAnnotation(m, name); note != "" {
				row += "  " + TextMutedStyle.Render(note)
			}
		}
		rows = append(rows, row)
	}

	hint := TextMutedStyle.Render("enter edit · v toggle reveal · esc close")
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleView,
		strings.Join(rows, "\n"),
		"",
		hint,
	)
	return OverlayStyle.Render(content)
}

// envValueView renders a value with secret masking applied unless the
// reveal toggle is on; unset values show a placeholder.
func envValueView(m *model.Model, name string) string {
	value, present := m.EnvValues[name]
	decl, declared := m.EnvDeclared[name]

	if !present || value == "" {
		if declared && decl.Required {
			return TextWarningStyle.Render("(unset)")
		}
		return TextMutedStyle.Render("(unset)")
	}
	if declared && decl.Secret && !m.EnvReveal {
		return envfile.Mask(value)
	}
	return value
}

// stripToPlain is envValueView without color, for the selected-row
// highlight run.
func stripToPlain(m *model.Model, name string) string {
	value, present := m.EnvValues[name]
	decl, declared := m.EnvDeclared[name]
	if !present || value == "" {
		return "(unset)"
	}
	if declared && decl.Secret && !m.EnvReveal {
		return envfile.Mask(value)
	}
	return value
}

func envAnnotation(m *model.Model, name string) string {
	decl, declared := m.EnvDeclared[name]
	if !declared {
		return "not declared"
	}
	var parts []string
	if decl.Required {
		parts = append(parts, "required")
	}
	if decl.Secret {
		parts = append(parts, "secret")
	}
	if decl.Description != "" {
		parts = append(parts, decl.Description)
	}
	return strings.Join(parts, ", ")
}

func renderHelpOverlay(m *model.Model) string {
	titleView := HelpTitleStyle.Render("KEYBOARD SHORTCUTS")
	body := m.Help.FullHelpView(m.Keys.FullHelp())
	content := lipgloss.JoinVertical(lipgloss.Center, titleView, body)
	return OverlayStyle.Render(content)
}
