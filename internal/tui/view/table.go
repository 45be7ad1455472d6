package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fleetctl/internal/config"
	"fleetctl/internal/tui/model"
)

// tableLayout holds the computed column widths for the service table.
type tableLayout struct {
	status   int
	id       int
	name     int
	category int
	ports    int
	desc     int
}

const tableGutter = 2 // cursor marker column

func computeLayout(width int) tableLayout {
	lay := tableLayout{status: 16, id: 18, category: 13, ports: 13}

	rest := width - tableGutter - lay.status - lay.id - lay.category - lay.ports
	if rest < 12 {
		// Narrow terminal: shrink the fixed columns before giving up.
		lay.id = 12
		lay.category = 9
		lay.ports = 9
		rest = width - tableGutter - lay.status - lay.id - lay.category - lay.ports
		if rest < 0 {
			rest = 0
		}
	}
	lay.name = rest * 2 / 5
	lay.desc = rest - lay.name
	return lay
}

// renderServiceTable renders the catalog with one row per service, a header
// row, and a scrolling window that keeps the cursor visible.
func renderServiceTable(m *model.Model, width, height int) string {
	if height < 2 {
		return ""
	}
	lay := computeLayout(width)

	header := strings.Repeat(" ", tableGutter) +
		PadRight("STATUS", lay.status) +
		PadRight("ID", lay.id) +
		PadRight("NAME", lay.name) +
		PadRight("CATEGORY", lay.category) +
		PadRight("PORTS", lay.ports) +
		PadRight("DESCRIPTION", lay.desc)
	lines := []string{TableHeaderStyle.Render(header)}

	if len(m.Services) == 0 {
		lines = append(lines, TextMutedStyle.Render("  No services found. Add service directories under the services root."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	visible := height - 1
	start := 0
	if m.Cursor >= visible {
		start = m.Cursor - visible + 1
	}
	end := start + visible
	if end > len(m.Services) {
		end = len(m.Services)
	}

	for i := start; i < end; i++ {
		lines = append(lines, renderServiceRow(m, m.Services[i], lay, i == m.Cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderServiceRow(m *model.Model, cfg config.ServiceConfig, lay tableLayout, selected bool) string {
	plainStatus, styledStatus := statusCell(m, cfg.ID, lay.status)

	rest := PadRight(cfg.ID, lay.id) +
		PadRight(cfg.Name, lay.name) +
		PadRight(cfg.Category, lay.category) +
		PadRight(portsCell(cfg), lay.ports) +
		PadRight(cfg.Description, lay.desc)

	if selected {
		// Selected rows drop the per-cell coloring so the row highlight
		// renders cleanly as one styled run.
		return RowSelectedStyle.Render("▸ " + plainStatus + rest)
	}
	return strings.Repeat(" ", tableGutter) + styledStatus + rest
}

// statusCell renders the status column: an in-flight action wins over the
// derived status, and a service never checked shows as pending.
func statusCell(m *model.Model, id string, width int) (plain, styled string) {
	if action, ok := m.BusyAction(id); ok {
		text := "◐ " + progressive(action)
		return PadRight(text, width), TextWarningStyle.Render(PadRight(text, width))
	}
	status, ok := m.StatusOf(id)
	if !ok {
		text := "… checking"
		return PadRight(text, width), TextMutedStyle.Render(PadRight(text, width))
	}
	p := StatusPresentation(status)
	text := fmt.Sprintf("%s %s", p.Symbol, string(status))
	return PadRight(text, width), p.Style.Render(PadRight(text, width))
}

func portsCell(cfg config.ServiceConfig) string {
	if len(cfg.Ports) == 0 {
		return "-"
	}
	parts := make([]string, len(cfg.Ports))
	for i, p := range cfg.Ports {
		parts[i] = strconv.Itoa(p.Port)
	}
	return strings.Join(parts, ",")
}

// progressive maps an action name to its in-flight form for row display.
func progressive(action string) string {
	switch action {
	case model.ActionStop:
		return "stopping…"
	case model.ActionRestart:
		return "restarting…"
	case model.ActionInstall:
		return "installing…"
	default:
		return "starting…"
	}
}
