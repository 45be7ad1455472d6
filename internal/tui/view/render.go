package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fleetctl/internal/tui/model"
	"fleetctl/pkg/logging"
)

const (
	// minHeightForLogPanel defines the minimum terminal height (in lines)
	// required to show the activity log below the service table. Shorter
	// terminals keep the full height for the table.
	minHeightForLogPanel = 24

	// logPanelHeight is the total height of the activity log panel,
	// including its border and title.
	logPanelHeight = 9
)

// Render renders the UI according to the current model state.
func Render(m *model.Model) string {
	switch m.CurrentAppMode {
	case model.ModeQuitting:
		return QuittingStyle.Render(m.QuittingMessage)

	case model.ModeInitializing:
		if m.Width == 0 || m.Height == 0 {
			return QuittingStyle.Render("Initializing... (waiting for window size)")
		}
		return QuittingStyle.Render("Initializing...")

	case model.ModeDashboard:
		return renderDashboard(m)

	case model.ModeHelpOverlay:
		return renderOverlayCanvas(m, renderHelpOverlay(m))

	case model.ModeStreamOverlay:
		return renderOverlayCanvas(m, renderStreamOverlay(m))

	case model.ModeEnvOverlay:
		return renderOverlayCanvas(m, renderEnvOverlay(m))

	default:
		return QuittingStyle.Render(fmt.Sprintf("Unhandled application mode: %s", m.CurrentAppMode))
	}
}

func renderDashboard(m *model.Model) string {
	headerView := renderHeader(m, m.Width)
	helpView := m.Help.View(m.Keys)
	statusBar := renderStatusBar(m, m.Width)

	chromeHeight := lipgloss.Height(headerView) + lipgloss.Height(helpView) + lipgloss.Height(statusBar)

	logView := ""
	if m.Height >= minHeightForLogPanel {
		logView = renderActivityLogPanel(m, m.Width, logPanelHeight)
	}

	tableHeight := m.Height - chromeHeight - lipgloss.Height(logView)
	if logView != "" {
		tableHeight-- // gap line above the log panel
	}
	tableView := renderServiceTable(m, m.Width, tableHeight)

	parts := []string{headerView, tableView}
	if logView != "" {
		parts = append(parts, logView)
	}
	parts = append(parts, helpView, statusBar)

	body := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return lipgloss.NewStyle().Width(m.Width).Height(m.Height).Render(body)
}

func renderHeader(m *model.Model, width int) string {
	title := HeaderStyle.Render("fleetctl")

	root := ""
	if m.Registry != nil {
		root = m.Registry.Root()
	}
	detail := HeaderDetailStyle.Render(root)

	gap := width - lipgloss.Width(title) - lipgloss.Width(detail)
	if gap < 1 {
		return title
	}
	filler := lipgloss.NewStyle().Background(ColorSurface).Render(strings.Repeat(" ", gap))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, filler, detail)
}

// renderActivityLogPanel renders the log pane fed by the logging channel.
// The viewport dimensions are fitted here so resize takes effect on the
// next render.
func renderActivityLogPanel(m *model.Model, width, height int) string {
	frame := LogPanelStyle.GetHorizontalFrameSize()
	m.ActivityViewport.Width = width - frame
	m.ActivityViewport.Height = height - LogPanelStyle.GetVerticalFrameSize() - 1
	if m.ActivityViewport.Height < 0 {
		m.ActivityViewport.Height = 0
	}

	if m.ActivityLogDirty || m.ActivityViewportWidth != m.ActivityViewport.Width {
		m.ActivityViewport.SetContent(PrepareLogContent(m.ActivityLog, m.ActivityViewport.Width))
		m.ActivityViewport.GotoBottom()
		m.ActivityViewportWidth = m.ActivityViewport.Width
		m.ActivityLogDirty = false
	}

	title := LogPanelTitleStyle.Render("Activity")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.ActivityViewport.View())
	return LogPanelStyle.Copy().Width(width - frame).Render(content)
}

// PrepareLogContent applies level styles to activity log lines based on the
// level markers the log formatter embeds.
func PrepareLogContent(lines []string, maxWidth int) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = styleLogLine(Truncate(line, maxWidth))
	}
	return strings.Join(out, "\n")
}

func styleLogLine(l string) string {
	switch {
	case strings.Contains(l, "[ERROR]"):
		return LogErrorStyle.Render(l)
	case strings.Contains(l, "[WARN]"):
		return LogWarnStyle.Render(l)
	case strings.Contains(l, "[DEBUG]"):
		return LogDebugStyle.Render(l)
	default:
		return LogInfoStyle.Render(l)
	}
}

// FormatLogEntry renders one logging entry the way the activity log pane
// expects it, with the level marker styleLogLine keys on.
func FormatLogEntry(entry logging.LogEntry) string {
	line := fmt.Sprintf("%s [%s] [%s] %s",
		entry.Timestamp.Format("15:04:05.000"),
		entry.Level.String(),
		entry.Subsystem,
		entry.Message)
	if entry.Err != nil {
		line = fmt.Sprintf("%s -- Error: %v", line, entry.Err)
	}
	return line
}

// renderOverlayCanvas centers an overlay box on the screen with the status
// bar kept visible at the bottom.
func renderOverlayCanvas(m *model.Model, overlay string) string {
	statusBar := renderStatusBar(m, m.Width)
	canvas := lipgloss.Place(m.Width, m.Height-lipgloss.Height(statusBar), lipgloss.Center, lipgloss.Center, overlay)
	return lipgloss.JoinVertical(lipgloss.Left, canvas, statusBar)
}

func renderStatusBar(m *model.Model, width int) string {
	overall, detail := m.OverallStatus()

	var bg lipgloss.AdaptiveColor
	switch overall {
	case model.FleetStatusWorking:
		bg = StatusBarWorkingBg
	case model.FleetStatusDegraded:
		bg = StatusBarDegradedBg
	case model.FleetStatusFailed:
		bg = StatusBarFailedBg
	default:
		bg = StatusBarIdleBg
	}

	leftW := width / 4
	rightW := width / 3
	centerW := width - leftW - rightW
	if centerW < 0 {
		centerW = 0
	}

	var left string
	if m.Refreshing {
		left = lipgloss.NewStyle().Background(bg).Width(leftW).Render(m.Spinner.View() + " " + overall.String())
	} else {
		left = StatusBarTextStyle.Copy().Background(bg).Width(leftW).Render(" " + overall.String())
	}

	var center string
	if m.StatusBarMessage != "" {
		var style lipgloss.Style
		switch m.StatusBarMessageType {
		case model.StatusBarSuccess:
			style = TextSuccessStyle.Copy()
		case model.StatusBarError:
			style = TextErrorStyle.Copy()
		case model.StatusBarWarning:
			style = TextWarningStyle.Copy()
		default:
			style = StatusBarTextStyle.Copy()
		}
		center = style.Background(bg).Width(centerW).Align(lipgloss.Center).Render(Truncate(m.StatusBarMessage, centerW))
	} else {
		center = lipgloss.NewStyle().Background(bg).Width(centerW).Render("")
	}

	right := StatusBarTextStyle.Copy().Background(bg).Width(rightW).Align(lipgloss.Right).Render(detail + " ")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, center, right)
}
