package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/export"
	"github.com/sadopc/resttrackr/internal/tracker"
)

// refreshInterval keeps date-dependent views current across midnight.
const refreshInterval = time.Minute

// App is the root Bubble Tea model.
type App struct {
	tracker   *tracker.Tracker
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard  dashboardModel
	activities activitiesModel
	test       testModel
	reports    reportsModel
	settings   settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(t *tracker.Tracker, exportDir string) App {
	h := help.New()
	h.ShowAll = false
	applyTheme(t.Settings().Theme)

	return App{
		tracker:    t,
		exportDir:  exportDir,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(t),
		activities: newActivitiesModel(t),
		test:       newTestModel(t),
		reports:    newReportsModel(t),
		settings:   newSettingsModel(t, exportDir),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.refreshAll(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.activities.setSize(a.width, contentHeight)
		a.test.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewActivities)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewTest)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		return a, tea.Batch(tickCmd(), a.dashboard.loadData())

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case dataChangedMsg:
		applyTheme(a.tracker.Settings().Theme)
		return a, a.refreshAll()

	case ReminderMsg:
		a.status = "Time for some rest"
		a.statusError = false
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case activitiesDataMsg:
		var cmd tea.Cmd
		a.activities, cmd = a.activities.update(msg)
		return a, cmd
	case testDataMsg:
		var cmd tea.Cmd
		a.test, cmd = a.test.update(msg)
		return a, cmd
	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewActivities:
		a.activities, cmd = a.activities.update(msg)
	case viewTest:
		a.test, cmd = a.test.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewActivities:
		return a.activities.capturing()
	case viewTest:
		return a.test.capturing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewActivities:
		return a.activities.refresh()
	case viewTest:
		return a.test.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.dashboard.loadData(),
		a.activities.refresh(),
		a.test.refresh(),
		a.reports.refresh(),
		a.settings.refresh(),
	)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewActivities:
		content = a.activities.view()
	case viewTest:
		content = a.test.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("resttrackr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)
	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(status)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

var exportFormats = []string{"JSON backup (restorable)", "CSV completion log"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("to "+a.exportDir))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		now := a.tracker.Now()

		if format == 1 {
			path, err := export.ToCSV(a.tracker.Activities(), a.exportDir, now)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		data, err := a.tracker.Export()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path, err := export.ToJSON(data, a.exportDir, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
