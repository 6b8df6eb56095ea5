package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/tracker"
)

type dashboardModel struct {
	tracker *tracker.Tracker
	width   int
	height  int

	now        time.Time
	due        []model.Activity
	stats      model.Stats
	backupDue  bool
	testPrompt bool
	reminder   *ReminderMsg
	cursor     int

	bar progress.Model
}

func newDashboardModel(t *tracker.Tracker) dashboardModel {
	return dashboardModel{
		tracker: t,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(16), progress.WithoutPercentage()),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	now        time.Time
	due        []model.Activity
	stats      model.Stats
	backupDue  bool
	testPrompt bool
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		return dashboardDataMsg{
			now:        d.tracker.Now(),
			due:        d.tracker.DueToday(),
			stats:      d.tracker.Stats(),
			backupDue:  d.tracker.BackupReminderDue(),
			testPrompt: d.tracker.ShouldShowFirstTestPrompt(),
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.now = msg.now
		d.due = msg.due
		d.stats = msg.stats
		d.backupDue = msg.backupDue
		d.testPrompt = msg.testPrompt
		d.cursor = clamp(d.cursor, 0, max(0, len(d.due)-1))
		return d, nil

	case ReminderMsg:
		d.reminder = &msg
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.due)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Complete), key.Matches(msg, keys.Enter):
			return d.completeSelected()
		case key.Matches(msg, keys.Backup):
			if err := d.tracker.Backup(); err != nil {
				return d, errorCmd("Backup failed", err)
			}
			return d, tea.Batch(changed, statusCmd("Backup saved"))
		case key.Matches(msg, keys.Dismiss):
			return d.dismissBanner()
		}
	}
	return d, nil
}

func (d dashboardModel) completeSelected() (dashboardModel, tea.Cmd) {
	if len(d.due) == 0 {
		return d, nil
	}
	a := d.due[d.cursor]
	if _, err := d.tracker.CompleteActivity(a.ID); err != nil {
		if errors.Is(err, tracker.ErrAlreadyCompleted) {
			return d, statusCmd(a.Name + " is already done today")
		}
		return d, errorCmd("Complete failed", err)
	}
	return d, tea.Batch(changed, statusCmd("Completed "+a.Name))
}

// dismissBanner hides the topmost banner: backup reminder, then test
// prompt, then the daily reminder.
func (d dashboardModel) dismissBanner() (dashboardModel, tea.Cmd) {
	switch {
	case d.backupDue:
		if err := d.tracker.DismissBackupReminder(); err != nil {
			return d, errorCmd("Dismiss failed", err)
		}
		d.backupDue = false
		return d, statusCmd("Backup reminder snoozed for a day")
	case d.testPrompt:
		if err := d.tracker.DismissTestPrompt(); err != nil {
			return d, errorCmd("Dismiss failed", err)
		}
		d.testPrompt = false
		return d, changed
	case d.reminder != nil:
		d.reminder = nil
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	var parts []string
	if b := d.renderBanners(contentWidth); b != "" {
		parts = append(parts, b)
	}
	parts = append(parts, d.renderStatsPanel(contentWidth), d.renderDuePanel(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (d dashboardModel) renderBanners(w int) string {
	var lines []string
	if d.backupDue {
		lines = append(lines, "Your data has not been backed up recently. b: back up now  z: remind me tomorrow")
	}
	if d.testPrompt {
		lines = append(lines, "Find out which kind of rest you need most. 3: take the fatigue test  z: not now")
	}
	if d.reminder != nil {
		n := len(d.reminder.Pending)
		switch n {
		case 0:
			lines = append(lines, "Reminder: everything due today is done.")
		case 1:
			lines = append(lines, fmt.Sprintf("Reminder: %s is still open today.", d.reminder.Pending[0].Name))
		default:
			lines = append(lines, fmt.Sprintf("Reminder: %d rest activities are still open today.", n))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return bannerStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (d dashboardModel) renderStatsPanel(w int) string {
	cells := []struct {
		label string
		value int
	}{
		{"Today", d.stats.Today},
		{"This week", d.stats.ThisWeek},
		{"This month", d.stats.ThisMonth},
		{"All time", d.stats.Total},
		{"Active", d.stats.Active},
	}

	cellWidth := max(12, (w-6)/len(cells))
	var cols []string
	for _, c := range cells {
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Center,
			bigNumberStyle.Width(cellWidth).Render(fmt.Sprintf("%d", c.value)),
			mutedStyle.Width(cellWidth).Align(lipgloss.Center).Render(c.label),
		))
	}

	title := titleStyle.Render("Completions")
	if d.stats.Archived > 0 {
		title += mutedStyle.Render(fmt.Sprintf("  (%d archived)", d.stats.Archived))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		title, "", lipgloss.JoinHorizontal(lipgloss.Top, cols...),
	))
}

func (d dashboardModel) renderDuePanel(w int) string {
	title := titleStyle.Render("Due Today")
	if !d.now.IsZero() {
		title += "  " + mutedStyle.Render(d.now.Format("Monday, Jan 2"))
	}

	if len(d.due) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing scheduled today. Press 2 to plan some rest."),
		)
		return panelStyle.Width(w).Render(content)
	}

	done := 0
	var rows []string
	rows = append(rows, title, "")
	for i, a := range d.due {
		cursor := "  "
		style := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := mutedStyle.Render("○")
		if a.CompletedOn(d.now) {
			check = successStyle.Render("✓")
			done++
		}
		pct := a.WeeklyProgress(d.now)
		row := fmt.Sprintf("%s%s %s %s %s  %s %s",
			cursor, check, typeDot(a.Type),
			style.Render(fmt.Sprintf("%-24s", truncate(a.Name, 24))),
			mutedStyle.Render(fmt.Sprintf("%-8s", formatMinutes(a.Duration))),
			d.bar.ViewAs(float64(pct)/100),
			mutedStyle.Render(fmt.Sprintf("%3d%% this week", pct)),
		)
		rows = append(rows, row)
	}
	rows[0] += "  " + highlightStyle.Render(fmt.Sprintf("%d/%d done", done, len(d.due)))
	rows = append(rows, "", mutedStyle.Render("  c: complete  b: backup  z: dismiss banner"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
