package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/resttrackr/internal/export"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/scheduler"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewActivities
	viewTest
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Activities", "Test", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// tickMsg refreshes date-dependent views so "today" rolls over at midnight.
type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// dataChangedMsg is sent after any write so every view reloads.
type dataChangedMsg struct{}

// ReminderMsg carries the daily reminder from the scheduler into the
// program.
type ReminderMsg scheduler.Reminder

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}

func changed() tea.Msg { return dataChangedMsg{} }

func formatMinutes(m int) string {
	if s := export.FormatMinutes(m); s != "" {
		return s
	}
	return "-"
}

func formatBytes(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// relativeDay renders t as Today, Yesterday, "N days ago" within a week and
// a humanized age beyond that.
func relativeDay(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	days := int(model.StartOfDay(now).Sub(model.StartOfDay(t)).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func weekdayShort(d int) string {
	return time.Weekday(d).String()[:3]
}

func recurrenceLabel(r *model.Recurrence) string {
	if r == nil {
		return "once"
	}
	switch r.Frequency {
	case model.FrequencyDaily:
		return "daily"
	case model.FrequencyMonthly:
		return "monthly"
	case model.FrequencyWeekly:
		s := "weekly"
		for i, d := range r.DaysOfWeek {
			if i == 0 {
				s += " "
			} else {
				s += ","
			}
			s += weekdayShort(d)
		}
		return s
	}
	return string(r.Frequency)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
