package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/catalog"
	"github.com/sadopc/resttrackr/internal/fatigue"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/tracker"
)

type reportMode int

const (
	reportCompletions reportMode = iota
	reportFatigue
)

type reportsModel struct {
	tracker *tracker.Tracker
	width   int
	height  int

	mode       reportMode
	now        time.Time
	activities []model.Activity
	history    []model.TestResult
	offset     int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(t *tracker.Tracker) reportsModel {
	return reportsModel{
		tracker: t,
		chart:   barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type reportsDataMsg struct {
	now        time.Time
	activities []model.Activity
	history    []model.TestResult
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		snap := r.tracker.Snapshot()
		return reportsDataMsg{
			now:        r.tracker.Now(),
			activities: snap.Activities,
			history:    snap.Settings.TestSettings.TestHistory,
		}
	}
}

// dateRange is the 7-day window ending today, shifted back by offset weeks.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now
	if now.IsZero() {
		now = time.Now()
	}
	end := model.StartOfDay(now).AddDate(0, 0, 1-7*r.offset)
	return end.AddDate(0, 0, -7), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.now = msg.now
		r.activities = msg.activities
		r.history = msg.history
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportCompletions {
				r.mode = reportFatigue
			} else {
				r.mode = reportCompletions
			}
			r.offset = 0
			r.buildChart()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	if r.mode == reportFatigue {
		bars = r.fatigueBars()
	} else {
		bars = r.completionBars()
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// completionBars has one bar per day, stacked by activity type.
func (r reportsModel) completionBars() []barchart.BarData {
	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		next := d.AddDate(0, 0, 1)
		perType := map[model.ActivityType]int{}
		for _, a := range r.activities {
			if n := a.CompletionsBetween(d, next); n > 0 {
				perType[a.Type] += n
			}
		}

		var values []barchart.BarValue
		for _, t := range model.ActivityTypes {
			if n := perType[t]; n > 0 {
				values = append(values, barchart.BarValue{
					Name:  catalog.Label(t),
					Value: float64(n),
					Style: lipgloss.NewStyle().Foreground(typeColors[t]),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}
	return bars
}

// fatigueBars has one bar per dimension from the latest test.
func (r reportsModel) fatigueBars() []barchart.BarData {
	if len(r.history) == 0 {
		return nil
	}
	latest := r.history[0].FatigueScores
	var bars []barchart.BarData
	for _, d := range model.FatigueDimensions {
		score := latest.Get(d)
		color := colorSuccess
		switch fatigue.Interpretation(score) {
		case fatigue.LevelModerate:
			color = colorWarning
		case fatigue.LevelSevere:
			color = colorError
		}
		bars = append(bars, barchart.BarData{
			Label: truncate(fatigue.DimensionName(d), 9),
			Values: []barchart.BarValue{{
				Name:  fatigue.DimensionName(d),
				Value: float64(score),
				Style: lipgloss.NewStyle().Foreground(color),
			}},
		})
	}
	return bars
}

func (r reportsModel) view() string {
	w := r.width - 4

	compTab := inactiveTabStyle.Render("Completions")
	fatTab := inactiveTabStyle.Render("Fatigue")
	if r.mode == reportCompletions {
		compTab = activeTabStyle.Render("Completions")
	} else {
		fatTab = activeTabStyle.Render("Fatigue")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, compTab, fatTab)

	var label, body, nav string
	if r.mode == reportCompletions {
		from, to := r.dateRange()
		label = fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006"))
		body = lipgloss.JoinVertical(lipgloss.Left, r.chart.View(), "", r.renderLegend(), "", r.renderCompletionTable(w))
		nav = "  ←/→: navigate  m: switch mode"
	} else {
		if len(r.history) > 0 {
			label = "Taken " + r.history[0].CompletedAt.Local().Format("Jan 02, 2006")
			body = lipgloss.JoinVertical(lipgloss.Left, r.chart.View(), "", r.renderHistory(w))
		} else {
			body = mutedStyle.Render("  No test results yet. Press 3 to take the fatigue test.")
		}
		nav = "  m: switch mode"
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", mutedStyle.Render(label),
	)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", mutedStyle.Render(nav)),
	)
}

type completionSummary struct {
	activity model.Activity
	count    int
	minutes  int
}

func (r reportsModel) summaries() []completionSummary {
	from, to := r.dateRange()
	var out []completionSummary
	for _, a := range r.activities {
		if n := a.CompletionsBetween(from, to); n > 0 {
			out = append(out, completionSummary{activity: a, count: n, minutes: n * a.Duration})
		}
	}
	return out
}

func (r reportsModel) renderCompletionTable(w int) string {
	sums := r.summaries()
	if len(sums) == 0 {
		return mutedStyle.Render("  No completions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-26s %-16s %6s %10s", "Activity", "Type", "Times", "Rest")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 62))))

	total := 0
	for _, s := range sums {
		total += s.minutes
		rows = append(rows, fmt.Sprintf("  %s %-24s %-16s %6d %10s",
			typeDot(s.activity.Type), truncate(s.activity.Name, 24), catalog.Label(s.activity.Type),
			s.count, formatMinutes(s.minutes),
		))
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-50s %10s", "Total", formatMinutes(total))))
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	seen := make(map[model.ActivityType]bool)
	for _, s := range r.summaries() {
		seen[s.activity.Type] = true
	}
	var items []string
	for _, t := range model.ActivityTypes {
		if seen[t] {
			items = append(items, fmt.Sprintf("%s %s", typeDot(t), catalog.Label(t)))
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

func (r reportsModel) renderHistory(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-14s %s", "Date", "Dominant types")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 62))))
	for i, h := range r.history {
		if i == 5 {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  and %d earlier", len(r.history)-i)))
			break
		}
		var names []string
		for _, t := range h.DominantTypes {
			names = append(names, fmt.Sprintf("%s (%d)", t.Name, t.Score))
		}
		dom := strings.Join(names, ", ")
		if dom == "" {
			dom = "none"
		}
		rows = append(rows, fmt.Sprintf("  %-14s %s", h.CompletedAt.Local().Format("2006-01-02"), dom))
	}
	return strings.Join(rows, "\n")
}
