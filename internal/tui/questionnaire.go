package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/catalog"
	"github.com/sadopc/resttrackr/internal/fatigue"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/tracker"
)

type testStage int

const (
	testIntro testStage = iota
	testAsking
	testDone
)

var scoreLabels = []string{"never", "rarely", "sometimes", "often", "very often", "almost always"}

type testModel struct {
	tracker *tracker.Tracker
	width   int
	height  int

	stage     testStage
	questions []fatigue.Question
	answers   []int // -1 until answered
	index     int
	// rng orders the questions on each start; nil uses the global source.
	rng *rand.Rand

	result  *model.TestResult
	history []model.TestResult

	bar progress.Model
}

func newTestModel(t *tracker.Tracker) testModel {
	return testModel{
		tracker:   t,
		questions: fatigue.Questions(),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m *testModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.bar.Width = clamp(w-20, 10, 60)
}

// capturing is true while questions are being answered so digit keys
// reach the questionnaire instead of switching tabs.
func (m testModel) capturing() bool {
	return m.stage == testAsking
}

type testDataMsg struct {
	history []model.TestResult
}

func (m testModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return testDataMsg{history: m.tracker.Settings().TestSettings.TestHistory}
	}
}

func (m testModel) start() testModel {
	m.stage = testAsking
	m.questions = fatigue.Shuffled(m.rng)
	m.index = 0
	m.result = nil
	m.answers = make([]int, len(m.questions))
	for i := range m.answers {
		m.answers[i] = -1
	}
	return m
}

func (m testModel) update(msg tea.Msg) (testModel, tea.Cmd) {
	switch msg := msg.(type) {
	case testDataMsg:
		m.history = msg.history
		return m, nil

	case tea.KeyMsg:
		switch m.stage {
		case testAsking:
			return m.updateAsking(msg)
		case testDone:
			return m.updateDone(msg)
		}
		if key.Matches(msg, keys.Enter) || key.Matches(msg, keys.New) {
			return m.start(), nil
		}
		if key.Matches(msg, keys.Recommend) && len(m.history) > 0 {
			return m, m.addRecommended(m.history[0])
		}
	}
	return m, nil
}

func (m testModel) updateAsking(msg tea.KeyMsg) (testModel, tea.Cmd) {
	s := msg.String()
	switch {
	case len(s) == 1 && s[0] >= '0' && s[0] <= '5':
		m.answers[m.index] = int(s[0] - '0')
		if m.index < len(m.questions)-1 {
			m.index++
			return m, nil
		}
		return m.finish()
	case key.Matches(msg, keys.Left), s == "backspace":
		if m.index > 0 {
			m.index--
		}
	case key.Matches(msg, keys.Right):
		if m.answers[m.index] >= 0 && m.index < len(m.questions)-1 {
			m.index++
		}
	case key.Matches(msg, keys.Back):
		m.stage = testIntro
		return m, statusCmd("Test cancelled")
	}
	return m, nil
}

func (m testModel) finish() (testModel, tea.Cmd) {
	answers := make([]model.TestAnswer, 0, len(m.questions))
	for i, q := range m.questions {
		if m.answers[i] < 0 {
			m.index = i
			return m, statusCmd(fmt.Sprintf("Question %d is not answered yet", i+1))
		}
		answers = append(answers, model.TestAnswer{QuestionID: q.ID, Score: m.answers[i]})
	}
	res, err := m.tracker.CompleteTest(answers)
	if err != nil {
		return m, errorCmd("Saving test failed", err)
	}
	m.stage = testDone
	m.result = &res
	return m, tea.Batch(changed, statusCmd("Test saved"))
}

func (m testModel) updateDone(msg tea.KeyMsg) (testModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Recommend):
		return m, m.addRecommended(*m.result)
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Back):
		m.stage = testIntro
	}
	return m, nil
}

func (m testModel) addRecommended(r model.TestResult) tea.Cmd {
	suggestions := fatigue.Recommendations(r)
	if len(suggestions) == 0 {
		return statusCmd("No dominant fatigue type, nothing to add")
	}
	added, err := m.tracker.AddRecommendedActivities(suggestions)
	if err != nil {
		return errorCmd("Adding activities failed", err)
	}
	if len(added) == 0 {
		return statusCmd("Recommended activities are already in your list")
	}
	return tea.Batch(changed, statusCmd(fmt.Sprintf("Added %d recommended activities", len(added))))
}

func (m testModel) view() string {
	w := m.width - 4
	switch m.stage {
	case testAsking:
		return activePanelStyle.Width(w).Render(m.renderQuestion(w))
	case testDone:
		return panelStyle.Width(w).Render(m.renderResult(*m.result, w))
	}
	return panelStyle.Width(w).Render(m.renderIntro(w))
}

func (m testModel) renderIntro(w int) string {
	rows := []string{
		titleStyle.Render("Fatigue Test"),
		"",
		lipgloss.NewStyle().Width(w - 6).Render(fatigue.Instructions),
		"",
		mutedStyle.Render(fmt.Sprintf("%d questions in five parts. Takes about ten minutes.", len(m.questions))),
		"",
	}
	if len(m.history) > 0 {
		last := m.history[0]
		rows = append(rows,
			subtitleStyle.Render(fmt.Sprintf("Last taken %s (%d results on record)",
				last.CompletedAt.Local().Format("Jan 2, 2006"), len(m.history))),
			m.renderDominant(last.DominantTypes),
			"",
			mutedStyle.Render("  enter: take the test  r: add recommended activities"),
		)
	} else {
		rows = append(rows, mutedStyle.Render("  enter: start"))
	}
	return strings.Join(rows, "\n")
}

func (m testModel) renderQuestion(w int) string {
	q := m.questions[m.index]
	pct := float64(m.index) / float64(len(m.questions))

	header := titleStyle.Render(fmt.Sprintf("Part %s · %s", q.Block, q.Block.Name()))
	counter := mutedStyle.Render(fmt.Sprintf("Question %d of %d", m.index+1, len(m.questions)))

	var opts []string
	for score, label := range scoreLabels {
		style := normalItemStyle
		marker := "  "
		if m.answers[m.index] == score {
			style = selectedItemStyle
			marker = "> "
		}
		opts = append(opts, style.Render(fmt.Sprintf("%s%d  %s", marker, score, label)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		counter,
		m.bar.ViewAs(pct),
		"",
		lipgloss.NewStyle().Width(w-6).Bold(true).Render(q.Text),
		"",
		strings.Join(opts, "\n"),
		"",
		mutedStyle.Render("  0-5: answer  ←/→: previous/next  esc: cancel"),
	)
}

func (m testModel) renderDominant(dominant []model.FatigueType) string {
	if len(dominant) == 0 {
		return successStyle.Render("  No dominant fatigue type. Keep your current rest habits.")
	}
	var rows []string
	for _, t := range dominant {
		level := fatigue.Interpretation(t.Score)
		style := warningStyle
		if level == fatigue.LevelSevere {
			style = errorStyle
		}
		rows = append(rows, fmt.Sprintf("  %-24s %s  %s",
			highlightStyle.Render(t.Name),
			titleStyle.Render(fmt.Sprintf("%2d/25", t.Score)),
			style.Render(level.String()),
		))
	}
	return strings.Join(rows, "\n")
}

func (m testModel) renderResult(r model.TestResult, w int) string {
	rows := []string{titleStyle.Render("Your Results"), "", m.renderDominant(r.DominantTypes)}

	for _, t := range r.DominantTypes {
		rows = append(rows, "",
			highlightStyle.Render(t.Name),
			lipgloss.NewStyle().Width(w-6).Render(t.Description),
			mutedStyle.Width(w-6).Render(t.Solutions),
		)
	}

	if names := fatigue.HighRiskTypes(r.DominantTypes); len(names) > 0 {
		rows = append(rows, "", errorStyle.Width(w-6).Render(fmt.Sprintf(
			"High %s scores can have medical causes. Consider talking to a doctor.",
			strings.ToLower(strings.Join(names, " and ")))))
	}

	if recs := fatigue.Recommendations(r); len(recs) > 0 {
		rows = append(rows, "", subtitleStyle.Render("Recommended rest"))
		for _, s := range recs {
			rows = append(rows, fmt.Sprintf("  %s %-28s %-16s %s",
				typeDot(s.Type), s.Name, catalog.Label(s.Type), formatMinutes(s.Duration)))
		}
		rows = append(rows, "", mutedStyle.Render("  r: add these to my activities  enter: done"))
	} else {
		rows = append(rows, "", mutedStyle.Render("  enter: done"))
	}
	return strings.Join(rows, "\n")
}
