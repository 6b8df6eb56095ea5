package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/catalog"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/tracker"
)

const frequencyNone = "none"

type formKind int

const (
	formNone formKind = iota
	formNew
	formEdit
	formDelete
)

// activityForm holds the form values behind pointers so they survive the
// value copies Bubble Tea makes of the model.
type activityForm struct {
	name        string
	description string
	typ         string
	duration    string
	frequency   string
	days        []int
	confirm     bool
}

type activitiesModel struct {
	tracker *tracker.Tracker
	width   int
	height  int

	now        time.Time
	activities []model.Activity
	cursor     int
	filter     tracker.Filter
	typeIndex  int // -1 means all types

	searching bool
	search    textinput.Model

	picking    bool
	presets    []model.Activity
	pickCursor int

	formActive bool
	form       *huh.Form
	formKind   formKind
	values     *activityForm
	editingID  string
}

func newActivitiesModel(t *tracker.Tracker) activitiesModel {
	ti := textinput.New()
	ti.Placeholder = "name or description"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	return activitiesModel{
		tracker:   t,
		typeIndex: -1,
		search:    ti,
		values:    &activityForm{},
	}
}

func (p *activitiesModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.search.Width = max(10, w-12)
}

// capturing reports whether the view is consuming raw key input.
func (p activitiesModel) capturing() bool {
	return p.formActive || p.searching || p.picking
}

type activitiesDataMsg struct {
	now        time.Time
	activities []model.Activity
}

func (p activitiesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return activitiesDataMsg{
			now:        p.tracker.Now(),
			activities: p.tracker.List(p.filter),
		}
	}
}

func (p activitiesModel) selected() (model.Activity, bool) {
	if p.cursor < 0 || p.cursor >= len(p.activities) {
		return model.Activity{}, false
	}
	return p.activities[p.cursor], true
}

func (p activitiesModel) update(msg tea.Msg) (activitiesModel, tea.Cmd) {
	if msg, ok := msg.(activitiesDataMsg); ok {
		p.now = msg.now
		p.activities = msg.activities
		p.cursor = clamp(p.cursor, 0, max(0, len(p.activities)-1))
		return p, nil
	}
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case p.searching:
			return p.updateSearch(msg)
		case p.picking:
			return p.updatePicker(msg)
		}
		return p.updateList(msg)
	}
	return p, nil
}

func (p activitiesModel) updateList(msg tea.KeyMsg) (activitiesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.activities)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.New):
		return p.showActivityForm(nil)
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if a, ok := p.selected(); ok {
			return p.showActivityForm(&a)
		}
	case key.Matches(msg, keys.Complete):
		if a, ok := p.selected(); ok {
			return p, p.complete(a)
		}
	case key.Matches(msg, keys.Archive):
		if a, ok := p.selected(); ok {
			if err := p.tracker.SetActive(a.ID, !a.IsActive); err != nil {
				return p, errorCmd("Archive failed", err)
			}
			verb := "Archived "
			if !a.IsActive {
				verb = "Restored "
			}
			return p, tea.Batch(changed, statusCmd(verb+a.Name))
		}
	case key.Matches(msg, keys.Delete):
		if a, ok := p.selected(); ok {
			return p.showDeleteConfirm(a)
		}
	case key.Matches(msg, keys.Presets):
		p.picking = true
		p.pickCursor = 0
		p.presets = catalog.Search("")
		return p, nil
	case key.Matches(msg, keys.Search):
		p.searching = true
		p.search.SetValue(p.filter.Query)
		cmd := p.search.Focus()
		return p, cmd
	case key.Matches(msg, keys.Filter):
		p.filter.Status = (p.filter.Status + 1) % 3
		p.cursor = 0
		return p, p.refresh()
	case key.Matches(msg, keys.Sort):
		p.filter.Sort = (p.filter.Sort + 1) % 3
		return p, p.refresh()
	case key.Matches(msg, keys.TypeNext):
		p.typeIndex++
		if p.typeIndex >= len(model.ActivityTypes) {
			p.typeIndex = -1
		}
		p.filter.Types = nil
		if p.typeIndex >= 0 {
			p.filter.Types = []model.ActivityType{model.ActivityTypes[p.typeIndex]}
		}
		p.cursor = 0
		return p, p.refresh()
	}
	return p, nil
}

func (p activitiesModel) complete(a model.Activity) tea.Cmd {
	if _, err := p.tracker.CompleteActivity(a.ID); err != nil {
		if errors.Is(err, tracker.ErrAlreadyCompleted) {
			return statusCmd(a.Name + " is already done today")
		}
		return errorCmd("Complete failed", err)
	}
	return tea.Batch(changed, statusCmd("Completed "+a.Name))
}

func (p activitiesModel) updateSearch(msg tea.KeyMsg) (activitiesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		p.searching = false
		p.search.Blur()
		p.filter.Query = strings.TrimSpace(p.search.Value())
		p.cursor = 0
		return p, p.refresh()
	case "esc":
		p.searching = false
		p.search.Blur()
		p.search.SetValue("")
		p.filter.Query = ""
		return p, p.refresh()
	}
	var cmd tea.Cmd
	p.search, cmd = p.search.Update(msg)
	return p, cmd
}

func (p activitiesModel) updatePicker(msg tea.KeyMsg) (activitiesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.pickCursor > 0 {
			p.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.pickCursor < len(p.presets)-1 {
			p.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		p.picking = false
		if len(p.presets) == 0 {
			return p, nil
		}
		added, err := p.tracker.AddActivity(p.presets[p.pickCursor])
		if err != nil {
			return p, errorCmd("Add failed", err)
		}
		return p, tea.Batch(changed, statusCmd("Added "+added.Name))
	case key.Matches(msg, keys.Back):
		p.picking = false
	}
	return p, nil
}

func typeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(model.ActivityTypes))
	for i, t := range model.ActivityTypes {
		opts[i] = huh.NewOption(catalog.Label(t), string(t))
	}
	return opts
}

func dayOptions() []huh.Option[int] {
	opts := make([]huh.Option[int], 7)
	for d := range 7 {
		opts[d] = huh.NewOption(time.Weekday(d).String(), d)
	}
	return opts
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func validateDuration(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}

// showActivityForm opens the add form, or the edit form when a is set.
func (p activitiesModel) showActivityForm(a *model.Activity) (activitiesModel, tea.Cmd) {
	v := p.values
	*v = activityForm{
		typ:       string(model.TypePhysical),
		duration:  strconv.Itoa(p.tracker.Settings().DefaultActivityDuration),
		frequency: frequencyNone,
	}
	p.formKind = formNew
	p.editingID = ""
	if a != nil {
		p.formKind = formEdit
		p.editingID = a.ID
		v.name = a.Name
		v.description = a.Description
		v.typ = string(a.Type)
		v.duration = strconv.Itoa(a.Duration)
		if a.Recurrence != nil {
			v.frequency = string(a.Recurrence.Frequency)
			v.days = append([]int(nil), a.Recurrence.DaysOfWeek...)
		}
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.name).Validate(validateName),
			huh.NewInput().Title("Description").Value(&v.description),
			huh.NewSelect[string]().Title("Type").Options(typeOptions()...).Value(&v.typ),
			huh.NewInput().Title("Duration (min)").Value(&v.duration).Validate(validateDuration),
			huh.NewSelect[string]().Title("Repeats").
				Options(
					huh.NewOption("Not scheduled", frequencyNone),
					huh.NewOption("Daily", string(model.FrequencyDaily)),
					huh.NewOption("Weekly", string(model.FrequencyWeekly)),
					huh.NewOption("Monthly", string(model.FrequencyMonthly)),
				).Value(&v.frequency),
		),
		huh.NewGroup(
			huh.NewMultiSelect[int]().Title("On which days?").
				Options(dayOptions()...).
				Value(&v.days).
				Validate(func(d []int) error {
					if len(d) == 0 {
						return errors.New("pick at least one day")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return v.frequency != string(model.FrequencyWeekly) }),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p activitiesModel) showDeleteConfirm(a model.Activity) (activitiesModel, tea.Cmd) {
	p.values.confirm = false
	p.formKind = formDelete
	p.editingID = a.ID
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", a.Name)).
				Description("Its completion history is removed too. Archive keeps it.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&p.values.confirm),
		),
	)
	p.formActive = true
	return p, p.form.Init()
}

// activity builds the activity the form describes.
func (v *activityForm) activity() model.Activity {
	dur, _ := strconv.Atoi(strings.TrimSpace(v.duration))
	a := model.Activity{
		Type:        model.ActivityType(v.typ),
		Name:        strings.TrimSpace(v.name),
		Description: strings.TrimSpace(v.description),
		Duration:    dur,
	}
	if v.frequency != frequencyNone {
		a.Recurrence = &model.Recurrence{Frequency: model.Frequency(v.frequency), Interval: 1}
		if a.Recurrence.Frequency == model.FrequencyWeekly {
			a.Recurrence.DaysOfWeek = append([]int(nil), v.days...)
		}
	}
	return a
}

func (p activitiesModel) updateForm(msg tea.Msg) (activitiesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State != huh.StateCompleted {
		return p, cmd
	}

	p.formActive = false
	p.form = nil
	switch p.formKind {
	case formNew:
		a, err := p.tracker.AddActivity(p.values.activity())
		if err != nil {
			return p, errorCmd("Add failed", err)
		}
		return p, tea.Batch(changed, statusCmd("Added "+a.Name))
	case formEdit:
		edit := p.values.activity()
		edit.ID = p.editingID
		a, err := p.tracker.UpdateActivity(edit)
		if err != nil {
			return p, errorCmd("Update failed", err)
		}
		return p, tea.Batch(changed, statusCmd("Saved "+a.Name))
	case formDelete:
		if !p.values.confirm {
			return p, nil
		}
		if err := p.tracker.DeleteActivity(p.editingID); err != nil {
			return p, errorCmd("Delete failed", err)
		}
		return p, tea.Batch(changed, statusCmd("Activity deleted"))
	}
	return p, nil
}

func (p activitiesModel) view() string {
	w := p.width - 4
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Activity")
		switch p.formKind {
		case formEdit:
			title = titleStyle.Render("Edit Activity")
		case formDelete:
			title = titleStyle.Render("Delete Activity")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()))
	}
	if p.picking {
		return p.renderPicker(w)
	}
	return p.renderList(w)
}

func (p activitiesModel) filterLine() string {
	status := []string{"active", "archived", "all"}[p.filter.Status]
	typ := "all types"
	if p.typeIndex >= 0 {
		typ = catalog.Label(model.ActivityTypes[p.typeIndex])
	}
	parts := []string{status, typ, "by " + p.filter.Sort.String()}
	if p.filter.Query != "" {
		parts = append(parts, fmt.Sprintf("%q", p.filter.Query))
	}
	return mutedStyle.Render(strings.Join(parts, " · "))
}

func (p activitiesModel) renderList(w int) string {
	title := titleStyle.Render("Activities") + "  " + p.filterLine()

	var rows []string
	rows = append(rows, title)
	if p.searching {
		rows = append(rows, p.search.View())
	}
	rows = append(rows, "")

	if len(p.activities) == 0 {
		rows = append(rows, mutedStyle.Render("No activities match. Press n to create one or p to pick a preset."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	header := mutedStyle.Render(fmt.Sprintf("    %-26s %-16s %-8s %-18s %s", "Name", "Type", "Length", "Repeats", "Last done"))
	rows = append(rows, header)

	visible := max(3, p.height-10)
	start := clamp(p.cursor-visible+1, 0, max(0, len(p.activities)-visible))
	end := min(len(p.activities), start+visible)
	for i := start; i < end; i++ {
		a := p.activities[i]
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		if !a.IsActive {
			style = mutedStyle
		}
		row := fmt.Sprintf("%s%s %-26s %-16s %-8s %-18s %s",
			cursor, typeDot(a.Type),
			truncate(a.Name, 26),
			catalog.Label(a.Type),
			formatMinutes(a.Duration),
			recurrenceLabel(a.Recurrence),
			relativeDay(a.LastCompleted(), p.now),
		)
		rows = append(rows, style.Render(row))
	}
	if len(p.activities) > visible {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d of %d", p.cursor+1, len(p.activities))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  c: complete  a: archive  x: delete  p: presets  /: search  f/t/s: filter"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p activitiesModel) renderPicker(w int) string {
	title := titleStyle.Render("Add From Presets")

	var rows []string
	rows = append(rows, title, "")

	visible := max(3, p.height-8)
	start := clamp(p.pickCursor-visible+1, 0, max(0, len(p.presets)-visible))
	end := min(len(p.presets), start+visible)
	var lastType model.ActivityType
	for i := start; i < end; i++ {
		a := p.presets[i]
		if a.Type != lastType {
			rows = append(rows, mutedStyle.Render(catalog.Label(a.Type)))
			lastType = a.Type
		}
		cursor := "  "
		style := normalItemStyle
		if i == p.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-30s %s", cursor, typeDot(a.Type), a.Name, formatMinutes(a.Duration))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: add  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
