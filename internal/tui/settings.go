package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/resttrackr/internal/export"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/storage"
	"github.com/sadopc/resttrackr/internal/tracker"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// settingsValues holds form values behind a pointer so they survive the
// value copies Bubble Tea makes of the model.
type settingsValues struct {
	notifications bool
	theme         string
	duration      string
	reminder      string
	testPrompt    bool

	importPath string
	confirm    bool
}

type settingsModel struct {
	tracker   *tracker.Tracker
	exportDir string
	width     int
	height    int

	now        time.Time
	settings   model.Settings
	info       storage.Info
	infoErr    error
	lastBackup time.Time

	formActive bool
	form       *huh.Form
	formType   string // "settings", "import", "clear"
	values     *settingsValues
}

func newSettingsModel(t *tracker.Tracker, exportDir string) settingsModel {
	return settingsModel{
		tracker:   t,
		exportDir: exportDir,
		settings:  model.DefaultSettings(),
		values:    &settingsValues{},
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	now        time.Time
	settings   model.Settings
	info       storage.Info
	infoErr    error
	lastBackup time.Time
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		info, err := s.tracker.StorageInfo()
		last, _ := s.tracker.LastBackup()
		return settingsDataMsg{
			now:        s.tracker.Now(),
			settings:   s.tracker.Settings(),
			info:       info,
			infoErr:    err,
			lastBackup: last,
		}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		s.now = msg.now
		s.settings = msg.settings
		s.info = msg.info
		s.infoErr = msg.infoErr
		s.lastBackup = msg.lastBackup
		return s, nil
	}
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Import):
			return s.showImportForm()
		case key.Matches(msg, keys.Clear):
			return s.showClearConfirm()
		case key.Matches(msg, keys.Backup):
			if err := s.tracker.Backup(); err != nil {
				return s, errorCmd("Backup failed", err)
			}
			return s, tea.Batch(changed, statusCmd("Backup saved"))
		}
	}
	return s, nil
}

func validateClock(v string) error {
	if !clockPattern.MatchString(strings.TrimSpace(v)) {
		return errors.New("use HH:MM, for example 09:00")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	v := s.values
	v.notifications = s.settings.NotificationsEnabled
	v.theme = string(s.settings.Theme)
	v.duration = strconv.Itoa(s.settings.DefaultActivityDuration)
	v.reminder = s.settings.ReminderTime
	if v.reminder == "" {
		v.reminder = model.DefaultReminderTime
	}
	v.testPrompt = s.settings.TestSettings.ShowTestReminderPopup

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Daily reminder").Affirmative("On").Negative("Off").Value(&v.notifications),
			huh.NewInput().Title("Reminder time (HH:MM)").Value(&v.reminder).Validate(validateClock),
			huh.NewInput().Title("Default activity length (min)").Value(&v.duration).Validate(validateDuration),
		).Title("Activities"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Dark", string(model.ThemeDark)),
					huh.NewOption("Light", string(model.ThemeLight)),
				).Value(&v.theme),
			huh.NewConfirm().Title("Suggest the fatigue test").Affirmative("Yes").Negative("No").Value(&v.testPrompt),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = "settings"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showImportForm() (settingsModel, tea.Cmd) {
	now := s.now
	if now.IsZero() {
		now = time.Now()
	}
	s.values.importPath = filepath.Join(s.exportDir, export.BackupFilename(now))
	s.values.confirm = false

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backup file").Value(&s.values.importPath).
				Validate(func(p string) error {
					if strings.TrimSpace(p) == "" {
						return errors.New("path is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Replace all current data?").
				Description("Activities, settings and test history are overwritten.").
				Affirmative("Import").
				Negative("Cancel").
				Value(&s.values.confirm),
		),
	)
	s.formType = "import"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showClearConfirm() (settingsModel, tea.Cmd) {
	s.values.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete all data?").
				Description("The stored data and its backup are removed. Export first if unsure.").
				Affirmative("Delete everything").
				Negative("Cancel").
				Value(&s.values.confirm),
		),
	)
	s.formType = "clear"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	s.formActive = false
	s.form = nil
	switch s.formType {
	case "settings":
		return s, s.saveSettings()
	case "import":
		if !s.values.confirm {
			return s, nil
		}
		return s, s.importFile(strings.TrimSpace(s.values.importPath))
	case "clear":
		if !s.values.confirm {
			return s, nil
		}
		if err := s.tracker.ClearAll(); err != nil {
			return s, errorCmd("Clear failed", err)
		}
		return s, tea.Batch(changed, statusCmd("All data cleared"))
	}
	return s, nil
}

func (s settingsModel) saveSettings() tea.Cmd {
	v := *s.values
	dur, _ := strconv.Atoi(strings.TrimSpace(v.duration))
	err := s.tracker.UpdateSettings(func(st *model.Settings) {
		st.NotificationsEnabled = v.notifications
		st.Theme = model.Theme(v.theme)
		st.DefaultActivityDuration = dur
		st.ReminderTime = strings.TrimSpace(v.reminder)
		st.TestSettings.ShowTestReminderPopup = v.testPrompt
	})
	if err != nil {
		return errorCmd("Saving settings failed", err)
	}
	return tea.Batch(changed, statusCmd("Settings saved"))
}

func (s settingsModel) importFile(path string) tea.Cmd {
	data, err := export.ReadJSON(path)
	if err != nil {
		return errorCmd("Import failed", err)
	}
	if err := s.tracker.Import(data); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidImportFormat):
			return errorCmd("Not a valid backup file", err)
		case errors.Is(err, kv.ErrQuotaExceeded):
			return errorCmd("Not enough storage for this backup", err)
		}
		return errorCmd("Import failed", err)
	}
	return tea.Batch(changed, statusCmd("Imported "+filepath.Base(path)))
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		switch s.formType {
		case "import":
			title = titleStyle.Render("Import Backup")
		case "clear":
			title = errorStyle.Bold(true).Render("Clear All Data")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	reminder := "off"
	if s.settings.NotificationsEnabled {
		reminder = "daily at " + s.settings.ReminderTime
	}
	testPrompt := "no"
	if s.settings.TestSettings.ShowTestReminderPopup {
		testPrompt = "yes"
	}

	rows := []string{titleStyle.Render("Settings"), ""}
	rows = append(rows,
		settingRow("Reminder", reminder),
		settingRow("Default length", formatMinutes(s.settings.DefaultActivityDuration)),
		settingRow("Theme", string(s.settings.Theme)),
		settingRow("Suggest fatigue test", testPrompt),
		settingRow("Tests taken", strconv.Itoa(len(s.settings.TestSettings.TestHistory))),
		"",
		titleStyle.Render("Data"),
		"",
		s.storageRow(),
		settingRow("Last backup", s.backupLabel()),
		settingRow("Export folder", s.exportDir),
		"",
		mutedStyle.Render("  enter: edit settings  b: backup  E: export  i: import  C: clear all data"),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value))
}

func (s settingsModel) storageRow() string {
	if s.infoErr != nil {
		return settingRow("Storage", errorStyle.Render(s.infoErr.Error()))
	}
	style := highlightStyle
	switch {
	case s.info.Percentage >= 90:
		style = errorStyle
	case s.info.Percentage >= 75:
		style = warningStyle
	}
	value := fmt.Sprintf("%s of %s (%s%%)",
		formatBytes(s.info.Used), formatBytes(s.info.Total), humanize.FtoaWithDigits(s.info.Percentage, 1))
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Storage used"), style.Render(value))
}

func (s settingsModel) backupLabel() string {
	if s.lastBackup.IsZero() {
		return "never"
	}
	now := s.now
	if now.IsZero() {
		now = time.Now()
	}
	return s.lastBackup.Local().Format("Jan 2 15:04") + " (" + humanize.RelTime(s.lastBackup, now, "ago", "from now") + ")"
}
