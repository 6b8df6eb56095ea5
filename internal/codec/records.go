package codec

import (
	"time"

	"github.com/sadopc/resttrackr/internal/model"
)

type recurrenceRecord struct {
	Frequency  model.Frequency `json:"frequency"`
	Interval   int             `json:"interval"`
	DaysOfWeek []int           `json:"daysOfWeek,omitempty"`
	EndDate    *Timestamp      `json:"endDate,omitempty"`
}

type activityRecord struct {
	ID             string             `json:"id"`
	Type           model.ActivityType `json:"type"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Recurrence     *recurrenceRecord  `json:"recurrence,omitempty"`
	Duration       int                `json:"duration,omitempty"`
	CreatedAt      Timestamp          `json:"createdAt"`
	CompletedDates []Timestamp        `json:"completedDates"`
	IsActive       *bool              `json:"isActive,omitempty"`
}

type testResultRecord struct {
	ID            string              `json:"id"`
	CompletedAt   Timestamp           `json:"completedAt"`
	Answers       []model.TestAnswer  `json:"answers"`
	FatigueScores model.FatigueScores `json:"fatigueScores"`
	DominantTypes []model.FatigueType `json:"dominantTypes"`
}

type testSettingsRecord struct {
	HasCompletedFirstTest bool               `json:"hasCompletedFirstTest"`
	ShowTestReminderPopup bool               `json:"showTestReminderPopup"`
	TestHistory           []testResultRecord `json:"testHistory"`
}

type settingsRecord struct {
	NotificationsEnabled    bool                `json:"notificationsEnabled"`
	Theme                   model.Theme         `json:"theme"`
	DefaultActivityDuration int                 `json:"defaultActivityDuration"`
	ReminderTime            string              `json:"reminderTime"`
	TestSettings            *testSettingsRecord `json:"testSettings"`
}

func toActivityRecord(a model.Activity) activityRecord {
	active := a.IsActive
	rec := activityRecord{
		ID:             a.ID,
		Type:           a.Type,
		Name:           a.Name,
		Description:    a.Description,
		Duration:       a.Duration,
		CreatedAt:      Timestamp{a.CreatedAt},
		CompletedDates: make([]Timestamp, len(a.CompletedDates)),
		IsActive:       &active,
	}
	for i, d := range a.CompletedDates {
		rec.CompletedDates[i] = Timestamp{d}
	}
	if r := a.Recurrence; r != nil {
		rec.Recurrence = &recurrenceRecord{
			Frequency:  r.Frequency,
			Interval:   r.Interval,
			DaysOfWeek: r.DaysOfWeek,
		}
		if r.EndDate != nil {
			rec.Recurrence.EndDate = &Timestamp{*r.EndDate}
		}
	}
	return rec
}

func (rec activityRecord) toModel() model.Activity {
	a := model.Activity{
		ID:             rec.ID,
		Type:           rec.Type,
		Name:           rec.Name,
		Description:    rec.Description,
		Duration:       rec.Duration,
		CreatedAt:      rec.CreatedAt.Time,
		CompletedDates: make([]time.Time, 0, len(rec.CompletedDates)),
		IsActive:       rec.IsActive == nil || *rec.IsActive,
	}
	for _, d := range rec.CompletedDates {
		if !d.IsZero() {
			a.CompletedDates = append(a.CompletedDates, d.Time)
		}
	}
	if r := rec.Recurrence; r != nil {
		a.Recurrence = &model.Recurrence{
			Frequency:  r.Frequency,
			Interval:   r.Interval,
			DaysOfWeek: r.DaysOfWeek,
		}
		if a.Recurrence.Interval <= 0 {
			a.Recurrence.Interval = 1
		}
		if r.EndDate != nil && !r.EndDate.IsZero() {
			end := r.EndDate.Time
			a.Recurrence.EndDate = &end
		}
	}
	return a
}

func toSettingsRecord(s model.Settings) settingsRecord {
	ts := &testSettingsRecord{
		HasCompletedFirstTest: s.TestSettings.HasCompletedFirstTest,
		ShowTestReminderPopup: s.TestSettings.ShowTestReminderPopup,
		TestHistory:           make([]testResultRecord, len(s.TestSettings.TestHistory)),
	}
	for i, r := range s.TestSettings.TestHistory {
		ts.TestHistory[i] = testResultRecord{
			ID:            r.ID,
			CompletedAt:   Timestamp{r.CompletedAt},
			Answers:       r.Answers,
			FatigueScores: r.FatigueScores,
			DominantTypes: r.DominantTypes,
		}
	}
	return settingsRecord{
		NotificationsEnabled:    s.NotificationsEnabled,
		Theme:                   s.Theme,
		DefaultActivityDuration: s.DefaultActivityDuration,
		ReminderTime:            s.ReminderTime,
		TestSettings:            ts,
	}
}

func (rec settingsRecord) toModel() model.Settings {
	def := model.DefaultSettings()
	s := model.Settings{
		NotificationsEnabled:    rec.NotificationsEnabled,
		Theme:                   rec.Theme,
		DefaultActivityDuration: rec.DefaultActivityDuration,
		ReminderTime:            rec.ReminderTime,
		TestSettings:            def.TestSettings,
	}
	if s.Theme != model.ThemeLight && s.Theme != model.ThemeDark {
		s.Theme = def.Theme
	}
	if s.DefaultActivityDuration <= 0 {
		s.DefaultActivityDuration = def.DefaultActivityDuration
	}
	if ts := rec.TestSettings; ts != nil {
		s.TestSettings.HasCompletedFirstTest = ts.HasCompletedFirstTest
		s.TestSettings.ShowTestReminderPopup = ts.ShowTestReminderPopup
		s.TestSettings.TestHistory = make([]model.TestResult, 0, len(ts.TestHistory))
		for _, r := range ts.TestHistory {
			s.TestSettings.TestHistory = append(s.TestSettings.TestHistory, model.TestResult{
				ID:            r.ID,
				CompletedAt:   r.CompletedAt.Time,
				Answers:       r.Answers,
				FatigueScores: r.FatigueScores,
				DominantTypes: r.DominantTypes,
			})
		}
	}
	return s
}

// defaultSettingsRecord is the starting point settings are decoded over, so
// fields absent from the input keep their documented defaults.
func defaultSettingsRecord() settingsRecord {
	return toSettingsRecord(model.DefaultSettings())
}
