// Package tracker owns the in-memory activity state. Every change is staged
// on a copy, persisted, and only then made visible.
package tracker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/resttrackr/internal/fatigue"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/storage"
)

var (
	ErrNotFound         = errors.New("activity not found")
	ErrAlreadyCompleted = errors.New("activity already completed today")
	ErrInvalidActivity  = errors.New("invalid activity")
	ErrInvalidSettings  = errors.New("invalid settings")
)

// Persister is the storage the tracker writes through. *storage.Manager
// implements it.
type Persister interface {
	SaveData(activities []model.Activity, settings model.Settings) error
	CreateBackup(activities []model.Activity, settings model.Settings) error
	CreateSmartBackup(activities []model.Activity, settings model.Settings) (bool, error)
	ExportData(activities []model.Activity, settings model.Settings) (string, error)
	ImportData(s string) (model.Snapshot, error)
	ClearAllData() error
	StorageInfo() (storage.Info, error)
	BackupReminderDue(activityCount int) bool
	DismissBackupReminder() error
	BackupTime() (time.Time, bool)
}

type Config struct {
	Now    func() time.Time
	NewID  func() string
	Logger logrus.FieldLogger
}

type Tracker struct {
	mu    sync.RWMutex
	store Persister
	state model.Snapshot
	now   func() time.Time
	newID func() string
	log   logrus.FieldLogger
}

func New(store Persister, cfg Config) *Tracker {
	t := &Tracker{
		store: store,
		state: model.EmptySnapshot(),
		now:   cfg.Now,
		newID: cfg.NewID,
		log:   cfg.Logger,
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	if t.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		t.log = l
	}
	return t
}

// Load replaces the in-memory state with what storage returned at startup.
// Nothing is written.
func (t *Tracker) Load(res storage.LoadResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = res.Data.Clone()
	if t.state.Activities == nil {
		t.state.Activities = []model.Activity{}
	}
	t.log.WithFields(logrus.Fields{
		"status":     res.Status.String(),
		"activities": len(t.state.Activities),
	}).Info("state loaded")
}

// commit applies mutate to a copy of the state, persists the copy and then
// swaps it in. If mutate or the save fails the state is unchanged.
func (t *Tracker) commit(op string, mutate func(*model.Snapshot) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.state.Clone()
	if err := mutate(&next); err != nil {
		return err
	}
	if err := t.store.SaveData(next.Activities, next.Settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	t.state = next
	if _, err := t.store.CreateSmartBackup(next.Activities, next.Settings); err != nil {
		t.log.WithError(err).WithField("op", op).Warn("smart backup after commit failed")
	}
	return nil
}

func (t *Tracker) Snapshot() model.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

func (t *Tracker) Activities() []model.Activity {
	return t.Snapshot().Activities
}

func (t *Tracker) Settings() model.Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Settings.Clone()
}

func (t *Tracker) Activity(id string) (model.Activity, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := indexOf(t.state.Activities, id)
	if i < 0 {
		return model.Activity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.state.Activities[i].Clone(), nil
}

func indexOf(activities []model.Activity, id string) int {
	for i, a := range activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// ============================================================
// Activities
// ============================================================

func validateActivity(a *model.Activity) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidActivity)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidActivity, a.Type)
	}
	if a.Duration < 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidActivity)
	}
	if r := a.Recurrence; r != nil {
		switch r.Frequency {
		case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
		default:
			return fmt.Errorf("%w: unknown frequency %q", ErrInvalidActivity, r.Frequency)
		}
		if r.Interval <= 0 {
			r.Interval = 1
		}
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: day of week %d", ErrInvalidActivity, d)
			}
		}
		if r.Frequency == model.FrequencyWeekly && len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly activity needs at least one day", ErrInvalidActivity)
		}
	}
	return nil
}

// AddActivity stores a new activity. The id and creation time are assigned
// here; the draft's values for them are ignored.
func (t *Tracker) AddActivity(draft model.Activity) (model.Activity, error) {
	a := draft.Clone()
	if err := validateActivity(&a); err != nil {
		return model.Activity{}, err
	}
	a.ID = t.newID()
	a.CreatedAt = t.now()
	a.CompletedDates = []time.Time{}
	a.IsActive = true
	err := t.commit("add activity", func(s *model.Snapshot) error {
		s.Activities = append(s.Activities, a)
		return nil
	})
	if err != nil {
		return model.Activity{}, err
	}
	t.log.WithFields(logrus.Fields{"id": a.ID, "type": a.Type}).Info("activity added")
	return a, nil
}

// UpdateActivity replaces the editable fields of the activity with the same
// id: type, name, description, duration and recurrence.
func (t *Tracker) UpdateActivity(edit model.Activity) (model.Activity, error) {
	e := edit.Clone()
	if err := validateActivity(&e); err != nil {
		return model.Activity{}, err
	}
	var updated model.Activity
	err := t.commit("update activity", func(s *model.Snapshot) error {
		i := indexOf(s.Activities, e.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, e.ID)
		}
		a := &s.Activities[i]
		a.Type = e.Type
		a.Name = e.Name
		a.Description = e.Description
		a.Duration = e.Duration
		a.Recurrence = e.Recurrence
		updated = a.Clone()
		return nil
	})
	return updated, err
}

func (t *Tracker) DeleteActivity(id string) error {
	return t.commit("delete activity", func(s *model.Snapshot) error {
		i := indexOf(s.Activities, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		s.Activities = append(s.Activities[:i], s.Activities[i+1:]...)
		return nil
	})
}

// CompleteActivity records a completion now. An activity can be completed
// once per local calendar day.
func (t *Tracker) CompleteActivity(id string) (model.Activity, error) {
	now := t.now()
	var done model.Activity
	err := t.commit("complete activity", func(s *model.Snapshot) error {
		i := indexOf(s.Activities, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		a := &s.Activities[i]
		if !a.IsActive {
			return fmt.Errorf("%w: %s is archived", ErrInvalidActivity, id)
		}
		if a.CompletedOn(now) {
			return fmt.Errorf("%w: %s", ErrAlreadyCompleted, a.Name)
		}
		a.CompletedDates = append(a.CompletedDates, now)
		done = a.Clone()
		return nil
	})
	return done, err
}

// SetActive archives (false) or restores (true) an activity.
func (t *Tracker) SetActive(id string, active bool) error {
	return t.commit("set active", func(s *model.Snapshot) error {
		i := indexOf(s.Activities, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		s.Activities[i].IsActive = active
		return nil
	})
}

// ============================================================
// Settings and questionnaire
// ============================================================

var reminderPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func validateSettings(s model.Settings) error {
	if s.Theme != model.ThemeLight && s.Theme != model.ThemeDark {
		return fmt.Errorf("%w: theme %q", ErrInvalidSettings, s.Theme)
	}
	if s.DefaultActivityDuration <= 0 {
		return fmt.Errorf("%w: default duration must be positive", ErrInvalidSettings)
	}
	if s.ReminderTime != "" && !reminderPattern.MatchString(s.ReminderTime) {
		return fmt.Errorf("%w: reminder time %q is not HH:MM", ErrInvalidSettings, s.ReminderTime)
	}
	return nil
}

// UpdateSettings applies edit to a copy of the settings and saves it.
func (t *Tracker) UpdateSettings(edit func(*model.Settings)) error {
	return t.commit("update settings", func(s *model.Snapshot) error {
		edit(&s.Settings)
		return validateSettings(s.Settings)
	})
}

// ShouldShowFirstTestPrompt reports whether to invite the user to take the
// questionnaire.
func (t *Tracker) ShouldShowFirstTestPrompt() bool {
	ts := t.Settings().TestSettings
	return !ts.HasCompletedFirstTest && ts.ShowTestReminderPopup
}

// DismissTestPrompt stops the first-test invitation without taking the test.
func (t *Tracker) DismissTestPrompt() error {
	return t.UpdateSettings(func(s *model.Settings) {
		s.TestSettings.ShowTestReminderPopup = false
	})
}

// CompleteTest scores a full set of answers and stores the result at the
// front of the history.
func (t *Tracker) CompleteTest(answers []model.TestAnswer) (model.TestResult, error) {
	if err := fatigue.ValidateAnswers(answers); err != nil {
		return model.TestResult{}, err
	}
	result := fatigue.NewResult(t.newID(), answers, t.now())
	err := t.commit("complete test", func(s *model.Snapshot) error {
		ts := &s.Settings.TestSettings
		ts.HasCompletedFirstTest = true
		ts.ShowTestReminderPopup = false
		ts.TestHistory = append([]model.TestResult{result}, ts.TestHistory...)
		return nil
	})
	if err != nil {
		return model.TestResult{}, err
	}
	t.log.WithFields(logrus.Fields{"id": result.ID, "dominant": len(result.DominantTypes)}).Info("test completed")
	return result, nil
}

// RecommendedDays are the weekdays recommended activities repeat on.
var RecommendedDays = []int{1, 3, 5}

// AddRecommendedActivities adds one weekly activity per suggestion in a
// single commit. Suggestions whose name matches an existing activity are
// skipped.
func (t *Tracker) AddRecommendedActivities(suggestions []fatigue.Suggestion) ([]model.Activity, error) {
	now := t.now()
	var added []model.Activity
	err := t.commit("add recommended", func(s *model.Snapshot) error {
		existing := map[string]bool{}
		for _, a := range s.Activities {
			existing[strings.ToLower(a.Name)] = true
		}
		for _, sg := range suggestions {
			if existing[strings.ToLower(sg.Name)] {
				continue
			}
			existing[strings.ToLower(sg.Name)] = true
			duration := sg.Duration
			if duration <= 0 {
				duration = s.Settings.DefaultActivityDuration
			}
			a := model.Activity{
				ID:          t.newID(),
				Type:        sg.Type,
				Name:        sg.Name,
				Description: sg.Description,
				Duration:    duration,
				Recurrence: &model.Recurrence{
					Frequency:  model.FrequencyWeekly,
					Interval:   1,
					DaysOfWeek: append([]int(nil), RecommendedDays...),
				},
				CreatedAt:      now,
				CompletedDates: []time.Time{},
				IsActive:       true,
			}
			if err := validateActivity(&a); err != nil {
				return err
			}
			s.Activities = append(s.Activities, a)
			added = append(added, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ============================================================
// Backup, export and import
// ============================================================

func (t *Tracker) Export() (string, error) {
	s := t.Snapshot()
	return t.store.ExportData(s.Activities, s.Settings)
}

// Import replaces the whole state with an exported envelope. A malformed
// import or a failed save leaves the state as it was.
func (t *Tracker) Import(data string) error {
	snap, err := t.store.ImportData(data)
	if err != nil {
		return err
	}
	err = t.commit("import", func(s *model.Snapshot) error {
		*s = snap
		return nil
	})
	if err != nil {
		return err
	}
	t.log.WithField("activities", len(snap.Activities)).Info("data imported")
	return nil
}

// ClearAll removes stored data and resets to defaults.
func (t *Tracker) ClearAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.ClearAllData(); err != nil {
		return err
	}
	t.state = model.EmptySnapshot()
	return nil
}

func (t *Tracker) Backup() error {
	s := t.Snapshot()
	return t.store.CreateBackup(s.Activities, s.Settings)
}

// SmartBackup runs the rate-limited evening backup against current state.
// SmartBackup holds the read lock across the gated write so a commit cannot
// back up newer state in between and then be overwritten by this one.
func (t *Tracker) SmartBackup() (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.CreateSmartBackup(t.state.Activities, t.state.Settings)
}

func (t *Tracker) StorageInfo() (storage.Info, error) {
	return t.store.StorageInfo()
}

func (t *Tracker) BackupReminderDue() bool {
	t.mu.RLock()
	n := len(t.state.Activities)
	t.mu.RUnlock()
	return t.store.BackupReminderDue(n)
}

// LastBackup is when the stored backup copy was written.
func (t *Tracker) LastBackup() (time.Time, bool) { return t.store.BackupTime() }

func (t *Tracker) DismissBackupReminder() error {
	return t.store.DismissBackupReminder()
}

// ============================================================
// Queries
// ============================================================

func (t *Tracker) Stats() model.Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.ComputeStats(t.state.Activities, t.now())
}

// DueToday lists active activities scheduled today.
func (t *Tracker) DueToday() []model.Activity {
	return model.DueToday(t.Activities(), t.now())
}

func (t *Tracker) Now() time.Time { return t.now() }
