package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/resttrackr/internal/model"
)

type fakeSource struct {
	now      time.Time
	settings model.Settings
	due      []model.Activity
	backups  int
	wrote    bool
	err      error
}

func (f *fakeSource) SmartBackup() (bool, error) {
	f.backups++
	return f.wrote, f.err
}
func (f *fakeSource) Settings() model.Settings   { return f.settings }
func (f *fakeSource) DueToday() []model.Activity { return f.due }
func (f *fakeSource) Now() time.Time             { return f.now }

func TestReminderFiresOncePerDay(t *testing.T) {
	at := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{now: at, settings: model.DefaultSettings(), due: []model.Activity{
		{Name: "done", CompletedDates: []time.Time{at.Add(-time.Hour)}},
		{Name: "pending"},
	}}
	log, _ := test.NewNullLogger()
	var got []Reminder
	s := New(src, log, func(r Reminder) { got = append(got, r) })

	assert.True(t, s.checkReminder())
	assert.False(t, s.checkReminder())
	require.Len(t, got, 1)
	require.Len(t, got[0].Pending, 1)
	assert.Equal(t, "pending", got[0].Pending[0].Name)

	src.now = at.Add(24 * time.Hour)
	assert.True(t, s.checkReminder())
}

func TestReminderSkipped(t *testing.T) {
	log, _ := test.NewNullLogger()
	src := &fakeSource{now: time.Date(2026, 3, 11, 9, 1, 0, 0, time.UTC), settings: model.DefaultSettings()}
	s := New(src, log, nil)
	assert.False(t, s.checkReminder(), "wrong minute")

	src.now = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	src.settings.NotificationsEnabled = false
	assert.False(t, s.checkReminder(), "notifications off")

	src.settings.NotificationsEnabled = true
	src.settings.ReminderTime = ""
	assert.False(t, s.checkReminder(), "no reminder time")
}

func TestRunBackupLogsFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	src := &fakeSource{err: errors.New("disk full")}
	s := New(src, log, nil)
	s.runBackup()
	assert.Equal(t, 1, src.backups)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestAddJobs(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(&fakeSource{}, log, nil)
	require.NoError(t, s.AddBackupJob("*/15 * * * *"))
	require.NoError(t, s.AddReminderJob())
	assert.Error(t, s.AddBackupJob("not a spec"))
	assert.Len(t, s.cron.Entries(), 2)
	s.Start()
	s.Stop()
}
