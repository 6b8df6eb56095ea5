package tracker

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/resttrackr/internal/fatigue"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/model"
	"github.com/sadopc/resttrackr/internal/storage"
)

// Wednesday afternoon.
var start = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

type fixture struct {
	tr    *Tracker
	mgr   *storage.Manager
	store *kv.Memory
	now   *time.Time
}

func newFixture(t *testing.T, opts ...kv.Option) *fixture {
	t.Helper()
	now := start
	clock := func() time.Time { return now }
	log, _ := test.NewNullLogger()
	store := kv.NewMemory(opts...)
	cfg := storage.DefaultConfig()
	cfg.Now = clock
	cfg.Logger = log
	mgr := storage.New(store, cfg)
	ids := 0
	tr := New(mgr, Config{
		Now: clock,
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		Logger: log,
	})
	return &fixture{tr: tr, mgr: mgr, store: store, now: &now}
}

func draft(name string) model.Activity {
	return model.Activity{Name: name, Type: model.TypeMental, Duration: 15,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyDaily, Interval: 1}}
}

func fullAnswers(score int) []model.TestAnswer {
	var out []model.TestAnswer
	for _, q := range fatigue.Questions() {
		out = append(out, model.TestAnswer{QuestionID: q.ID, Score: score})
	}
	return out
}

// ============================================================
// Activities
// ============================================================

func TestAddActivityPersists(t *testing.T) {
	f := newFixture(t)
	a, err := f.tr.AddActivity(model.Activity{ID: "ignored", Name: "  Read  ", Type: model.TypeMental, IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, "Read", a.Name)
	assert.Equal(t, start, a.CreatedAt)
	assert.True(t, a.IsActive)
	assert.NotNil(t, a.CompletedDates)

	res := f.mgr.LoadData()
	require.Equal(t, storage.StatusLoaded, res.Status)
	require.Len(t, res.Data.Activities, 1)
	assert.Equal(t, a, res.Data.Activities[0])
}

func TestAddActivityValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]model.Activity{
		"empty name":     {Name: " ", Type: model.TypeMental},
		"bad type":       {Name: "x", Type: "gaming"},
		"negative dur":   {Name: "x", Type: model.TypeMental, Duration: -1},
		"bad frequency":  {Name: "x", Type: model.TypeMental, Recurrence: &model.Recurrence{Frequency: "yearly"}},
		"bad weekday":    {Name: "x", Type: model.TypeMental, Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, DaysOfWeek: []int{7}}},
		"weekly no days": {Name: "x", Type: model.TypeMental, Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly}},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tr.AddActivity(a)
			assert.True(t, errors.Is(err, ErrInvalidActivity), "got %v", err)
		})
	}
	assert.Empty(t, f.tr.Activities())
}

func TestUpdateActivityKeepsIdentityAndHistory(t *testing.T) {
	f := newFixture(t)
	a, err := f.tr.AddActivity(draft("Read"))
	require.NoError(t, err)
	_, err = f.tr.CompleteActivity(a.ID)
	require.NoError(t, err)

	edit := a
	edit.Name = "Read fiction"
	edit.Type = model.TypeCreative
	edit.CreatedAt = time.Time{}
	edit.CompletedDates = nil
	edit.IsActive = false
	got, err := f.tr.UpdateActivity(edit)
	require.NoError(t, err)
	assert.Equal(t, "Read fiction", got.Name)
	assert.Equal(t, model.TypeCreative, got.Type)
	assert.Equal(t, start, got.CreatedAt)
	assert.Len(t, got.CompletedDates, 1)
	assert.True(t, got.IsActive)

	_, err = f.tr.UpdateActivity(model.Activity{ID: "nope", Name: "x", Type: model.TypeMental})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteActivity(t *testing.T) {
	f := newFixture(t)
	a, _ := f.tr.AddActivity(draft("A"))
	b, _ := f.tr.AddActivity(draft("B"))
	require.NoError(t, f.tr.DeleteActivity(a.ID))
	acts := f.tr.Activities()
	require.Len(t, acts, 1)
	assert.Equal(t, b.ID, acts[0].ID)
	assert.True(t, errors.Is(f.tr.DeleteActivity(a.ID), ErrNotFound))
}

func TestCompleteOncePerDay(t *testing.T) {
	f := newFixture(t)
	a, _ := f.tr.AddActivity(draft("Walk"))

	_, err := f.tr.CompleteActivity(a.ID)
	require.NoError(t, err)
	*f.now = start.Add(2 * time.Hour)
	_, err = f.tr.CompleteActivity(a.ID)
	assert.True(t, errors.Is(err, ErrAlreadyCompleted))

	*f.now = start.Add(24 * time.Hour)
	done, err := f.tr.CompleteActivity(a.ID)
	require.NoError(t, err)
	assert.Len(t, done.CompletedDates, 2)
}

func TestArchiveAndRestore(t *testing.T) {
	f := newFixture(t)
	a, _ := f.tr.AddActivity(draft("Walk"))
	require.NoError(t, f.tr.SetActive(a.ID, false))

	_, err := f.tr.CompleteActivity(a.ID)
	assert.True(t, errors.Is(err, ErrInvalidActivity))
	assert.Empty(t, f.tr.DueToday())

	require.NoError(t, f.tr.SetActive(a.ID, true))
	assert.Len(t, f.tr.DueToday(), 1)
}

// ============================================================
// Atomic commits
// ============================================================

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, kv.WithQuota(1200))
	a, err := f.tr.AddActivity(draft("Small"))
	require.NoError(t, err)
	before := f.tr.Snapshot()

	big := draft(strings.Repeat("x", 2000))
	_, err = f.tr.AddActivity(big)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrPersistenceWriteFailed))
	assert.True(t, errors.Is(err, kv.ErrQuotaExceeded))
	assert.Equal(t, before, f.tr.Snapshot())

	got, err := f.tr.Activity(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Small", got.Name)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	a, _ := f.tr.AddActivity(draft("Walk"))
	snap := f.tr.Snapshot()
	snap.Activities[0].Name = "mutated"
	got, _ := f.tr.Activity(a.ID)
	assert.Equal(t, "Walk", got.Name)
}

func TestCommitRunsSmartBackup(t *testing.T) {
	f := newFixture(t)
	*f.now = time.Date(2026, 3, 11, 22, 30, 0, 0, time.UTC)
	_, err := f.tr.AddActivity(draft("Late"))
	require.NoError(t, err)
	_, ok := f.mgr.LastBackupTime()
	assert.True(t, ok)
	_, found, _ := f.store.Get(storage.DefaultBackupKey)
	assert.True(t, found)
}

// overlapStore stalls the first smart backup and records whether another
// smart backup ran while it was stalled.
type overlapStore struct {
	*storage.Manager
	inFlight atomic.Int32
	overlap  atomic.Bool
	stalled  atomic.Bool
	started  chan struct{}
}

func (s *overlapStore) CreateSmartBackup(activities []model.Activity, settings model.Settings) (bool, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	if s.stalled.CompareAndSwap(false, true) {
		close(s.started)
		time.Sleep(50 * time.Millisecond)
	}
	return s.Manager.CreateSmartBackup(activities, settings)
}

func TestSmartBackupSerializedWithCommit(t *testing.T) {
	f := newFixture(t)
	*f.now = time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC)
	log, _ := test.NewNullLogger()
	clock := func() time.Time { return *f.now }
	ps := &overlapStore{Manager: f.mgr, started: make(chan struct{})}
	tr := New(ps, Config{Now: clock, Logger: log})

	done := make(chan error, 1)
	go func() {
		_, err := tr.SmartBackup()
		done <- err
	}()
	<-ps.started
	_, err := tr.AddActivity(draft("Late"))
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.False(t, ps.overlap.Load(), "a commit's smart backup ran during the scheduled one")
	assert.Len(t, tr.Activities(), 1)
}

// ============================================================
// Settings and questionnaire
// ============================================================

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tr.UpdateSettings(func(s *model.Settings) {
		s.Theme = model.ThemeDark
		s.ReminderTime = "20:15"
	}))
	assert.Equal(t, model.ThemeDark, f.tr.Settings().Theme)

	err := f.tr.UpdateSettings(func(s *model.Settings) { s.ReminderTime = "25:00" })
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	err = f.tr.UpdateSettings(func(s *model.Settings) { s.DefaultActivityDuration = 0 })
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Equal(t, "20:15", f.tr.Settings().ReminderTime)
}

func TestCompleteTest(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.tr.ShouldShowFirstTestPrompt())

	first, err := f.tr.CompleteTest(fullAnswers(1))
	require.NoError(t, err)
	*f.now = start.Add(time.Hour)
	second, err := f.tr.CompleteTest(fullAnswers(3))
	require.NoError(t, err)

	ts := f.tr.Settings().TestSettings
	assert.True(t, ts.HasCompletedFirstTest)
	assert.False(t, ts.ShowTestReminderPopup)
	require.Len(t, ts.TestHistory, 2)
	assert.Equal(t, second.ID, ts.TestHistory[0].ID)
	assert.Equal(t, first.ID, ts.TestHistory[1].ID)
	assert.Empty(t, first.DominantTypes)
	assert.Len(t, second.DominantTypes, 3)
	assert.False(t, f.tr.ShouldShowFirstTestPrompt())

	res := f.mgr.LoadData()
	assert.Equal(t, ts, res.Data.Settings.TestSettings)
}

func TestCompleteTestRejectsPartialAnswers(t *testing.T) {
	f := newFixture(t)
	_, err := f.tr.CompleteTest(fullAnswers(2)[:10])
	assert.True(t, errors.Is(err, fatigue.ErrIncomplete))
	assert.Empty(t, f.tr.Settings().TestSettings.TestHistory)
}

func TestDismissTestPrompt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tr.DismissTestPrompt())
	assert.False(t, f.tr.ShouldShowFirstTestPrompt())
	assert.False(t, f.tr.Settings().TestSettings.HasCompletedFirstTest)
}

func TestAddRecommendedActivities(t *testing.T) {
	f := newFixture(t)
	_, err := f.tr.AddActivity(model.Activity{Name: "daytime NAP", Type: model.TypePassive})
	require.NoError(t, err)

	result := fatigue.NewResult("r", fullAnswers(0), start)
	result.DominantTypes = fatigue.DominantTypes(model.FatigueScores{Physical: 20}, fatigue.MaxDominant)
	added, err := f.tr.AddRecommendedActivities(fatigue.Recommendations(result))
	require.NoError(t, err)
	require.Len(t, added, 2, "the nap already exists")
	for _, a := range added {
		require.NotNil(t, a.Recurrence)
		assert.Equal(t, model.FrequencyWeekly, a.Recurrence.Frequency)
		assert.Equal(t, []int{1, 3, 5}, a.Recurrence.DaysOfWeek)
		assert.True(t, a.IsActive)
	}
	assert.Len(t, f.tr.Activities(), 3)
}

// ============================================================
// Import / export / clear
// ============================================================

func TestExportImport(t *testing.T) {
	src := newFixture(t)
	_, err := src.tr.AddActivity(draft("Walk"))
	require.NoError(t, err)
	_, err = src.tr.CompleteActivity("id-1")
	require.NoError(t, err)
	out, err := src.tr.Export()
	require.NoError(t, err)

	dst := newFixture(t)
	require.NoError(t, dst.tr.Import(out))
	assert.Equal(t, src.tr.Snapshot(), dst.tr.Snapshot())
	assert.Equal(t, storage.StatusLoaded, dst.mgr.LoadData().Status)
}

func TestImportMalformedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	_, err := f.tr.AddActivity(draft("Keep me"))
	require.NoError(t, err)
	before := f.tr.Snapshot()

	err = f.tr.Import(`{"activities":[{"name":"no id","type":"mental"}]}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrInvalidImportFormat))
	assert.Equal(t, before, f.tr.Snapshot())
	assert.Equal(t, before, f.mgr.LoadData().Data)
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tr.AddActivity(draft("Walk"))
	require.NoError(t, f.tr.Backup())
	require.NoError(t, f.tr.ClearAll())
	assert.Equal(t, model.EmptySnapshot(), f.tr.Snapshot())
	assert.Equal(t, storage.StatusNoData, f.mgr.LoadData().Status)
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	snap := model.EmptySnapshot()
	snap.Activities = append(snap.Activities, model.Activity{ID: "x", Name: "Loaded", Type: model.TypeSocial, IsActive: true})
	f.tr.Load(storage.LoadResult{Status: storage.StatusLoaded, Data: snap})
	got, err := f.tr.Activity("x")
	require.NoError(t, err)
	assert.Equal(t, "Loaded", got.Name)
}

func TestBackupReminder(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.tr.AddActivity(draft(fmt.Sprintf("a%d", i)))
		require.NoError(t, err)
	}
	assert.True(t, f.tr.BackupReminderDue())
	require.NoError(t, f.tr.Backup())
	assert.False(t, f.tr.BackupReminderDue())
}

// ============================================================
// Queries
// ============================================================

func TestStatsAndDueToday(t *testing.T) {
	f := newFixture(t)
	daily, _ := f.tr.AddActivity(draft("Daily"))
	_, _ = f.tr.AddActivity(model.Activity{Name: "Thu only", Type: model.TypeOutdoor,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, DaysOfWeek: []int{4}}})
	_, err := f.tr.CompleteActivity(daily.ID)
	require.NoError(t, err)

	due := f.tr.DueToday()
	require.Len(t, due, 1)
	assert.Equal(t, "Daily", due[0].Name)
	st := f.tr.Stats()
	assert.Equal(t, 1, st.Today)
	assert.Equal(t, 2, st.Active)
}

func TestListFilterAndSort(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tr.AddActivity(model.Activity{Name: "Banana bread", Type: model.TypeCreative})
	*f.now = start.Add(time.Minute)
	b, _ := f.tr.AddActivity(model.Activity{Name: "apple walk", Type: model.TypeOutdoor, Description: "orchard"})
	*f.now = start.Add(2 * time.Minute)
	c, _ := f.tr.AddActivity(model.Activity{Name: "Cello", Type: model.TypeCreative})
	require.NoError(t, f.tr.SetActive(c.ID, false))
	_, err := f.tr.CompleteActivity(b.ID)
	require.NoError(t, err)

	names := func(as []model.Activity) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.Name)
		}
		return out
	}
	assert.Equal(t, []string{"apple walk", "Banana bread"}, names(f.tr.List(Filter{})))
	assert.Equal(t, []string{"apple walk", "Banana bread", "Cello"}, names(f.tr.List(Filter{Status: StatusAll, Sort: SortName})))
	assert.Equal(t, []string{"Cello"}, names(f.tr.List(Filter{Status: StatusArchived})))
	assert.Equal(t, []string{"Banana bread"}, names(f.tr.List(Filter{Types: []model.ActivityType{model.TypeCreative}})))
	assert.Equal(t, []string{"apple walk"}, names(f.tr.List(Filter{Query: "ORCHARD"})))
	assert.Equal(t, "apple walk", f.tr.List(Filter{Status: StatusAll, Sort: SortCompleted})[0].Name)
}
