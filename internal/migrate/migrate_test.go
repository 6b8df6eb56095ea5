package migrate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/resttrackr/internal/codec"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/model"
)

const primaryKey = "rest-tracker-data"

var fixedNow = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

// envelopeSaver writes what it is given as a current envelope.
type envelopeSaver struct {
	store kv.Store
	calls int
	err   error
}

func (s *envelopeSaver) SaveData(activities []model.Activity, settings model.Settings) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	snap := model.Snapshot{Activities: activities, Settings: settings}
	data, err := codec.Encode(codec.NewEnvelope(snap, CurrentVersion, fixedNow))
	if err != nil {
		return err
	}
	return s.store.Set(primaryKey, data)
}

func newEngine(store kv.Store) (*Engine, *envelopeSaver) {
	saver := &envelopeSaver{store: store}
	ids := 0
	return NewEngine(store, saver, Config{
		PrimaryKey: primaryKey,
		Now:        func() time.Time { return fixedNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("gen-%d", ids)
		},
	}), saver
}

func stored(t *testing.T, store kv.Store) codec.Envelope {
	t.Helper()
	raw, ok, err := store.Get(primaryKey)
	require.NoError(t, err)
	require.True(t, ok)
	env, err := codec.Decode(raw)
	require.NoError(t, err)
	return env
}

// ============================================================
// Scoring and selection
// ============================================================

func TestDataScore(t *testing.T) {
	c := Candidate{Snapshot: model.Snapshot{Activities: []model.Activity{
		{CompletedDates: make([]time.Time, 3)},
		{},
	}}, HasSettings: true}
	assert.Equal(t, 10*2+5*3+1, DataScore(c))
}

func TestSelectsHighestScore(t *testing.T) {
	store := kv.NewMemory()
	// two activities, no completions: 20 (+1 settings)
	require.NoError(t, store.Set(KeyJoint, `{"activities":[{"id":"a","name":"A","type":"mental"},{"id":"b","name":"B","type":"mental"}]}`))
	// one activity, five completions: 35
	require.NoError(t, store.Set(KeyActivitiesOnly, `[{"id":"c","name":"C","type":"outdoor","completedDates":[
		"2025-01-01T10:00:00Z","2025-01-02T10:00:00Z","2025-01-03T10:00:00Z","2025-01-04T10:00:00Z","2025-01-05T10:00:00Z"]}]`))

	e, saver := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	require.True(t, res.Migrated)
	require.NotNil(t, res.Winner)
	assert.Equal(t, KeyActivitiesOnly, res.Winner.Key)
	assert.Equal(t, 35, res.Winner.Score)
	assert.Equal(t, 1, saver.calls)

	env := stored(t, store)
	require.Len(t, env.Activities, 1)
	assert.Equal(t, "c", env.Activities[0].ID)
	assert.Len(t, env.Activities[0].CompletedDates, 5)
}

func TestTieGoesToEarlierSource(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint, `{"activities":[{"id":"joint","name":"J","type":"mental"}]}`))
	require.NoError(t, store.Set(KeyJointBackup, `{"activities":[{"id":"backup","name":"B","type":"mental"}]}`))

	e, _ := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, KeyJoint, res.Winner.Key)
}

// ============================================================
// Cleanup and idempotence
// ============================================================

func TestRunRemovesLegacyKeysAndIsIdempotent(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint, `{"activities":[{"id":"a","name":"A","type":"mental"}],"settings":{"theme":"dark"}}`))
	require.NoError(t, store.Set(KeySettingsOnly, `{"theme":"light"}`))
	require.NoError(t, store.Set(KeyLastBackupTime, "2025-01-01T00:00:00Z"))
	require.NoError(t, store.Set("unrelated", "keep"))

	e, saver := newEngine(store)
	has, err := e.HasLegacyData()
	require.NoError(t, err)
	assert.True(t, has)

	res, err := e.Run()
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.ElementsMatch(t, []string{KeyJoint, KeySettingsOnly, KeyLastBackupTime}, res.Removed)

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{primaryKey, "unrelated"}, keys)
	assert.Equal(t, model.ThemeDark, stored(t, store).Settings.Theme)

	has, err = e.HasLegacyData()
	require.NoError(t, err)
	assert.False(t, has)

	second, err := e.Run()
	require.NoError(t, err)
	assert.False(t, second.Migrated)
	assert.Empty(t, second.Candidates)
	assert.Equal(t, 1, saver.calls)
}

func TestNoLegacyKeysIsNoop(t *testing.T) {
	store := kv.NewMemory()
	e, saver := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Zero(t, saver.calls)
}

func TestUnreadableKeysAreSkipped(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint, `{broken`))
	require.NoError(t, store.Set(KeyJointBackup, `{"activities":[{"name":"Survivor","type":"sensory"}]}`))

	e, _ := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Contains(t, res.Skipped, KeyJoint)
	assert.Equal(t, KeyJointBackup, res.Winner.Key)
	assert.Contains(t, res.Removed, KeyJoint)
}

func TestAllUnreadableLeavesKeys(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint, `nope`))

	e, saver := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Zero(t, saver.calls)
	_, ok, _ := store.Get(KeyJoint)
	assert.True(t, ok)
}

func TestSaveFailureKeepsLegacyKeys(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint, `{"activities":[{"id":"a","name":"A","type":"mental"}]}`))

	e, saver := newEngine(store)
	saver.err = kv.ErrQuotaExceeded
	_, err := e.Run()
	require.ErrorIs(t, err, kv.ErrQuotaExceeded)
	_, ok, _ := store.Get(KeyJoint)
	assert.True(t, ok)
}

func TestCurrentDataCompetes(t *testing.T) {
	store := kv.NewMemory()
	saver := &envelopeSaver{store: store}
	current := model.Snapshot{
		Activities: []model.Activity{
			{ID: "cur1", Name: "One", Type: model.TypeMental, CompletedDates: []time.Time{fixedNow}, IsActive: true},
			{ID: "cur2", Name: "Two", Type: model.TypeMental, IsActive: true},
		},
		Settings: model.DefaultSettings(),
	}
	require.NoError(t, saver.SaveData(current.Activities, current.Settings))
	require.NoError(t, store.Set(KeyJoint, `{"activities":[{"id":"old","name":"Old","type":"mental"}]}`))

	e, _ := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, primaryKey, res.Winner.Key)
	assert.NotContains(t, res.Removed, primaryKey)

	env := stored(t, store)
	require.Len(t, env.Activities, 2)
	assert.Equal(t, "cur1", env.Activities[0].ID)
	_, ok, _ := store.Get(KeyJoint)
	assert.False(t, ok)
}

func TestNamespacedKeys(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set("ns:"+KeyJoint, `{"activities":[{"id":"a","name":"A","type":"mental"}]}`))
	require.NoError(t, store.Set(KeyJoint, `{"activities":[]}`))

	e := NewEngine(store, &envelopeSaver{store: store}, Config{Namespace: "ns:"})
	res, err := e.Run()
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	_, ok, _ := store.Get(KeyJoint)
	assert.True(t, ok, "keys outside the namespace are untouched")
}

func TestDefaultIDsAreDistinct(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyJoint,
		`{"activities":[{"title":"Nap"},{"title":"Walk"},{"title":"Read"}],"settings":{"theme":"light"}}`))

	e := NewEngine(store, &envelopeSaver{store: store}, Config{PrimaryKey: primaryKey})
	res, err := e.Run()
	require.NoError(t, err)
	require.True(t, res.Migrated)

	env := stored(t, store)
	require.Len(t, env.Activities, 3)
	seen := map[string]bool{}
	for _, a := range env.Activities {
		require.NotEmpty(t, a.ID)
		assert.False(t, seen[a.ID], "id %s assigned twice", a.ID)
		seen[a.ID] = true
	}
}

func TestPrimaryUpgradedToConfiguredVersion(t *testing.T) {
	const primary = `{"version":"0.9.0","activities":[{"id":"p","title":"Nap","type":"mental"}],"settings":{"theme":"light","notificationsEnabled":true}}`
	legacy := `{"theme":"dark"}`

	run := func(version string) Result {
		store := kv.NewMemory()
		require.NoError(t, store.Set(primaryKey, primary))
		require.NoError(t, store.Set(KeySettingsOnly, legacy))
		e := NewEngine(store, &envelopeSaver{store: store}, Config{PrimaryKey: primaryKey, Version: version})
		res, err := e.Run()
		require.NoError(t, err)
		require.NotNil(t, res.Winner)
		require.Equal(t, primaryKey, res.Winner.Key)
		return res
	}

	// 0.9.0 is unknown to the default target, so every step runs.
	res := run("")
	assert.Equal(t, "Nap", res.Winner.Snapshot.Activities[0].Name)

	// Already at the configured version: decoded as stored.
	res = run("0.9.0")
	assert.Empty(t, res.Winner.Snapshot.Activities[0].Name)
}

// ============================================================
// Normalization
// ============================================================

func TestNormalizeDefaults(t *testing.T) {
	n := Normalizer{Now: fixedNow, NewID: func() string { return "generated" }}
	a := n.Activity(map[string]any{
		"title":          "Old title",
		"completedDates": []any{"2025-03-01T08:00:00.000Z", 1735689600000.0, "junk", nil},
	})
	assert.Equal(t, "generated", a.ID)
	assert.Equal(t, "Old title", a.Name)
	assert.Equal(t, model.TypePassive, a.Type)
	assert.Equal(t, 30, a.Duration)
	assert.Equal(t, fixedNow, a.CreatedAt)
	assert.True(t, a.IsActive)
	require.Len(t, a.CompletedDates, 2)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), a.CompletedDates[0])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), a.CompletedDates[1])
}

func TestNormalizeKeepsKnownFields(t *testing.T) {
	n := Normalizer{Now: fixedNow, NewID: func() string { return "x" }}
	a := n.Activity(map[string]any{
		"id":          1234.0,
		"name":        "Bath",
		"title":       "ignored",
		"type":        "sensory",
		"description": "warm",
		"duration":    45.0,
		"createdAt":   "2025-02-02T00:00:00Z",
		"isActive":    false,
		"recurrence": map[string]any{
			"frequency":  "weekly",
			"interval":   2.0,
			"daysOfWeek": []any{0.0, 6.0, 9.0},
			"endDate":    "2025-12-31",
		},
	})
	assert.Equal(t, "1234", a.ID)
	assert.Equal(t, "Bath", a.Name)
	assert.Equal(t, model.TypeSensory, a.Type)
	assert.Equal(t, "warm", a.Description)
	assert.Equal(t, 45, a.Duration)
	assert.False(t, a.IsActive)
	require.NotNil(t, a.Recurrence)
	assert.Equal(t, model.FrequencyWeekly, a.Recurrence.Frequency)
	assert.Equal(t, 2, a.Recurrence.Interval)
	assert.Equal(t, []int{0, 6}, a.Recurrence.DaysOfWeek)
	require.NotNil(t, a.Recurrence.EndDate)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), *a.Recurrence.EndDate)
}

func TestActivitiesOnlyUsesSettingsKey(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeyActivitiesOnly, `[{"id":"a","name":"A","type":"mental"}]`))
	require.NoError(t, store.Set(KeySettingsOnly, `{"theme":"dark","notificationsEnabled":false}`))

	e, _ := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, KeyActivitiesOnly, res.Winner.Key)
	assert.Equal(t, 11, res.Winner.Score)
	s := stored(t, store).Settings
	assert.Equal(t, model.ThemeDark, s.Theme)
	assert.False(t, s.NotificationsEnabled)
}

func TestSettingsOnlyCandidate(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(KeySettingsOnly, `{"theme":"dark"}`))

	e, _ := newEngine(store)
	res, err := e.Run()
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, 1, res.Winner.Score)
	assert.Equal(t, model.ThemeDark, stored(t, store).Settings.Theme)
}

// ============================================================
// Schema steps
// ============================================================

func TestUpgradeSchemaIdempotent(t *testing.T) {
	doc, err := codec.Parse(`{"version":"1.0.0","activities":[],"settings":{"theme":"dark","notificationsEnabled":true}}`)
	require.NoError(t, err)
	env, migrated, err := UpgradeSchema(doc, CurrentVersion)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, CurrentVersion, env.Version)

	out, err := codec.Encode(env)
	require.NoError(t, err)
	doc2, err := codec.Parse(out)
	require.NoError(t, err)
	env2, migrated, err := UpgradeSchema(doc2, CurrentVersion)
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, env, env2)
}

func TestUpgradeAddsTestSettings(t *testing.T) {
	doc, err := codec.Parse(`{"version":"1.0.0","settings":{"theme":"light","notificationsEnabled":true}}`)
	require.NoError(t, err)
	_, _, err = UpgradeSchema(doc, CurrentVersion)
	require.NoError(t, err)
	ts, ok := doc.Settings()["testSettings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ts["showTestReminderPopup"])
	assert.Equal(t, CurrentVersion, doc.Version())
}
