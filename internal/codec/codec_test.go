package codec

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sadopc/resttrackr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() model.Snapshot {
	created := time.Date(2025, 11, 3, 8, 15, 30, 123456789, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	settings := model.DefaultSettings()
	settings.Theme = model.ThemeDark
	settings.ReminderTime = "21:30"
	settings.TestSettings.HasCompletedFirstTest = true
	settings.TestSettings.ShowTestReminderPopup = false
	settings.TestSettings.TestHistory = []model.TestResult{{
		ID:            "result-1",
		CompletedAt:   time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC),
		Answers:       []model.TestAnswer{{QuestionID: 1, Score: 4}, {QuestionID: 2, Score: 5}},
		FatigueScores: model.FatigueScores{Physical: 12, Anxiety: 3},
		DominantTypes: []model.FatigueType{{Type: model.DimPhysical, Name: "Physical", Score: 12, RestActivities: []string{"Nap"}}},
	}}
	return model.Snapshot{
		Activities: []model.Activity{
			{
				ID:             "a1",
				Type:           model.TypeOutdoor,
				Name:           "Evening walk",
				Description:    "Around the park",
				Duration:       40,
				Recurrence:     &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1, 3, 5}, EndDate: &end},
				CreatedAt:      created,
				CompletedDates: []time.Time{created.Add(24 * time.Hour), created.Add(48 * time.Hour)},
				IsActive:       true,
			},
			{
				ID:             "a2",
				Type:           model.TypePassive,
				Name:           "Nap",
				CreatedAt:      created,
				CompletedDates: []time.Time{},
				IsActive:       false,
			},
		},
		Settings: settings,
	}
}

// ============================================================
// Round-trip
// ============================================================

func TestEnvelopeRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	now := time.Date(2026, 3, 1, 22, 5, 0, 0, time.UTC)
	s, err := Encode(NewEnvelope(snap, "1.1.0", now))
	require.NoError(t, err)

	env, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", env.Version)
	assert.True(t, now.Equal(env.LastBackup))
	assert.Equal(t, snap, env.Snapshot())
}

func TestActivitiesRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	data, err := MarshalActivities(snap.Activities)
	require.NoError(t, err)
	got, err := UnmarshalActivities(data)
	require.NoError(t, err)
	assert.Equal(t, snap.Activities, got)
}

func TestSettingsRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	data, err := MarshalSettings(snap.Settings)
	require.NoError(t, err)
	got, err := UnmarshalSettings(data)
	require.NoError(t, err)
	assert.Equal(t, snap.Settings, got)
}

func TestTimestampsAreISOStrings(t *testing.T) {
	data, err := MarshalActivities(sampleSnapshot().Activities[:1])
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2025-11-03T08:15:30.123456789Z", raw[0]["createdAt"])
	rec := raw[0]["recurrence"].(map[string]any)
	assert.Equal(t, "2026-06-01T00:00:00Z", rec["endDate"])
}

// ============================================================
// Tolerant decoding
// ============================================================

func TestDecodeFillsDefaults(t *testing.T) {
	env, err := Decode(`{"activities":[{"id":"x","name":"Read","type":"mental","createdAt":"2025-01-01T00:00:00.000Z"}]}`)
	require.NoError(t, err)
	require.Len(t, env.Activities, 1)
	a := env.Activities[0]
	assert.True(t, a.IsActive)
	assert.NotNil(t, a.CompletedDates)
	assert.Empty(t, a.CompletedDates)
	assert.Nil(t, a.Recurrence)
	assert.Equal(t, model.DefaultSettings(), env.Settings)
	assert.Equal(t, "", env.Version)
}

func TestDecodeSettingsOverDefaults(t *testing.T) {
	s, err := UnmarshalSettings([]byte(`{"theme":"dark","notificationsEnabled":false}`))
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, s.Theme)
	assert.False(t, s.NotificationsEnabled)
	assert.Equal(t, 30, s.DefaultActivityDuration)
	assert.Equal(t, "09:00", s.ReminderTime)
	assert.True(t, s.TestSettings.ShowTestReminderPopup)
	assert.NotNil(t, s.TestSettings.TestHistory)
}

func TestDecodeNormalizesInvalidSettings(t *testing.T) {
	s, err := UnmarshalSettings([]byte(`{"theme":"neon","defaultActivityDuration":-5,"testSettings":null}`))
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, s.Theme)
	assert.Equal(t, 30, s.DefaultActivityDuration)
	assert.Equal(t, model.DefaultSettings().TestSettings, s.TestSettings)
}

func TestTimestampAcceptsMillisAndDates(t *testing.T) {
	var ts []Timestamp
	require.NoError(t, json.Unmarshal([]byte(`[1700000000000, "2024-02-29", "2024-02-29T10:00:00+03:00", null]`), &ts))
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), ts[0].Time)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), ts[1].Time)
	assert.Equal(t, time.Date(2024, 2, 29, 7, 0, 0, 0, time.UTC), ts[2].Time)
	assert.True(t, ts[3].IsZero())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ts))
}

// ============================================================
// Shape validation
// ============================================================

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse(`{"activities": [`)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseRejectsWrongShape(t *testing.T) {
	cases := map[string]string{
		"array top level":     `[]`,
		"string top level":    `"hello"`,
		"activities object":   `{"activities": {}}`,
		"activity not object": `{"activities": [1]}`,
		"settings array":      `{"settings": []}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(in)
			assert.True(t, errors.Is(err, ErrShape), "got %v", err)
		})
	}
}

func TestDecodeRejectsWrongFieldTypes(t *testing.T) {
	_, err := Decode(`{"activities":[{"id":"x","name":"n","type":"mental","duration":"long"}]}`)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestDocumentAccessors(t *testing.T) {
	doc, err := Parse(`{"version":"1.0.0","activities":[{"id":"a"}],"settings":{"theme":"dark"}}`)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Version())
	assert.Len(t, doc.Activities(), 1)
	assert.Equal(t, "dark", doc.Settings()["theme"])

	empty, err := Parse(`{}`)
	require.NoError(t, err)
	assert.Empty(t, empty.Version())
	assert.Empty(t, empty.Activities())
	assert.Nil(t, empty.Settings())
}
