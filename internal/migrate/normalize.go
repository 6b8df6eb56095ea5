package migrate

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/sadopc/resttrackr/internal/codec"
	"github.com/sadopc/resttrackr/internal/model"
)

// Normalizer turns loosely shaped legacy records into current model types.
type Normalizer struct {
	Now   time.Time
	NewID func() string
}

func (n Normalizer) Activities(raw any) []model.Activity {
	list, ok := raw.([]any)
	if !ok {
		return []model.Activity{}
	}
	out := make([]model.Activity, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, n.Activity(m))
	}
	return out
}

func (n Normalizer) Activity(m map[string]any) model.Activity {
	a := model.Activity{
		ID:             n.id(m["id"]),
		Name:           firstString(m["name"], m["title"]),
		Type:           model.ActivityType(firstString(m["type"])),
		Description:    firstString(m["description"]),
		Duration:       model.DefaultActivityDuration,
		CreatedAt:      n.Now,
		CompletedDates: []time.Time{},
		IsActive:       m["isActive"] != false,
	}
	if a.Name == "" {
		a.Name = model.DefaultActivityName
	}
	if !a.Type.Valid() {
		a.Type = model.TypePassive
	}
	if d, ok := m["duration"].(float64); ok && d >= 1 {
		a.Duration = int(math.Round(d))
	}
	if t, ok := parseLoose(m["createdAt"]); ok {
		a.CreatedAt = t
	}
	if dates, ok := m["completedDates"].([]any); ok {
		for _, d := range dates {
			if t, ok := parseLoose(d); ok {
				a.CompletedDates = append(a.CompletedDates, t)
			}
		}
	}
	if r, ok := m["recurrence"].(map[string]any); ok {
		a.Recurrence = recurrence(r)
	}
	return a
}

func (n Normalizer) id(v any) string {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return n.NewID()
}

func recurrence(m map[string]any) *model.Recurrence {
	freq := model.Frequency(firstString(m["frequency"]))
	switch freq {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
	default:
		return nil
	}
	r := &model.Recurrence{Frequency: freq, Interval: 1}
	if iv, ok := m["interval"].(float64); ok && iv >= 1 {
		r.Interval = int(iv)
	}
	if days, ok := m["daysOfWeek"].([]any); ok {
		for _, d := range days {
			if f, ok := d.(float64); ok && f >= 0 && f <= 6 {
				r.DaysOfWeek = append(r.DaysOfWeek, int(f))
			}
		}
	}
	if t, ok := parseLoose(m["endDate"]); ok {
		r.EndDate = &t
	}
	return r
}

// settings decodes a legacy settings object over the defaults. ok is false
// when there is nothing usable.
func settings(raw any) (model.Settings, bool) {
	m, isMap := raw.(map[string]any)
	if !isMap {
		return model.DefaultSettings(), false
	}
	data, err := json.Marshal(m)
	if err != nil {
		return model.DefaultSettings(), false
	}
	s, err := codec.UnmarshalSettings(data)
	if err != nil {
		return model.DefaultSettings(), false
	}
	return s, true
}

func parseLoose(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		parsed, err := codec.ParseTime(t)
		return parsed, err == nil
	case float64:
		return codec.FromMillis(t), true
	}
	return time.Time{}, false
}

func firstString(vals ...any) string {
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
