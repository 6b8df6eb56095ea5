package codec

import (
	"encoding/json"
	"fmt"

	"github.com/sadopc/resttrackr/internal/model"
)

// MarshalActivities serializes activities with ISO-8601 timestamps.
func MarshalActivities(activities []model.Activity) ([]byte, error) {
	recs := make([]activityRecord, len(activities))
	for i, a := range activities {
		recs[i] = toActivityRecord(a)
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("marshal activities: %w", err)
	}
	return data, nil
}

// UnmarshalActivities is the inverse of MarshalActivities. A null input
// yields an empty slice.
func UnmarshalActivities(data []byte) ([]model.Activity, error) {
	var recs []activityRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal activities: %w", err)
	}
	out := make([]model.Activity, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toModel())
	}
	return out, nil
}

func MarshalSettings(s model.Settings) ([]byte, error) {
	data, err := json.Marshal(toSettingsRecord(s))
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

// UnmarshalSettings decodes settings over the defaults.
func UnmarshalSettings(data []byte) (model.Settings, error) {
	rec := defaultSettingsRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return rec.toModel(), nil
}
