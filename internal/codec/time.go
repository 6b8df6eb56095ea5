package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Timestamp is a time.Time that travels as an ISO-8601 string. On input it
// also accepts epoch milliseconds and null, which older data and hand-edited
// files contain.
type Timestamp struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTime(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("parse timestamp %s: %w", data, err)
	}
	t.Time = FromMillis(ms)
	return nil
}

// ParseTime parses an ISO-8601 date or date-time. Values without a zone are
// read as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: not ISO-8601", s)
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms float64) time.Time {
	whole := math.Trunc(ms)
	return time.UnixMilli(int64(whole)).UTC()
}

// FormatTime renders t the way every stored timestamp is written.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
