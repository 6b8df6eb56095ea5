// Package codec converts domain records to and from the JSON text kept in
// the key/value store.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/resttrackr/internal/model"
)

var (
	// ErrMalformed means the input is not valid JSON.
	ErrMalformed = errors.New("malformed json")
	// ErrShape means the input is JSON but not shaped like an envelope.
	ErrShape = errors.New("unexpected envelope shape")
)

// Envelope is the versioned unit of persistence.
type Envelope struct {
	Activities []model.Activity
	Settings   model.Settings
	Version    string
	LastBackup time.Time
}

// NewEnvelope stamps a snapshot with version and creation time.
func NewEnvelope(s model.Snapshot, version string, now time.Time) Envelope {
	return Envelope{
		Activities: s.Activities,
		Settings:   s.Settings,
		Version:    version,
		LastBackup: now,
	}
}

func (e Envelope) Snapshot() model.Snapshot {
	return model.Snapshot{Activities: e.Activities, Settings: e.Settings}
}

type envelopeRecord struct {
	Activities []activityRecord `json:"activities"`
	Settings   settingsRecord   `json:"settings"`
	Version    string           `json:"version"`
	LastBackup Timestamp        `json:"lastBackup"`
}

func toEnvelopeRecord(e Envelope) envelopeRecord {
	rec := envelopeRecord{
		Activities: make([]activityRecord, len(e.Activities)),
		Settings:   toSettingsRecord(e.Settings),
		Version:    e.Version,
		LastBackup: Timestamp{e.LastBackup},
	}
	for i, a := range e.Activities {
		rec.Activities[i] = toActivityRecord(a)
	}
	return rec
}

// Encode renders e as compact JSON, the form written to the store.
func Encode(e Envelope) (string, error) {
	data, err := json.Marshal(toEnvelopeRecord(e))
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(data), nil
}

// EncodeIndent renders e as pretty-printed JSON for export files.
func EncodeIndent(e Envelope) (string, error) {
	data, err := json.MarshalIndent(toEnvelopeRecord(e), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(data), nil
}

// Document is a parsed but not yet typed envelope. Migration steps rewrite
// documents before they are decoded.
type Document map[string]any

// Parse reads s as JSON and checks the envelope shape: an object whose
// activities, when present, is an array of objects and whose settings, when
// present, is an object.
func Parse(s string) (Document, error) {
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrShape, kindOf(raw))
	}
	if err := checkShape(doc); err != nil {
		return nil, err
	}
	return Document(doc), nil
}

func checkShape(doc map[string]any) error {
	switch acts := doc["activities"].(type) {
	case nil:
	case []any:
		for i, a := range acts {
			if _, ok := a.(map[string]any); !ok {
				return fmt.Errorf("%w: activities[%d] is %s, want object", ErrShape, i, kindOf(a))
			}
		}
	default:
		return fmt.Errorf("%w: activities is %s, want array", ErrShape, kindOf(acts))
	}
	switch settings := doc["settings"].(type) {
	case nil, map[string]any:
	default:
		return fmt.Errorf("%w: settings is %s, want object", ErrShape, kindOf(settings))
	}
	return nil
}

// Version returns the document's version field, or "" when it has none.
func (d Document) Version() string {
	v, _ := d["version"].(string)
	return v
}

// Activities returns the raw activity objects.
func (d Document) Activities() []map[string]any {
	raw, _ := d["activities"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, a := range raw {
		if m, ok := a.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Settings returns the raw settings object, or nil.
func (d Document) Settings() map[string]any {
	m, _ := d["settings"].(map[string]any)
	return m
}

// Decode types the document. Missing fields take their defaults; fields of
// the wrong type are an error.
func (d Document) Decode() (Envelope, error) {
	data, err := json.Marshal(map[string]any(d))
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	rec := envelopeRecord{Settings: defaultSettingsRecord()}
	if err := json.Unmarshal(data, &rec); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrShape, err)
	}
	env := Envelope{
		Activities: make([]model.Activity, 0, len(rec.Activities)),
		Settings:   rec.Settings.toModel(),
		Version:    rec.Version,
		LastBackup: rec.LastBackup.Time,
	}
	for _, a := range rec.Activities {
		env.Activities = append(env.Activities, a.toModel())
	}
	return env, nil
}

// Decode parses and types s in one step.
func Decode(s string) (Envelope, error) {
	doc, err := Parse(s)
	if err != nil {
		return Envelope{}, err
	}
	return doc.Decode()
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
