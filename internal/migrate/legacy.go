package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/resttrackr/internal/codec"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/model"
)

// Key names used by earlier releases.
const (
	KeyJoint          = "restTracker"
	KeyJointBackup    = "restTracker_backup"
	KeyActivitiesOnly = "rest-tracker-activities"
	KeySettingsOnly   = "rest-tracker-settings"
	KeyLastBackupTime = "lastBackupTime"
)

var errNotObject = errors.New("not a json object")

// Candidate is one dataset recovered from a single key.
type Candidate struct {
	Key         string
	Snapshot    model.Snapshot
	HasSettings bool
}

// DataScore ranks candidates: ten per activity, five per completion, and one
// when settings were present.
func DataScore(c Candidate) int {
	score := 10*len(c.Snapshot.Activities) + 5*c.Snapshot.CompletionCount()
	if c.HasSettings {
		score++
	}
	return score
}

// Lookup reads another key while a source is being parsed.
type Lookup func(key string) (string, bool)

// LegacySource is one entry of the strategy table.
type LegacySource struct {
	Key   string
	Parse func(raw string, lookup Lookup, n Normalizer) (Candidate, error)
	Score func(Candidate) int
}

// LegacySources returns the known legacy layouts in priority order. Ties
// go to the earlier entry.
func LegacySources() []LegacySource {
	return []LegacySource{
		{Key: KeyJoint, Parse: parseJoint, Score: DataScore},
		{Key: KeyJointBackup, Parse: parseJoint, Score: DataScore},
		{Key: KeyActivitiesOnly, Parse: parseActivitiesOnly, Score: DataScore},
		{Key: KeySettingsOnly, Parse: parseSettingsOnly, Score: DataScore},
	}
}

func parseJoint(raw string, _ Lookup, n Normalizer) (Candidate, error) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Candidate{}, err
	}
	m, ok := data.(map[string]any)
	if !ok {
		return Candidate{}, errNotObject
	}
	s, hasSettings := settings(m["settings"])
	return Candidate{
		Snapshot:    model.Snapshot{Activities: n.Activities(m["activities"]), Settings: s},
		HasSettings: hasSettings,
	}, nil
}

// parseActivitiesOnly pairs the activity list with the separate settings
// key when that key holds something usable.
func parseActivitiesOnly(raw string, lookup Lookup, n Normalizer) (Candidate, error) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Candidate{}, err
	}
	if _, ok := data.([]any); !ok {
		return Candidate{}, errors.New("not a json array")
	}
	c := Candidate{Snapshot: model.Snapshot{Activities: n.Activities(data), Settings: model.DefaultSettings()}}
	if rawSettings, ok := lookup(KeySettingsOnly); ok {
		var sm any
		if json.Unmarshal([]byte(rawSettings), &sm) == nil {
			c.Snapshot.Settings, c.HasSettings = settings(sm)
		}
	}
	return c, nil
}

func parseSettingsOnly(raw string, _ Lookup, _ Normalizer) (Candidate, error) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Candidate{}, err
	}
	s, ok := settings(data)
	if !ok {
		return Candidate{}, errNotObject
	}
	return Candidate{
		Snapshot:    model.Snapshot{Activities: []model.Activity{}, Settings: s},
		HasSettings: true,
	}, nil
}

// Saver persists the winning dataset under the current layout.
type Saver interface {
	SaveData(activities []model.Activity, settings model.Settings) error
}

type Config struct {
	// Namespace prefixes every key, matching the storage manager's.
	Namespace string
	// PrimaryKey is the current envelope key (without namespace). A valid
	// envelope there competes with the legacy candidates and is never removed.
	PrimaryKey string
	// Version is the schema the primary envelope is upgraded to before it
	// is scored. Defaults to CurrentVersion.
	Version string
	Sources []LegacySource
	// AuxKeys are bookkeeping keys removed together with the legacy keys.
	AuxKeys []string
	Now     func() time.Time
	NewID   func() string
	Logger  logrus.FieldLogger
}

// Engine runs the one-time legacy key migration.
type Engine struct {
	store kv.Store
	saver Saver
	cfg   Config
}

func NewEngine(store kv.Store, saver Saver, cfg Config) *Engine {
	if cfg.Sources == nil {
		cfg.Sources = LegacySources()
	}
	if cfg.AuxKeys == nil {
		cfg.AuxKeys = []string{KeyLastBackupTime}
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		cfg.Logger = l
	}
	return &Engine{store: store, saver: saver, cfg: cfg}
}

// Scored is a candidate with its score.
type Scored struct {
	Candidate
	Score int
}

// Result describes one Run.
type Result struct {
	// Migrated is true when a winner was persisted and legacy keys removed.
	Migrated   bool
	Winner     *Scored
	Candidates []Scored
	Removed    []string
	// Skipped maps legacy keys that failed to parse to their error.
	Skipped map[string]error
}

func (e *Engine) key(name string) string { return e.cfg.Namespace + name }

// HasLegacyData reports whether any legacy key is present.
func (e *Engine) HasLegacyData() (bool, error) {
	for _, src := range e.cfg.Sources {
		_, ok, err := e.store.Get(e.key(src.Key))
		if err != nil {
			return false, fmt.Errorf("check legacy key %s: %w", src.Key, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Run scans the legacy keys, persists the best candidate through the saver
// and then removes the legacy keys. With no legacy keys present it does
// nothing, so running it again after a successful run is a no-op. If legacy
// keys exist but none yields a usable candidate they are left in place.
func (e *Engine) Run() (Result, error) {
	res := Result{Skipped: map[string]error{}}
	log := e.cfg.Logger

	var present []string
	lookup := func(name string) (string, bool) {
		v, ok, err := e.store.Get(e.key(name))
		return v, ok && err == nil
	}
	n := Normalizer{Now: e.cfg.Now(), NewID: e.cfg.NewID}

	for _, src := range e.cfg.Sources {
		raw, ok, err := e.store.Get(e.key(src.Key))
		if err != nil {
			return res, fmt.Errorf("read legacy key %s: %w", src.Key, err)
		}
		if !ok {
			continue
		}
		present = append(present, src.Key)
		c, err := src.Parse(raw, lookup, n)
		if err != nil {
			log.WithError(err).WithField("key", src.Key).Warn("skipping unreadable legacy key")
			res.Skipped[src.Key] = err
			continue
		}
		c.Key = src.Key
		score := DataScore
		if src.Score != nil {
			score = src.Score
		}
		sc := Scored{Candidate: c, Score: score(c)}
		log.WithFields(logrus.Fields{
			"key":        src.Key,
			"activities": len(c.Snapshot.Activities),
			"score":      sc.Score,
		}).Info("legacy candidate")
		res.Candidates = append(res.Candidates, sc)
	}
	if len(present) == 0 {
		return res, nil
	}

	if cur, ok := e.current(); ok {
		log.WithFields(logrus.Fields{"key": cur.Key, "score": cur.Score}).Info("current data competes with legacy candidates")
		res.Candidates = append([]Scored{cur}, res.Candidates...)
	}

	for i := range res.Candidates {
		if res.Winner == nil || res.Candidates[i].Score > res.Winner.Score {
			if res.Candidates[i].Score > 0 {
				res.Winner = &res.Candidates[i]
			}
		}
	}
	if res.Winner == nil {
		log.WithField("keys", present).Warn("legacy keys found but no usable data")
		return res, nil
	}

	w := res.Winner.Snapshot
	if err := e.saver.SaveData(w.Activities, w.Settings); err != nil {
		return res, fmt.Errorf("save migrated data from %s: %w", res.Winner.Key, err)
	}
	for _, k := range append(present, e.cfg.AuxKeys...) {
		if err := e.store.Remove(e.key(k)); err != nil {
			return res, fmt.Errorf("remove legacy key %s: %w", k, err)
		}
		res.Removed = append(res.Removed, k)
	}
	res.Migrated = true
	log.WithFields(logrus.Fields{
		"winner":     res.Winner.Key,
		"activities": len(w.Activities),
		"removed":    len(res.Removed),
	}).Info("legacy migration complete")
	return res, nil
}

// current reads the envelope already stored under the primary key.
func (e *Engine) current() (Scored, bool) {
	if e.cfg.PrimaryKey == "" {
		return Scored{}, false
	}
	raw, ok, err := e.store.Get(e.key(e.cfg.PrimaryKey))
	if err != nil || !ok {
		return Scored{}, false
	}
	doc, err := codec.Parse(raw)
	if err != nil {
		return Scored{}, false
	}
	hasSettings := doc.Settings() != nil
	env, _, err := UpgradeSchema(doc, e.cfg.Version)
	if err != nil {
		return Scored{}, false
	}
	c := Candidate{Key: e.cfg.PrimaryKey, Snapshot: env.Snapshot(), HasSettings: hasSettings}
	return Scored{Candidate: c, Score: DataScore(c)}, true
}
