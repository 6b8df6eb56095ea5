// Package storage keeps the activity data in a key/value store: one primary
// envelope, a backup copy, export and import, and the recovery policy used
// when stored content is missing or damaged.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/resttrackr/internal/codec"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/migrate"
	"github.com/sadopc/resttrackr/internal/model"
)

const (
	DefaultPrimaryKey    = "rest-tracker-data"
	DefaultBackupKey     = "rest-tracker-backup"
	DefaultLastBackupKey = "rest-tracker-last-backup"
	DefaultReminderKey   = "rest-tracker-backup-reminder-dismissed"

	// SmartBackupHour is the local hour from which smart backups may run.
	SmartBackupHour = 22
	// SmartBackupInterval is the minimum gap between smart backups.
	SmartBackupInterval = 20 * time.Hour

	ReminderMinActivities = 3
	ReminderStaleAfter    = 7 * 24 * time.Hour
	ReminderSnooze        = 24 * time.Hour
)

// Config names the keys a Manager owns. Key names are combined with
// Namespace, so two managers with different namespaces never collide.
type Config struct {
	Namespace     string
	PrimaryKey    string
	BackupKey     string
	LastBackupKey string
	ReminderKey   string
	Version       string
	// Capacity is the nominal budget StorageInfo reports against.
	Capacity int
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

// DefaultConfig returns the standard key layout.
func DefaultConfig() Config {
	return Config{
		PrimaryKey:    DefaultPrimaryKey,
		BackupKey:     DefaultBackupKey,
		LastBackupKey: DefaultLastBackupKey,
		ReminderKey:   DefaultReminderKey,
		Version:       migrate.CurrentVersion,
		Capacity:      kv.DefaultQuota,
		Now:           time.Now,
	}
}

type Manager struct {
	store kv.Store
	cfg   Config
	log   logrus.FieldLogger
}

// New returns a Manager over store. Zero fields in cfg take the defaults.
func New(store kv.Store, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = def.PrimaryKey
	}
	if cfg.BackupKey == "" {
		cfg.BackupKey = def.BackupKey
	}
	if cfg.LastBackupKey == "" {
		cfg.LastBackupKey = def.LastBackupKey
	}
	if cfg.ReminderKey == "" {
		cfg.ReminderKey = def.ReminderKey
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Manager{store: store, cfg: cfg, log: log}
}

func (m *Manager) Config() Config { return m.cfg }

func (m *Manager) key(name string) string { return m.cfg.Namespace + name }

func (m *Manager) encode(activities []model.Activity, settings model.Settings) (string, error) {
	snap := model.Snapshot{Activities: activities, Settings: settings}
	return codec.Encode(codec.NewEnvelope(snap, m.cfg.Version, m.cfg.Now()))
}

// SaveData writes a fresh envelope to the primary key.
func (m *Manager) SaveData(activities []model.Activity, settings model.Settings) error {
	key := m.key(m.cfg.PrimaryKey)
	data, err := m.encode(activities, settings)
	if err != nil {
		return writeErr("save", key, err)
	}
	if err := m.store.Set(key, data); err != nil {
		m.log.WithError(err).WithField("key", key).Error("save failed")
		return writeErr("save", key, err)
	}
	m.log.WithFields(logrus.Fields{
		"key":        key,
		"activities": len(activities),
		"theme":      settings.Theme,
	}).Debug("data saved")
	return nil
}

// LoadData reads the primary envelope, falling back to the backup. It never
// fails: problems are reported through the result's Status and Cause.
func (m *Manager) LoadData() LoadResult {
	key := m.key(m.cfg.PrimaryKey)
	log := m.log.WithField("key", key)

	raw, ok, err := m.store.Get(key)
	if err == nil && !ok {
		log.Info("no primary data, checking backup")
		snap, found, berr := m.loadBackup()
		switch {
		case berr != nil:
			log.WithError(berr).Warn("backup unreadable")
			return m.unrecoverable(berr)
		case !found:
			return LoadResult{Status: StatusNoData, Data: model.EmptySnapshot()}
		}
		res := LoadResult{Status: StatusRecovered, Data: snap}
		if serr := m.SaveData(snap.Activities, snap.Settings); serr != nil {
			res.Cause = serr
		}
		log.WithField("activities", len(snap.Activities)).Info("restored primary from backup")
		return res
	}

	var cause error
	if err != nil {
		cause = corruptErr("load", key, err)
	} else {
		snap, migrated, lerr := m.decode(raw)
		switch {
		case lerr != nil:
			cause = corruptErr("load", key, lerr)
		case migrated:
			res := LoadResult{Status: StatusMigrated, Data: snap}
			if serr := m.SaveData(snap.Activities, snap.Settings); serr != nil {
				res.Cause = serr
			}
			log.WithField("version", m.cfg.Version).Info("upgraded stored data")
			return res
		default:
			log.WithFields(logrus.Fields{
				"activities": len(snap.Activities),
				"theme":      snap.Settings.Theme,
			}).Debug("data loaded")
			return LoadResult{Status: StatusLoaded, Data: snap}
		}
	}

	log.WithError(cause).Warn("primary data unreadable, trying backup")
	snap, found, berr := m.loadBackup()
	if berr != nil || !found {
		if berr != nil {
			cause = errors.Join(cause, berr)
		}
		return m.unrecoverable(cause)
	}
	log.Info("recovered from backup after error")
	return LoadResult{Status: StatusRecovered, Data: snap, Cause: cause}
}

func (m *Manager) unrecoverable(cause error) LoadResult {
	m.log.WithError(cause).Error("no readable data, starting empty")
	return LoadResult{Status: StatusUnrecoverable, Data: model.EmptySnapshot(), Cause: cause}
}

func (m *Manager) decode(raw string) (model.Snapshot, bool, error) {
	doc, err := codec.Parse(raw)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	env, migrated, err := migrate.UpgradeSchema(doc, m.cfg.Version)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return env.Snapshot(), migrated, nil
}

func (m *Manager) loadBackup() (model.Snapshot, bool, error) {
	key := m.key(m.cfg.BackupKey)
	raw, ok, err := m.store.Get(key)
	if err != nil {
		return model.Snapshot{}, false, corruptErr("load backup", key, err)
	}
	if !ok {
		return model.Snapshot{}, false, nil
	}
	snap, _, err := m.decode(raw)
	if err != nil {
		return model.Snapshot{}, false, corruptErr("load backup", key, err)
	}
	return snap, true, nil
}

// CreateBackup writes the state to the backup key unconditionally. The
// primary key is not touched.
func (m *Manager) CreateBackup(activities []model.Activity, settings model.Settings) error {
	key := m.key(m.cfg.BackupKey)
	data, err := m.encode(activities, settings)
	if err != nil {
		return writeErr("backup", key, err)
	}
	if err := m.store.Set(key, data); err != nil {
		m.log.WithError(err).WithField("key", key).Error("backup failed")
		return writeErr("backup", key, err)
	}
	m.log.WithField("activities", len(activities)).Info("backup created")
	return nil
}

// CreateSmartBackup backs up at most once per SmartBackupInterval and only
// from SmartBackupHour local time on. It reports whether a backup was
// written.
func (m *Manager) CreateSmartBackup(activities []model.Activity, settings model.Settings) (bool, error) {
	now := m.cfg.Now()
	if now.Hour() < SmartBackupHour {
		return false, nil
	}
	if last, ok := m.LastBackupTime(); ok && now.Sub(last) < SmartBackupInterval {
		return false, nil
	}
	if err := m.CreateBackup(activities, settings); err != nil {
		return false, err
	}
	key := m.key(m.cfg.LastBackupKey)
	if err := m.store.Set(key, codec.FormatTime(now)); err != nil {
		return true, writeErr("smart backup", key, err)
	}
	m.log.Info("evening backup created")
	return true, nil
}

// LastBackupTime returns when the last smart backup ran. ok is false when
// none is recorded or the stored value cannot be parsed.
func (m *Manager) LastBackupTime() (time.Time, bool) {
	raw, ok, err := m.store.Get(m.key(m.cfg.LastBackupKey))
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := codec.ParseTime(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BackupTime returns the creation time of the backup envelope.
func (m *Manager) BackupTime() (time.Time, bool) {
	raw, ok, err := m.store.Get(m.key(m.cfg.BackupKey))
	if err != nil || !ok {
		return time.Time{}, false
	}
	env, err := codec.Decode(raw)
	if err != nil || env.LastBackup.IsZero() {
		return time.Time{}, false
	}
	return env.LastBackup, true
}

// BackupReminderDue reports whether the user should be nudged to back up:
// never backed up with at least ReminderMinActivities activities, or the
// backup is older than ReminderStaleAfter. Either way the reminder stays
// quiet for ReminderSnooze after a dismissal.
func (m *Manager) BackupReminderDue(activityCount int) bool {
	now := m.cfg.Now()
	if last, ok := m.BackupTime(); ok {
		if now.Sub(last) <= ReminderStaleAfter {
			return false
		}
	} else if activityCount < ReminderMinActivities {
		return false
	}
	raw, found, err := m.store.Get(m.key(m.cfg.ReminderKey))
	if err != nil || !found {
		return true
	}
	dismissed, err := codec.ParseTime(raw)
	if err != nil {
		return true
	}
	return now.Sub(dismissed) > ReminderSnooze
}

func (m *Manager) DismissBackupReminder() error {
	key := m.key(m.cfg.ReminderKey)
	return writeErr("dismiss reminder", key, m.store.Set(key, codec.FormatTime(m.cfg.Now())))
}

// ExportData renders the state as a pretty-printed envelope.
func (m *Manager) ExportData(activities []model.Activity, settings model.Settings) (string, error) {
	snap := model.Snapshot{Activities: activities, Settings: settings}
	out, err := codec.EncodeIndent(codec.NewEnvelope(snap, m.cfg.Version, m.cfg.Now()))
	if err != nil {
		return "", fmt.Errorf("export data: %w", err)
	}
	return out, nil
}

// ImportData validates and decodes an exported envelope. It does not write
// anything; on error the returned snapshot is empty and the caller's state
// must stay as it was.
func (m *Manager) ImportData(s string) (model.Snapshot, error) {
	doc, err := codec.Parse(s)
	if err != nil {
		return model.Snapshot{}, importErr(err)
	}
	if err := validateImport(doc); err != nil {
		return model.Snapshot{}, importErr(err)
	}
	env, migrated, err := migrate.UpgradeSchema(doc, m.cfg.Version)
	if err != nil {
		return model.Snapshot{}, importErr(err)
	}
	m.log.WithFields(logrus.Fields{
		"activities": len(env.Activities),
		"migrated":   migrated,
	}).Info("import decoded")
	return env.Snapshot(), nil
}

var requiredSettings = []string{"theme", "notificationsEnabled"}

// validateImport requires id, name and type on every activity, unique ids,
// and the core settings fields when settings are present.
func validateImport(doc codec.Document) error {
	seen := map[string]bool{}
	for i, a := range doc.Activities() {
		id, _ := a["id"].(string)
		name, _ := a["name"].(string)
		typ, _ := a["type"].(string)
		switch {
		case id == "":
			return fmt.Errorf("activity %d: missing id", i)
		case name == "":
			return fmt.Errorf("activity %s: missing name", id)
		case !model.ActivityType(typ).Valid():
			return fmt.Errorf("activity %s: invalid type %q", id, typ)
		case seen[id]:
			return fmt.Errorf("activity %s: duplicate id", id)
		}
		seen[id] = true
	}
	if settings := doc.Settings(); settings != nil {
		for _, f := range requiredSettings {
			if _, ok := settings[f]; !ok {
				return fmt.Errorf("settings: missing %s", f)
			}
		}
	}
	return nil
}

// ClearAllData removes the primary and backup copies. Removing absent keys
// is not an error.
func (m *Manager) ClearAllData() error {
	for _, k := range []string{m.cfg.PrimaryKey, m.cfg.BackupKey, m.cfg.LastBackupKey} {
		if err := m.store.Remove(m.key(k)); err != nil {
			return writeErr("clear", m.key(k), err)
		}
	}
	m.log.Info("all data cleared")
	return nil
}

// Info is the storage usage shown to the user.
type Info struct {
	Used  int
	Total int
	// Percentage is Used/Total*100, not clamped.
	Percentage float64
}

// StorageInfo sums key and value lengths of every key under the namespace.
func (m *Manager) StorageInfo() (Info, error) {
	keys, err := m.store.Keys()
	if err != nil {
		return Info{}, fmt.Errorf("storage info: %w", err)
	}
	used := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, m.cfg.Namespace) {
			continue
		}
		v, ok, err := m.store.Get(k)
		if err != nil {
			return Info{}, fmt.Errorf("storage info %s: %w", k, err)
		}
		if ok {
			used += len(k) + len(v)
		}
	}
	total := m.cfg.Capacity
	return Info{Used: used, Total: total, Percentage: float64(used) / float64(total) * 100}, nil
}
