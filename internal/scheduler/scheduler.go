// Package scheduler runs the background jobs: periodic smart backup
// attempts and the daily activity reminder.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/resttrackr/internal/model"
)

// Source is the state the jobs read. *tracker.Tracker implements it.
type Source interface {
	SmartBackup() (bool, error)
	Settings() model.Settings
	DueToday() []model.Activity
	Now() time.Time
}

// Reminder is delivered once a day at the configured reminder time.
type Reminder struct {
	At      time.Time
	Pending []model.Activity
}

type Scheduler struct {
	cron   *cron.Cron
	src    Source
	log    logrus.FieldLogger
	notify func(Reminder)

	mu        sync.Mutex
	lastFired time.Time
}

// New creates a stopped scheduler. notify may be nil.
func New(src Source, log logrus.FieldLogger, notify func(Reminder)) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		src:    src,
		log:    log,
		notify: notify,
	}
}

// AddBackupJob tries a smart backup on spec. The backup itself decides
// whether it is time to write.
func (s *Scheduler) AddBackupJob(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runBackup); err != nil {
		return fmt.Errorf("schedule backup %q: %w", spec, err)
	}
	return nil
}

// AddReminderJob checks every minute whether the reminder time was reached.
// Reading the settings on each tick means edits take effect without
// rescheduling.
func (s *Scheduler) AddReminderJob() error {
	if _, err := s.cron.AddFunc("* * * * *", func() { s.checkReminder() }); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runBackup() {
	wrote, err := s.src.SmartBackup()
	if err != nil {
		s.log.WithError(err).Error("scheduled backup failed")
		return
	}
	if wrote {
		s.log.Info("scheduled backup written")
	}
}

// checkReminder fires at most once per day, on the minute matching the
// reminder time, when notifications are on. It reports whether it fired.
func (s *Scheduler) checkReminder() bool {
	settings := s.src.Settings()
	if !settings.NotificationsEnabled || settings.ReminderTime == "" {
		return false
	}
	now := s.src.Now()
	if now.Format("15:04") != settings.ReminderTime {
		return false
	}

	s.mu.Lock()
	if !s.lastFired.IsZero() && model.SameDay(s.lastFired, now, now.Location()) {
		s.mu.Unlock()
		return false
	}
	s.lastFired = now
	s.mu.Unlock()

	var pending []model.Activity
	for _, a := range s.src.DueToday() {
		if !a.CompletedOn(now) {
			pending = append(pending, a)
		}
	}
	s.log.WithField("pending", len(pending)).Info("reminder fired")
	if s.notify != nil {
		s.notify(Reminder{At: now, Pending: pending})
	}
	return true
}
