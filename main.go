package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/resttrackr/internal/config"
	"github.com/sadopc/resttrackr/internal/kv"
	"github.com/sadopc/resttrackr/internal/logger"
	"github.com/sadopc/resttrackr/internal/migrate"
	"github.com/sadopc/resttrackr/internal/scheduler"
	"github.com/sadopc/resttrackr/internal/storage"
	"github.com/sadopc/resttrackr/internal/tracker"
	"github.com/sadopc/resttrackr/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	mgr := storage.New(store, storage.Config{
		Namespace: cfg.Namespace,
		Capacity:  cfg.StorageQuota,
		Logger:    log,
	})

	// Legacy keys are folded into the current layout before the first load.
	res, err := migrate.NewEngine(store, mgr, migrate.Config{
		Namespace:  cfg.Namespace,
		PrimaryKey: mgr.Config().PrimaryKey,
		Version:    mgr.Config().Version,
		Logger:     log,
	}).Run()
	if err != nil {
		log.WithError(err).Error("legacy migration failed")
	} else if res.Migrated {
		log.WithFields(logrus.Fields{
			"winner":  res.Winner.Key,
			"removed": len(res.Removed),
		}).Info("legacy data migrated")
	}

	loaded := mgr.LoadData()
	if loaded.Cause != nil {
		log.WithError(loaded.Cause).WithField("status", loaded.Status.String()).Warn("stored data needed recovery")
	}

	tr := tracker.New(mgr, tracker.Config{Logger: log})
	tr.Load(loaded)

	p := tea.NewProgram(tui.NewApp(tr, cfg.ExportDir), tea.WithAltScreen())

	sched := scheduler.New(tr, log, func(r scheduler.Reminder) {
		p.Send(tui.ReminderMsg(r))
	})
	if err := sched.AddBackupJob(cfg.BackupSchedule); err != nil {
		return err
	}
	if err := sched.AddReminderJob(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if _, err := p.Run(); err != nil {
		return err
	}
	// One last attempt so an evening session is not lost.
	if _, err := tr.SmartBackup(); err != nil {
		log.WithError(err).Warn("backup on exit failed")
	}
	return nil
}

func openStore(cfg config.Config) (kv.Store, error) {
	quota := kv.WithQuota(cfg.StorageQuota)
	if cfg.Store == config.StoreMemory {
		return kv.NewMemory(quota), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return kv.OpenSQLite(cfg.DBPath(), quota)
}
