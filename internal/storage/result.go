package storage

import "github.com/sadopc/resttrackr/internal/model"

// Status says how LoadData arrived at its data.
type Status int

const (
	// StatusNoData: nothing stored. A normal cold start.
	StatusNoData Status = iota
	// StatusLoaded: the primary envelope was read as is.
	StatusLoaded
	// StatusRecovered: the primary was missing or unreadable and the backup
	// was used.
	StatusRecovered
	// StatusMigrated: the primary was at an older schema version, upgraded
	// and written back.
	StatusMigrated
	// StatusUnrecoverable: stored data exists but neither copy could be
	// read. Data is the empty default state.
	StatusUnrecoverable
)

func (s Status) String() string {
	switch s {
	case StatusNoData:
		return "no_data"
	case StatusLoaded:
		return "loaded"
	case StatusRecovered:
		return "recovered"
	case StatusMigrated:
		return "migrated"
	case StatusUnrecoverable:
		return "unrecoverable"
	}
	return "unknown"
}

// LoadResult is returned by LoadData instead of an error.
type LoadResult struct {
	Status Status
	Data   model.Snapshot
	// Cause holds the failure that forced a fallback, if any.
	Cause error
}

// HasData reports whether Data came from storage rather than defaults.
func (r LoadResult) HasData() bool {
	switch r.Status {
	case StatusLoaded, StatusRecovered, StatusMigrated:
		return true
	}
	return false
}
