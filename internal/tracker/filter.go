package tracker

import (
	"slices"
	"strings"

	"github.com/sadopc/resttrackr/internal/model"
)

type Status int

const (
	StatusActive Status = iota
	StatusArchived
	StatusAll
)

type SortBy int

const (
	// SortCreated puts the newest activity first.
	SortCreated SortBy = iota
	SortName
	// SortCompleted puts the most recently completed activity first.
	SortCompleted
)

func (s SortBy) String() string {
	switch s {
	case SortName:
		return "name"
	case SortCompleted:
		return "last completed"
	}
	return "created"
}

// Filter selects and orders activities for the list view.
type Filter struct {
	Status Status
	// Types limits the result to these types; empty means all.
	Types []model.ActivityType
	// Query matches name or description, case-insensitively.
	Query string
	Sort  SortBy
}

func (f Filter) match(a model.Activity) bool {
	switch f.Status {
	case StatusActive:
		if !a.IsActive {
			return false
		}
	case StatusArchived:
		if a.IsActive {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.Name), q) &&
			!strings.Contains(strings.ToLower(a.Description), q) {
			return false
		}
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, a.Type) {
		return false
	}
	return true
}

// Apply filters and sorts activities without modifying the input.
func (f Filter) Apply(activities []model.Activity) []model.Activity {
	var out []model.Activity
	for _, a := range activities {
		if f.match(a) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Activity) int {
		switch f.Sort {
		case SortName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortCompleted:
			return b.LastCompleted().Compare(a.LastCompleted())
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// List returns the current activities matching f.
func (t *Tracker) List(f Filter) []model.Activity {
	return f.Apply(t.Activities())
}
