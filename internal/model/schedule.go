package model

import "time"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Sunday that begins t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// CompletedOn reports whether the activity has a completion on day's
// calendar date, evaluated in day's location.
func (a Activity) CompletedOn(day time.Time) bool {
	for _, c := range a.CompletedDates {
		if SameDay(c, day, day.Location()) {
			return true
		}
	}
	return false
}

// CompletionsBetween counts completions in [from, to).
func (a Activity) CompletionsBetween(from, to time.Time) int {
	n := 0
	for _, c := range a.CompletedDates {
		if !c.Before(from) && c.Before(to) {
			n++
		}
	}
	return n
}

// LastCompleted returns the latest completion time, or the zero time.
func (a Activity) LastCompleted() time.Time {
	var last time.Time
	for _, c := range a.CompletedDates {
		if c.After(last) {
			last = c
		}
	}
	return last
}

// DueOn reports whether an active activity is scheduled on day.
// Activities without recurrence are never due; they are completed ad hoc.
func (a Activity) DueOn(day time.Time) bool {
	if !a.IsActive || a.Recurrence == nil {
		return false
	}
	r := a.Recurrence
	loc := day.Location()
	if r.EndDate != nil && StartOfDay(day).After(StartOfDay(r.EndDate.In(loc))) {
		return false
	}
	switch r.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		wd := int(day.Weekday())
		for _, d := range r.DaysOfWeek {
			if d == wd {
				return true
			}
		}
		return false
	case FrequencyMonthly:
		return a.CreatedAt.In(loc).Day() == day.Day()
	}
	return false
}

// ExpectedPerWeek is the number of scheduled days in a full week.
func (a Activity) ExpectedPerWeek() int {
	if a.Recurrence == nil {
		return 0
	}
	switch a.Recurrence.Frequency {
	case FrequencyDaily:
		return 7
	case FrequencyWeekly:
		seen := map[int]bool{}
		for _, d := range a.Recurrence.DaysOfWeek {
			if d >= 0 && d <= 6 {
				seen[d] = true
			}
		}
		return len(seen)
	case FrequencyMonthly:
		return 1
	}
	return 0
}

// WeeklyProgress is the share of this week's expected completions already
// done, as a percentage capped at 100.
func (a Activity) WeeklyProgress(now time.Time) int {
	expected := a.ExpectedPerWeek()
	if expected == 0 {
		return 0
	}
	start := StartOfWeek(now)
	done := a.CompletionsBetween(start, start.AddDate(0, 0, 7))
	pct := done * 100 / expected
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Stats counts completions across all activities.
type Stats struct {
	Today     int
	ThisWeek  int
	ThisMonth int
	Total     int
	Active    int
	Archived  int
}

// ComputeStats summarizes activities relative to now.
func ComputeStats(activities []Activity, now time.Time) Stats {
	var s Stats
	day := StartOfDay(now)
	week := StartOfWeek(now)
	month := StartOfMonth(now)
	for _, a := range activities {
		if a.IsActive {
			s.Active++
		} else {
			s.Archived++
		}
		s.Today += a.CompletionsBetween(day, day.AddDate(0, 0, 1))
		s.ThisWeek += a.CompletionsBetween(week, week.AddDate(0, 0, 7))
		s.ThisMonth += a.CompletionsBetween(month, month.AddDate(0, 1, 0))
		s.Total += len(a.CompletedDates)
	}
	return s
}

// DueToday filters activities scheduled on now's day.
func DueToday(activities []Activity, now time.Time) []Activity {
	var due []Activity
	for _, a := range activities {
		if a.DueOn(now) {
			due = append(due, a)
		}
	}
	return due
}
