package model

import "time"

type ActivityType string

const (
	TypePhysical  ActivityType = "physical"
	TypeEmotional ActivityType = "emotional"
	TypeMental    ActivityType = "mental"
	TypeSocial    ActivityType = "social"
	TypeSensory   ActivityType = "sensory"
	TypeSpiritual ActivityType = "spiritual"
	TypeCreative  ActivityType = "creative"
	TypeOutdoor   ActivityType = "outdoor"
	TypePassive   ActivityType = "passive"
)

// ActivityTypes lists every category in display order.
var ActivityTypes = []ActivityType{
	TypePhysical, TypeMental, TypeEmotional, TypeSocial, TypeSensory,
	TypeSpiritual, TypeCreative, TypeOutdoor, TypePassive,
}

func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type Recurrence struct {
	Frequency  Frequency
	Interval   int
	DaysOfWeek []int // 0 = Sunday
	EndDate    *time.Time
}

type Activity struct {
	ID             string
	Type           ActivityType
	Name           string
	Description    string
	Duration       int // minutes, 0 when unset
	Recurrence     *Recurrence
	CreatedAt      time.Time
	CompletedDates []time.Time
	IsActive       bool
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Settings struct {
	NotificationsEnabled    bool
	Theme                   Theme
	DefaultActivityDuration int
	ReminderTime            string // HH:MM, empty when unset
	TestSettings            TestSettings
}

type TestSettings struct {
	HasCompletedFirstTest bool
	ShowTestReminderPopup bool
	TestHistory           []TestResult // most recent first
}

type TestAnswer struct {
	QuestionID int `json:"questionId"`
	Score      int `json:"score"`
}

type TestResult struct {
	ID            string
	CompletedAt   time.Time
	Answers       []TestAnswer
	FatigueScores FatigueScores
	DominantTypes []FatigueType
}

// Snapshot is the full in-memory dataset persisted as one envelope.
type Snapshot struct {
	Activities []Activity
	Settings   Settings
}

// CompletionCount is the total number of completion events across activities.
func (s Snapshot) CompletionCount() int {
	n := 0
	for _, a := range s.Activities {
		n += len(a.CompletedDates)
	}
	return n
}

// Clone returns a deep copy so a mutation can be staged without touching s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Activities: make([]Activity, len(s.Activities)),
		Settings:   s.Settings.Clone(),
	}
	for i, a := range s.Activities {
		out.Activities[i] = a.Clone()
	}
	return out
}

func (a Activity) Clone() Activity {
	out := a
	if a.CompletedDates != nil {
		out.CompletedDates = append([]time.Time(nil), a.CompletedDates...)
	}
	if a.Recurrence != nil {
		r := *a.Recurrence
		if r.DaysOfWeek != nil {
			r.DaysOfWeek = append([]int(nil), r.DaysOfWeek...)
		}
		if r.EndDate != nil {
			end := *r.EndDate
			r.EndDate = &end
		}
		out.Recurrence = &r
	}
	return out
}

func (s Settings) Clone() Settings {
	out := s
	if s.TestSettings.TestHistory != nil {
		out.TestSettings.TestHistory = make([]TestResult, len(s.TestSettings.TestHistory))
		for i, r := range s.TestSettings.TestHistory {
			r.Answers = append([]TestAnswer(nil), r.Answers...)
			r.DominantTypes = append([]FatigueType(nil), r.DominantTypes...)
			out.TestSettings.TestHistory[i] = r
		}
	}
	return out
}
