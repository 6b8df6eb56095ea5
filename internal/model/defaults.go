package model

const (
	DefaultActivityDuration = 30
	DefaultReminderTime     = "09:00"
	DefaultActivityName     = "Activity"
)

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled:    true,
		Theme:                   ThemeLight,
		DefaultActivityDuration: DefaultActivityDuration,
		ReminderTime:            DefaultReminderTime,
		TestSettings: TestSettings{
			HasCompletedFirstTest: false,
			ShowTestReminderPopup: true,
			TestHistory:           []TestResult{},
		},
	}
}

// EmptySnapshot is the cold-start dataset.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Activities: []Activity{},
		Settings:   DefaultSettings(),
	}
}
