// Package catalog lists ready-made rest activities for quick add.
package catalog

import (
	"strings"

	"github.com/sadopc/resttrackr/internal/model"
)

type Preset struct {
	Name     string
	Duration int // minutes
}

var presets = map[model.ActivityType][]Preset{
	model.TypePhysical: {
		{"Easy run or bike ride", 30},
		{"Deep sleep", 480},
		{"Balanced meal", 30},
		{"Yoga or stretching", 20},
		{"Light walk", 30},
		{"Nordic walking", 45},
		{"Self-massage", 15},
		{"Swimming", 30},
		{"Sauna", 60},
		{"Sleep on a circadian schedule", 480},
		{"Warm compress", 20},
		{"Warm bath", 30},
		{"Moderate strength training", 45},
	},
	model.TypeMental: {
		{"Short work breaks", 5},
		{"Light reading", 30},
		{"4-7-8 breathing", 10},
		{"Mindful idleness", 15},
		{"Puzzles", 20},
		{"Jigsaw puzzle", 60},
		{"Digital detox", 120},
	},
	model.TypeEmotional: {
		{"Act of kindness", 15},
		{"Art therapy", 45},
		{"Feelings journal", 20},
		{"Self-compassion journal", 15},
		{"Scream therapy", 10},
		{"Talk it through with someone", 30},
	},
	model.TypeSocial: {
		{"Coffee with a friend", 60},
		{"Call family", 30},
		{"Volunteering", 120},
		{"Board game night", 120},
		{"Time alone on purpose", 60},
	},
	model.TypeSensory: {
		{"Aromatherapy", 15},
		{"Silence with eyes closed", 10},
		{"ASMR", 20},
		{"Dim the lights", 30},
		{"Weighted blanket", 30},
	},
	model.TypeSpiritual: {
		{"Meditation", 15},
		{"Gratitude practice", 10},
		{"Stargazing", 30},
		{"Prayer or reflection", 15},
		{"Personal retreat day", 480},
	},
	model.TypeCreative: {
		{"Drawing", 45},
		{"Playing music", 30},
		{"Crafts", 60},
		{"Photography", 60},
		{"Lazy hobby", 45},
	},
	model.TypeOutdoor: {
		{"Walk in the park", 30},
		{"Picnic", 120},
		{"Nature watching", 45},
		{"Gardening", 60},
	},
	model.TypePassive: {
		{"Watch a film", 120},
		{"Listen to music", 30},
		{"Lie down and rest", 30},
		{"Relaxation", 20},
	},
}

var labels = map[model.ActivityType]string{
	model.TypePhysical:  "Physical rest",
	model.TypeMental:    "Mental rest",
	model.TypeEmotional: "Emotional rest",
	model.TypeSocial:    "Social rest",
	model.TypeSensory:   "Sensory rest",
	model.TypeSpiritual: "Spiritual rest",
	model.TypeCreative:  "Creative rest",
	model.TypeOutdoor:   "Outdoors",
	model.TypePassive:   "Passive rest",
}

// For returns the presets of one type.
func For(t model.ActivityType) []Preset {
	return append([]Preset(nil), presets[t]...)
}

// Label is the display name of an activity type.
func Label(t model.ActivityType) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// Search finds presets whose name contains query, case-insensitively,
// across all types in display order.
func Search(query string) []model.Activity {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.Activity
	for _, t := range model.ActivityTypes {
		for _, p := range presets[t] {
			if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
				out = append(out, p.Draft(t))
			}
		}
	}
	return out
}

// Draft turns a preset into an unsaved activity. The tracker assigns id and
// creation time.
func (p Preset) Draft(t model.ActivityType) model.Activity {
	return model.Activity{
		Type:     t,
		Name:     p.Name,
		Duration: p.Duration,
		IsActive: true,
	}
}
