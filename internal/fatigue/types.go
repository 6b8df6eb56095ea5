package fatigue

import "github.com/sadopc/resttrackr/internal/model"

// Suggestion is a rest activity recommended for a fatigue type.
type Suggestion struct {
	Name        string
	Type        model.ActivityType
	Duration    int
	Description string
}

type typeInfo struct {
	name        string
	description string
	solutions   string
	rest        []Suggestion
}

var typeInfos = map[model.FatigueDimension]typeInfo{
	model.DimPhysical: {
		name:        "Physical fatigue",
		description: "The body is worn out from exertion, poor sleep or long periods of tension.",
		solutions:   "Protect sleep, add gentle movement and give muscles time to recover.",
		rest: []Suggestion{
			{Name: "Daytime nap", Type: model.TypePassive, Duration: 20},
			{Name: "Gentle stretching", Type: model.TypePhysical, Duration: 15},
			{Name: "Warm bath", Type: model.TypeSensory, Duration: 30},
		},
	},
	model.DimEmotional: {
		name:        "Emotional fatigue",
		description: "Feelings have been held in or carried for too long without release.",
		solutions:   "Name and express emotions, and spend time with people who feel safe.",
		rest: []Suggestion{
			{Name: "Journaling", Type: model.TypeEmotional, Duration: 15},
			{Name: "Talk with a close friend", Type: model.TypeSocial, Duration: 30},
			{Name: "Listen to calming music", Type: model.TypeCreative, Duration: 20},
		},
	},
	model.DimCognitive: {
		name:        "Mental fatigue",
		description: "Attention and working memory are overloaded by constant input and decisions.",
		solutions:   "Single-task, take screen-free breaks and reduce information intake.",
		rest: []Suggestion{
			{Name: "Screen-free break", Type: model.TypeMental, Duration: 15},
			{Name: "Mindful breathing", Type: model.TypeMental, Duration: 10},
			{Name: "Walk without a phone", Type: model.TypeOutdoor, Duration: 20},
		},
	},
	model.DimSocial: {
		name:        "Social fatigue",
		description: "Interaction costs more energy than it gives back.",
		solutions:   "Schedule solitude and keep company with people who restore you.",
		rest: []Suggestion{
			{Name: "Quiet time alone", Type: model.TypePassive, Duration: 30},
			{Name: "Reading", Type: model.TypeMental, Duration: 30},
			{Name: "Time in nature", Type: model.TypeOutdoor, Duration: 45},
		},
	},
	model.DimAchievement: {
		name:        "Achievement fatigue",
		description: "Rest feels unearned and every hour is measured in output.",
		solutions:   "Plan rest as a task in its own right and do things with no goal.",
		rest: []Suggestion{
			{Name: "Hobby with no goal", Type: model.TypeCreative, Duration: 30},
			{Name: "Unplanned afternoon", Type: model.TypePassive, Duration: 60},
			{Name: "Drawing or doodling", Type: model.TypeCreative, Duration: 20},
		},
	},
	model.DimCaregiving: {
		name:        "Caregiver fatigue",
		description: "Caring for others has crowded out care for yourself.",
		solutions:   "Share the load, ask for help and guard a little time each day.",
		rest: []Suggestion{
			{Name: "Time just for me", Type: model.TypePassive, Duration: 30},
			{Name: "Massage", Type: model.TypeSensory, Duration: 45},
			{Name: "Support group", Type: model.TypeSocial, Duration: 60},
		},
	},
	model.DimAnxiety: {
		name:        "Anxiety fatigue",
		description: "A nervous system on constant alert burns energy even at rest.",
		solutions:   "Calm the body first with breathing and steady routines, then the thoughts.",
		rest: []Suggestion{
			{Name: "Meditation", Type: model.TypeSpiritual, Duration: 15},
			{Name: "Slow breathing", Type: model.TypeMental, Duration: 10},
			{Name: "Evening walk", Type: model.TypeOutdoor, Duration: 30},
		},
	},
	model.DimHormonal: {
		name:        "Hormonal fatigue",
		description: "Energy follows body rhythms that may be out of balance.",
		solutions:   "Keep regular meals and sleep, and discuss persistent changes with a doctor.",
		rest: []Suggestion{
			{Name: "Regular sleep schedule", Type: model.TypePassive, Duration: 30},
			{Name: "Light yoga", Type: model.TypePhysical, Duration: 20},
			{Name: "Morning daylight walk", Type: model.TypeOutdoor, Duration: 20},
		},
	},
	model.DimChronicFatigue: {
		name:        "Chronic fatigue",
		description: "Exhaustion has lasted for months and does not lift with ordinary rest.",
		solutions:   "Pace activity carefully and seek a medical assessment.",
		rest: []Suggestion{
			{Name: "Energy pacing break", Type: model.TypePassive, Duration: 15},
			{Name: "Guided relaxation", Type: model.TypeSpiritual, Duration: 20},
			{Name: "Sensory rest in a dark room", Type: model.TypeSensory, Duration: 15},
		},
	},
}

// Describe returns the named, described fatigue type for d at score.
func Describe(d model.FatigueDimension, score int) model.FatigueType {
	info := typeInfos[d]
	ft := model.FatigueType{
		Type:        d,
		Name:        info.name,
		Score:       score,
		Description: info.description,
		Solutions:   info.solutions,
	}
	for _, s := range info.rest {
		ft.RestActivities = append(ft.RestActivities, s.Name)
	}
	return ft
}

// Suggestions returns the rest activities recommended for d.
func Suggestions(d model.FatigueDimension) []Suggestion {
	return append([]Suggestion(nil), typeInfos[d].rest...)
}

// DimensionName is the display name of d.
func DimensionName(d model.FatigueDimension) string {
	return typeInfos[d].name
}
