package fatigue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/resttrackr/internal/model"
)

const (
	// DominantThreshold is the lowest score counted as a dominant type.
	DominantThreshold = 11
	MaxDominant       = 3
	// HighRiskScore is the score above which a high-risk type warrants a
	// medical warning.
	HighRiskScore = 15
)

var highRisk = []model.FatigueDimension{model.DimChronicFatigue, model.DimHormonal}

var ErrIncomplete = errors.New("questionnaire incomplete")

// CalculateScores sums the answers per dimension. Unanswered questions count
// as zero; scores outside 0-5 are clamped.
func CalculateScores(answers []model.TestAnswer) model.FatigueScores {
	byID := make(map[int]int, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = min(max(a.Score, MinScore), MaxScore)
	}
	var scores model.FatigueScores
	for _, q := range questions {
		scores.Set(q.Dimension, scores.Get(q.Dimension)+byID[q.ID])
	}
	return scores
}

// DominantTypes returns the dimensions scoring at least DominantThreshold,
// highest first, at most limit of them. Equal scores keep dimension order.
func DominantTypes(scores model.FatigueScores, limit int) []model.FatigueType {
	var out []model.FatigueType
	for _, d := range model.FatigueDimensions {
		if s := scores.Get(d); s >= DominantThreshold {
			out = append(out, Describe(d, s))
		}
	}
	slices.SortStableFunc(out, func(a, b model.FatigueType) int { return b.Score - a.Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type Level int

const (
	LevelNormal Level = iota
	LevelModerate
	LevelSevere
)

func (l Level) String() string {
	switch l {
	case LevelModerate:
		return "Moderate fatigue"
	case LevelSevere:
		return "Severe fatigue"
	}
	return "Normal"
}

// Interpretation buckets a dimension score: up to 10 normal, up to 20
// moderate, above that severe.
func Interpretation(score int) Level {
	switch {
	case score <= 10:
		return LevelNormal
	case score <= 20:
		return LevelModerate
	}
	return LevelSevere
}

// HighRiskTypes returns the names of dominant high-risk types scoring above
// HighRiskScore.
func HighRiskTypes(dominant []model.FatigueType) []string {
	var names []string
	for _, t := range dominant {
		if slices.Contains(highRisk, t.Type) && t.Score > HighRiskScore {
			names = append(names, t.Name)
		}
	}
	return names
}

func MedicalWarning(dominant []model.FatigueType) bool {
	return len(HighRiskTypes(dominant)) > 0
}

// ValidateAnswers requires exactly one in-range answer for every question.
func ValidateAnswers(answers []model.TestAnswer) error {
	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		if _, ok := questionByID(a.QuestionID); !ok {
			return fmt.Errorf("unknown question %d", a.QuestionID)
		}
		if a.Score < MinScore || a.Score > MaxScore {
			return fmt.Errorf("question %d: score %d out of range", a.QuestionID, a.Score)
		}
		if seen[a.QuestionID] {
			return fmt.Errorf("question %d answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}
	if len(seen) != len(questions) {
		var missing []string
		for _, q := range questions {
			if !seen[q.ID] {
				missing = append(missing, fmt.Sprint(q.ID))
			}
		}
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// NewResult scores answers into a result record. Answers are sorted by
// question id.
func NewResult(id string, answers []model.TestAnswer, completedAt time.Time) model.TestResult {
	sorted := slices.Clone(answers)
	slices.SortFunc(sorted, func(a, b model.TestAnswer) int { return a.QuestionID - b.QuestionID })
	scores := CalculateScores(sorted)
	return model.TestResult{
		ID:            id,
		CompletedAt:   completedAt,
		Answers:       sorted,
		FatigueScores: scores,
		DominantTypes: DominantTypes(scores, MaxDominant),
	}
}

// Recommendations lists the suggested rest activities for a result's
// dominant types, without repeats.
func Recommendations(r model.TestResult) []Suggestion {
	var out []Suggestion
	seen := map[string]bool{}
	for _, t := range r.DominantTypes {
		for _, s := range Suggestions(t.Type) {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			if s.Description == "" {
				s.Description = "Recommended by the fatigue test: " + strings.ToLower(DimensionName(t.Type))
			}
			out = append(out, s)
		}
	}
	return out
}
