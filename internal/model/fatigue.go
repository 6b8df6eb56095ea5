package model

// FatigueDimension names one of the nine questionnaire dimensions.
type FatigueDimension string

const (
	DimPhysical       FatigueDimension = "physical"
	DimEmotional      FatigueDimension = "emotional"
	DimCognitive      FatigueDimension = "cognitive"
	DimSocial         FatigueDimension = "social"
	DimAchievement    FatigueDimension = "achievement"
	DimCaregiving     FatigueDimension = "caregiving"
	DimAnxiety        FatigueDimension = "anxiety"
	DimHormonal       FatigueDimension = "hormonal"
	DimChronicFatigue FatigueDimension = "chronicFatigue"
)

// FatigueDimensions is the canonical dimension order.
var FatigueDimensions = []FatigueDimension{
	DimPhysical, DimEmotional, DimCognitive, DimSocial, DimAchievement,
	DimCaregiving, DimAnxiety, DimHormonal, DimChronicFatigue,
}

type FatigueScores struct {
	Physical       int `json:"physical"`
	Emotional      int `json:"emotional"`
	Cognitive      int `json:"cognitive"`
	Social         int `json:"social"`
	Achievement    int `json:"achievement"`
	Caregiving     int `json:"caregiving"`
	Anxiety        int `json:"anxiety"`
	Hormonal       int `json:"hormonal"`
	ChronicFatigue int `json:"chronicFatigue"`
}

func (s *FatigueScores) field(d FatigueDimension) *int {
	switch d {
	case DimPhysical:
		return &s.Physical
	case DimEmotional:
		return &s.Emotional
	case DimCognitive:
		return &s.Cognitive
	case DimSocial:
		return &s.Social
	case DimAchievement:
		return &s.Achievement
	case DimCaregiving:
		return &s.Caregiving
	case DimAnxiety:
		return &s.Anxiety
	case DimHormonal:
		return &s.Hormonal
	case DimChronicFatigue:
		return &s.ChronicFatigue
	}
	return nil
}

// Get returns the score for d, or 0 for an unknown dimension.
func (s FatigueScores) Get(d FatigueDimension) int {
	if p := s.field(d); p != nil {
		return *p
	}
	return 0
}

// Set assigns the score for d. Unknown dimensions are ignored.
func (s *FatigueScores) Set(d FatigueDimension, v int) {
	if p := s.field(d); p != nil {
		*p = v
	}
}

// FatigueType is a scored dimension together with its guidance text.
type FatigueType struct {
	Type           FatigueDimension `json:"type"`
	Name           string           `json:"name"`
	Score          int              `json:"score"`
	Description    string           `json:"description,omitempty"`
	Solutions      string           `json:"solutions,omitempty"`
	RestActivities []string         `json:"restActivities,omitempty"`
}
