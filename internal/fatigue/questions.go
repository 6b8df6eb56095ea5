// Package fatigue holds the fatigue-type questionnaire and its scoring.
package fatigue

import (
	"math/rand/v2"

	"github.com/sadopc/resttrackr/internal/model"
)

const (
	MinScore = 0
	MaxScore = 5
)

type Block string

const (
	BlockA Block = "A"
	BlockB Block = "B"
	BlockC Block = "C"
	BlockD Block = "D"
	BlockE Block = "E"
)

var blockNames = map[Block]string{
	BlockA: "Body and energy",
	BlockB: "Emotions and worry",
	BlockC: "Mind and ambition",
	BlockD: "People and care",
	BlockE: "Long-term exhaustion",
}

func (b Block) Name() string { return blockNames[b] }

type Question struct {
	ID        int
	Block     Block
	Dimension model.FatigueDimension
	Text      string
}

// Instructions is shown before the first question.
const Instructions = "Rate how often each statement applied to you over the last two weeks: " +
	"0 never, 1 rarely, 2 sometimes, 3 often, 4 very often, 5 almost always."

var questions = buildQuestions()

func buildQuestions() []Question {
	groups := []struct {
		block Block
		dim   model.FatigueDimension
		texts [5]string
	}{
		{BlockA, model.DimPhysical, [5]string{
			"My muscles feel heavy or sore without a clear reason.",
			"I feel physically drained after ordinary daily tasks.",
			"I need to sit or lie down during the day to recover.",
			"A full night of sleep does not leave my body rested.",
			"I get tension headaches or back and neck pain.",
		}},
		{BlockA, model.DimHormonal, [5]string{
			"My energy swings sharply at certain times of the day or month.",
			"I feel cold, puffy or sluggish more than people around me.",
			"I crave sugar or caffeine to get through the afternoon.",
			"My sleep changed without any change in my routine.",
			"My weight or appetite shifted noticeably for no clear reason.",
		}},
		{BlockB, model.DimEmotional, [5]string{
			"I feel emotionally empty at the end of the day.",
			"Small setbacks make me cry or snap at people.",
			"I struggle to feel joy in things I used to enjoy.",
			"I hold back my feelings to keep the peace.",
			"I feel numb or detached from what happens around me.",
		}},
		{BlockB, model.DimAnxiety, [5]string{
			"I replay conversations or worry about what could go wrong.",
			"My heart races or my chest feels tight when I am not exerting myself.",
			"I find it hard to switch off my thoughts at bedtime.",
			"I feel on edge even when nothing is happening.",
			"I avoid situations because they might become stressful.",
		}},
		{BlockC, model.DimCognitive, [5]string{
			"I reread the same paragraph several times to understand it.",
			"I forget why I walked into a room or what I was about to say.",
			"Making simple decisions feels exhausting.",
			"My mind feels foggy after a few hours of focused work.",
			"I lose track of tasks when I am interrupted.",
		}},
		{BlockC, model.DimAchievement, [5]string{
			"I feel I must be productive to deserve rest.",
			"I keep working even when I know I should stop.",
			"I measure my worth by what I get done.",
			"Finishing a goal brings relief rather than satisfaction.",
			"I feel guilty when I take a day off.",
		}},
		{BlockD, model.DimSocial, [5]string{
			"After spending time with people I need to be alone to recover.",
			"I cancel plans because I do not have the energy to talk.",
			"Group chats and messages feel like an obligation.",
			"I feel lonely even when I am surrounded by people.",
			"I pretend to be fine so others will not worry.",
		}},
		{BlockD, model.DimCaregiving, [5]string{
			"I put the needs of others ahead of my own most days.",
			"I feel responsible for how the people close to me feel.",
			"I rarely get time that belongs only to me.",
			"I find it hard to ask for help with the people I care for.",
			"I feel resentful about caring for others and then feel guilty.",
		}},
		{BlockE, model.DimChronicFatigue, [5]string{
			"I have felt exhausted for more than six months.",
			"Rest or a holiday does not restore my energy.",
			"Even light activity leaves me wiped out for a day or more.",
			"I wake up feeling as if I have not slept at all.",
			"My exhaustion limits my work, study or home life.",
		}},
	}
	out := make([]Question, 0, 45)
	id := 1
	for _, g := range groups {
		for _, text := range g.texts {
			out = append(out, Question{ID: id, Block: g.block, Dimension: g.dim, Text: text})
			id++
		}
	}
	return out
}

// Questions returns the questionnaire in block order.
func Questions() []Question {
	return append([]Question(nil), questions...)
}

// Shuffled returns the questions in random order, as presented to the user.
func Shuffled(r *rand.Rand) []Question {
	qs := Questions()
	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	return qs
}

// QuestionIDs maps each dimension to the ids of its questions.
func QuestionIDs() map[model.FatigueDimension][]int {
	out := make(map[model.FatigueDimension][]int, len(model.FatigueDimensions))
	for _, q := range questions {
		out[q.Dimension] = append(out[q.Dimension], q.ID)
	}
	return out
}

func questionByID(id int) (Question, bool) {
	if id < 1 || id > len(questions) {
		return Question{}, false
	}
	return questions[id-1], true
}
