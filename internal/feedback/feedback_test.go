package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/scoring"
)

func assertSorted(t *testing.T, items []Item) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Priority, items[i].Priority, "item %d out of order", i)
	}
}

func messages(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Message
	}
	return out
}

func TestGenerators_PriorityOrder(t *testing.T) {
	generators := map[string]Generator{
		"general": NewGeneralGenerator(),
		"squat":   NewSquatGenerator(),
		"pushup":  NewPushupGenerator(),
	}
	scorers := map[string]scoring.Scorer{
		"general": scoring.NewGeneralScorer(),
		"squat":   scoring.NewSquatScorer(),
		"pushup":  scoring.NewPushupScorer(),
	}
	sets := []*pose.LandmarkSet{
		pose.StandingPose(),
		pose.SquatBottomPose(),
		pose.PushupPose(),
		pose.SaggingPushupPose(),
	}

	for name, gen := range generators {
		for i, set := range sets {
			score := scorers[name].Score(set, nil)
			items := gen.Generate(score, nil)
			require.NotEmpty(t, items, "%s set %d", name, i)
			assertSorted(t, items)
		}
		assertSorted(t, gen.Generate(scorers[name].Default(), nil))
	}
}

func TestSquatGenerator(t *testing.T) {
	g := NewSquatGenerator()

	t.Run("good squat", func(t *testing.T) {
		score := scoring.NewSquatScorer().Score(pose.SquatBottomPose(), nil)
		items := g.Generate(score, pose.AngleSet{pose.AngleBack: 23})

		assert.Equal(t, []string{
			"Perfect squat form! Excellent work!",
			"Knee bend is right on target.",
			"Great squat depth.",
		}, messages(items))
		assert.Equal(t, Success, items[0].Severity)
	})

	t.Run("standing still", func(t *testing.T) {
		score := scoring.NewSquatScorer().Score(pose.StandingPose(), nil)
		items := g.Generate(score, nil)

		assert.Equal(t, []Item{
			{Warning, "Squat form needs improvement.", PriorityCritical},
			{Error, "Keep your knees aligned with your toes.", PriorityCritical},
			{Error, "Maintain a neutral spine. Avoid rounding your back.", PriorityCritical},
			{Warning, "Try to lower your hips to parallel or below.", PriorityImportant},
			{Info, "Push through your heels as you stand up.", PriorityTip},
			{Info, "Keep your chest up and core tight.", PriorityTip},
		}, items)
	})

	t.Run("torso lean hint", func(t *testing.T) {
		score := scoring.Score{Overall: 90, Breakdown: scoring.Breakdown{}}
		items := g.Generate(score, pose.AngleSet{pose.AngleBack: 60})
		require.Len(t, items, 2)
		assert.Equal(t, Info, items[1].Severity)
		assert.Contains(t, items[1].Message, "60°")
	})
}

func TestPushupGenerator(t *testing.T) {
	g := NewPushupGenerator()

	t.Run("sagging", func(t *testing.T) {
		score := scoring.NewPushupScorer().Score(pose.SaggingPushupPose(), nil)
		items := g.Generate(score, nil)

		assert.Equal(t, "Pushup form needs work.", items[0].Message)
		assert.Contains(t, messages(items), "Keep your elbows at a 45° angle from your body.")
		assert.Contains(t, messages(items), "Maintain a straight line from head to heels.")
		assert.Contains(t, messages(items), "Engage your core throughout the movement.")
		assertSorted(t, items)
	})

	t.Run("uneven elbows", func(t *testing.T) {
		score := scoring.Score{Overall: 88, Breakdown: scoring.Breakdown{scoring.KeyElbowAngle: 80, scoring.KeyBodyAlignment: 95}}
		items := g.Generate(score, pose.AngleSet{pose.AngleLeftElbow: 80, pose.AngleRightElbow: 120})

		assert.Equal(t, []Item{
			{Success, "Excellent pushup form!", PriorityCritical},
			{Success, "Great plank line from head to heels.", PriorityPositive},
			{Info, "Your arms are uneven by 40°. Lower both sides together.", PriorityPositive},
		}, items)
	})
}

func TestGeneralGenerator(t *testing.T) {
	g := NewGeneralGenerator()

	t.Run("perfect pose", func(t *testing.T) {
		score := scoring.NewGeneralScorer().Score(pose.StandingPose(), nil)
		items := g.Generate(score, nil)

		require.Len(t, items, 4)
		assert.Equal(t, "Outstanding form! Keep up the great work.", items[0].Message)
		for _, it := range items {
			assert.Equal(t, Success, it.Severity)
		}
	})

	t.Run("escalates severe metrics", func(t *testing.T) {
		score := scoring.Score{
			Overall:   55,
			Breakdown: scoring.Breakdown{scoring.KeyVisibility: 40, scoring.KeySymmetry: 75, scoring.KeyPosture: 65},
		}
		items := g.Generate(score, nil)

		assert.Equal(t, []Item{
			{Error, "Form needs significant improvement. Focus on the corrections below.", PriorityCritical},
			{Error, "Some body parts are not clearly visible. Adjust your position or the lighting.", PriorityCritical},
			{Warning, "Keep your spine straight and your shoulders over your hips.", PriorityImportant},
			{Info, "Maintain steady breathing throughout the exercise.", PriorityTip},
			{Info, "Keep your core engaged for better stability.", PriorityTip},
		}, items)
	})
}

func TestSort_Stable(t *testing.T) {
	items := []Item{
		{Info, "a", 4},
		{Error, "b", 1},
		{Success, "c", 3},
		{Warning, "d", 1},
	}
	Sort(items)
	assert.Equal(t, []string{"b", "d", "c", "a"}, messages(items))
}

func TestIncomplete(t *testing.T) {
	items := Incomplete([]string{"left_ankle", "right_ankle"})
	require.Len(t, items, 1)
	assert.Equal(t, Info, items[0].Severity)
	assert.Contains(t, items[0].Message, "2 required body points")

	assert.Len(t, NoPose(), 1)
}
