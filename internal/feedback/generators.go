package feedback

import (
	"fmt"
	"math"

	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Angle hint thresholds in degrees.
const (
	torsoLeanLimit      = 45.0
	elbowAsymmetryLimit = 20.0
)

// GeneralGenerator gives visibility, symmetry and posture feedback for any exercise.
type GeneralGenerator struct {
	rules ruleSet
}

// NewGeneralGenerator creates a GeneralGenerator.
func NewGeneralGenerator() *GeneralGenerator {
	return &GeneralGenerator{rules: ruleSet{
		bands: []overallBand{
			{80, Item{Success, "Outstanding form! Keep up the great work.", PriorityCritical}},
			{60, Item{Warning, "Good effort! A few adjustments will improve your form.", PriorityImportant}},
			{0, Item{Error, "Form needs significant improvement. Focus on the corrections below.", PriorityCritical}},
		},
		rules: []metricRule{
			{
				key:       scoring.KeyVisibility,
				severity:  Warning,
				priority:  PriorityCritical,
				concern:   "Some body parts are not clearly visible. Adjust your position or the lighting.",
				excellent: 90,
				praise:    "Excellent visibility. Your whole body is in frame.",
			},
			{
				key:       scoring.KeySymmetry,
				severity:  Error,
				priority:  PriorityCritical,
				concern:   "Your body is asymmetrical. Keep both sides balanced.",
				excellent: 85,
				praise:    "Great symmetry between left and right sides.",
			},
			{
				key:       scoring.KeyPosture,
				severity:  Warning,
				priority:  PriorityImportant,
				concern:   "Keep your spine straight and your shoulders over your hips.",
				excellent: 85,
				praise:    "Excellent posture and spine alignment.",
			},
		},
		tips: []string{
			"Maintain steady breathing throughout the exercise.",
			"Keep your core engaged for better stability.",
		},
	}}
}

// Generate returns general feedback. Angles are not used.
func (g *GeneralGenerator) Generate(score scoring.Score, _ pose.AngleSet) []Item {
	items := g.rules.generate(score)
	Sort(items)
	return items
}

// SquatGenerator gives squat specific feedback.
type SquatGenerator struct {
	rules ruleSet
}

// NewSquatGenerator creates a SquatGenerator.
func NewSquatGenerator() *SquatGenerator {
	return &SquatGenerator{rules: ruleSet{
		bands: []overallBand{
			{85, Item{Success, "Perfect squat form! Excellent work!", PriorityCritical}},
			{70, Item{Success, "Good squat technique! Minor adjustments needed.", PriorityImportant}},
			{0, Item{Warning, "Squat form needs improvement.", PriorityCritical}},
		},
		rules: []metricRule{
			{
				key:       scoring.KeyKneeAlignment,
				severity:  Error,
				priority:  PriorityCritical,
				concern:   "Keep your knees aligned with your toes.",
				excellent: 90,
				praise:    "Knee bend is right on target.",
			},
			{
				key:       scoring.KeyHipDepth,
				severity:  Warning,
				priority:  PriorityImportant,
				concern:   "Try to lower your hips to parallel or below.",
				excellent: 90,
				praise:    "Great squat depth.",
			},
			{
				key:       scoring.KeyBackAngle,
				severity:  Error,
				priority:  PriorityCritical,
				concern:   "Maintain a neutral spine. Avoid rounding your back.",
				excellent: 90,
				praise:    "Solid back position.",
			},
		},
		tips: []string{
			"Push through your heels as you stand up.",
			"Keep your chest up and core tight.",
		},
	}}
}

// Generate returns squat feedback, adding a torso lean hint when the back angle is known.
func (s *SquatGenerator) Generate(score scoring.Score, angles pose.AngleSet) []Item {
	items := s.rules.generate(score)
	if lean, ok := angles[pose.AngleBack]; ok && lean > torsoLeanLimit {
		items = append(items, Item{
			Severity: Info,
			Message:  fmt.Sprintf("Your torso leans %.0f° from vertical. Keep your chest up.", lean),
			Priority: PriorityPositive,
		})
	}
	Sort(items)
	return items
}

// PushupGenerator gives pushup specific feedback.
type PushupGenerator struct {
	rules ruleSet
}

// NewPushupGenerator creates a PushupGenerator.
func NewPushupGenerator() *PushupGenerator {
	return &PushupGenerator{rules: ruleSet{
		bands: []overallBand{
			{85, Item{Success, "Excellent pushup form!", PriorityCritical}},
			{70, Item{Success, "Good pushup technique!", PriorityImportant}},
			{0, Item{Warning, "Pushup form needs work.", PriorityCritical}},
		},
		rules: []metricRule{
			{
				key:       scoring.KeyElbowAngle,
				severity:  Error,
				priority:  PriorityCritical,
				concern:   "Keep your elbows at a 45° angle from your body.",
				excellent: 90,
				praise:    "Elbow bend is spot on.",
			},
			{
				key:       scoring.KeyBodyAlignment,
				severity:  Error,
				priority:  PriorityCritical,
				concern:   "Maintain a straight line from head to heels.",
				excellent: 90,
				praise:    "Great plank line from head to heels.",
			},
		},
		tips: []string{
			"Engage your core throughout the movement.",
			"Lower your chest to just above the ground.",
		},
	}}
}

// Generate returns pushup feedback, adding a hint when the elbows bend unevenly.
func (p *PushupGenerator) Generate(score scoring.Score, angles pose.AngleSet) []Item {
	items := p.rules.generate(score)
	left, lok := angles[pose.AngleLeftElbow]
	right, rok := angles[pose.AngleRightElbow]
	if lok && rok && math.Abs(left-right) > elbowAsymmetryLimit {
		items = append(items, Item{
			Severity: Info,
			Message:  fmt.Sprintf("Your arms are uneven by %.0f°. Lower both sides together.", math.Abs(left-right)),
			Priority: PriorityPositive,
		})
	}
	Sort(items)
	return items
}
