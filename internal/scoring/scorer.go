// Package scoring turns body landmarks and joint angles into exercise form scores.
package scoring

import (
	"math"

	"github.com/ayusman/posecoach/internal/pose"
)

// NeutralScore is the value used for metrics that cannot be measured.
const NeutralScore = 50.0

// Breakdown maps a metric name to its score in [0, 100].
type Breakdown map[string]float64

// Score is the result of scoring one frame.
type Score struct {
	Overall   float64   `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scorer computes a form score for one exercise.
type Scorer interface {
	// Name returns the exercise this scorer handles.
	Name() string

	// Score rates a landmark set. Angles already extracted for the frame are
	// used when present; missing ones are derived from the set.
	// When required landmarks are absent the scorer returns Default().
	Score(set *pose.LandmarkSet, angles pose.AngleSet) Score

	// Default returns the neutral score with every metric key at NeutralScore.
	Default() Score
}

// weight pairs a breakdown key with its share of the overall score.
type weight struct {
	key    string
	weight float64
}

// combine builds a Score from metric values using fixed weights.
// Every value is clamped to [0, 100] and rounded to two decimals.
func combine(weights []weight, values map[string]float64) Score {
	breakdown := make(Breakdown, len(weights))
	var overall float64
	for _, w := range weights {
		v := clamp(values[w.key])
		breakdown[w.key] = round2(v)
		overall += v * w.weight
	}
	return Score{
		Overall:   round2(clamp(overall)),
		Breakdown: breakdown,
	}
}

// defaultScore returns NeutralScore for every key.
func defaultScore(weights []weight) Score {
	values := make(map[string]float64, len(weights))
	for _, w := range weights {
		values[w.key] = NeutralScore
	}
	return combine(weights, values)
}

// RangeScore rates value against the band [targetMin, targetMax].
// Inside the band scores 100. Within tolerance of the band the score falls
// linearly to 70, then to 0 at twice the tolerance.
func RangeScore(value, targetMin, targetMax, tolerance float64) float64 {
	if value >= targetMin && value <= targetMax {
		return 100
	}

	var deviation float64
	if value < targetMin {
		deviation = targetMin - value
	} else {
		deviation = value - targetMax
	}

	if tolerance <= 0 {
		return 0
	}
	if deviation <= tolerance {
		return 100 - (deviation/tolerance)*30
	}
	return math.Max(0, 70-((deviation-tolerance)/tolerance)*70)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// midY returns the mean y of two keypoints, and false if either is missing.
func midY(s *pose.LandmarkSet, a, b int) (float64, bool) {
	pa, ok1 := s.ByID(a)
	pb, ok2 := s.ByID(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return (pa.Y + pb.Y) / 2, true
}
