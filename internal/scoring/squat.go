package scoring

import (
	"math"

	"github.com/ayusman/posecoach/internal/pose"
)

// Squat breakdown keys.
const (
	KeyKneeAlignment = "knee_alignment"
	KeyHipDepth      = "hip_depth"
	KeyBackAngle     = "back_angle"
)

// Target knee angle band at the bottom of a squat, in degrees.
const (
	squatKneeMin       = 85.0
	squatKneeMax       = 110.0
	squatKneeTolerance = 15.0
)

var squatWeights = []weight{
	{KeyKneeAlignment, 0.4},
	{KeyHipDepth, 0.4},
	{KeyBackAngle, 0.2},
}

// SquatScorer rates squat depth, knee bend and torso position.
type SquatScorer struct{}

// NewSquatScorer creates a SquatScorer.
func NewSquatScorer() *SquatScorer {
	return &SquatScorer{}
}

// Name returns "squat".
func (s *SquatScorer) Name() string { return "squat" }

// Default returns the neutral squat score.
func (s *SquatScorer) Default() Score { return defaultScore(squatWeights) }

// Score rates a squat frame.
func (s *SquatScorer) Score(set *pose.LandmarkSet, angles pose.AngleSet) Score {
	if !set.Has(pose.SquatLandmarks...) {
		return s.Default()
	}

	// Knee bend
	knee, ok := angles.Mean(pose.AngleLeftKnee, pose.AngleRightKnee)
	if !ok {
		knee = kneeAngle(set)
	}
	kneeScore := RangeScore(knee, squatKneeMin, squatKneeMax, squatKneeTolerance)

	// Depth: hips should drop below the knees (y grows downward)
	hipY, _ := midY(set, pose.LeftHip, pose.RightHip)
	kneeY, _ := midY(set, pose.LeftKnee, pose.RightKnee)
	depthScore := NeutralScore
	if hipY > kneeY {
		depthScore = math.Min(100, math.Abs(hipY-kneeY)*500)
	}

	// Torso: vertical gap between shoulders and hips
	backScore := 75.0
	if shoulderY, ok := midY(set, pose.LeftShoulder, pose.RightShoulder); ok {
		gap := math.Abs(shoulderY-hipY) * 100
		backScore = math.Min(100, gap*2)
	}

	return combine(squatWeights, map[string]float64{
		KeyKneeAlignment: kneeScore,
		KeyHipDepth:      depthScore,
		KeyBackAngle:     backScore,
	})
}

func kneeAngle(set *pose.LandmarkSet) float64 {
	lh, _ := set.ByID(pose.LeftHip)
	lk, _ := set.ByID(pose.LeftKnee)
	la, _ := set.ByID(pose.LeftAnkle)
	rh, _ := set.ByID(pose.RightHip)
	rk, _ := set.ByID(pose.RightKnee)
	ra, _ := set.ByID(pose.RightAnkle)
	return (pose.AngleBetween(lh, lk, la) + pose.AngleBetween(rh, rk, ra)) / 2
}
