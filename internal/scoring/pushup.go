package scoring

import (
	"math"

	"github.com/ayusman/posecoach/internal/pose"
)

// Pushup breakdown keys.
const (
	KeyElbowAngle    = "elbow_angle"
	KeyBodyAlignment = "body_alignment"
)

// pushupElbowTarget is the ideal elbow angle at the bottom of a rep.
const pushupElbowTarget = 90.0

var pushupWeights = []weight{
	{KeyElbowAngle, 0.6},
	{KeyBodyAlignment, 0.4},
}

// PushupScorer rates elbow bend and the shoulder to hip line.
type PushupScorer struct{}

// NewPushupScorer creates a PushupScorer.
func NewPushupScorer() *PushupScorer {
	return &PushupScorer{}
}

// Name returns "pushup".
func (p *PushupScorer) Name() string { return "pushup" }

// Default returns the neutral pushup score.
func (p *PushupScorer) Default() Score { return defaultScore(pushupWeights) }

// Score rates a pushup frame.
func (p *PushupScorer) Score(set *pose.LandmarkSet, angles pose.AngleSet) Score {
	if !set.Has(pose.PushupLandmarks...) {
		return p.Default()
	}

	elbow, ok := angles.Mean(pose.AngleLeftElbow, pose.AngleRightElbow)
	if !ok {
		elbow = elbowAngle(set)
	}
	elbowScore := 100 - math.Min(50, math.Abs(elbow-pushupElbowTarget))

	alignScore := 75.0
	if hipY, ok := midY(set, pose.LeftHip, pose.RightHip); ok {
		shoulderY, _ := midY(set, pose.LeftShoulder, pose.RightShoulder)
		alignScore = math.Max(50, 100-math.Abs(shoulderY-hipY)*200)
	}

	return combine(pushupWeights, map[string]float64{
		KeyElbowAngle:    elbowScore,
		KeyBodyAlignment: alignScore,
	})
}

func elbowAngle(set *pose.LandmarkSet) float64 {
	ls, _ := set.ByID(pose.LeftShoulder)
	le, _ := set.ByID(pose.LeftElbow)
	lw, _ := set.ByID(pose.LeftWrist)
	rs, _ := set.ByID(pose.RightShoulder)
	re, _ := set.ByID(pose.RightElbow)
	rw, _ := set.ByID(pose.RightWrist)
	return (pose.AngleBetween(ls, le, lw) + pose.AngleBetween(rs, re, rw)) / 2
}
