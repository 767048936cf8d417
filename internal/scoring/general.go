package scoring

import (
	"math"

	"github.com/ayusman/posecoach/internal/pose"
)

// General breakdown keys.
const (
	KeyVisibility = "visibility"
	KeySymmetry   = "symmetry"
	KeyPosture    = "posture"
)

var generalWeights = []weight{
	{KeyVisibility, 0.3},
	{KeySymmetry, 0.3},
	{KeyPosture, 0.4},
}

// symmetryPairs are the left/right landmark pairs compared for vertical symmetry.
var symmetryPairs = [][2]int{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftElbow, pose.RightElbow},
	{pose.LeftWrist, pose.RightWrist},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftKnee, pose.RightKnee},
	{pose.LeftAnkle, pose.RightAnkle},
}

// GeneralScorer rates any pose on visibility, left/right symmetry and spine alignment.
type GeneralScorer struct{}

// NewGeneralScorer creates a GeneralScorer.
func NewGeneralScorer() *GeneralScorer {
	return &GeneralScorer{}
}

// Name returns "general".
func (g *GeneralScorer) Name() string { return "general" }

// Default returns the neutral general score.
func (g *GeneralScorer) Default() Score { return defaultScore(generalWeights) }

// Score rates the set. Angles are not used.
func (g *GeneralScorer) Score(set *pose.LandmarkSet, _ pose.AngleSet) Score {
	if set.Len() == 0 {
		return g.Default()
	}

	return combine(generalWeights, map[string]float64{
		KeyVisibility: visibilityScore(set),
		KeySymmetry:   symmetryScore(set),
		KeyPosture:    postureScore(set),
	})
}

// visibilityScore is the percentage of present keypoints seen with confidence.
func visibilityScore(set *pose.LandmarkSet) float64 {
	kps := set.Keypoints()
	if len(kps) == 0 {
		return 0
	}

	visible := 0
	for _, kp := range kps {
		if kp.Visibility > pose.DefaultVisibilityThreshold {
			visible++
		}
	}
	return float64(visible) / float64(len(kps)) * 100
}

// symmetryScore compares the heights of paired left/right landmarks.
// A mean difference under 0.05 is perfect and over 0.2 floors at 50.
func symmetryScore(set *pose.LandmarkSet) float64 {
	var total float64
	var n int
	for _, p := range symmetryPairs {
		l, lok := set.ByID(p[0])
		r, rok := set.ByID(p[1])
		if !lok || !rok {
			continue
		}
		total += math.Abs(l.Y - r.Y)
		n++
	}
	if n == 0 {
		return NeutralScore
	}

	avg := total / float64(n)
	switch {
	case avg < 0.05:
		return 100
	case avg > 0.2:
		return 50
	default:
		return 100 - (avg-0.05)*333
	}
}

// postureScore measures horizontal offset between shoulder and hip centers.
func postureScore(set *pose.LandmarkSet) float64 {
	if !set.Has(pose.Nose, pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip) {
		return NeutralScore
	}

	ls, _ := set.ByID(pose.LeftShoulder)
	rs, _ := set.ByID(pose.RightShoulder)
	lh, _ := set.ByID(pose.LeftHip)
	rh, _ := set.ByID(pose.RightHip)

	shoulderX := (ls.X + rs.X) / 2
	hipX := (lh.X + rh.X) / 2
	alignment := math.Abs(shoulderX - hipX)

	var score float64
	switch {
	case alignment < 0.05:
		score = 100
	case alignment > 0.15:
		score = 50
	default:
		score = 100 - (alignment-0.05)*500
	}
	return math.Max(50, score)
}
