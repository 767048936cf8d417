package exercise

import (
	"errors"

	"github.com/ayusman/posecoach/internal/feedback"
	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Outcome describes how a frame was handled.
type Outcome string

const (
	// Scored frames have a full score and feedback.
	Scored Outcome = "scored"
	// Incomplete frames lacked required landmarks and carry the default score.
	Incomplete Outcome = "incomplete"
	// NoPose frames had no detected person and carry no score.
	NoPose Outcome = "no_pose"
)

// FrameResult is the analysis of one frame.
type FrameResult struct {
	Outcome  Outcome         `json:"outcome"`
	Score    *scoring.Score  `json:"score"`
	Feedback []feedback.Item `json:"feedback"`
	Angles   pose.AngleSet   `json:"angles,omitempty"`
	Missing  []string        `json:"missing,omitempty"`
}

// HasScore reports whether the frame contributes to averages.
func (r FrameResult) HasScore() bool {
	return r.Score != nil
}

// Analyze scores a single frame. It never fails: a nil set yields a NoPose
// result and missing landmarks yield the variant's default score.
func (v Variant) Analyze(set *pose.LandmarkSet) FrameResult {
	if set == nil {
		return FrameResult{Outcome: NoPose, Feedback: feedback.NoPose()}
	}

	angles, err := v.Extract(set)
	if err != nil {
		var missing *pose.MissingLandmarksError
		if errors.As(err, &missing) {
			score := v.Scorer.Default()
			return FrameResult{
				Outcome:  Incomplete,
				Score:    &score,
				Feedback: feedback.Incomplete(missing.Names),
				Missing:  missing.Names,
			}
		}
		return FrameResult{Outcome: NoPose, Feedback: feedback.NoPose()}
	}

	score := v.Scorer.Score(set, angles)
	return FrameResult{
		Outcome:  Scored,
		Score:    &score,
		Feedback: v.Feedback.Generate(score, angles),
		Angles:   angles,
	}
}
