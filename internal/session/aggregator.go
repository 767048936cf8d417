package session

import (
	"fmt"
	"math"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/feedback"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Severity shares at or above which a session summary sentence is emitted.
const (
	successShare = 60.0
	warningShare = 30.0
	errorShare   = 30.0
)

// Summary is the aggregate view of a session at a point in time.
type Summary struct {
	FramesProcessed  int `json:"frames_processed"`
	FramesScored     int `json:"frames_scored"`
	FramesNoPose     int `json:"frames_no_pose"`
	FramesIncomplete int `json:"frames_incomplete"`

	// Score is nil until at least one frame has been scored.
	Score    *scoring.Score            `json:"score"`
	Feedback []feedback.Item           `json:"feedback"`
	Severity map[feedback.Severity]int `json:"severity"`
}

// Aggregator folds frame results into running session statistics.
// It is not safe for concurrent use; Session serializes access.
type Aggregator struct {
	processed  int
	scored     int
	noPose     int
	incomplete int

	overallSum     float64
	breakdownSum   map[string]float64
	breakdownCount map[string]int

	severity map[feedback.Severity]int
	items    int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		breakdownSum:   make(map[string]float64),
		breakdownCount: make(map[string]int),
		severity:       make(map[feedback.Severity]int),
	}
}

// Add folds one frame into the aggregate. Every feedback item a frame emits
// is classified by severity; frames without a score count as processed but do
// not affect averages.
func (a *Aggregator) Add(r exercise.FrameResult) {
	a.processed++

	switch r.Outcome {
	case exercise.NoPose:
		a.noPose++
	case exercise.Incomplete:
		a.incomplete++
	}

	for _, item := range r.Feedback {
		a.severity[item.Severity]++
		a.items++
	}

	if !r.HasScore() {
		return
	}

	a.scored++
	a.overallSum += r.Score.Overall
	for k, v := range r.Score.Breakdown {
		a.breakdownSum[k] += v
		a.breakdownCount[k]++
	}
}

// Processed returns the number of frames folded so far.
func (a *Aggregator) Processed() int {
	return a.processed
}

// Summary returns the current aggregate. It can be called mid-session.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		FramesProcessed:  a.processed,
		FramesScored:     a.scored,
		FramesNoPose:     a.noPose,
		FramesIncomplete: a.incomplete,
		Severity:         make(map[feedback.Severity]int, len(a.severity)),
	}
	for k, v := range a.severity {
		s.Severity[k] = v
	}

	if a.scored == 0 {
		s.Feedback = []feedback.Item{{
			Severity: feedback.Info,
			Message:  "No valid poses detected. Make sure your whole body is visible to the camera.",
			Priority: feedback.PriorityCritical,
		}}
		return s
	}

	// Each breakdown key is averaged over the frames that reported it.
	breakdown := make(scoring.Breakdown, len(a.breakdownSum))
	for k, sum := range a.breakdownSum {
		breakdown[k] = round2(sum / float64(a.breakdownCount[k]))
	}
	s.Score = &scoring.Score{
		Overall:   round2(a.overallSum / float64(a.scored)),
		Breakdown: breakdown,
	}

	s.Feedback = a.summaryFeedback(s.Score.Overall)
	return s
}

func (a *Aggregator) summaryFeedback(average float64) []feedback.Item {
	var items []feedback.Item

	if a.items > 0 {
		share := func(sev feedback.Severity) float64 {
			return float64(a.severity[sev]) / float64(a.items) * 100
		}

		if p := share(feedback.Success); p >= successShare {
			items = append(items, feedback.Item{
				Severity: feedback.Success,
				Message:  fmt.Sprintf("Great session! %.0f%% of your feedback was positive.", p),
				Priority: feedback.PriorityCritical,
			})
		}
		if p := share(feedback.Warning); p >= warningShare {
			items = append(items, feedback.Item{
				Severity: feedback.Warning,
				Message:  fmt.Sprintf("Some form issues came up in %.0f%% of your feedback. Review the warnings.", p),
				Priority: feedback.PriorityImportant,
			})
		}
		if p := share(feedback.Error); p >= errorShare {
			items = append(items, feedback.Item{
				Severity: feedback.Error,
				Message:  fmt.Sprintf("Several corrections needed: %.0f%% of your feedback flagged errors.", p),
				Priority: feedback.PriorityCritical,
			})
		}
	}

	items = append(items, feedback.Item{
		Severity: feedback.Info,
		Message:  fmt.Sprintf("Average form score %.1f/100 across %d scored frames.", average, a.scored),
		Priority: feedback.PriorityPositive,
	})

	feedback.Sort(items)
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
