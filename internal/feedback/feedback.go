// Package feedback turns form scores into prioritized coaching messages.
package feedback

import (
	"fmt"
	"sort"

	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Severity classifies a feedback item.
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Priorities, lower is shown first.
const (
	PriorityCritical  = 1
	PriorityImportant = 2
	PriorityPositive  = 3
	PriorityTip       = 4
)

// Thresholds shared by the exercise generators.
const (
	concernThreshold = 70.0
	severeThreshold  = 50.0
	tipThreshold     = 80.0
)

// Item is one feedback message.
type Item struct {
	Severity Severity `json:"type"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
}

// Generator produces feedback for a scored frame.
type Generator interface {
	// Generate returns items sorted by ascending priority.
	// Items with equal priority keep their generation order.
	Generate(score scoring.Score, angles pose.AngleSet) []Item
}

// overallBand is a lower bound on the overall score and the item it produces.
type overallBand struct {
	min  float64
	item Item
}

// metricRule describes concern and praise messages for one breakdown key.
type metricRule struct {
	key      string
	severity Severity
	priority int
	concern  string

	// Praise is given at or above excellent. Zero disables praise.
	excellent float64
	praise    string
}

// ruleSet is the table-driven core shared by every generator.
type ruleSet struct {
	// Bands are ordered from highest min to lowest.
	bands []overallBand
	rules []metricRule
	tips  []string
}

func (r ruleSet) generate(score scoring.Score) []Item {
	items := make([]Item, 0, len(r.rules)+len(r.tips)+1)

	// 1. Overall assessment
	for _, band := range r.bands {
		if score.Overall >= band.min {
			items = append(items, band.item)
			break
		}
	}

	// 2. Concerns and praise per metric
	for _, rule := range r.rules {
		value, ok := score.Breakdown[rule.key]
		if !ok {
			continue
		}
		switch {
		case value < concernThreshold:
			severity := rule.severity
			if value < severeThreshold {
				severity = Error
			}
			items = append(items, Item{Severity: severity, Message: rule.concern, Priority: rule.priority})
		case rule.excellent > 0 && value >= rule.excellent:
			items = append(items, Item{Severity: Success, Message: rule.praise, Priority: PriorityPositive})
		}
	}

	// 3. Tips
	if score.Overall < tipThreshold {
		for _, tip := range r.tips {
			items = append(items, Item{Severity: Info, Message: tip, Priority: PriorityTip})
		}
	}

	return items
}

// Sort orders items by ascending priority, keeping the order of equal priorities.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority < items[j].Priority
	})
}

// Incomplete returns the minimal feedback for a frame whose required landmarks were not visible.
func Incomplete(missing []string) []Item {
	msg := "Some body parts are out of frame. Make sure your whole body is visible to the camera."
	if len(missing) > 0 {
		msg = fmt.Sprintf("Could not see %d required body points. Make sure your whole body is visible to the camera.", len(missing))
	}
	return []Item{{Severity: Info, Message: msg, Priority: PriorityCritical}}
}

// NoPose returns the feedback for a frame without a detected person.
func NoPose() []Item {
	return []Item{{Severity: Info, Message: "No person detected. Step into the frame to begin.", Priority: PriorityCritical}}
}
