// Package exercise binds scorers and feedback generators to exercise types
// and analyzes single frames.
package exercise

import (
	"sort"
	"strings"

	"github.com/ayusman/posecoach/internal/feedback"
	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/scoring"
)

// Type names a supported exercise.
type Type string

const (
	General Type = "general"
	Squat   Type = "squat"
	Pushup  Type = "pushup"
)

// ExtractFunc pulls the joint angles a variant needs from a landmark set.
type ExtractFunc func(*pose.LandmarkSet) (pose.AngleSet, error)

// Variant is the scorer, feedback generator and angle extractor for one exercise.
type Variant struct {
	Type     Type
	Scorer   scoring.Scorer
	Feedback feedback.Generator
	Extract  ExtractFunc
}

// Registry maps exercise types to variants. It is read-only after construction
// and safe for concurrent use.
type Registry struct {
	variants map[Type]Variant
	fallback Type
}

// NewRegistry creates a Registry with the general, squat and pushup variants.
// Unknown types resolve to general.
func NewRegistry() *Registry {
	return NewRegistryWith(General,
		Variant{
			Type:     General,
			Scorer:   scoring.NewGeneralScorer(),
			Feedback: feedback.NewGeneralGenerator(),
			Extract:  extractGeneral,
		},
		Variant{
			Type:     Squat,
			Scorer:   scoring.NewSquatScorer(),
			Feedback: feedback.NewSquatGenerator(),
			Extract:  pose.ExtractSquatAngles,
		},
		Variant{
			Type:     Pushup,
			Scorer:   scoring.NewPushupScorer(),
			Feedback: feedback.NewPushupGenerator(),
			Extract:  pose.ExtractPushupAngles,
		},
	)
}

// NewRegistryWith creates a Registry from explicit variants. fallback must be
// one of them.
func NewRegistryWith(fallback Type, variants ...Variant) *Registry {
	r := &Registry{
		variants: make(map[Type]Variant, len(variants)),
		fallback: fallback,
	}
	for _, v := range variants {
		r.variants[v.Type] = v
	}
	if _, ok := r.variants[fallback]; !ok {
		panic("exercise: fallback variant " + string(fallback) + " not registered")
	}
	return r
}

// Normalize lowercases and trims an exercise name.
func Normalize(name string) Type {
	return Type(strings.ToLower(strings.TrimSpace(name)))
}

// Lookup resolves a case-insensitive exercise name. Unknown names resolve to
// the fallback variant and usedFallback is true.
func (r *Registry) Lookup(name string) (v Variant, usedFallback bool) {
	if v, ok := r.variants[Normalize(name)]; ok {
		return v, false
	}
	return r.variants[r.fallback], true
}

// Types returns the registered exercise types sorted by name.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.variants))
	for t := range r.variants {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// extractGeneral needs no angles but still reports a missing pose.
func extractGeneral(s *pose.LandmarkSet) (pose.AngleSet, error) {
	if s == nil {
		return nil, pose.ErrNoPose
	}
	return pose.AngleSet{}, nil
}
