package api

import (
	"net/http"
	"sort"

	"github.com/ayusman/posecoach/internal/exercise"
)

// ExerciseHandler lists the supported exercise types.
type ExerciseHandler struct {
	registry *exercise.Registry
}

// NewExerciseHandler creates an ExerciseHandler for the given registry.
func NewExerciseHandler(registry *exercise.Registry) *ExerciseHandler {
	if registry == nil {
		registry = exercise.NewRegistry()
	}
	return &ExerciseHandler{registry: registry}
}

type exerciseResponse struct {
	Type    exercise.Type `json:"type"`
	Metrics []string      `json:"metrics"`
	Default bool          `json:"default"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

// ServeHTTP handles GET /api/exercises.
func (h *ExerciseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fallback, _ := h.registry.Lookup("")
	resp := listExercisesResponse{Exercises: []exerciseResponse{}}
	for _, t := range h.registry.Types() {
		v, _ := h.registry.Lookup(string(t))
		metrics := make([]string, 0)
		for key := range v.Scorer.Default().Breakdown {
			metrics = append(metrics, key)
		}
		sort.Strings(metrics)
		resp.Exercises = append(resp.Exercises, exerciseResponse{
			Type:    t,
			Metrics: metrics,
			Default: t == fallback.Type,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
