package api

import (
	"log/slog"
	"net/http"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/session"
)

// AnalyzeHandler scores a single pose without a long-lived session.
type AnalyzeHandler struct {
	registry *exercise.Registry
	manager  *session.Manager
	detector detector.Detector
	logger   *slog.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler. The manager is used when the
// caller asks for the result to be recorded as an image session; the detector
// enables image input. Both may be nil.
func NewAnalyzeHandler(registry *exercise.Registry, manager *session.Manager, d detector.Detector, logger *slog.Logger) *AnalyzeHandler {
	if registry == nil {
		registry = exercise.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{registry: registry, manager: manager, detector: d, logger: logger}
}

// analyzeRequest carries either landmarks or an encoded JPEG/PNG image
// (base64 in JSON).
type analyzeRequest struct {
	ExerciseType string            `json:"exercise_type"`
	Landmarks    *pose.LandmarkSet `json:"landmarks"`
	Image        []byte            `json:"image,omitempty"`
	Record       bool              `json:"record,omitempty"`
}

type analyzeResponse struct {
	ExerciseType exercise.Type `json:"exercise_type"`
	UsedFallback bool          `json:"used_fallback"`
	exercise.FrameResult
	BodyCenter *pose.Keypoint    `json:"body_center,omitempty"`
	Landmarks  *pose.LandmarkSet `json:"landmarks,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
}

// ServeHTTP handles POST /api/analyze.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	set := req.Landmarks
	var detected *pose.LandmarkSet
	if len(req.Image) > 0 {
		if h.detector == nil {
			writeError(w, http.StatusServiceUnavailable, "Image analysis is not available")
			return
		}
		var status int
		var err error
		detected, status, err = h.detect(req.Image)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		set = detected
	}

	variant, fallback := h.registry.Lookup(req.ExerciseType)
	resp := analyzeResponse{
		ExerciseType: variant.Type,
		UsedFallback: fallback,
		Landmarks:    detected,
	}
	if c, ok := pose.BodyCenter(set); ok {
		resp.BodyCenter = &c
	}

	if req.Record && h.manager != nil {
		s := h.manager.Create(session.KindImage, req.ExerciseType, 1)
		rec, err := s.Submit(0, 0, set)
		if err != nil {
			writeError(w, SubmitStatus(err), err.Error())
			return
		}
		if _, err := s.Finish(); err != nil {
			writeError(w, SubmitStatus(err), err.Error())
			return
		}
		resp.FrameResult = rec.FrameResult
		resp.SessionID = s.ID()
	} else {
		resp.FrameResult = variant.Analyze(set)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalyzeHandler) detect(image []byte) (*pose.LandmarkSet, int, error) {
	mat, err := gocv.IMDecode(image, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		return nil, http.StatusBadRequest, errInvalidImage
	}
	defer mat.Close()

	set, err := h.detector.Detect(&mat)
	if err != nil {
		h.logger.Error("pose detection failed", "err", err)
		return nil, http.StatusBadGateway, errDetectionFailed
	}
	return set, http.StatusOK, nil
}
