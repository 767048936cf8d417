package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/session"
	"github.com/ayusman/posecoach/internal/store"
)

// ErrQueueFull is returned by a VideoQueue that cannot accept more jobs.
var ErrQueueFull = errors.New("video queue is full")

// VideoQueue accepts video files for asynchronous analysis.
type VideoQueue interface {
	Enqueue(s *session.Session, path string) error
}

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	manager   *session.Manager
	store     *store.Store
	videos    VideoQueue
	uploadDir string
	logger    *slog.Logger
}

// SessionHandlerConfig configures a SessionHandler. Store and Videos are optional.
type SessionHandlerConfig struct {
	Manager   *session.Manager
	Store     *store.Store
	Videos    VideoQueue
	UploadDir string
	Logger    *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	return &SessionHandler{
		manager:   cfg.Manager,
		store:     cfg.Store,
		videos:    cfg.Videos,
		uploadDir: cfg.UploadDir,
		logger:    cfg.Logger,
	}
}

// ServeHTTP routes requests to the appropriate method.
// Expected paths: /api/sessions, /api/sessions/{id} and /api/sessions/{id}/{action}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 2:
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "frames":
			h.submitFrame(w, r, parts[0])
		case "finish":
			h.close(w, parts[0], (*session.Session).Finish)
		case "cancel":
			h.close(w, parts[0], (*session.Session).Cancel)
		case "video":
			h.uploadVideo(w, r, parts[0])
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type createSessionRequest struct {
	ExerciseType   string       `json:"exercise_type"`
	Kind           session.Kind `json:"kind"`
	ExpectedFrames int          `json:"expected_frames"`
}

// FrameRequest is one frame submitted to a session. A null or absent
// landmarks field records a frame without a detected person.
type FrameRequest struct {
	Frame     int               `json:"frame"`
	Timestamp float64           `json:"timestamp"`
	Landmarks *pose.LandmarkSet `json:"landmarks"`
}

type videoRequest struct {
	Path string `json:"path"`
}

type sessionResponse struct {
	session.Record
	Frames []session.FrameRecord `json:"frames,omitempty"`
}

type listSessionsResponse struct {
	Sessions []session.Record `json:"sessions"`
}

// list handles GET /api/sessions. Live sessions take precedence over their
// persisted copies.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	live := h.manager.List()
	seen := make(map[string]bool, len(live))
	records := make([]session.Record, 0, len(live))
	// Newest first
	for i := len(live) - 1; i >= 0; i-- {
		rec := live[i].Record()
		seen[rec.ID] = true
		records = append(records, rec)
	}

	if h.store != nil {
		stored, err := h.store.Sessions().List(0)
		if err != nil {
			h.logger.Error("list sessions", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to list sessions")
			return
		}
		for _, rec := range stored {
			if !seen[rec.ID] {
				records = append(records, *rec)
			}
		}
	}

	sortRecords(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: records})
}

// sortRecords orders records newest first.
func sortRecords(records []session.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Kind == "" {
		req.Kind = session.KindLive
	}
	switch req.Kind {
	case session.KindImage, session.KindVideo, session.KindLive:
	default:
		writeError(w, http.StatusBadRequest, "kind must be one of image, video or live")
		return
	}
	if req.ExpectedFrames < 0 {
		writeError(w, http.StatusBadRequest, "expected_frames must not be negative")
		return
	}

	s := h.manager.Create(req.Kind, req.ExerciseType, req.ExpectedFrames)
	writeJSON(w, http.StatusCreated, s.Record())
}

// get handles GET /api/sessions/{id}. Pass ?frames=true to include frame results.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	withFrames := r.URL.Query().Get("frames") == "true"

	if s, err := h.manager.Get(id); err == nil {
		resp := sessionResponse{Record: s.Record()}
		if withFrames {
			resp.Frames = s.Frames()
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if h.store == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	rec, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("get session", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	resp := sessionResponse{Record: *rec}
	if withFrames {
		frames, err := h.store.Frames().GetBySessionID(id)
		if err != nil {
			h.logger.Error("get session frames", "session", id, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to get session frames")
			return
		}
		resp.Frames = frames
	}
	writeJSON(w, http.StatusOK, resp)
}

// delete handles DELETE /api/sessions/{id}. Open sessions are cancelled.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	found := h.manager.Remove(id) == nil

	if h.store != nil {
		err := h.store.Sessions().Delete(id)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, store.ErrNotFound):
		default:
			h.logger.Error("delete session", "session", id, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete session")
			return
		}
	}

	if !found {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitFrame handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) submitFrame(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req FrameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	rec, err := s.Submit(req.Frame, req.Timestamp, req.Landmarks)
	if err != nil {
		writeError(w, SubmitStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SubmitStatus maps a Session.Submit or close error to an HTTP status code.
func SubmitStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrDuplicateFrame):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidFrame):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// close handles POST /api/sessions/{id}/finish and /cancel.
func (h *SessionHandler) close(w http.ResponseWriter, id string, op func(*session.Session) (session.Record, error)) {
	s, err := h.manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	rec, err := op(s)
	if err != nil {
		writeError(w, SubmitStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// uploadVideo handles POST /api/sessions/{id}/video. The body is either a
// multipart form with a "video" file or JSON naming a local path.
func (h *SessionHandler) uploadVideo(w http.ResponseWriter, r *http.Request, id string) {
	if h.videos == nil {
		writeError(w, http.StatusServiceUnavailable, "Video processing is not available")
		return
	}

	s, err := h.manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if s.Kind() != session.KindVideo {
		writeError(w, http.StatusBadRequest, "Session kind must be video")
		return
	}
	if s.Status() != session.StatusInitializing {
		writeError(w, http.StatusConflict, "Session already started")
		return
	}

	var path string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		path, err = h.saveUpload(r, id)
		if err != nil {
			h.logger.Warn("video upload failed", "session", id, "err", err)
			writeError(w, http.StatusBadRequest, "Invalid video upload")
			return
		}
	} else {
		var req videoRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}
		if _, err := os.Stat(req.Path); err != nil {
			writeError(w, http.StatusBadRequest, "Video file not found")
			return
		}
		path = req.Path
	}

	if err := h.videos.Enqueue(s, path); err != nil {
		if errors.Is(err, ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, SubmitStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, s.Record())
}

func (h *SessionHandler) saveUpload(r *http.Request, id string) (string, error) {
	file, header, err := r.FormFile("video")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".mp4"
	}
	out, err := os.Create(filepath.Join(h.uploadDir, id+ext))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return out.Name(), nil
}
