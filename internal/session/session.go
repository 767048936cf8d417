// Package session tracks exercise sessions and aggregates their frame scores.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/pose"
)

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrClosed is returned when a finished, failed or cancelled session receives input.
	ErrClosed = errors.New("session closed")

	// ErrDuplicateFrame is returned when a frame index was already submitted.
	ErrDuplicateFrame = errors.New("duplicate frame")

	// ErrInvalidFrame is returned for frames with an invalid index or timestamp.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusProcessing   Status = "processing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCancelled    Status = "cancelled"
)

// Closed reports whether the status accepts no more frames.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Kind describes where a session's frames come from.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindLive  Kind = "live"
)

// FrameRecord is one analyzed frame in session order.
type FrameRecord struct {
	Index     int     `json:"frame"`
	Timestamp float64 `json:"timestamp"`
	Stable    bool    `json:"stable"`
	exercise.FrameResult
}

// Progress is a progress notification for a running session.
type Progress struct {
	SessionID string  `json:"session_id"`
	Processed int     `json:"processed"`
	Expected  int     `json:"expected"`
	Percent   float64 `json:"percent"`
}

// Record is a point-in-time copy of a session's state.
type Record struct {
	ID             string        `json:"id"`
	Kind           Kind          `json:"kind"`
	ExerciseType   exercise.Type `json:"exercise_type"`
	RequestedType  string        `json:"requested_type"`
	UsedFallback   bool          `json:"used_fallback"`
	Status         Status        `json:"status"`
	Progress       float64       `json:"progress"`
	ExpectedFrames int           `json:"expected_frames"`
	Summary        Summary       `json:"summary"`
	Error          string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Session accepts frames for one exercise and keeps a running aggregate.
// All methods are safe for concurrent use.
type Session struct {
	id            string
	kind          Kind
	requested     string
	usedFallback  bool
	variant       exercise.Variant
	expected      int
	progressEvery int
	createdAt     time.Time
	hooks         *Hooks
	observer      Observer
	logger        *slog.Logger

	mu            sync.Mutex
	status        Status
	errMsg        string
	updatedAt     time.Time
	seq           *sequencer
	agg           *Aggregator
	frames        []FrameRecord
	lastTimestamp float64
	lastSet       *pose.LandmarkSet
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Kind returns the session kind.
func (s *Session) Kind() Kind { return s.kind }

// ExerciseType returns the resolved exercise type.
func (s *Session) ExerciseType() exercise.Type { return s.variant.Type }

// UsedFallback reports whether the requested exercise was unknown.
func (s *Session) UsedFallback() bool { return s.usedFallback }

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetExpectedFrames records the total number of frames once known, e.g. after
// a video is opened.
func (s *Session) SetExpectedFrames(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.expected = n
	}
}

// Submit analyzes a frame and folds it into the session. Frames may arrive
// out of order; they are aggregated strictly by index. A nil set records a
// frame without a detected pose. The returned record is the frame's own result;
// Stable is only known once the frame is released and stays false while it
// waits in the reorder buffer.
func (s *Session) Submit(index int, timestamp float64, set *pose.LandmarkSet) (FrameRecord, error) {
	// Scoring is pure and runs outside the lock
	result := s.variant.Analyze(set)
	rec := FrameRecord{Index: index, Timestamp: timestamp, FrameResult: result}

	if result.Outcome == exercise.Incomplete {
		s.logger.Warn("incomplete landmarks",
			"session", s.id, "frame", index, "missing", result.Missing)
	}

	s.mu.Lock()
	if s.status.Closed() {
		s.mu.Unlock()
		return FrameRecord{}, fmt.Errorf("%w: %s", ErrClosed, s.status)
	}
	if timestamp < 0 {
		s.mu.Unlock()
		return FrameRecord{}, fmt.Errorf("%w: negative timestamp %v", ErrInvalidFrame, timestamp)
	}

	released, err := s.seq.push(queued{FrameRecord: rec, set: set})
	if err != nil {
		s.mu.Unlock()
		return FrameRecord{}, err
	}

	s.status = StatusProcessing
	out, events := s.releaseLocked(released)
	for _, r := range out {
		if r.Index == index {
			rec = r
		}
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.FrameAnalyzed(string(s.variant.Type), result)
	}
	s.emit(events)
	return rec, nil
}

// releaseLocked appends released frames in order and returns them along with
// progress events to deliver once the lock is dropped. Stability is judged
// against the previous released frame that had a pose.
func (s *Session) releaseLocked(released []queued) ([]FrameRecord, []Progress) {
	var (
		out    []FrameRecord
		events []Progress
	)
	for _, q := range released {
		r := q.FrameRecord
		r.Stable = pose.IsStable(q.set, s.lastSet, pose.StabilityThreshold)
		if q.set != nil {
			s.lastSet = q.set
		}

		if r.Timestamp < s.lastTimestamp {
			s.logger.Warn("frame timestamp moved backwards, clamping",
				"session", s.id, "frame", r.Index, "timestamp", r.Timestamp, "previous", s.lastTimestamp)
			r.Timestamp = s.lastTimestamp
		}
		s.lastTimestamp = r.Timestamp

		s.frames = append(s.frames, r)
		out = append(out, r)
		s.agg.Add(r.FrameResult)

		if s.progressEvery > 0 && s.agg.Processed()%s.progressEvery == 0 {
			events = append(events, s.progressLocked())
		}
	}
	if len(released) > 0 {
		s.updatedAt = time.Now()
	}
	return out, events
}

func (s *Session) progressLocked() Progress {
	return Progress{
		SessionID: s.id,
		Processed: s.agg.Processed(),
		Expected:  s.expected,
		Percent:   s.percentLocked(),
	}
}

func (s *Session) percentLocked() float64 {
	if s.status == StatusCompleted {
		return 100
	}
	if s.expected <= 0 {
		return 0
	}
	p := float64(s.agg.Processed()) / float64(s.expected) * 100
	if p > 100 {
		p = 100
	}
	return round2(p)
}

func (s *Session) emit(events []Progress) {
	if s.hooks == nil || s.hooks.OnProgress == nil {
		return
	}
	for _, e := range events {
		s.hooks.OnProgress(e)
	}
}

// Progress returns the current progress.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// Summary returns the aggregate so far. Frames still waiting in the reorder
// buffer are not included.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Summary()
}

// Frames returns a copy of the released frame records in index order.
func (s *Session) Frames() []FrameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FrameRecord, len(s.frames))
	copy(out, s.frames)
	return out
}

// Record returns a snapshot of the session.
func (s *Session) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked()
}

func (s *Session) recordLocked() Record {
	return Record{
		ID:             s.id,
		Kind:           s.kind,
		ExerciseType:   s.variant.Type,
		RequestedType:  s.requested,
		UsedFallback:   s.usedFallback,
		Status:         s.status,
		Progress:       s.percentLocked(),
		ExpectedFrames: s.expected,
		Summary:        s.agg.Summary(),
		Error:          s.errMsg,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
}

// Finish flushes buffered frames and completes the session.
func (s *Session) Finish() (Record, error) {
	return s.close(StatusCompleted, "")
}

// Cancel stops intake and keeps the partial aggregate.
func (s *Session) Cancel() (Record, error) {
	return s.close(StatusCancelled, "")
}

// Fail marks the session failed with the given cause. Frames already
// processed remain in the aggregate.
func (s *Session) Fail(cause error) (Record, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return s.close(StatusFailed, msg)
}

func (s *Session) close(status Status, errMsg string) (Record, error) {
	s.mu.Lock()
	if s.status.Closed() {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("%w: %s", ErrClosed, s.status)
	}

	if n := s.seq.buffered(); n > 0 {
		s.logger.Debug("flushing buffered frames", "session", s.id, "count", n)
	}
	_, events := s.releaseLocked(s.seq.flush())

	s.status = status
	s.errMsg = errMsg
	s.updatedAt = time.Now()
	rec := s.recordLocked()
	frames := make([]FrameRecord, len(s.frames))
	copy(frames, s.frames)
	s.mu.Unlock()

	s.emit(events)
	s.logger.Info("session closed",
		"session", s.id, "status", status, "frames", rec.Summary.FramesProcessed)

	if s.observer != nil {
		s.observer.SessionEnded(string(s.variant.Type), string(status))
	}
	if s.hooks != nil && s.hooks.OnClose != nil {
		s.hooks.OnClose(rec, frames)
	}
	return rec, nil
}
