// Package detector provides body pose detection for video frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecoach/internal/pose"
)

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected body landmarks.
	// Returns a nil set and nil error if no person is detected.
	Detect(frame *gocv.Mat) (*pose.LandmarkSet, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinDetectionConfidence is the minimum person detection confidence (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the minimum landmark tracking confidence (0.0-1.0).
	MinTrackingConfidence float64

	// ModelComplexity selects the MediaPipe pose model: 0 lite, 1 full, 2 heavy.
	ModelComplexity int

	// StaticImageMode treats every frame as unrelated. Tracking mode carries
	// the region of interest from one frame to the next, so it must only see
	// frames of a single video.
	StaticImageMode bool

	// IdleTimeout stops the detector process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		ModelComplexity:        1,
		IdleTimeout:            30 * time.Second,
	}
}
