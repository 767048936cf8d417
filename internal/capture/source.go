// Package capture provides video frame sources backed by GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultFPS is used when a video file does not report its frame rate.
const DefaultFPS = 30.0

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrEndOfStream is returned when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Source defines the interface for frame sources consumed by the video pipeline.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller is responsible for closing it.
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
	// FrameCount returns the number of frames reported by the container, or 0 if unknown.
	FrameCount() int
	IsOpen() bool
}

// VideoFile reads frames from a video file on disk.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     float64
	frames  int
}

// NewVideoFile creates a Source for the video at path. The file is not
// touched until Open.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path, fps: DefaultFPS}
}

// Open opens the video file and reads its frame rate and frame count.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: unsupported or unreadable file", v.path)
	}

	if fps := capture.Get(gocv.VideoCaptureFPS); fps > 0 && !math.IsNaN(fps) {
		v.fps = fps
	}
	if n := capture.Get(gocv.VideoCaptureFrameCount); n > 0 {
		v.frames = int(n)
	}

	v.capture = capture
	v.running = true

	return nil
}

// Close releases the underlying capture.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false

	return err
}

// ReadFrame reads the next frame from the file. ErrEndOfStream is returned
// once the file is exhausted.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}

	return &mat, nil
}

// FPS returns the frame rate of the file.
func (v *VideoFile) FPS() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fps
}

// FrameCount returns the frame count reported by the container.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// IsOpen returns true if the file is currently open.
func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}
