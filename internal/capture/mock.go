package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded frames for testing
type MockSource struct {
	frames  []*gocv.Mat
	index   int
	fps     float64
	mu      sync.Mutex
	running bool
}

// NewMockSource returns a source yielding clones of frames at the given rate.
func NewMockSource(frames []*gocv.Mat, fps float64) *MockSource {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &MockSource{
		frames: frames,
		fps:    fps,
	}
}

// NewBlankSource returns a source of n black 640x480 frames.
func NewBlankSource(n int, fps float64) *MockSource {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	return NewMockSource(frames, fps)
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

// Close stops playback and releases the held frames.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	for _, f := range s.frames {
		f.Close()
	}
	s.frames = nil
	return nil
}

func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}

	if s.index >= len(s.frames) {
		return nil, ErrEndOfStream
	}

	// Clone the frame so the original isn't modified
	frame := s.frames[s.index].Clone()
	s.index++

	return &frame, nil
}

func (s *MockSource) FPS() float64 { return s.fps }

func (s *MockSource) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
