package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecoach/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	pose     *pose.LandmarkSet
	sequence []*pose.LandmarkSet
	calls    int
	err      error
	failOn   map[int]error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the landmarks returned by every Detect call.
func (m *MockDetector) SetPose(set *pose.LandmarkSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = set
	m.sequence = nil
}

// SetSequence sets landmarks returned by successive Detect calls. A nil entry
// reports no person. After the sequence is exhausted the last entry repeats.
func (m *MockDetector) SetSequence(sets []*pose.LandmarkSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = sets
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FailOn makes the Detect call with the given zero-based call number return
// err. Other calls are unaffected.
func (m *MockDetector) FailOn(call int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == nil {
		m.failOn = make(map[int]error)
	}
	m.failOn[call] = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*pose.LandmarkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.failOn[i]; ok {
		return nil, err
	}
	if len(m.sequence) > 0 {
		if i >= len(m.sequence) {
			i = len(m.sequence) - 1
		}
		return m.sequence[i], nil
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
