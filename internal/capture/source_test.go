package capture

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMockSource_Playback(t *testing.T) {
	src := NewBlankSource(2, 10)

	assert.Equal(t, 2, src.FrameCount())
	assert.Equal(t, 10.0, src.FPS())

	_, err := src.ReadFrame()
	assert.ErrorIs(t, err, ErrSourceNotOpen)

	require.NoError(t, src.Open())
	defer src.Close()

	for i := 0; i < 2; i++ {
		f, err := src.ReadFrame()
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, 480, f.Rows(), "frame %d", i)
		assert.Equal(t, 640, f.Cols(), "frame %d", i)
		f.Close()
	}

	_, err = src.ReadFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestMockSource_DefaultFPS(t *testing.T) {
	src := NewMockSource([]*gocv.Mat{}, 0)
	assert.Equal(t, float64(DefaultFPS), src.FPS())
}

func TestMockSource_ImplementsSource(t *testing.T) {
	var _ Source = (*MockSource)(nil)
	var _ Source = (*VideoFile)(nil)
}

func TestVideoFile_NotOpen(t *testing.T) {
	v := NewVideoFile(filepath.Join(t.TempDir(), "missing.mp4"))

	assert.False(t, v.IsOpen(), "video should not be open initially")
	assert.Equal(t, float64(DefaultFPS), v.FPS())

	_, err := v.ReadFrame()
	assert.ErrorIs(t, err, ErrSourceNotOpen)
	assert.NoError(t, v.Close(), "Close on an unopened video")
}

func TestVideoFile_OpenMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV backend test")
	}

	v := NewVideoFile(filepath.Join(t.TempDir(), "missing.mp4"))
	err := v.Open()
	if err == nil {
		v.Close()
	}
	assert.Error(t, err, "expected error opening a missing file")
}
