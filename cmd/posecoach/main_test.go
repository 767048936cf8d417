package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/posecoach/internal/config"
	"github.com/ayusman/posecoach/internal/detector"
)

func TestDashboardURL(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
	}
	for addr, want := range tests {
		assert.Equal(t, want, dashboardURL(addr), addr)
	}
}

func TestNewDetectors_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Detector = config.DetectorMock

	det, newVideoDetector := newDetectors(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.IsType(t, &detector.MockDetector{}, det)
	assert.Nil(t, newVideoDetector, "stateless mock detector is shared by video jobs")
}
