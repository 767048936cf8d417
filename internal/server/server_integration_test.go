package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/session"
	"github.com/ayusman/posecoach/internal/store"
)

func TestAPI_SessionWorkflow(t *testing.T) {
	// Setup
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a session
	createBody := `{"exercise_type": "pushup", "expected_frames": 2}`
	resp, err := client.Post(ts.URL+"/api/sessions", "application/json", bytes.NewBufferString(createBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created session.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, exercise.Pushup, created.ExerciseType)

	// 2. Submit frames
	for i, set := range []*pose.LandmarkSet{pose.PushupPose(), pose.SaggingPushupPose()} {
		landmarks, err := json.Marshal(set)
		require.NoError(t, err)
		body := fmt.Sprintf(`{"frame": %d, "timestamp": %v, "landmarks": %s}`, i, float64(i)/30, landmarks)
		resp, err = client.Post(ts.URL+"/api/sessions/"+created.ID+"/frames", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, "frame %d", i)
		resp.Body.Close()
	}

	// 3. Progress while running
	resp, err = client.Get(ts.URL + "/api/sessions/" + created.ID)
	require.NoError(t, err)
	var running session.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&running))
	resp.Body.Close()

	assert.Equal(t, session.StatusProcessing, running.Status)
	assert.Equal(t, float64(100), running.Progress)

	// 4. Finish
	resp, err = client.Post(ts.URL+"/api/sessions/"+created.ID+"/finish", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finished session.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&finished))
	resp.Body.Close()

	// (98.4 + 54) / 2
	require.NotNil(t, finished.Summary.Score)
	assert.Equal(t, 76.2, finished.Summary.Score.Overall)

	// 5. Delete session
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// 6. Verify deleted
	resp, err = client.Get(ts.URL + "/api/sessions/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status    string   `json:"status"`
		Uptime    string   `json:"uptime"`
		Exercises []string `json:"exercises"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))

	assert.Equal(t, "ok", health.Status)
	assert.Len(t, health.Exercises, 3)
}
