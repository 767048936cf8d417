package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/session"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "plugin.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\n"+script), 0755))

	return &Plugin{
		Manifest: Manifest{
			Name:       "test-plugin",
			Version:    "1.0.0",
			Executable: "plugin.sh",
			Actions:    []string{ActionSessionComplete},
		},
		Path:       tmpDir,
		Executable: scriptPath,
	}
}

func completedRequest() *Request {
	return &Request{
		Action: ActionSessionComplete,
		Session: &session.Record{
			ID:           "s-1",
			ExerciseType: exercise.Squat,
			Status:       session.StatusCompleted,
			Summary: session.Summary{
				FramesProcessed: 12,
				FramesScored:    12,
				Score:           &scoring.Score{Overall: 87.5},
			},
		},
		Config: json.RawMessage(`{"title":"Workout"}`),
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, `echo '{"success":true,"data":{"message":"hello world"}}'`+"\n")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, completedRequest())
	require.NoError(t, err)

	assert.True(t, response.Success)
	assert.JSONEq(t, `{"message":"hello world"}`, string(response.Data))
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the request back as the response data
	plugin := scriptPlugin(t, "input=$(cat)\nprintf '{\"success\":true,\"data\":%s}' \"$input\"\n")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, completedRequest())
	require.NoError(t, err)

	var echoed Request
	require.NoError(t, json.Unmarshal(response.Data, &echoed))
	assert.Equal(t, ActionSessionComplete, echoed.Action)
	require.NotNil(t, echoed.Session)
	require.NotNil(t, echoed.Session.Summary.Score)
	assert.Equal(t, 87.5, echoed.Session.Summary.Score.Overall)
	assert.JSONEq(t, `{"title":"Workout"}`, string(echoed.Config))
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "exec sleep 5\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, completedRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 3*time.Second, "plugin was not killed promptly")
}

func TestExecutor_ContextCancelled(t *testing.T) {
	plugin := scriptPlugin(t, "exec sleep 5\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(5*time.Second).Execute(ctx, plugin, completedRequest())
	assert.Error(t, err)
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name:   "error response",
			script: `echo '{"success":false,"error":"something went wrong"}'` + "\n",
		},
		{
			name:    "invalid JSON",
			script:  "echo 'not json'\n",
			wantErr: "failed to parse plugin response",
		},
		{
			name:    "non-zero exit",
			script:  "echo 'boom' >&2\nexit 3\n",
			wantErr: "stderr: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, tt.script)
			response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, completedRequest())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, response.Success)
			assert.Equal(t, "something went wrong", response.Error)
		})
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecutor(0).timeout)
}
