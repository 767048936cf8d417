package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/store"
)

func TestActionHandler_CRUD(t *testing.T) {
	s := newTestStore(t)
	handler := NewActionHandler(s, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/actions", createActionRequest{
		ExerciseType: "Squat",
		PluginName:   "notify",
		ActionName:   "session_complete",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created actionResponse
	decodeBody(t, rec, &created)

	assert.Equal(t, "squat", created.ExerciseType, "exercise type is normalized")
	assert.JSONEq(t, "{}", string(created.Config))
	assert.True(t, created.Enabled)

	enabled := false
	rec = doJSON(t, handler, http.MethodPut, "/api/actions/"+created.ID, updateActionRequest{
		ExerciseType: store.AnyExercise,
		Enabled:      &enabled,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated actionResponse
	decodeBody(t, rec, &updated)
	assert.Equal(t, store.AnyExercise, updated.ExerciseType)
	assert.False(t, updated.Enabled)

	rec = doJSON(t, handler, http.MethodGet, "/api/actions", nil)
	var list listActionsResponse
	decodeBody(t, rec, &list)
	assert.Len(t, list.Actions, 1)

	rec = doJSON(t, handler, http.MethodDelete, "/api/actions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, handler, http.MethodGet, "/api/actions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionHandler_Validation(t *testing.T) {
	s := newTestStore(t)
	handler := NewActionHandler(s, nil)

	tests := []struct {
		name string
		req  createActionRequest
	}{
		{"missing exercise", createActionRequest{PluginName: "notify", ActionName: "session_complete"}},
		{"missing plugin", createActionRequest{ExerciseType: "squat", ActionName: "session_complete"}},
		{"missing action", createActionRequest{ExerciseType: "squat", PluginName: "notify"}},
		{"unsupported exercise", createActionRequest{ExerciseType: "lunge", PluginName: "notify", ActionName: "session_complete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/actions", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
