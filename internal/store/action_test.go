package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	action := &Action{
		ID:           "action-1",
		ExerciseType: "squat",
		PluginName:   "notify",
		ActionName:   "session_complete",
		Config:       json.RawMessage(`{"title":"Squats done"}`),
		Enabled:      true,
	}
	require.NoError(t, repo.Create(action))
	assert.False(t, action.CreatedAt.IsZero(), "CreatedAt should be set after create")

	got, err := repo.GetByID("action-1")
	require.NoError(t, err)
	assert.Equal(t, "squat", got.ExerciseType)
	assert.Equal(t, "notify", got.PluginName)
	assert.True(t, got.Enabled)
	assert.JSONEq(t, `{"title":"Squats done"}`, string(got.Config))

	got.Enabled = false
	require.NoError(t, repo.Update(got))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Enabled)

	require.NoError(t, repo.Delete("action-1"))
	_, err = repo.GetByID("action-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActionRepository_ListForExercise(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	actions := []*Action{
		{ID: "a1", ExerciseType: "squat", PluginName: "notify", ActionName: "session_complete", Enabled: true},
		{ID: "a2", ExerciseType: AnyExercise, PluginName: "notify", ActionName: "session_complete", Enabled: true},
		{ID: "a3", ExerciseType: "pushup", PluginName: "notify", ActionName: "session_complete", Enabled: true},
		{ID: "a4", ExerciseType: "squat", PluginName: "notify", ActionName: "session_complete", Enabled: false},
	}
	for _, a := range actions {
		require.NoError(t, repo.Create(a), "create action %s", a.ID)
	}

	got, err := repo.ListForExercise("squat")
	require.NoError(t, err)

	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}
