package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/pose"
	"github.com/ayusman/posecoach/internal/session"
)

// finishedSession runs a short squat session and returns its record and frames.
func finishedSession(t *testing.T) (session.Record, []session.FrameRecord) {
	t.Helper()

	m := session.NewManager(session.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	s := m.Create(session.KindVideo, "squat", 4)

	sets := []*pose.LandmarkSet{
		pose.SquatBottomPose(),
		nil,
		pose.Without(pose.SquatBottomPose(), pose.LeftAnkle),
		pose.StandingPose(),
	}
	for i, set := range sets {
		_, err := s.Submit(i, float64(i)/30, set)
		require.NoError(t, err, "submit frame %d", i)
	}

	rec, err := s.Finish()
	require.NoError(t, err)
	return rec, s.Frames()
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	rec, _ := finishedSession(t)
	require.NoError(t, repo.Create(&rec))

	got, err := repo.GetByID(rec.ID)
	require.NoError(t, err)

	assert.True(t, got.CreatedAt.Equal(rec.CreatedAt), "created_at %v, want %v", got.CreatedAt, rec.CreatedAt)
	assert.True(t, got.UpdatedAt.Equal(rec.UpdatedAt), "updated_at %v, want %v", got.UpdatedAt, rec.UpdatedAt)

	// Compare everything else structurally
	got.CreatedAt, got.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	assert.Equal(t, rec, *got)

	require.NotNil(t, got.Summary.Score, "summary score should be stored")
	assert.Equal(t, 1, got.Summary.FramesNoPose)
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_Save(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	rec := session.Record{
		ID:           "session-1",
		Kind:         session.KindLive,
		ExerciseType: "general",
		Status:       session.StatusInitializing,
	}

	// First save inserts
	require.NoError(t, repo.Save(&rec))

	// Second save updates
	rec.Status = session.StatusFailed
	rec.Error = "camera disconnected"
	rec.Progress = 42.5
	rec.UpdatedAt = rec.UpdatedAt.Add(1)
	require.NoError(t, repo.Save(&rec))

	got, err := repo.GetByID("session-1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, got.Status)
	assert.Equal(t, "camera disconnected", got.Error)
	assert.Equal(t, 42.5, got.Progress)
	assert.Nil(t, got.Summary.Score)
}

func TestSessionRepository_Update_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Update(&session.Record{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	for i := 0; i < 3; i++ {
		rec, _ := finishedSession(t)
		require.NoError(t, repo.Create(&rec), "create session %d", i)
	}

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "expected sessions newest first")
	}

	limited, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, repo.Delete(all[0].ID))
	assert.ErrorIs(t, repo.Delete(all[0].ID), ErrNotFound)
}
