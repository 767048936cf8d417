package pose

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestAngleBetween(t *testing.T) {
	t.Run("right angle", func(t *testing.T) {
		got := AngleBetween(KP(0, 1, 1), KP(0, 0, 1), KP(1, 0, 1))
		assert.InDelta(t, 90.0, got, epsilon)
	})

	t.Run("straight line", func(t *testing.T) {
		got := AngleBetween(KP(0, 0, 1), KP(1, 0, 1), KP(2, 0, 1))
		assert.InDelta(t, 180.0, got, 1e-9)

		// acos loses precision near -1 when the norms are not exact
		got = AngleBetween(KP(0, 0, 1), KP(1, 1, 1), KP(2, 2, 1))
		assert.InDelta(t, 180.0, got, 1e-4)
	})

	t.Run("same direction", func(t *testing.T) {
		got := AngleBetween(KP(2, 0, 1), KP(0, 0, 1), KP(1, 0, 1))
		assert.InDelta(t, 0.0, got, 1e-6)
	})

	t.Run("symmetric in endpoints", func(t *testing.T) {
		triples := [][3]Keypoint{
			{KP(0.1, 0.2, 1), KP(0.4, 0.5, 1), KP(0.9, 0.1, 1)},
			{KP(0.47, 0.55, 1), KP(0.47, 0.72, 1), KP(0.52, 0.90, 1)},
			{KP(-3, 7, 1), KP(2, -1, 1), KP(5, 5, 1)},
		}
		for _, tr := range triples {
			a := AngleBetween(tr[0], tr[1], tr[2])
			b := AngleBetween(tr[2], tr[1], tr[0])
			assert.InDelta(t, a, b, epsilon)
			assert.GreaterOrEqual(t, a, 0.0)
			assert.LessOrEqual(t, a, 180.0)
		}
	})

	t.Run("degenerate ray returns zero", func(t *testing.T) {
		b := KP(0.5, 0.5, 1)
		assert.Equal(t, 0.0, AngleBetween(b, b, KP(1, 1, 1)))
		assert.Equal(t, 0.0, AngleBetween(KP(1, 1, 1), b, b))
	})

	t.Run("ignores depth", func(t *testing.T) {
		flat := AngleBetween(KP(0, 1, 1), KP(0, 0, 1), KP(1, 0, 1))
		deep := AngleBetween(KP3(0, 1, 5, 1), KP3(0, 0, -2, 1), KP3(1, 0, 9, 1))
		assert.InDelta(t, flat, deep, epsilon)
	})
}

func TestDistance(t *testing.T) {
	t.Run("2D when depth missing", func(t *testing.T) {
		assert.InDelta(t, 5.0, Distance(KP(0, 0, 1), KP(3, 4, 1)), epsilon)
	})

	t.Run("3D when both have depth", func(t *testing.T) {
		assert.InDelta(t, 3.0, Distance(KP3(0, 0, 0, 1), KP3(1, 2, 2, 1)), epsilon)
	})

	t.Run("2D when only one has depth", func(t *testing.T) {
		assert.InDelta(t, 5.0, Distance(KP3(0, 0, 9, 1), KP(3, 4, 1)), epsilon)
	})
}

func TestLandmarkSet_IDNameRoundTrip(t *testing.T) {
	for id := 0; id < NumLandmarks; id++ {
		name := NameOf(id)
		require.NotEmpty(t, name, "id %d", id)

		got, ok := IDOf(name)
		require.True(t, ok, "name %s", name)
		assert.Equal(t, id, got)
	}

	assert.Equal(t, "left_shoulder", NameOf(LeftShoulder))
	assert.Equal(t, "right_foot_index", NameOf(RightFootIndex))
	assert.Equal(t, "", NameOf(NumLandmarks))

	_, ok := IDOf("tail")
	assert.False(t, ok)
}

func TestLandmarkSet_Set(t *testing.T) {
	t.Run("stamps canonical name", func(t *testing.T) {
		s := NewLandmarkSet()
		require.NoError(t, s.Set(LeftKnee, KP(0.4, 0.7, 0.9)))

		kp, ok := s.ByName("left_knee")
		require.True(t, ok)
		assert.Equal(t, "left_knee", kp.Name)
		assert.Equal(t, 0.7, kp.Y)
	})

	t.Run("rejects mismatched name", func(t *testing.T) {
		s := NewLandmarkSet()
		kp := KP(0.4, 0.7, 0.9)
		kp.Name = "right_knee"
		err := s.Set(LeftKnee, kp)
		assert.True(t, errors.Is(err, ErrUnknownLandmark))
	})

	t.Run("rejects out of range id", func(t *testing.T) {
		s := NewLandmarkSet()
		assert.Error(t, s.Set(NumLandmarks, KP(0, 0, 1)))
		assert.Error(t, s.Set(-1, KP(0, 0, 1)))
	})

	t.Run("missing lists names", func(t *testing.T) {
		s := Without(StandingPose(), LeftAnkle, RightHip)
		assert.Equal(t, NumLandmarks-2, s.Len())
		assert.False(t, s.Complete())
		assert.Equal(t, []string{"right_hip", "left_ankle"}, s.Missing(RightHip, LeftAnkle, Nose))
		assert.False(t, s.Has(LeftAnkle))
		assert.True(t, s.Has(Nose, LeftShoulder))
	})

	t.Run("nil set is empty", func(t *testing.T) {
		var s *LandmarkSet
		_, ok := s.ByID(Nose)
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})
}

func TestLandmarkSet_JSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		orig := Without(SquatBottomPose(), Nose)
		_ = orig.Set(LeftWrist, KP3(0.7, 0.55, -0.12, 0.8))

		data, err := json.Marshal(orig)
		require.NoError(t, err)

		var got LandmarkSet
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, *orig, got)

		z, ok := mustByID(t, &got, LeftWrist).Depth()
		assert.True(t, ok)
		assert.InDelta(t, -0.12, z, epsilon)
	})

	t.Run("positional input without ids", func(t *testing.T) {
		data := []byte(`[{"x":0.5,"y":0.1,"visibility":0.9},{"x":0.49,"y":0.09,"visibility":0.8}]`)
		var s LandmarkSet
		require.NoError(t, json.Unmarshal(data, &s))
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, "left_eye_inner", mustByID(t, &s, LeftEyeInner).Name)
	})

	t.Run("named input", func(t *testing.T) {
		data := []byte(`[{"name":"left_hip","x":0.4,"y":0.6,"visibility":0.9}]`)
		var s LandmarkSet
		require.NoError(t, json.Unmarshal(data, &s))
		assert.Equal(t, 0.6, mustByID(t, &s, LeftHip).Y)
	})

	t.Run("conflicting id and name", func(t *testing.T) {
		data := []byte(`[{"id":0,"name":"left_hip","x":0.4,"y":0.6,"visibility":0.9}]`)
		var s LandmarkSet
		assert.Error(t, json.Unmarshal(data, &s))
	})

	t.Run("null is no pose", func(t *testing.T) {
		var frame struct {
			Landmarks *LandmarkSet `json:"landmarks"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"landmarks":null}`), &frame))
		assert.Nil(t, frame.Landmarks)
	})
}

func TestExtractSquatAngles(t *testing.T) {
	t.Run("squat bottom", func(t *testing.T) {
		angles, err := ExtractSquatAngles(SquatBottomPose())
		require.NoError(t, err)

		assert.InDelta(t, 90.0, angles[AngleLeftKnee], 1e-6)
		assert.InDelta(t, 90.0, angles[AngleRightKnee], 1e-6)
		assert.InDelta(t, math.Atan(0.15/0.35)*180/math.Pi, angles[AngleBack], 1e-6)
		for k, v := range angles {
			assert.GreaterOrEqual(t, v, 0.0, k)
			assert.LessOrEqual(t, v, 180.0, k)
		}
	})

	t.Run("standing knees are straight", func(t *testing.T) {
		angles, err := ExtractSquatAngles(StandingPose())
		require.NoError(t, err)
		assert.InDelta(t, 180.0, angles[AngleLeftKnee], 1e-6)
		assert.InDelta(t, 0.0, angles[AngleBack], 1e-6)
	})

	t.Run("shoulders optional", func(t *testing.T) {
		angles, err := ExtractSquatAngles(Without(SquatBottomPose(), LeftShoulder))
		require.NoError(t, err)
		assert.Len(t, angles, 2)
		assert.Contains(t, angles, AngleLeftKnee)
		assert.NotContains(t, angles, AngleBack)
	})

	t.Run("missing ankle", func(t *testing.T) {
		_, err := ExtractSquatAngles(Without(StandingPose(), LeftAnkle))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteLandmarks))

		var missing *MissingLandmarksError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"left_ankle"}, missing.Names)
	})

	t.Run("nil set", func(t *testing.T) {
		_, err := ExtractSquatAngles(nil)
		assert.True(t, errors.Is(err, ErrNoPose))
	})
}

func TestExtractPushupAngles(t *testing.T) {
	angles, err := ExtractPushupAngles(PushupPose())
	require.NoError(t, err)
	assert.InDelta(t, 90.0, angles[AngleLeftElbow], 1e-6)
	assert.InDelta(t, 90.0, angles[AngleRightElbow], 1e-6)

	mean, ok := angles.Mean(AngleLeftElbow, AngleRightElbow)
	assert.True(t, ok)
	assert.InDelta(t, 90.0, mean, 1e-6)

	_, err = ExtractPushupAngles(Without(PushupPose(), RightWrist))
	assert.True(t, errors.Is(err, ErrIncompleteLandmarks))
}

func TestBackAngle(t *testing.T) {
	t.Run("horizontal torso", func(t *testing.T) {
		s := NewLandmarkSet()
		_ = s.Set(LeftShoulder, KP(0.2, 0.5, 1))
		_ = s.Set(RightShoulder, KP(0.2, 0.5, 1))
		_ = s.Set(LeftHip, KP(0.6, 0.5, 1))
		_ = s.Set(RightHip, KP(0.6, 0.5, 1))
		assert.Equal(t, 90.0, BackAngle(s))
	})

	t.Run("missing hips", func(t *testing.T) {
		assert.Equal(t, 0.0, BackAngle(Without(StandingPose(), LeftHip)))
	})
}

func TestIsStable(t *testing.T) {
	a := StandingPose()
	assert.True(t, IsStable(a, StandingPose(), StabilityThreshold))
	assert.False(t, IsStable(a, SquatBottomPose(), StabilityThreshold))
	assert.False(t, IsStable(a, nil, StabilityThreshold))

	center, ok := BodyCenter(a)
	require.True(t, ok)
	assert.InDelta(t, 0.5, center.X, epsilon)
	assert.InDelta(t, 0.55, center.Y, epsilon)
}

func mustByID(t *testing.T, s *LandmarkSet, id int) Keypoint {
	t.Helper()
	kp, ok := s.ByID(id)
	require.True(t, ok, "landmark %d missing", id)
	return kp
}
