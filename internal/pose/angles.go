package pose

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Angle keys used in an AngleSet.
const (
	AngleLeftKnee   = "left_knee"
	AngleRightKnee  = "right_knee"
	AngleLeftHip    = "left_hip"
	AngleRightHip   = "right_hip"
	AngleBack       = "back"
	AngleLeftElbow  = "left_elbow"
	AngleRightElbow = "right_elbow"
)

var (
	// ErrNoPose is returned when a frame carries no landmark set.
	ErrNoPose = errors.New("no pose detected")

	// ErrIncompleteLandmarks is returned when required keypoints are absent.
	ErrIncompleteLandmarks = errors.New("incomplete landmarks")
)

// MissingLandmarksError lists the required keypoints a set did not contain.
type MissingLandmarksError struct {
	Names []string
}

func (e *MissingLandmarksError) Error() string {
	return fmt.Sprintf("incomplete landmarks: missing %s", strings.Join(e.Names, ", "))
}

// Unwrap lets errors.Is match ErrIncompleteLandmarks.
func (e *MissingLandmarksError) Unwrap() error {
	return ErrIncompleteLandmarks
}

// AngleSet maps an angle name to degrees in [0, 180].
type AngleSet map[string]float64

// Mean returns the average of the named angles that are present.
func (a AngleSet) Mean(keys ...string) (float64, bool) {
	var sum float64
	var n int
	for _, k := range keys {
		if v, ok := a[k]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SquatLandmarks are the keypoints required to extract squat angles.
// Shoulders are optional; without them hip and back angles are omitted.
var SquatLandmarks = []int{
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// PushupLandmarks are the keypoints required to extract pushup angles.
var PushupLandmarks = []int{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
}

// requireIDs checks presence (not visibility) of ids.
func requireIDs(s *LandmarkSet, ids []int) error {
	if s == nil {
		return ErrNoPose
	}
	if missing := s.Missing(ids...); len(missing) > 0 {
		return &MissingLandmarksError{Names: missing}
	}
	return nil
}

// angleAt computes the angle at the middle id. Callers must have checked presence.
func angleAt(s *LandmarkSet, a, b, c int) float64 {
	pa, _ := s.ByID(a)
	pb, _ := s.ByID(b)
	pc, _ := s.ByID(c)
	return AngleBetween(pa, pb, pc)
}

// ExtractSquatAngles computes knee angles, plus hip and back angles when
// the shoulders are present.
func ExtractSquatAngles(s *LandmarkSet) (AngleSet, error) {
	if err := requireIDs(s, SquatLandmarks); err != nil {
		return nil, err
	}

	angles := AngleSet{
		AngleLeftKnee:  angleAt(s, LeftHip, LeftKnee, LeftAnkle),
		AngleRightKnee: angleAt(s, RightHip, RightKnee, RightAnkle),
	}
	if s.Has(LeftShoulder, RightShoulder) {
		angles[AngleLeftHip] = angleAt(s, LeftShoulder, LeftHip, LeftKnee)
		angles[AngleRightHip] = angleAt(s, RightShoulder, RightHip, RightKnee)
		angles[AngleBack] = BackAngle(s)
	}
	return angles, nil
}

// ExtractPushupAngles computes both elbow angles.
func ExtractPushupAngles(s *LandmarkSet) (AngleSet, error) {
	if err := requireIDs(s, PushupLandmarks); err != nil {
		return nil, err
	}

	return AngleSet{
		AngleLeftElbow:  angleAt(s, LeftShoulder, LeftElbow, LeftWrist),
		AngleRightElbow: angleAt(s, RightShoulder, RightElbow, RightWrist),
	}, nil
}

// BackAngle returns the torso lean from vertical in degrees, measured from the
// hip midpoint to the shoulder midpoint. A horizontal torso reads 90.
// Returns 0 when shoulders or hips are missing.
func BackAngle(s *LandmarkSet) float64 {
	ls, ok1 := s.ByID(LeftShoulder)
	rs, ok2 := s.ByID(RightShoulder)
	lh, ok3 := s.ByID(LeftHip)
	rh, ok4 := s.ByID(RightHip)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0
	}

	shoulder := Midpoint(ls, rs)
	hip := Midpoint(lh, rh)
	dx := shoulder.X - hip.X
	dy := shoulder.Y - hip.Y
	if dy == 0 {
		return 90
	}
	return math.Abs(math.Atan(dx/dy) * 180 / math.Pi)
}
