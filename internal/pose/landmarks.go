// Package pose provides body landmark types and the geometry used to score exercise form.
package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Body landmark indices following MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

var landmarkIDs = func() map[string]int {
	ids := make(map[string]int, NumLandmarks)
	for id, name := range landmarkNames {
		ids[name] = id
	}
	return ids
}()

// ErrUnknownLandmark is returned when an id or name is outside the landmark table.
var ErrUnknownLandmark = errors.New("unknown landmark")

// NameOf returns the canonical name for a landmark id, or "" if out of range.
func NameOf(id int) string {
	if id < 0 || id >= NumLandmarks {
		return ""
	}
	return landmarkNames[id]
}

// IDOf returns the landmark id for a canonical name. Lookup is case-insensitive.
func IDOf(name string) (int, bool) {
	id, ok := landmarkIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// LandmarkSet holds up to 33 body keypoints addressable by id or name.
// Slots can be empty when the detector did not report a point.
// A nil *LandmarkSet means no pose was detected in the frame.
type LandmarkSet struct {
	points  [NumLandmarks]Keypoint
	present [NumLandmarks]bool
}

// NewLandmarkSet creates an empty LandmarkSet.
func NewLandmarkSet() *LandmarkSet {
	return &LandmarkSet{}
}

// FromKeypoints builds a LandmarkSet from keypoints given in id order.
// A slice shorter than 33 leaves the trailing slots empty.
func FromKeypoints(kps []Keypoint) (*LandmarkSet, error) {
	if len(kps) > NumLandmarks {
		return nil, fmt.Errorf("got %d keypoints, want at most %d", len(kps), NumLandmarks)
	}

	s := NewLandmarkSet()
	for id, kp := range kps {
		if err := s.Set(id, kp); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Set stores kp in slot id. The keypoint name is always replaced with the
// canonical name for id; a non-empty name that disagrees is an error.
func (s *LandmarkSet) Set(id int, kp Keypoint) error {
	if id < 0 || id >= NumLandmarks {
		return fmt.Errorf("%w: id %d", ErrUnknownLandmark, id)
	}
	if kp.Name != "" && !strings.EqualFold(kp.Name, landmarkNames[id]) {
		return fmt.Errorf("%w: name %q does not match id %d (%s)", ErrUnknownLandmark, kp.Name, id, landmarkNames[id])
	}

	kp.Name = landmarkNames[id]
	s.points[id] = kp
	s.present[id] = true
	return nil
}

// ByID returns the keypoint at id and whether the slot is filled.
func (s *LandmarkSet) ByID(id int) (Keypoint, bool) {
	if s == nil || id < 0 || id >= NumLandmarks || !s.present[id] {
		return Keypoint{}, false
	}
	return s.points[id], true
}

// ByName returns the keypoint with the given canonical name.
func (s *LandmarkSet) ByName(name string) (Keypoint, bool) {
	id, ok := IDOf(name)
	if !ok {
		return Keypoint{}, false
	}
	return s.ByID(id)
}

// Has reports whether every listed id is present.
func (s *LandmarkSet) Has(ids ...int) bool {
	return len(s.Missing(ids...)) == 0
}

// Missing returns the names of the listed ids that are not present.
func (s *LandmarkSet) Missing(ids ...int) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := s.ByID(id); !ok {
			name := NameOf(id)
			if name == "" {
				name = fmt.Sprintf("#%d", id)
			}
			missing = append(missing, name)
		}
	}
	return missing
}

// Len returns the number of filled slots.
func (s *LandmarkSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, ok := range s.present {
		if ok {
			n++
		}
	}
	return n
}

// Complete reports whether all 33 slots are filled.
func (s *LandmarkSet) Complete() bool {
	return s.Len() == NumLandmarks
}

// Keypoints returns the filled keypoints in id order.
func (s *LandmarkSet) Keypoints() []Keypoint {
	if s == nil {
		return nil
	}
	kps := make([]Keypoint, 0, NumLandmarks)
	for id, ok := range s.present {
		if ok {
			kps = append(kps, s.points[id])
		}
	}
	return kps
}

// jsonKeypoint is the wire form of a keypoint. ID is optional on input;
// when absent the position in the array is used.
type jsonKeypoint struct {
	ID         *int     `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Visibility float64  `json:"visibility"`
}

// MarshalJSON encodes the filled slots as an array of keypoints with ids.
func (s *LandmarkSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	out := make([]jsonKeypoint, 0, NumLandmarks)
	for id := 0; id < NumLandmarks; id++ {
		if !s.present[id] {
			continue
		}
		kp := s.points[id]
		slot := id
		out = append(out, jsonKeypoint{
			ID:         &slot,
			Name:       kp.Name,
			X:          kp.X,
			Y:          kp.Y,
			Z:          kp.Z,
			Visibility: kp.Visibility,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an array of keypoints produced by MarshalJSON or by the detector service.
func (s *LandmarkSet) UnmarshalJSON(data []byte) error {
	var in []jsonKeypoint
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in) > NumLandmarks {
		return fmt.Errorf("got %d keypoints, want at most %d", len(in), NumLandmarks)
	}

	*s = LandmarkSet{}
	for i, jk := range in {
		id := i
		if jk.ID != nil {
			id = *jk.ID
		} else if jk.Name != "" {
			if named, ok := IDOf(jk.Name); ok {
				id = named
			}
		}
		kp := Keypoint{X: jk.X, Y: jk.Y, Z: jk.Z, Visibility: jk.Visibility, Name: jk.Name}
		if err := s.Set(id, kp); err != nil {
			return err
		}
	}
	return nil
}
