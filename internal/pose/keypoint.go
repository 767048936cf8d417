package pose

// DefaultVisibilityThreshold is the visibility above which a keypoint counts as seen.
const DefaultVisibilityThreshold = 0.5

// Keypoint is one detected body landmark in normalized image coordinates.
// Z is relative depth and is nil when the detector does not report it.
type Keypoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Visibility float64  `json:"visibility"`
	Name       string   `json:"name"`
}

// KP is shorthand for a 2D keypoint with the given visibility.
func KP(x, y, visibility float64) Keypoint {
	return Keypoint{X: x, Y: y, Visibility: visibility}
}

// KP3 is shorthand for a keypoint with depth.
func KP3(x, y, z, visibility float64) Keypoint {
	return Keypoint{X: x, Y: y, Z: &z, Visibility: visibility}
}

// Depth returns Z and whether the keypoint carries depth.
func (k Keypoint) Depth() (float64, bool) {
	if k.Z == nil {
		return 0, false
	}
	return *k.Z, true
}

// Visible reports whether the keypoint visibility reaches threshold.
func (k Keypoint) Visible(threshold float64) bool {
	return k.Visibility >= threshold
}
