package pose

import "math"

// StabilityThreshold is the mean per-keypoint displacement below which a pose is stable.
const StabilityThreshold = 0.05

// AngleBetween returns the angle at vertex b formed by the rays b->a and b->c,
// in degrees within [0, 180]. Only x and y are used. Returns 0 when either ray
// has zero length.
func AngleBetween(a, b, c Keypoint) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)
	if magBA == 0 || magBC == 0 {
		return 0
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)
	// Clamp to avoid NaN from floating point drift
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// Distance returns the Euclidean distance between two keypoints.
// Depth is included only when both points carry it.
func Distance(a, b Keypoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y

	az, aok := a.Depth()
	bz, bok := b.Depth()
	if aok && bok {
		dz := az - bz
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the 2D point halfway between a and b.
func Midpoint(a, b Keypoint) Keypoint {
	return Keypoint{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// BodyCenter returns the midpoint of the hips.
func BodyCenter(s *LandmarkSet) (Keypoint, bool) {
	lh, lok := s.ByID(LeftHip)
	rh, rok := s.ByID(RightHip)
	if !lok || !rok {
		return Keypoint{}, false
	}
	return Midpoint(lh, rh), true
}

// IsStable reports whether the mean displacement between two consecutive
// sets is below threshold. Only keypoints present in both sets are compared.
func IsStable(current, previous *LandmarkSet, threshold float64) bool {
	if current == nil || previous == nil {
		return false
	}

	var total float64
	var n int
	for id := 0; id < NumLandmarks; id++ {
		c, cok := current.ByID(id)
		p, pok := previous.ByID(id)
		if !cok || !pok {
			continue
		}
		total += Distance(c, p)
		n++
	}
	if n == 0 {
		return false
	}
	return total/float64(n) < threshold
}
