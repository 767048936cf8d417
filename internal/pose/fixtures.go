package pose

// Preset landmark sets used by tests, the mock detector and demo sessions.
// Coordinates are normalized with y growing downward.

const fixtureVisibility = 0.95

func buildSet(points [NumLandmarks][2]float64) *LandmarkSet {
	s := NewLandmarkSet()
	for id, p := range points {
		// Ids come from the fixed table so Set cannot fail.
		_ = s.Set(id, KP(p[0], p[1], fixtureVisibility))
	}
	return s
}

// StandingPose returns an upright, symmetric front-facing pose with arms at the sides.
func StandingPose() *LandmarkSet {
	return buildSet([NumLandmarks][2]float64{
		Nose:           {0.50, 0.10},
		LeftEyeInner:   {0.49, 0.09},
		LeftEye:        {0.48, 0.09},
		LeftEyeOuter:   {0.47, 0.09},
		RightEyeInner:  {0.51, 0.09},
		RightEye:       {0.52, 0.09},
		RightEyeOuter:  {0.53, 0.09},
		LeftEar:        {0.46, 0.10},
		RightEar:       {0.54, 0.10},
		MouthLeft:      {0.49, 0.12},
		MouthRight:     {0.51, 0.12},
		LeftShoulder:   {0.45, 0.25},
		RightShoulder:  {0.55, 0.25},
		LeftElbow:      {0.43, 0.38},
		RightElbow:     {0.57, 0.38},
		LeftWrist:      {0.42, 0.50},
		RightWrist:     {0.58, 0.50},
		LeftPinky:      {0.42, 0.53},
		RightPinky:     {0.58, 0.53},
		LeftIndex:      {0.43, 0.53},
		RightIndex:     {0.57, 0.53},
		LeftThumb:      {0.43, 0.52},
		RightThumb:     {0.57, 0.52},
		LeftHip:        {0.47, 0.55},
		RightHip:       {0.53, 0.55},
		LeftKnee:       {0.47, 0.72},
		RightKnee:      {0.53, 0.72},
		LeftAnkle:      {0.47, 0.90},
		RightAnkle:     {0.53, 0.90},
		LeftHeel:       {0.47, 0.92},
		RightHeel:      {0.53, 0.92},
		LeftFootIndex:  {0.45, 0.93},
		RightFootIndex: {0.55, 0.93},
	})
}

// SquatBottomPose returns a side-view squat at depth: hips below the knees,
// knees bent to 90 degrees and the torso leaning forward.
func SquatBottomPose() *LandmarkSet {
	return buildSet([NumLandmarks][2]float64{
		Nose:           {0.55, 0.33},
		LeftEyeInner:   {0.56, 0.32},
		LeftEye:        {0.56, 0.32},
		LeftEyeOuter:   {0.55, 0.32},
		RightEyeInner:  {0.57, 0.32},
		RightEye:       {0.57, 0.32},
		RightEyeOuter:  {0.56, 0.32},
		LeftEar:        {0.52, 0.33},
		RightEar:       {0.54, 0.33},
		MouthLeft:      {0.56, 0.35},
		MouthRight:     {0.57, 0.35},
		LeftShoulder:   {0.50, 0.45},
		RightShoulder:  {0.52, 0.45},
		LeftElbow:      {0.60, 0.55},
		RightElbow:     {0.62, 0.55},
		LeftWrist:      {0.70, 0.55},
		RightWrist:     {0.72, 0.55},
		LeftPinky:      {0.72, 0.56},
		RightPinky:     {0.74, 0.56},
		LeftIndex:      {0.73, 0.55},
		RightIndex:     {0.75, 0.55},
		LeftThumb:      {0.72, 0.54},
		RightThumb:     {0.74, 0.54},
		LeftHip:        {0.35, 0.80},
		RightHip:       {0.37, 0.80},
		LeftKnee:       {0.55, 0.60},
		RightKnee:      {0.57, 0.60},
		LeftAnkle:      {0.75, 0.80},
		RightAnkle:     {0.77, 0.80},
		LeftHeel:       {0.74, 0.82},
		RightHeel:      {0.76, 0.82},
		LeftFootIndex:  {0.80, 0.82},
		RightFootIndex: {0.82, 0.82},
	})
}

// PushupPose returns a side-view pushup at the bottom: elbows at 90 degrees
// and a straight body line.
func PushupPose() *LandmarkSet {
	return buildSet([NumLandmarks][2]float64{
		Nose:           {0.30, 0.50},
		LeftEyeInner:   {0.29, 0.49},
		LeftEye:        {0.29, 0.49},
		LeftEyeOuter:   {0.30, 0.49},
		RightEyeInner:  {0.30, 0.49},
		RightEye:       {0.30, 0.49},
		RightEyeOuter:  {0.31, 0.49},
		LeftEar:        {0.33, 0.49},
		RightEar:       {0.34, 0.49},
		MouthLeft:      {0.29, 0.51},
		MouthRight:     {0.30, 0.51},
		LeftShoulder:   {0.40, 0.50},
		RightShoulder:  {0.41, 0.50},
		LeftElbow:      {0.40, 0.65},
		RightElbow:     {0.41, 0.65},
		LeftWrist:      {0.50, 0.65},
		RightWrist:     {0.51, 0.65},
		LeftPinky:      {0.51, 0.66},
		RightPinky:     {0.52, 0.66},
		LeftIndex:      {0.52, 0.65},
		RightIndex:     {0.53, 0.65},
		LeftThumb:      {0.51, 0.64},
		RightThumb:     {0.52, 0.64},
		LeftHip:        {0.65, 0.52},
		RightHip:       {0.66, 0.52},
		LeftKnee:       {0.80, 0.55},
		RightKnee:      {0.81, 0.55},
		LeftAnkle:      {0.95, 0.58},
		RightAnkle:     {0.96, 0.58},
		LeftHeel:       {0.96, 0.57},
		RightHeel:      {0.97, 0.57},
		LeftFootIndex:  {0.95, 0.60},
		RightFootIndex: {0.96, 0.60},
	})
}

// SaggingPushupPose returns a pushup with locked elbows and hips dropped well
// below the shoulder line.
func SaggingPushupPose() *LandmarkSet {
	s := PushupPose()
	_ = s.Set(LeftElbow, KP(0.40, 0.60, fixtureVisibility))
	_ = s.Set(RightElbow, KP(0.41, 0.60, fixtureVisibility))
	_ = s.Set(LeftWrist, KP(0.40, 0.70, fixtureVisibility))
	_ = s.Set(RightWrist, KP(0.41, 0.70, fixtureVisibility))
	_ = s.Set(LeftHip, KP(0.65, 0.70, fixtureVisibility))
	_ = s.Set(RightHip, KP(0.66, 0.70, fixtureVisibility))
	return s
}

// Without returns a copy of s with the given ids cleared.
func Without(s *LandmarkSet, ids ...int) *LandmarkSet {
	if s == nil {
		return nil
	}
	cp := *s
	for _, id := range ids {
		if id >= 0 && id < NumLandmarks {
			cp.present[id] = false
			cp.points[id] = Keypoint{}
		}
	}
	return &cp
}
