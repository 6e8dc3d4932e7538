// Package pose defines the landmark data model and the geometric primitives
// that the frame analyzer is built on. Landmark indices follow the MediaPipe
// Pose topology (33 points, body-only subset used here).
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
package pose

// Body landmark indices following the MediaPipe Pose convention.
const (
	Nose          = 0
	LeftEyeInner  = 1
	LeftEye       = 2
	LeftEyeOuter  = 3
	RightEyeInner = 4
	RightEye      = 5
	RightEyeOuter = 6
	LeftEar       = 7
	RightEar      = 8
	MouthLeft     = 9
	MouthRight    = 10
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftPinky     = 17
	RightPinky    = 18
	LeftIndex     = 19
	RightIndex    = 20
	LeftThumb     = 21
	RightThumb    = 22
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	// NumLandmarks is the full MediaPipe Pose set. Frames may carry fewer
	// points; lookups degrade to "not visible" rather than failing.
	NumLandmarks = 33
)

// Landmark is a normalized body keypoint. X and Y are in [0,1] relative to
// the frame, Z is depth relative to the hip midpoint, Visibility is the
// detector's per-point confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is one landmark set as delivered per video frame.
type Frame []Landmark

// At returns the landmark at index i and whether it exists in this frame.
// Out-of-range indices are reported as absent, never as an error, so a
// shorter-than-expected collection degrades gracefully.
func (f Frame) At(i int) (Landmark, bool) {
	if i < 0 || i >= len(f) {
		return Landmark{}, false
	}
	return f[i], true
}

// Visible reports whether the landmark at index i exists and its visibility
// confidence meets minVis.
func (f Frame) Visible(i int, minVis float64) bool {
	lm, ok := f.At(i)
	return ok && lm.Visibility >= minVis
}
