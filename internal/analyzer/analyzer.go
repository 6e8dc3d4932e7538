// Package analyzer turns one landmark frame into a single analysis result:
// a gesture classification, a 0-100 impact score, and the posture flags the
// session tracker aggregates. Analysis is pure: the same frame always yields
// the same result, and degraded input yields conservative defaults instead
// of errors.
package analyzer

import (
	"github.com/claude/stagecoach/internal/pose"
)

// Gesture is the categorical classification of a single frame.
type Gesture string

const (
	GestureOpen       Gesture = "open-gesture"
	GesturePowerPose  Gesture = "power-pose"
	GestureSteeple    Gesture = "steeple"
	GesturePointing   Gesture = "pointing"
	GestureEmphasis   Gesture = "emphasis"
	GestureWideStance Gesture = "wide-stance"
	GestureRest       Gesture = "rest"
)

// Fixed composition weights for the impact score. These encode the product's
// scoring philosophy and are not runtime-tunable; thresholds that needed
// field tuning live in Params instead.
const (
	weightArmQuality   = 0.30
	weightPowerZone    = 0.25
	weightHandOpenness = 0.20
	weightPosture      = 0.15
	weightSymmetry     = 0.05

	// Power-zone wrist scores: in the shoulder-to-hip band, above it,
	// below it, and the neutral score for an invisible wrist.
	powerZoneInBand  = 100
	powerZoneAbove   = 65
	powerZoneBelow   = 20
	powerZoneUnknown = 60

	// Hand openness: thumb-to-index distance at this fraction of shoulder
	// width scores 100; an invisible hand scores the neutral midpoint.
	opennessFullSpread = 0.25
	opennessNeutral    = 50

	// Elbow angle substituted when a shoulder/elbow/wrist triple is not
	// fully visible.
	defaultElbowAngle = 90
)

// Params holds the tunable thresholds of the analyzer. Defaults match the
// shipped product tuning; the config layer may override individual values
// and the server exposes them for live adjustment.
type Params struct {
	// Visibility gating. Fine points (eyes, fingers) demand more
	// confidence than large body joints.
	BodyVisibilityMin float64 `yaml:"body_visibility_min" json:"body_visibility_min"`
	FineVisibilityMin float64 `yaml:"fine_visibility_min" json:"fine_visibility_min"`

	// Slouch detection. Head-drop is (shoulder-mid-Y - nose-Y) / shoulder
	// width; shoulder-roll is shoulder width / inter-ocular distance. Both
	// ratios are camera-distance invariant and either one below its
	// threshold flags a slouch.
	HeadDropThreshold     float64 `yaml:"head_drop_threshold" json:"head_drop_threshold"`
	ShoulderRollThreshold float64 `yaml:"shoulder_roll_threshold" json:"shoulder_roll_threshold"`

	// Impact penalties. Slouching dominates: posture correction is the
	// primary coaching goal.
	SlouchPenalty float64 `yaml:"slouch_penalty" json:"slouch_penalty"`
	FidgetPenalty float64 `yaml:"fidget_penalty" json:"fidget_penalty"`

	// FidgetRadius is how close a wrist may get to the nose, in normalized
	// frame units, before the frame counts as fidgeting.
	FidgetRadius float64 `yaml:"fidget_radius" json:"fidget_radius"`

	// Arm quality reward curve: peak angle and the half-width over which
	// quality falls from 100 to 0.
	ElbowPeakAngle   float64 `yaml:"elbow_peak_angle" json:"elbow_peak_angle"`
	ElbowQualitySpan float64 `yaml:"elbow_quality_span" json:"elbow_quality_span"`

	// Hand-spread bonus: spread (wrist span / shoulder width) at or above
	// SpreadBonusAt earns the full SpreadBonusMax on top of the weighted
	// impact sum.
	SpreadBonusAt  float64 `yaml:"spread_bonus_at" json:"spread_bonus_at"`
	SpreadBonusMax float64 `yaml:"spread_bonus_max" json:"spread_bonus_max"`

	// Classification thresholds, in cascade order.
	PowerPoseSpreadMin   float64 `yaml:"power_pose_spread_min" json:"power_pose_spread_min"`
	OpenSpreadMin        float64 `yaml:"open_spread_min" json:"open_spread_min"`
	StraightArmAngle     float64 `yaml:"straight_arm_angle" json:"straight_arm_angle"`
	SteepleMaxSeparation float64 `yaml:"steeple_max_separation" json:"steeple_max_separation"`
	PointingRatioMax     float64 `yaml:"pointing_ratio_max" json:"pointing_ratio_max"`
	PointingMinExtension float64 `yaml:"pointing_min_extension" json:"pointing_min_extension"`
	EmphasisImpactMin    float64 `yaml:"emphasis_impact_min" json:"emphasis_impact_min"`
	WideStanceMin        float64 `yaml:"wide_stance_min" json:"wide_stance_min"`
}

// DefaultParams returns the shipped tuning. Where earlier revisions of the
// product carried different slouch weights, this is the most recent set.
func DefaultParams() Params {
	return Params{
		BodyVisibilityMin:     0.3,
		FineVisibilityMin:     0.5,
		HeadDropThreshold:     0.45,
		ShoulderRollThreshold: 4.5,
		SlouchPenalty:         35,
		FidgetPenalty:         25,
		FidgetRadius:          0.15,
		ElbowPeakAngle:        110,
		ElbowQualitySpan:      70,
		SpreadBonusAt:         0.9,
		SpreadBonusMax:        15,
		PowerPoseSpreadMin:    1.3,
		OpenSpreadMin:         1.5,
		StraightArmAngle:      150,
		SteepleMaxSeparation:  0.35,
		PointingRatioMax:      0.65,
		PointingMinExtension:  0.6,
		EmphasisImpactMin:     65,
		WideStanceMin:         1.2,
	}
}

// Result is the immutable per-frame output consumed by the tip selector and
// the session tracker.
type Result struct {
	Gesture Gesture `json:"gesture"`
	Impact  float64 `json:"impact"`

	LeftElbowAngle  float64 `json:"left_elbow_angle"`
	RightElbowAngle float64 `json:"right_elbow_angle"`
	ShoulderWidth   float64 `json:"shoulder_width"`
	HandSpread      float64 `json:"hand_spread"`
	Symmetry        float64 `json:"symmetry"`

	HandsAboveWaist bool `json:"hands_above_waist"`
	Fidgeting       bool `json:"fidgeting"`
	PowerMove       bool `json:"power_move"`
	Slouching       bool `json:"slouching"`

	// Raw calibration ratios, kept for threshold tuning sessions.
	HeadDropRatio     float64 `json:"head_drop_ratio"`
	ShoulderRollRatio float64 `json:"shoulder_roll_ratio"`
}

// Analyzer computes per-frame analysis results. It holds no per-frame state;
// Analyze on the same frame is idempotent.
type Analyzer struct {
	params Params
}

// New creates an Analyzer with the given tuning.
func New(params Params) *Analyzer {
	return &Analyzer{params: params}
}

// Params returns the current tuning.
func (a *Analyzer) Params() Params { return a.params }

// Analyze derives a Result from one landmark frame. It never fails: missing
// or low-confidence points fall back to per-feature defaults so every field
// stays in range. An empty frame yields a neutral rest result.
func (a *Analyzer) Analyze(f pose.Frame) Result {
	res := Result{Gesture: GestureRest}

	res.LeftElbowAngle = a.elbowAngle(f, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
	res.RightElbowAngle = a.elbowAngle(f, pose.RightShoulder, pose.RightElbow, pose.RightWrist)

	shoulderL, okSL := a.visibleBody(f, pose.LeftShoulder)
	shoulderR, okSR := a.visibleBody(f, pose.RightShoulder)
	shouldersOK := okSL && okSR
	if shouldersOK {
		res.ShoulderWidth = pose.Distance(shoulderL, shoulderR)
	}

	wristL, okWL := a.visibleBody(f, pose.LeftWrist)
	wristR, okWR := a.visibleBody(f, pose.RightWrist)
	if okWL && okWR && res.ShoulderWidth > 1e-6 {
		res.HandSpread = pose.Distance(wristL, wristR) / res.ShoulderWidth
	}

	hipL, okHL := a.visibleBody(f, pose.LeftHip)
	hipR, okHR := a.visibleBody(f, pose.RightHip)
	hipsOK := okHL && okHR
	var hipMid pose.Landmark
	if hipsOK {
		hipMid = pose.Midpoint(hipL, hipR)
		// A wrist the detector lost counts as raised: hidden hands are
		// usually off-frame above the waist, and assuming the worse case
		// would spam the lift-your-hands tip.
		leftAbove := !okWL || wristL.Y < hipMid.Y
		rightAbove := !okWR || wristR.Y < hipMid.Y
		res.HandsAboveWaist = leftAbove && rightAbove
	}

	res.Slouching, res.HeadDropRatio, res.ShoulderRollRatio = a.slouch(f, shoulderL, shoulderR, shouldersOK, res.ShoulderWidth)
	res.Fidgeting = a.fidgeting(f, wristL, okWL, wristR, okWR)

	extL := armExtension(shoulderL, wristL, okSL && okWL)
	extR := armExtension(shoulderR, wristR, okSR && okWR)
	res.Symmetry = symmetry(extL, extR)

	pointing := a.pointing(extL, extR, res.ShoulderWidth)

	powerZone := a.powerZone(f, shoulderL, shoulderR, hipMid, shouldersOK && hipsOK)
	openness := a.handOpenness(f, res.ShoulderWidth)
	posture := postureOpenness(res.HandsAboveWaist, res.Slouching)
	armQuality := (a.armQuality(res.LeftElbowAngle) + a.armQuality(res.RightElbowAngle)) / 2

	res.Impact = a.impact(armQuality, powerZone, openness, posture, res.Symmetry, res.HandSpread, res.Fidgeting, res.Slouching)

	// Classification needs tracked shoulders and at least one tracked wrist.
	// With the arms untracked the neutral sub-score defaults compose to a
	// mid-impact score and would read as emphasis.
	if shouldersOK && (okWL || okWR) {
		res.Gesture = a.classify(f, res, wristL, okWL, wristR, okWR, shoulderL, shoulderR, hipMid, hipsOK, pointing)
	}
	res.PowerMove = res.Gesture == GestureOpen || res.Gesture == GesturePowerPose

	return res
}

// visibleBody returns the landmark at i if it passes the body visibility gate.
func (a *Analyzer) visibleBody(f pose.Frame, i int) (pose.Landmark, bool) {
	lm, ok := f.At(i)
	if !ok || lm.Visibility < a.params.BodyVisibilityMin {
		return pose.Landmark{}, false
	}
	return lm, true
}

// visibleFine is the stricter gate for eye and finger points.
func (a *Analyzer) visibleFine(f pose.Frame, i int) (pose.Landmark, bool) {
	lm, ok := f.At(i)
	if !ok || lm.Visibility < a.params.FineVisibilityMin {
		return pose.Landmark{}, false
	}
	return lm, true
}

// elbowAngle is the interior shoulder-elbow-wrist angle, defaulting to 90
// degrees when any of the three points is not visible.
func (a *Analyzer) elbowAngle(f pose.Frame, shoulder, elbow, wrist int) float64 {
	s, okS := a.visibleBody(f, shoulder)
	e, okE := a.visibleBody(f, elbow)
	w, okW := a.visibleBody(f, wrist)
	if !okS || !okE || !okW {
		return defaultElbowAngle
	}
	return pose.Angle(s, e, w)
}

// slouch evaluates both distance-invariant posture signals and ORs them.
// Either cue alone is a reliable indicator of poor posture; requiring both
// would under-detect.
func (a *Analyzer) slouch(f pose.Frame, shoulderL, shoulderR pose.Landmark, shouldersOK bool, shoulderWidth float64) (slouching bool, headDrop, shoulderRoll float64) {
	p := a.params
	if !shouldersOK || shoulderWidth < 1e-6 {
		return false, 0, 0
	}
	shoulderMid := pose.Midpoint(shoulderL, shoulderR)

	if nose, ok := a.visibleBody(f, pose.Nose); ok {
		headDrop = (shoulderMid.Y - nose.Y) / shoulderWidth
		if headDrop < p.HeadDropThreshold {
			slouching = true
		}
	}

	eyeL, okEL := a.visibleFine(f, pose.LeftEye)
	eyeR, okER := a.visibleFine(f, pose.RightEye)
	if okEL && okER {
		if interOcular := pose.Distance(eyeL, eyeR); interOcular > 1e-6 {
			shoulderRoll = shoulderWidth / interOcular
			if shoulderRoll < p.ShoulderRollThreshold {
				slouching = true
			}
		}
	}
	return slouching, headDrop, shoulderRoll
}

// fidgeting reports whether either visible wrist hovers near the face.
func (a *Analyzer) fidgeting(f pose.Frame, wristL pose.Landmark, okWL bool, wristR pose.Landmark, okWR bool) bool {
	nose, ok := a.visibleBody(f, pose.Nose)
	if !ok {
		return false
	}
	if okWL && pose.Distance(wristL, nose) < a.params.FidgetRadius {
		return true
	}
	if okWR && pose.Distance(wristR, nose) < a.params.FidgetRadius {
		return true
	}
	return false
}

// armExtension is the shoulder-to-wrist reach used by the symmetry and
// pointing signals. Elbow angle measures arm shape; this measures how far
// the hand is from the body.
func armExtension(shoulder, wrist pose.Landmark, ok bool) float64 {
	if !ok {
		return 0
	}
	return pose.Distance(shoulder, wrist)
}

// symmetry scores how evenly both arms extend, 100 = identical.
func symmetry(extL, extR float64) float64 {
	longer := extL
	if extR > longer {
		longer = extR
	}
	if longer < 1e-6 {
		return 100
	}
	diff := extL - extR
	if diff < 0 {
		diff = -diff
	}
	return pose.Clamp(100-diff/longer*100, 0, 100)
}

// pointing distinguishes a deliberate one-armed point from two-handed
// symmetric gestures: one arm clearly shorter than the other while the long
// arm actually reaches away from the body.
func (a *Analyzer) pointing(extL, extR, shoulderWidth float64) bool {
	p := a.params
	// Both wrists must be tracked; a lost wrist reads as zero extension
	// and would look like an extreme point.
	if shoulderWidth < 1e-6 || extL <= 0 || extR <= 0 {
		return false
	}
	longer, shorter := extL, extR
	if extR > extL {
		longer, shorter = extR, extL
	}
	if longer < p.PointingMinExtension*shoulderWidth {
		return false
	}
	return shorter < p.PointingRatioMax*longer
}

// powerZone scores wrist height against the shoulder-to-hip band, averaged
// over both wrists. The band is where gestures read strongest on camera.
func (a *Analyzer) powerZone(f pose.Frame, shoulderL, shoulderR pose.Landmark, hipMid pose.Landmark, zonesOK bool) float64 {
	if !zonesOK {
		return powerZoneUnknown
	}
	shoulderY := pose.Midpoint(shoulderL, shoulderR).Y

	score := func(idx int) float64 {
		w, ok := a.visibleBody(f, idx)
		if !ok {
			return powerZoneUnknown
		}
		switch {
		case w.Y < shoulderY:
			return powerZoneAbove
		case w.Y > hipMid.Y:
			return powerZoneBelow
		default:
			return powerZoneInBand
		}
	}
	return (score(pose.LeftWrist) + score(pose.RightWrist)) / 2
}

// handOpenness scores thumb-to-index fingertip separation, normalized by
// shoulder width, averaged over both hands. A hand whose finger points fail
// the fine visibility gate scores the neutral midpoint.
func (a *Analyzer) handOpenness(f pose.Frame, shoulderWidth float64) float64 {
	if shoulderWidth < 1e-6 {
		return opennessNeutral
	}
	score := func(thumbIdx, indexIdx int) float64 {
		thumb, okT := a.visibleFine(f, thumbIdx)
		index, okI := a.visibleFine(f, indexIdx)
		if !okT || !okI {
			return opennessNeutral
		}
		ratio := pose.Distance(thumb, index) / shoulderWidth
		return pose.Clamp(ratio/opennessFullSpread*100, 0, 100)
	}
	left := score(pose.LeftThumb, pose.LeftIndex)
	right := score(pose.RightThumb, pose.RightIndex)
	return (left + right) / 2
}

// postureOpenness rewards an upright, hands-up stance.
func postureOpenness(handsAboveWaist, slouching bool) float64 {
	score := 60.0
	if handsAboveWaist {
		score += 20
	}
	if !slouching {
		score += 20
	}
	return score
}

// armQuality rewards the natural presenting range with an inverted parabola
// peaking at the tuned elbow angle: limp arms and locked-out arms both score
// down quadratically.
func (a *Analyzer) armQuality(angle float64) float64 {
	d := (angle - a.params.ElbowPeakAngle) / a.params.ElbowQualitySpan
	return pose.Clamp(100-d*d*100, 0, 100)
}

// impact composes the weighted sub-scores, adds the hand-spread bonus, and
// applies the fidget and slouch penalties before clamping to [0,100].
func (a *Analyzer) impact(armQuality, powerZone, openness, posture, symmetryScore, handSpread float64, fidgeting, slouching bool) float64 {
	p := a.params
	score := weightArmQuality*armQuality +
		weightPowerZone*powerZone +
		weightHandOpenness*openness +
		weightPosture*posture +
		weightSymmetry*symmetryScore

	if p.SpreadBonusAt > 0 {
		score += pose.Clamp(handSpread/p.SpreadBonusAt, 0, 1) * p.SpreadBonusMax
	}
	if fidgeting {
		score -= p.FidgetPenalty
	}
	if slouching {
		score -= p.SlouchPenalty
	}
	return pose.Clamp(score, 0, 100)
}

// classify runs the ordered rule cascade; the first matching rule wins.
// Later rules are reachable only when earlier ones fail, so the order
// encodes gesture priority.
func (a *Analyzer) classify(f pose.Frame, res Result, wristL pose.Landmark, okWL bool, wristR pose.Landmark, okWR bool, shoulderL, shoulderR pose.Landmark, hipMid pose.Landmark, hipsOK bool, pointing bool) Gesture {
	p := a.params

	rules := []struct {
		gesture Gesture
		match   func() bool
	}{
		{GesturePowerPose, func() bool {
			if !okWL || !okWR {
				return false
			}
			raised := wristL.Y < shoulderL.Y && wristR.Y < shoulderR.Y
			return raised && res.HandSpread > p.PowerPoseSpreadMin
		}},
		{GestureOpen, func() bool {
			if res.HandSpread > p.OpenSpreadMin {
				return true
			}
			// The straight-arm cue only counts with hands in play;
			// arms hanging straight at the sides are a rest pose.
			return res.HandsAboveWaist &&
				res.LeftElbowAngle > p.StraightArmAngle && res.RightElbowAngle > p.StraightArmAngle
		}},
		{GestureSteeple, func() bool {
			if !okWL || !okWR || !hipsOK || res.ShoulderWidth < 1e-6 {
				return false
			}
			together := pose.Distance(wristL, wristR) < p.SteepleMaxSeparation*res.ShoulderWidth
			shoulderY := pose.Midpoint(shoulderL, shoulderR).Y
			atChest := wristL.Y > shoulderY && wristL.Y < hipMid.Y &&
				wristR.Y > shoulderY && wristR.Y < hipMid.Y
			return together && atChest
		}},
		{GesturePointing, func() bool { return pointing }},
		{GestureEmphasis, func() bool { return res.Impact > p.EmphasisImpactMin }},
		{GestureWideStance, func() bool {
			if res.HandsAboveWaist || res.ShoulderWidth < 1e-6 {
				return false
			}
			ankleL, okAL := a.visibleBody(f, pose.LeftAnkle)
			ankleR, okAR := a.visibleBody(f, pose.RightAnkle)
			if !okAL || !okAR {
				return false
			}
			return pose.Distance(ankleL, ankleR)/res.ShoulderWidth > p.WideStanceMin
		}},
	}

	for _, r := range rules {
		if r.match() {
			return r.gesture
		}
	}
	return GestureRest
}
