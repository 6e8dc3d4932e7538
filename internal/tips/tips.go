// Package tips holds the fixed coaching-tip catalog and selects which tips
// to surface for a given frame analysis.
package tips

import (
	"sort"

	"github.com/claude/stagecoach/internal/analyzer"
)

// Tip is a static catalog entry. Lower priority sorts first.
type Tip struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	Priority int    `json:"priority"`
}

// Catalog entries in declaration order. The padding cycle below walks this
// order, so it doubles as the fallback rotation when few rules fire.
var (
	tipPosture = Tip{ID: "posture-reset", Text: "Sit tall — lift your chest and level your chin", Icon: "posture", Priority: 1}
	tipHands   = Tip{ID: "calm-hands", Text: "Keep your hands away from your face", Icon: "hand", Priority: 2}
	tipLift    = Tip{ID: "lift-hands", Text: "Bring your hands above your waist", Icon: "raise", Priority: 3}
	tipOpen    = Tip{ID: "open-up", Text: "Open your arms and give your gestures room", Icon: "expand", Priority: 4}
	tipBalance = Tip{ID: "balance-arms", Text: "Use both arms evenly", Icon: "scale", Priority: 5}
	tipGesture = Tip{ID: "try-gesture", Text: "Punctuate your next point with a gesture", Icon: "spark", Priority: 6}
	tipSmile   = Tip{ID: "light-smile", Text: "Relax your face — a light smile reads as confidence", Icon: "smile", Priority: 7}
	tipPower   = Tip{ID: "power-hold", Text: "Strong power pose — hold it for a beat", Icon: "bolt", Priority: 8}
	tipSteeple = Tip{ID: "steeple-praise", Text: "Nice steeple — that reads as calm authority", Icon: "steeple", Priority: 9}
	tipImpact  = Tip{ID: "keep-energy", Text: "Great presence — keep this energy", Icon: "fire", Priority: 10}
)

// Catalog returns the full tip table in declaration order.
func Catalog() []Tip {
	return []Tip{tipPosture, tipHands, tipLift, tipOpen, tipBalance,
		tipGesture, tipSmile, tipPower, tipSteeple, tipImpact}
}

// MaxDisplayed is how many tips the UI shows at once.
const MaxDisplayed = 2

// Rule thresholds. The catalog itself is fixed; these gate when each entry
// becomes a candidate.
const (
	lowSymmetryMax   = 60.0
	shortArmAngleMax = 70.0
	idleAfterSeconds = 30.0
	idleImpactMax    = 40.0
	highImpactMin    = 80.0
	smileThreshold   = 0.6
	noSmileAfterSecs = 15.0
)

// Select evaluates the rule list against one analysis result and returns at
// most MaxDisplayed tips, sorted ascending by priority. The slouch tip,
// when active, is always first regardless of its catalog priority. If fewer
// than MaxDisplayed rules fire, the result is padded deterministically by
// cycling the catalog in declaration order.
func Select(res analyzer.Result, elapsedSeconds, smileScore float64) []Tip {
	var selected []Tip
	slouchActive := res.Slouching

	add := func(t Tip, fire bool) {
		if fire {
			selected = append(selected, t)
		}
	}

	add(tipHands, res.Fidgeting)
	add(tipLift, !res.HandsAboveWaist)
	add(tipBalance, res.Symmetry < lowSymmetryMax)
	add(tipOpen, res.LeftElbowAngle < shortArmAngleMax && res.RightElbowAngle < shortArmAngleMax)
	add(tipGesture, elapsedSeconds > idleAfterSeconds && res.Impact < idleImpactMax)
	add(tipPower, res.Gesture == analyzer.GesturePowerPose)
	add(tipImpact, res.Impact > highImpactMin)
	add(tipSteeple, res.Gesture == analyzer.GestureSteeple)
	add(tipSmile, smileScore < smileThreshold && elapsedSeconds > noSmileAfterSecs)

	// Deterministic padding: cycle the catalog in declaration order,
	// skipping anything already selected, until the display is full.
	want := MaxDisplayed
	if slouchActive {
		want--
	}
	for _, t := range Catalog() {
		if len(selected) >= want {
			break
		}
		if t.ID == tipPosture.ID {
			continue
		}
		if !contains(selected, t.ID) {
			selected = append(selected, t)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Priority < selected[j].Priority
	})

	if slouchActive {
		selected = append([]Tip{tipPosture}, selected...)
	}
	if len(selected) > MaxDisplayed {
		selected = selected[:MaxDisplayed]
	}
	return selected
}

func contains(ts []Tip, id string) bool {
	for _, t := range ts {
		if t.ID == id {
			return true
		}
	}
	return false
}
