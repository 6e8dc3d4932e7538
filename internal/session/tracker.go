package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/pose"
	"github.com/claude/stagecoach/internal/tips"
)

// celebrationDisplaySecs is how long the celebration flag stays raised in
// snapshots after a trigger.
const celebrationDisplaySecs = 3.0

// Tracker is the stateful session core. It exclusively owns every mutable
// buffer and timer; AnalysisResults and tips flow through it as read-only
// values. Frames arrive serially from the capture loop, the elapsed-time
// tick runs on its own 1Hz timer, and snapshot reads come from HTTP
// handlers, so all state is guarded by one mutex.
type Tracker struct {
	mu       sync.Mutex
	analyzer *analyzer.Analyzer
	params   Params
	log      *slog.Logger
	now      func() time.Time

	active    bool
	startedAt time.Time
	state     State

	impactBuf []float64 // most recent per-frame impacts, capped at SmoothWindow
	history   []float64 // one smoothed sample per throttle tick, full session

	lastTick        time.Time
	lastTickGesture analyzer.Gesture
	prevSmiling     bool
	prevSlouching   bool
	streakStart     time.Time
	lastCelebration time.Time
	lastTipChange   time.Time

	done chan struct{}
}

// NewTracker creates an idle tracker.
func NewTracker(an *analyzer.Analyzer, params Params, log *slog.Logger) *Tracker {
	return &Tracker{
		analyzer: an,
		params:   params,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the wall clock. Used by tests and by the replay CLI,
// which drives the tracker with recorded timestamps.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Params returns the current session tuning.
func (t *Tracker) Params() Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// SetParams swaps the session tuning. Takes effect from the next tick.
func (t *Tracker) SetParams(p Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params = p
}

// AnalyzerParams returns the tuning of the wrapped analyzer.
func (t *Tracker) AnalyzerParams() analyzer.Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.analyzer.Params()
}

// SetAnalyzerParams replaces the analyzer with one using the given tuning.
// Takes effect from the next frame.
func (t *Tracker) SetAnalyzerParams(p analyzer.Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.analyzer = analyzer.New(p)
}

// Active reports whether a session is running.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Start resets all buffers, counters and timers, records the wall-clock
// origin, and begins the 1Hz elapsed-time tick. Starting over an active
// session discards it without a summary.
func (t *Tracker) Start() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTickerLocked()

	id := uuid.New()
	origin := t.now()

	t.active = true
	t.startedAt = origin
	t.state = State{SessionID: id, Active: true}
	t.impactBuf = nil
	t.history = nil
	t.lastTick = time.Time{}
	t.lastTickGesture = ""
	t.prevSmiling = false
	t.prevSlouching = false
	t.streakStart = time.Time{}
	t.lastCelebration = time.Time{}
	t.lastTipChange = time.Time{}

	t.done = make(chan struct{})
	go t.runElapsedTick(t.done)

	t.log.Info("session started", "session_id", id)
	return id
}

// Stop halts frame processing and the elapsed tick, freezes the final
// state, and returns the summary for storage. Calling Stop while idle is a
// no-op returning nil.
func (t *Tracker) Stop() *Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil
	}
	t.stopTickerLocked()

	endedAt := t.now()
	t.active = false
	t.state.Active = false
	t.state.ElapsedSeconds = endedAt.Sub(t.startedAt).Seconds()

	sum := &Summary{
		ID:                 t.state.SessionID,
		StartedAt:          t.startedAt,
		EndedAt:            endedAt,
		DurationSeconds:    t.state.ElapsedSeconds,
		GestureCount:       t.state.GestureCount,
		BestStreak:         t.state.BestStreak,
		SmileCount:         t.state.SmileCount,
		SlouchCount:        t.state.SlouchCount,
		GoodPostureSeconds: t.state.GoodPostureSeconds,
		PeakImpact:         t.state.PeakImpact,
		AverageImpact:      t.state.AverageImpact,
	}
	t.log.Info("session stopped",
		"session_id", sum.ID,
		"duration_secs", sum.DurationSeconds,
		"gestures", sum.GestureCount,
		"peak_impact", sum.PeakImpact,
	)
	return sum
}

// ProcessFrame ingests one landmark frame and its smile signal at the given
// timestamp. Structurally empty frames no-op; transient bad frames self-heal
// on the next good one. Per-frame work is O(1) arithmetic; the heavier
// aggregation runs only on the throttled tick.
func (t *Tracker) ProcessFrame(f pose.Frame, smile float64, at time.Time) {
	if len(f) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}

	res := t.analyzer.Analyze(f)

	// Edge-triggered occurrence counters: increment on false->true only,
	// not while the flag is sustained.
	smiling := smile >= t.params.SmileThreshold
	if smiling && !t.prevSmiling {
		t.state.SmileCount++
	}
	t.prevSmiling = smiling
	if res.Slouching && !t.prevSlouching {
		t.state.SlouchCount++
	}
	t.prevSlouching = res.Slouching

	t.state.Gesture = res.Gesture
	t.state.Slouching = res.Slouching

	t.impactBuf = append(t.impactBuf, res.Impact)
	if n := t.params.SmoothWindow; n > 0 && len(t.impactBuf) > n {
		t.impactBuf = t.impactBuf[len(t.impactBuf)-n:]
	}

	throttle := time.Duration(t.params.ThrottleMillis) * time.Millisecond
	if !t.lastTick.IsZero() && at.Sub(t.lastTick) < throttle {
		return
	}
	t.lastTick = at
	t.tick(res, smile, at)
}

// tick runs the throttled aggregation: smoothing, streaks, counters,
// celebration and tip debouncing.
func (t *Tracker) tick(res analyzer.Result, smile float64, at time.Time) {
	p := t.params

	smoothed := stat.Mean(t.impactBuf, nil)
	t.state.Impact = smoothed
	t.history = append(t.history, smoothed)
	t.state.AverageImpact = stat.Mean(t.history, nil)
	if smoothed > t.state.PeakImpact {
		t.state.PeakImpact = smoothed
	}

	elapsed := at.Sub(t.startedAt).Seconds()

	// Gesture counting: one count per genuine transition into a power
	// move, never per frame of a held pose.
	if res.PowerMove && res.Gesture != t.lastTickGesture && res.Impact > p.GestureMinImpact {
		t.state.GestureCount++
	}
	t.lastTickGesture = res.Gesture

	// Streak: continuous time at/above the sustain threshold, counted
	// only once it has lasted StreakSustainSecs. Dropping below resets
	// immediately; there is no grace period.
	if smoothed >= p.StreakThreshold {
		if t.streakStart.IsZero() {
			t.streakStart = at
		}
		if sustained := at.Sub(t.streakStart).Seconds(); sustained >= p.StreakSustainSecs {
			t.state.CurrentStreak = sustained
			if sustained > t.state.BestStreak {
				t.state.BestStreak = sustained
			}
		}
	} else {
		t.streakStart = time.Time{}
		t.state.CurrentStreak = 0
	}

	// Good posture is a duration integral, not a count.
	if smoothed > p.GoodPostureFloor && !res.Slouching {
		t.state.GoodPostureSeconds += throttleSeconds(p)
	}

	// Celebration: a cooldown rather than a one-shot, so sustained
	// excellence re-triggers periodically. The warm-up window excludes
	// detector warm-up spikes in the first seconds.
	if smoothed >= p.CelebrationImpactMin &&
		elapsed >= p.CelebrationWarmupSecs &&
		(t.lastCelebration.IsZero() || at.Sub(t.lastCelebration).Seconds() >= p.CelebrationCooldownSecs) {
		t.lastCelebration = at
		t.log.Debug("celebration triggered", "impact", smoothed, "elapsed_secs", elapsed)
	}
	t.state.Celebrating = !t.lastCelebration.IsZero() &&
		at.Sub(t.lastCelebration).Seconds() < celebrationDisplaySecs

	t.updateTips(tips.Select(res, elapsed, smile), at)
}

// updateTips debounces the displayed tip set. A slouch-tip presence flip
// always applies immediately; any other change waits out the hold window so
// the tip bubble stays readable.
func (t *Tracker) updateTips(candidates []tips.Tip, at time.Time) {
	slouchCandidate := hasSlouchTip(candidates)
	slouchShown := hasSlouchTip(t.state.Tips)

	if slouchCandidate != slouchShown {
		t.state.Tips = candidates
		t.lastTipChange = at
		return
	}
	if tipsEqual(candidates, t.state.Tips) {
		return
	}
	if t.lastTipChange.IsZero() || at.Sub(t.lastTipChange).Seconds() >= t.params.TipHoldSecs {
		t.state.Tips = candidates
		t.lastTipChange = at
	}
}

// Snapshot returns a copy of the current session state, safe to serialize
// while frames keep arriving.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.state
	snap.Tips = append([]tips.Tip(nil), t.state.Tips...)
	return snap
}

// runElapsedTick updates the elapsed-seconds field about once a second for
// UI consumption, independent of frame rate. It stops on session stop so
// timers never leak across session boundaries.
func (t *Tracker) runElapsedTick(done chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.active {
				t.state.ElapsedSeconds = t.now().Sub(t.startedAt).Seconds()
			}
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) stopTickerLocked() {
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}

func throttleSeconds(p Params) float64 {
	return float64(p.ThrottleMillis) / 1000
}

func hasSlouchTip(ts []tips.Tip) bool {
	for _, tip := range ts {
		if tip.ID == "posture-reset" {
			return true
		}
	}
	return false
}

func tipsEqual(a, b []tips.Tip) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
