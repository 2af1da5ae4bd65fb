// Package planner decides how many segments an output needs, how long each
// should be, and drives the segment acquisition loop against the usage
// ledger and clip selector.
package planner

import (
	"errors"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/ledger"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/selector"
	"github.com/keagan/slopforge/internal/signature"
)

// ErrNoSegments means no fitting window was found in any clip within the
// attempt budget. The caller should abandon this output and continue.
var ErrNoSegments = errors.New("no segments could be scheduled")

// attemptFactor bounds acquisition attempts at attemptFactor x the planned
// segment count, so ledger exhaustion degrades into the shortfall pass
// instead of looping forever.
const attemptFactor = 3

// Planner drives segment acquisition for one batch. The random source is
// injected so plans are reproducible under a fixed seed.
type Planner struct {
	logger zerolog.Logger
	rng    *rand.Rand
	sel    *selector.Selector
	bounds Bounds
}

// New creates a planner over the given budget bounds
func New(logger zerolog.Logger, rng *rand.Rand, sel *selector.Selector, bounds Bounds) *Planner {
	return &Planner{
		logger: logging.Component(logger, "planner"),
		rng:    rng,
		sel:    sel,
		bounds: bounds,
	}
}

// PlanOutput builds the segment plan for one output video. Every acquired
// segment is marked in both the batch-wide history and a per-output scope,
// so no two segments overlap once buffered intervals are considered. The
// onSegment callback, when non-nil, is invoked after each acquired segment
// with the running and planned counts.
func (p *Planner) PlanOutput(clips []Clip, sigs *signature.Index, global *ledger.History, onSegment func(acquired, planned int)) (*OutputPlan, error) {
	if len(clips) == 0 {
		return nil, ErrNoSegments
	}

	byID := make(map[string]Clip, len(clips))
	ids := make([]string, 0, len(clips))
	for _, c := range clips {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	segCount := p.bounds.MinSegments
	if p.bounds.MaxSegments > p.bounds.MinSegments {
		segCount += p.rng.Intn(p.bounds.MaxSegments - p.bounds.MinSegments + 1)
	}

	avg := p.bounds.Target / float64(segCount)
	minDur := p.bounds.MinDuration
	if 0.8*avg > minDur {
		minDur = 0.8 * avg
	}
	maxDur := p.bounds.MaxDuration
	if 1.2*avg < maxDur {
		maxDur = 1.2 * avg
	}

	led := ledger.New(global)
	mem := selector.NewMemory(len(clips))

	plan := &OutputPlan{}
	attempts := 0
	attemptCap := attemptFactor * segCount

	for len(plan.Segments) < segCount && plan.Total < p.bounds.Target && attempts < attemptCap {
		attempts++

		clipID := p.sel.Select(p.availableIDs(ids, mem), mem.Recent(), sigs)
		clip := byID[clipID]
		mem.Remember(clipID)

		duration := p.roundDuration(segCount-len(plan.Segments), p.bounds.Target-plan.Total, minDur, maxDur)
		if duration > clip.Duration {
			continue
		}

		choice, ok := p.acquire(led, clip, duration)
		if !ok {
			continue
		}

		plan.Segments = append(plan.Segments, choice)
		plan.Total += choice.Duration
		if onSegment != nil {
			onSegment(len(plan.Segments), segCount)
		}
	}

	// Shortfall pass: extra rounds with fresh random clips, durations
	// clamped to the remaining need, up to twice the segment budget.
	shortfallAttempts := 0
	for plan.Total < p.bounds.Target &&
		len(plan.Segments) < 2*p.bounds.MaxSegments &&
		shortfallAttempts < attemptCap {
		shortfallAttempts++

		clip := byID[ids[p.rng.Intn(len(ids))]]
		duration := clamp(p.bounds.Target-plan.Total, minDur, maxDur)
		if duration > clip.Duration {
			continue
		}

		choice, ok := p.acquire(led, clip, duration)
		if !ok {
			continue
		}

		plan.Segments = append(plan.Segments, choice)
		plan.Total += choice.Duration
	}

	if len(plan.Segments) == 0 {
		return nil, ErrNoSegments
	}

	// Still short: the final segment loops its content at render time to
	// close the gap exactly. No ledger space is consumed.
	if plan.Total < p.bounds.Target {
		plan.ExtendBy = p.bounds.Target - plan.Total
		plan.Total = p.bounds.Target
	}

	p.logger.Debug().
		Int("segments", len(plan.Segments)).
		Float64("total", plan.Total).
		Float64("extend_by", plan.ExtendBy).
		Int("attempts", attempts).
		Msg("output plan complete")

	return plan, nil
}

// availableIDs filters recently used clips out of the pool while more than
// one clip remains, so selection never starves.
func (p *Planner) availableIDs(ids []string, mem *selector.Memory) []string {
	available := make([]string, 0, len(ids))
	available = append(available, ids...)

	for _, recent := range mem.Recent() {
		if len(available) <= 1 {
			break
		}
		for i, id := range available {
			if id == recent {
				available = append(available[:i], available[i+1:]...)
				break
			}
		}
	}

	return available
}

// roundDuration draws this round's segment duration. While rounds remain,
// the upper bound leaves room for the remaining rounds; the final round
// takes the remaining need clamped to the budget bounds.
func (p *Planner) roundDuration(remainingRounds int, remainingDuration, minDur, maxDur float64) float64 {
	if remainingDuration < 0 {
		remainingDuration = 0
	}

	if remainingRounds > 1 {
		maxThis := remainingDuration / float64(remainingRounds) * 1.5
		if maxDur < maxThis {
			maxThis = maxDur
		}
		if maxThis <= minDur {
			return minDur
		}
		return minDur + p.rng.Float64()*(maxThis-minDur)
	}

	return clamp(remainingDuration, minDur, maxDur)
}

// acquire finds a free window for the duration in the clip, picks a start
// uniformly within it, and marks the usage in both ledger scopes.
func (p *Planner) acquire(led *ledger.Ledger, clip Clip, duration float64) (SegmentChoice, bool) {
	gaps := led.Available(clip.ID, clip.Duration, duration)
	if len(gaps) == 0 {
		return SegmentChoice{}, false
	}

	gap := gaps[p.rng.Intn(len(gaps))]
	start := gap.Start
	if hi := gap.End - duration; hi > start {
		start += p.rng.Float64() * (hi - start)
	}

	led.MarkUsed(clip.ID, start, start+duration)
	return SegmentChoice{ClipID: clip.ID, Start: start, Duration: duration}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
