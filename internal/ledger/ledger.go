// Package ledger tracks which time windows of each source clip have already
// been used, and answers where a new segment of a given length can still fit.
package ledger

import "sort"

// Default spacing parameters, in seconds. Buffer pads every used interval on
// both sides before gap calculation; MinGap is the extra room an interior or
// trailing gap must have beyond the desired duration.
const (
	DefaultMinGap = 0.5
	DefaultBuffer = 0.1
)

// Interval is a used or available time window within a clip, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Length returns the interval's extent in seconds
func (iv Interval) Length() float64 {
	return iv.End - iv.Start
}

// History is an append-only record of used intervals keyed by clip ID.
// Entries are never merged or removed; merging happens only transiently
// while querying.
type History struct {
	used map[string][]Interval
}

// NewHistory creates an empty usage history
func NewHistory() *History {
	return &History{used: make(map[string][]Interval)}
}

// Append records a used interval for a clip
func (h *History) Append(clipID string, iv Interval) {
	h.used[clipID] = append(h.used[clipID], iv)
}

// Get returns the recorded intervals for a clip
func (h *History) Get(clipID string) []Interval {
	return h.used[clipID]
}

// Ledger binds the batch-wide and per-output usage histories for one output
// under construction. MarkUsed writes to both scopes so a segment can never
// be reused by this output or any later one.
type Ledger struct {
	global *History
	local  *History
}

// New creates a ledger over an existing batch-wide history with a fresh
// per-output scope.
func New(global *History) *Ledger {
	return &Ledger{
		global: global,
		local:  NewHistory(),
	}
}

// MarkUsed appends the interval to both the global and local histories
func (l *Ledger) MarkUsed(clipID string, start, end float64) {
	iv := Interval{Start: start, End: end}
	l.global.Append(clipID, iv)
	l.local.Append(clipID, iv)
}

// Available returns the windows in which a segment of desiredDuration can
// still start within the given clip, using the default spacing parameters.
func (l *Ledger) Available(clipID string, clipDuration, desiredDuration float64) []Interval {
	return AvailableSegments(clipDuration, desiredDuration,
		l.global.Get(clipID), l.local.Get(clipID),
		DefaultMinGap, DefaultBuffer)
}

// AvailableSegments computes the start-position windows for a segment of
// desiredDuration in a clip of clipDuration, given the used intervals from
// both history scopes. It is a pure function of its inputs.
//
// Used intervals are expanded by buffer on each side (clamped to the clip),
// merged, and the gaps before, between, and after the merged intervals are
// considered. Interior and trailing gaps qualify when they hold the desired
// duration plus minGap; the leading gap only needs to hold the duration.
func AvailableSegments(clipDuration, desiredDuration float64, global, local []Interval, minGap, buffer float64) []Interval {
	if desiredDuration > clipDuration {
		return nil
	}

	if len(global) == 0 && len(local) == 0 {
		return []Interval{{Start: 0, End: clipDuration - desiredDuration}}
	}

	used := make([]Interval, 0, len(global)+len(local))
	used = append(used, global...)
	used = append(used, local...)
	sort.Slice(used, func(i, j int) bool { return used[i].Start < used[j].Start })

	buffered := make([]Interval, 0, len(used))
	for _, iv := range used {
		start := iv.Start - buffer
		if start < 0 {
			start = 0
		}
		end := iv.End + buffer
		if end > clipDuration {
			end = clipDuration
		}
		buffered = append(buffered, Interval{Start: start, End: end})
	}

	merged := make([]Interval, 0, len(buffered))
	for _, iv := range buffered {
		if len(merged) == 0 || iv.Start > merged[len(merged)-1].End {
			merged = append(merged, iv)
		} else if iv.End > merged[len(merged)-1].End {
			merged[len(merged)-1].End = iv.End
		}
	}

	var available []Interval

	if merged[0].Start > desiredDuration {
		available = append(available, Interval{Start: 0, End: merged[0].Start})
	}

	for i := 0; i < len(merged)-1; i++ {
		gapStart := merged[i].End
		gapEnd := merged[i+1].Start
		if gapEnd-gapStart >= desiredDuration+minGap {
			available = append(available, Interval{Start: gapStart, End: gapEnd - desiredDuration})
		}
	}

	if clipDuration-merged[len(merged)-1].End >= desiredDuration+minGap {
		available = append(available, Interval{Start: merged[len(merged)-1].End, End: clipDuration - desiredDuration})
	}

	return available
}
