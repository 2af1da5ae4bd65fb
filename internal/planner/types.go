package planner

// Clip is the planner's view of a loaded source clip
type Clip struct {
	ID       string
	Duration float64
}

// SegmentChoice is the resolved result of one selection round: which clip,
// where in it, and for how long.
type SegmentChoice struct {
	ClipID   string
	Start    float64
	Duration float64
}

// End returns the segment's end position within its source clip
func (s SegmentChoice) End() float64 {
	return s.Start + s.Duration
}

// OutputPlan is an ordered sequence of segment choices for one output.
// ExtendBy is a rendering-time loop extension of the final segment that
// closes any remaining gap to the target without consuming ledger space.
type OutputPlan struct {
	Segments []SegmentChoice
	Total    float64
	ExtendBy float64
}

// Bounds are the budget parameters for one output
type Bounds struct {
	Target      float64
	MinSegments int
	MaxSegments int
	MinDuration float64
	MaxDuration float64
}

// DefaultBounds returns the reference budget: 16 second outputs built from
// 8-12 segments of 1.5-3.0 seconds each.
func DefaultBounds() Bounds {
	return Bounds{
		Target:      16.0,
		MinSegments: 8,
		MaxSegments: 12,
		MinDuration: 1.5,
		MaxDuration: 3.0,
	}
}
