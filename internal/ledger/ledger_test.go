package ledger

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAvailableSegmentsEmptyHistory(t *testing.T) {
	gaps := AvailableSegments(30.0, 2.0, nil, nil, DefaultMinGap, DefaultBuffer)

	if len(gaps) != 1 {
		t.Fatalf("expected exactly one gap, got %d", len(gaps))
	}
	if !almostEqual(gaps[0].Start, 0) || !almostEqual(gaps[0].End, 28.0) {
		t.Errorf("expected gap [0, 28], got [%v, %v]", gaps[0].Start, gaps[0].End)
	}
}

func TestAvailableSegmentsClipTooShort(t *testing.T) {
	gaps := AvailableSegments(1.0, 2.0, nil, nil, DefaultMinGap, DefaultBuffer)
	if len(gaps) != 0 {
		t.Errorf("expected no gaps for clip shorter than desired, got %d", len(gaps))
	}
}

func TestAvailableSegmentsBufferedExclusion(t *testing.T) {
	used := []Interval{{Start: 2.0, End: 4.0}}
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)

	// buffered use is [1.9, 4.1]; the lead-in cannot hold a 2s segment,
	// so only the trailing gap remains
	if len(gaps) != 1 {
		t.Fatalf("expected one gap, got %d: %v", len(gaps), gaps)
	}
	if !almostEqual(gaps[0].Start, 4.1) || !almostEqual(gaps[0].End, 28.0) {
		t.Errorf("expected gap [4.1, 28], got [%v, %v]", gaps[0].Start, gaps[0].End)
	}
}

func TestAvailableSegmentsLeadingGap(t *testing.T) {
	used := []Interval{{Start: 10.0, End: 12.0}}
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)

	if len(gaps) != 2 {
		t.Fatalf("expected leading and trailing gaps, got %d: %v", len(gaps), gaps)
	}
	if !almostEqual(gaps[0].Start, 0) || !almostEqual(gaps[0].End, 9.9) {
		t.Errorf("expected leading gap [0, 9.9], got [%v, %v]", gaps[0].Start, gaps[0].End)
	}
}

func TestAvailableSegmentsTrailingGap(t *testing.T) {
	used := []Interval{{Start: 0, End: 5.0}}
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)

	if len(gaps) != 1 {
		t.Fatalf("expected one trailing gap, got %d: %v", len(gaps), gaps)
	}
	// buffered use is [0, 5.1]; trailing span 24.9 >= 2.5 so gap opens there
	if !almostEqual(gaps[0].Start, 5.1) {
		t.Errorf("expected trailing gap to start at 5.1, got %v", gaps[0].Start)
	}
	if !almostEqual(gaps[0].End, 28.0) {
		t.Errorf("expected trailing gap to end at 28, got %v", gaps[0].End)
	}
}

func TestAvailableSegmentsInteriorGap(t *testing.T) {
	used := []Interval{
		{Start: 0, End: 5.0},
		{Start: 15.0, End: 30.0},
	}
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)

	if len(gaps) != 1 {
		t.Fatalf("expected one interior gap, got %d: %v", len(gaps), gaps)
	}
	// interior span is [5.1, 14.9]: 9.8 >= 2.5
	if !almostEqual(gaps[0].Start, 5.1) || !almostEqual(gaps[0].End, 12.9) {
		t.Errorf("expected gap [5.1, 12.9], got [%v, %v]", gaps[0].Start, gaps[0].End)
	}
}

func TestAvailableSegmentsInteriorTooNarrow(t *testing.T) {
	used := []Interval{
		{Start: 0, End: 5.0},
		{Start: 7.0, End: 30.0},
	}
	// span between buffered uses is [5.1, 6.9] = 1.8 < 2.0 + 0.5
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)
	if len(gaps) != 0 {
		t.Errorf("expected no gaps, got %v", gaps)
	}
}

func TestAvailableSegmentsMergesOverlaps(t *testing.T) {
	used := []Interval{
		{Start: 2.0, End: 4.0},
		{Start: 3.5, End: 6.0},
		{Start: 5.9, End: 7.0},
	}
	gaps := AvailableSegments(30.0, 2.0, used, nil, DefaultMinGap, DefaultBuffer)

	// all three merge into one buffered block [1.9, 7.1]
	for _, g := range gaps {
		if g.Start > 1.9-1e-9 && g.Start < 7.1 {
			t.Errorf("gap start %v falls inside merged block [1.9, 7.1]", g.Start)
		}
	}
}

func TestAvailableSegmentsCombinesScopes(t *testing.T) {
	global := []Interval{{Start: 0, End: 10.0}}
	local := []Interval{{Start: 20.0, End: 30.0}}
	gaps := AvailableSegments(30.0, 2.0, global, local, DefaultMinGap, DefaultBuffer)

	if len(gaps) != 1 {
		t.Fatalf("expected one gap between scopes, got %d: %v", len(gaps), gaps)
	}
	if !almostEqual(gaps[0].Start, 10.1) || !almostEqual(gaps[0].End, 17.9) {
		t.Errorf("expected gap [10.1, 17.9], got [%v, %v]", gaps[0].Start, gaps[0].End)
	}
}

func TestLedgerMarkUsedFeedsBothScopes(t *testing.T) {
	global := NewHistory()
	led := New(global)

	led.MarkUsed("a", 2.0, 4.0)

	if got := len(global.Get("a")); got != 1 {
		t.Errorf("expected global history to record the use, got %d entries", got)
	}

	// a fresh ledger over the same global history still sees the use
	led2 := New(global)
	gaps := led2.Available("a", 30.0, 2.0)
	for _, g := range gaps {
		if g.Start > 1.9-1e-9 && g.Start < 4.1 {
			t.Errorf("cross-output gap %v overlaps globally used region", g)
		}
	}
}

func TestAvailableSegmentsIdempotent(t *testing.T) {
	global := []Interval{{Start: 2.0, End: 4.0}, {Start: 10.0, End: 12.0}}
	local := []Interval{{Start: 20.0, End: 22.0}}

	first := AvailableSegments(30.0, 2.0, global, local, DefaultMinGap, DefaultBuffer)
	second := AvailableSegments(30.0, 2.0, global, local, DefaultMinGap, DefaultBuffer)

	if len(first) != len(second) {
		t.Fatalf("repeated query changed gap count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !almostEqual(first[i].Start, second[i].Start) || !almostEqual(first[i].End, second[i].End) {
			t.Errorf("gap %d differs across queries: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestIntervalLength(t *testing.T) {
	iv := Interval{Start: 1.5, End: 4.0}
	if !almostEqual(iv.Length(), 2.5) {
		t.Errorf("expected length 2.5, got %v", iv.Length())
	}
}
