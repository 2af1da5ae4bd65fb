package progress

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

type recordingSink struct {
	percents []int
	messages []string
}

func (r *recordingSink) Report(percent int, message string) {
	r.percents = append(r.percents, percent)
	r.messages = append(r.messages, message)
}

func TestTrackerClampsRange(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(testLogger(), sink)

	tr.Report(-5, "low")
	tr.Report(150, "high")

	if sink.percents[0] != 0 {
		t.Errorf("expected clamp to 0, got %d", sink.percents[0])
	}
	if sink.percents[1] != 100 {
		t.Errorf("expected clamp to 100, got %d", sink.percents[1])
	}
}

func TestTrackerMonotonic(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(testLogger(), sink)

	tr.Report(40, "forward")
	tr.Report(25, "retry reports lower")
	tr.Report(60, "forward again")

	want := []int{40, 40, 60}
	for i, p := range sink.percents {
		if p != want[i] {
			t.Errorf("report %d: expected %d, got %d", i, want[i], p)
		}
	}
	if tr.Last() != 60 {
		t.Errorf("expected Last 60, got %d", tr.Last())
	}
}

func TestTrackerContainsPanickingSink(t *testing.T) {
	tr := NewTracker(testLogger(), SinkFunc(func(int, string) {
		panic("remote status update blew up")
	}))

	// must not propagate
	tr.Report(10, "first")
	tr.Report(20, "second")

	if tr.Last() != 20 {
		t.Errorf("expected Last 20 despite sink panics, got %d", tr.Last())
	}
}

func TestTrackerNilSink(t *testing.T) {
	tr := NewTracker(testLogger(), nil)
	tr.Report(50, "nowhere")
	if tr.Last() != 50 {
		t.Errorf("expected Last 50, got %d", tr.Last())
	}
}

func TestScheduleSpansBatch(t *testing.T) {
	n := 4
	prev := 0
	for i := 0; i < n; i++ {
		s := NewSchedule(i, n)
		if s.Start() < prev {
			t.Errorf("output %d starts at %d, before previous %d", i, s.Start(), prev)
		}
		if s.Done() > 100 {
			t.Errorf("output %d Done %d exceeds 100", i, s.Done())
		}
		prev = s.Start()
	}

	first := NewSchedule(0, n)
	if first.Start() != 10 {
		t.Errorf("batch should start at 10, got %d", first.Start())
	}
	last := NewSchedule(n-1, n)
	if last.Done() >= 100 {
		t.Errorf("final output Done should leave room for the batch-complete report, got %d", last.Done())
	}
}

func TestSchedulePhasesOrdered(t *testing.T) {
	s := NewSchedule(1, 3)

	phases := []int{
		s.Start(),
		s.Segment(0, 8),
		s.Segment(8, 8),
		s.Effects(),
		s.Overlay(),
		s.Audio(),
		s.Render(),
		s.Done(),
	}

	for i := 1; i < len(phases); i++ {
		if phases[i] < phases[i-1] {
			t.Errorf("phase %d (%d) precedes phase %d (%d)", i, phases[i], i-1, phases[i-1])
		}
	}
}

func TestScheduleSingleOutput(t *testing.T) {
	s := NewSchedule(0, 1)
	if s.Start() != 10 {
		t.Errorf("expected start 10, got %d", s.Start())
	}
	if s.Done() != 100 {
		t.Errorf("expected done 100 for a single output, got %d", s.Done())
	}
}
