// Package progress defines the sink notified at batch checkpoints and the
// fixed weighted schedule that maps phases to percentages.
package progress

import (
	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/logging"
)

// Sink receives progress checkpoints. Implementations may block (remote
// status updates); failures must stay local to the sink.
type Sink interface {
	Report(percent int, message string)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(percent int, message string)

// Report calls f
func (f SinkFunc) Report(percent int, message string) {
	f(percent, message)
}

// Discard is a sink that ignores all reports
var Discard Sink = SinkFunc(func(int, string) {})

// Tracker guards a sink: percentages are clamped to [0, 100] and kept
// non-decreasing across retries and fallbacks, and a panicking sink is
// contained so it can never abort the batch.
type Tracker struct {
	logger zerolog.Logger
	sink   Sink
	last   int
}

// NewTracker wraps a sink. A nil sink discards all reports.
func NewTracker(logger zerolog.Logger, sink Sink) *Tracker {
	if sink == nil {
		sink = Discard
	}
	return &Tracker{
		logger: logging.Component(logger, "progress"),
		sink:   sink,
	}
}

// Report delivers a checkpoint to the sink
func (t *Tracker) Report(percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < t.last {
		percent = t.last
	}
	t.last = percent

	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn().Interface("panic", r).Msg("progress sink panicked")
		}
	}()

	t.sink.Report(percent, message)
}

// Last returns the highest percentage reported so far
func (t *Tracker) Last() int {
	return t.last
}

// Phase weights within one output's slice of the batch, as hundredths of
// the full range divided across outputs.
const (
	segmentSpan   = 20
	effectsWeight = 60
	overlayWeight = 65
	audioWeight   = 70
	renderWeight  = 75
	doneWeight    = 90
)

// Schedule allocates percentages for the phases of one output, scaled by
// its position within the batch: base = 10 + i*(80/numOutputs).
type Schedule struct {
	base  float64
	share float64
}

// NewSchedule creates the schedule for output i of numOutputs
func NewSchedule(outputIndex, numOutputs int) Schedule {
	if numOutputs < 1 {
		numOutputs = 1
	}
	return Schedule{
		base:  10 + float64(outputIndex)*(80/float64(numOutputs)),
		share: 1 / float64(numOutputs),
	}
}

// Start is the percentage at which this output begins
func (s Schedule) Start() int {
	return int(s.base)
}

// Segment is the percentage after acquiring segment number acquired of planned
func (s Schedule) Segment(acquired, planned int) int {
	if planned < 1 {
		planned = 1
	}
	frac := float64(acquired) / float64(planned)
	return int(s.base + frac*segmentSpan*s.share)
}

// Effects is the percentage at the effects phase
func (s Schedule) Effects() int {
	return int(s.base + effectsWeight*s.share)
}

// Overlay is the percentage at the caption overlay phase
func (s Schedule) Overlay() int {
	return int(s.base + overlayWeight*s.share)
}

// Audio is the percentage at the audio attachment phase
func (s Schedule) Audio() int {
	return int(s.base + audioWeight*s.share)
}

// Render is the percentage at the start of the final render
func (s Schedule) Render() int {
	return int(s.base + renderWeight*s.share)
}

// Done is the percentage once this output is complete
func (s Schedule) Done() int {
	return int(s.base + doneWeight*s.share)
}
