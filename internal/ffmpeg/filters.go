package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct ffmpeg video filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter. A dimension of -2 keeps the aspect ratio while
// staying divisible by two, which libx264 requires.
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width == 0 || height == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// CropCenter adds a crop filter centered horizontally at the given size
func (fb *FilterBuilder) CropCenter(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d:(in_w-%d)/2:(in_h-%d)/2", width, height, width, height))
	return fb
}

// PadCenter adds a pad filter that letterboxes to the given size with black
func (fb *FilterBuilder) PadCenter(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black", width, height))
	return fb
}

// FadeIn adds a fade-in starting at zero for the given duration in seconds
func (fb *FilterBuilder) FadeIn(duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=in:st=0:d=%.2f", duration))
	return fb
}

// FadeOut adds a fade-out beginning at the given start time
func (fb *FilterBuilder) FadeOut(start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=out:st=%.2f:d=%.2f", start, duration))
	return fb
}

// Saturation adds an eq filter boosting color intensity
func (fb *FilterBuilder) Saturation(factor float64) *FilterBuilder {
	if factor <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("eq=saturation=%.3f", factor))
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// BuildAll returns all filters as a slice
func (fb *FilterBuilder) BuildAll() []string {
	return fb.filters
}
