package compose

import (
	"math/rand"

	"github.com/keagan/slopforge/internal/ffmpeg"
)

// EffectKind identifies a visual treatment applied to a single segment.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectColorBoost
	EffectCrossfade
)

func (k EffectKind) String() string {
	switch k {
	case EffectColorBoost:
		return "color_boost"
	case EffectCrossfade:
		return "crossfade"
	default:
		return "none"
	}
}

const (
	// fraction of segments that receive any effect at all
	effectProbability = 0.3

	colorBoostSaturation = 1.06
	crossfadeDuration    = 0.3
	edgeFadeDuration     = 0.3
)

type weightedEffect struct {
	kind   EffectKind
	weight float64
}

// effectTable holds the relative weights of each treatment once a segment
// has been chosen to receive one. Weights need not sum to 1; the remainder
// falls through to EffectNone.
var effectTable = []weightedEffect{
	{EffectColorBoost, 0.4},
	{EffectCrossfade, 0.2},
	{EffectNone, 0.4},
}

// pickEffect rolls the effect gate and, if it passes, draws a treatment
// from the weighted table.
func pickEffect(rng *rand.Rand) EffectKind {
	if rng.Float64() >= effectProbability {
		return EffectNone
	}

	total := 0.0
	for _, we := range effectTable {
		total += we.weight
	}

	roll := rng.Float64() * total
	for _, we := range effectTable {
		if roll < we.weight {
			return we.kind
		}
		roll -= we.weight
	}
	return EffectNone
}

// effectFilters returns the filter chain fragment for a treatment, or nil
// for EffectNone.
func effectFilters(kind EffectKind) []string {
	fb := ffmpeg.NewFilterBuilder()
	switch kind {
	case EffectColorBoost:
		fb.Saturation(colorBoostSaturation)
	case EffectCrossfade:
		fb.FadeIn(crossfadeDuration)
	default:
		return nil
	}
	return fb.BuildAll()
}
