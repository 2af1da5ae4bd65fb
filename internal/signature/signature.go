// Package signature derives a compact visual fingerprint for each source
// clip so the selector can bias toward visually distinct material.
package signature

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/logging"
)

// DefaultSamples is the number of frames sampled per clip
const DefaultSamples = 5

// sampleSpan excludes the trailing portion of a clip so end credits and
// fade-outs don't skew the fingerprint.
const sampleSpan = 0.9

// Source identifies a clip to fingerprint
type Source struct {
	ID       string
	Path     string
	Duration float64
}

// Index holds the computed signature vectors keyed by clip ID. A clip
// without an entry is valid; similarity scoring is skipped for it.
type Index struct {
	sigs map[string][]float64
}

// Get returns a clip's signature vector
func (x *Index) Get(clipID string) ([]float64, bool) {
	if x == nil {
		return nil, false
	}
	sig, ok := x.sigs[clipID]
	return sig, ok
}

// Has reports whether a clip has a signature
func (x *Index) Has(clipID string) bool {
	_, ok := x.Get(clipID)
	return ok
}

// Len returns the number of fingerprinted clips
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.sigs)
}

// Build fingerprints every source with a positive duration. For each clip,
// samples frames evenly spaced across the leading 90% of its duration and
// records per-frame channel means plus brightness, 4 scalars per sample. A
// frame that cannot be sampled contributes zeros instead of aborting the
// clip's signature.
func Build(ctx context.Context, sources []Source, sampler FrameSampler, samples int, logger zerolog.Logger) *Index {
	if samples <= 0 {
		samples = DefaultSamples
	}

	log := logging.Component(logger, "signature")
	index := &Index{sigs: make(map[string][]float64, len(sources))}

	for _, src := range sources {
		if src.Duration <= 0 {
			log.Warn().Str("clip", src.ID).Msg("skipping clip with no duration")
			continue
		}

		sig := make([]float64, 0, 4*samples)
		for _, at := range sampleTimes(src.Duration, samples) {
			r, g, b, ok := sampler.ChannelMeans(ctx, src.Path, at)
			if !ok {
				sig = append(sig, 0, 0, 0, 0)
				continue
			}
			brightness := (r + g + b) / 3
			sig = append(sig, r, g, b, brightness)
		}

		index.sigs[src.ID] = sig
		log.Debug().Str("clip", src.ID).Int("dims", len(sig)).Msg("signature computed")
	}

	return index
}

// sampleTimes returns n timestamps evenly spaced across [0, sampleSpan*d]
func sampleTimes(duration float64, n int) []float64 {
	times := make([]float64, n)
	if n == 1 {
		return times
	}
	span := sampleSpan * duration
	step := span / float64(n-1)
	for i := range times {
		times[i] = float64(i) * step
	}
	return times
}

// Similarity returns the cosine similarity of two signature vectors in
// [-1, 1]. Degenerate inputs (zero norm or mismatched lengths) score 0.
func Similarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
