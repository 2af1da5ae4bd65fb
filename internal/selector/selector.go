// Package selector chooses the next source clip for a segment slot,
// combining recency avoidance with visual dissimilarity scoring.
package selector

import (
	"math/rand"

	"github.com/keagan/slopforge/internal/signature"
)

// DefaultTopN is how many candidates are sampled per selection round
const DefaultTopN = 3

// memoryCap bounds the recency window regardless of pool size
const memoryCap = 5

// Selector picks clips using an injected random source so selection is
// reproducible under a fixed seed.
type Selector struct {
	rng  *rand.Rand
	topN int
}

// New creates a selector. topN <= 0 uses the default.
func New(rng *rand.Rand, topN int) *Selector {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Selector{rng: rng, topN: topN}
}

// Select returns the next clip ID from available. With no recency memory or
// no signatures it picks uniformly at random. Otherwise it samples up to
// topN candidates without replacement and returns the one with the highest
// mean dissimilarity to the recently used clips, ties broken by first
// occurrence.
func (s *Selector) Select(available []string, recent []string, sigs *signature.Index) string {
	if len(available) == 0 {
		return ""
	}

	if len(recent) == 0 || sigs.Len() == 0 {
		return available[s.rng.Intn(len(available))]
	}

	k := s.topN
	if k > len(available) {
		k = len(available)
	}

	candidates := make([]string, 0, k)
	for _, idx := range s.rng.Perm(len(available))[:k] {
		candidates = append(candidates, available[idx])
	}

	best := candidates[0]
	bestScore := -1.0
	for _, candidate := range candidates {
		score := s.dissimilarity(candidate, recent, sigs)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

// dissimilarity is the mean (1 - cosine similarity) of the candidate against
// every recently used clip that has a signature. A candidate without a
// signature, or with no comparable recents, scores 0.
func (s *Selector) dissimilarity(candidate string, recent []string, sigs *signature.Index) float64 {
	candidateSig, ok := sigs.Get(candidate)
	if !ok {
		return 0
	}

	var total float64
	var count int
	for _, used := range recent {
		usedSig, ok := sigs.Get(used)
		if !ok {
			continue
		}
		total += 1.0 - signature.Similarity(candidateSig, usedSig)
		count++
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// Memory is the sliding window of recently chosen clips for one output
type Memory struct {
	window int
	ids    []string
}

// NewMemory sizes the recency window to min(5, poolSize/2)
func NewMemory(poolSize int) *Memory {
	window := poolSize / 2
	if window > memoryCap {
		window = memoryCap
	}
	return &Memory{window: window}
}

// Remember records a chosen clip, evicting the oldest past the window
func (m *Memory) Remember(clipID string) {
	m.ids = append(m.ids, clipID)
	if len(m.ids) > m.window {
		m.ids = m.ids[1:]
	}
}

// Recent returns the remembered clip IDs, oldest first
func (m *Memory) Recent() []string {
	return m.ids
}

// Contains reports whether a clip is in the recency window
func (m *Memory) Contains(clipID string) bool {
	for _, id := range m.ids {
		if id == clipID {
			return true
		}
	}
	return false
}
