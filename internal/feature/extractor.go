// Package feature turns detected hand landmarks into the normalized feature
// vectors shared by data collection and inference.
package feature

import (
	"math"

	"github.com/ayusman/handsign/internal/detector"
)

// Dim is the length of every feature vector: an (x, y) pair per landmark.
const Dim = 2 * detector.NumLandmarks

// minScale is the smallest Chebyshev radius treated as a real hand.
// Summing identical coordinates can leave the centroid an ulp off.
const minScale = 1e-10

// Vector is a normalized feature vector laid out as x0, y0, x1, y1, ...
// following detector.LandmarkNames.
type Vector []float64

// Float32 converts the vector for float32 model runtimes.
func (v Vector) Float32() []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Extractor converts hand landmarks into feature vectors.
//
// Points are translated so the landmark centroid is the origin, then divided
// by the largest per-axis distance from the centroid (the Chebyshev radius),
// so every component lies in [-1, 1]. Collection and inference must use the
// same Extractor or the trained model is meaningless against live input.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the feature vector for hand. It reports false when there
// is no hand, when any coordinate is not finite, or when every landmark sits
// on the same point and no scale can be derived.
func (e *Extractor) Extract(hand *detector.HandLandmarks) (Vector, bool) {
	if hand == nil {
		return nil, false
	}

	var sumX, sumY float64
	for _, p := range hand.Points {
		if !finite(p.X) || !finite(p.Y) {
			return nil, false
		}
		sumX += p.X
		sumY += p.Y
	}

	n := float64(detector.NumLandmarks)
	cx := sumX / n
	cy := sumY / n

	var scale float64
	for _, p := range hand.Points {
		scale = math.Max(scale, math.Max(math.Abs(p.X-cx), math.Abs(p.Y-cy)))
	}

	// All landmarks coincide.
	if !(scale > minScale) || !finite(scale) {
		return nil, false
	}

	v := make(Vector, 0, Dim)
	for _, p := range hand.Points {
		v = append(v, (p.X-cx)/scale, (p.Y-cy)/scale)
	}
	return v, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
