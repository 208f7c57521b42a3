package feature

import (
	"math"
	"testing"

	"github.com/ayusman/handsign/internal/detector"
)

const epsilon = 1e-9

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func extract(t *testing.T, hand detector.HandLandmarks) Vector {
	t.Helper()
	v, ok := NewExtractor().Extract(&hand)
	if !ok {
		t.Fatal("expected a usable feature vector")
	}
	return v
}

func centroid(hand detector.HandLandmarks) (float64, float64) {
	var cx, cy float64
	for _, p := range hand.Points {
		cx += p.X
		cy += p.Y
	}
	return cx / detector.NumLandmarks, cy / detector.NumLandmarks
}

func TestExtractor_Length(t *testing.T) {
	v := extract(t, detector.OpenPalmLandmarks())
	if len(v) != Dim {
		t.Errorf("len = %d, want %d", len(v), Dim)
	}
	if Dim != 42 {
		t.Errorf("Dim = %d, want 42", Dim)
	}
}

func TestExtractor_Deterministic(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()
	first := extract(t, hand)

	for i := 0; i < 10; i++ {
		again := extract(t, hand)
		for j := range first {
			if math.Float64bits(first[j]) != math.Float64bits(again[j]) {
				t.Fatalf("run %d component %d: %v != %v", i, j, again[j], first[j])
			}
		}
	}
}

func TestExtractor_TranslationInvariant(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	want := extract(t, hand)

	offsets := []struct{ dx, dy float64 }{
		{0.1, 0.0},
		{-0.25, 0.3},
		{0.003, -0.17},
	}
	for _, off := range offsets {
		moved := hand
		for i := range moved.Points {
			moved.Points[i].X += off.dx
			moved.Points[i].Y += off.dy
		}
		got := extract(t, moved)
		for i := range want {
			if !floatEqual(got[i], want[i]) {
				t.Errorf("offset %+v component %d: got %v, want %v", off, i, got[i], want[i])
			}
		}
	}
}

func TestExtractor_ScaleInvariant(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()
	want := extract(t, hand)
	cx, cy := centroid(hand)

	for _, factor := range []float64{0.5, 2, 3.7, 0.01} {
		scaled := hand
		for i := range scaled.Points {
			scaled.Points[i].X = cx + (hand.Points[i].X-cx)*factor
			scaled.Points[i].Y = cy + (hand.Points[i].Y-cy)*factor
		}
		got := extract(t, scaled)
		for i := range want {
			if !floatEqual(got[i], want[i]) {
				t.Errorf("factor %v component %d: got %v, want %v", factor, i, got[i], want[i])
			}
		}
	}
}

func TestExtractor_BoundedRange(t *testing.T) {
	hands := []detector.HandLandmarks{
		detector.ThumbsUpLandmarks(),
		detector.OpenPalmLandmarks(),
	}
	for _, hand := range hands {
		v := extract(t, hand)
		var reachesOne bool
		for i, f := range v {
			if f < -1 || f > 1 {
				t.Errorf("component %d = %v outside [-1, 1]", i, f)
			}
			if floatEqual(math.Abs(f), 1) {
				reachesOne = true
			}
		}
		if !reachesOne {
			t.Error("the farthest landmark should reach magnitude 1")
		}
	}
}

func TestExtractor_Absent(t *testing.T) {
	e := NewExtractor()

	t.Run("nil hand", func(t *testing.T) {
		if v, ok := e.Extract(nil); ok || v != nil {
			t.Errorf("expected absent, got %v", v)
		}
	})

	t.Run("collapsed hand", func(t *testing.T) {
		hand := detector.CollapsedLandmarks()
		if v, ok := e.Extract(&hand); ok || v != nil {
			t.Errorf("expected absent, got %v", v)
		}
	})

	t.Run("non-finite coordinate", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()
		hand.Points[detector.RingTip].Y = math.NaN()
		if _, ok := e.Extract(&hand); ok {
			t.Error("expected absent for NaN input")
		}

		hand = detector.OpenPalmLandmarks()
		hand.Points[detector.Wrist].X = math.Inf(1)
		if _, ok := e.Extract(&hand); ok {
			t.Error("expected absent for Inf input")
		}
	})
}

func TestExtractor_SingleMovedLandmark(t *testing.T) {
	var hand detector.HandLandmarks
	for i := range hand.Points {
		hand.Points[i] = detector.Point3D{X: 0.5, Y: 0.5}
	}
	hand.Points[detector.IndexTip] = detector.Point3D{X: 0.6, Y: 0.5}

	v := extract(t, hand)

	// The moved landmark defines the scale. The rest sit 1/20 of the radius
	// on the other side of the centroid.
	if !floatEqual(v[2*detector.IndexTip], 1.0) {
		t.Errorf("moved x = %v, want 1.0", v[2*detector.IndexTip])
	}
	for i := 0; i < detector.NumLandmarks; i++ {
		if !floatEqual(v[2*i+1], 0) {
			t.Errorf("landmark %d y = %v, want 0", i, v[2*i+1])
		}
		if i == detector.IndexTip {
			continue
		}
		if !floatEqual(v[2*i], -0.05) {
			t.Errorf("landmark %d x = %v, want -0.05", i, v[2*i])
		}
	}
}

func TestVector_Float32(t *testing.T) {
	v := Vector{0.5, -1, 0.25}
	f := v.Float32()
	if len(f) != 3 || f[0] != 0.5 || f[1] != -1 || f[2] != 0.25 {
		t.Errorf("Float32() = %v", f)
	}
}
