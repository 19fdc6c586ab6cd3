package fusion

import (
	"math"
	"testing"
)

func TestCosineIdentical(t *testing.T) {
	v := []float32{0.5, 0.5, 0.1, 0.2}
	if got := Cosine(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCosineOrthogonal(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{0, 1, 0, 0}
	if got := Cosine(a, b); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestCosineMismatchedDimensions(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("expected 0 for mismatched dims, got %f", got)
	}
	if got := Cosine(nil, nil); got != 0 {
		t.Errorf("expected 0 for empty vectors, got %f", got)
	}
}

func TestOverlapRatio(t *testing.T) {
	a := []string{"editor", "terminal"}
	b := []string{"editor", "browser"}
	if got := OverlapRatio(a, b); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestOverlapRatioUsesDistinctSets(t *testing.T) {
	a := []string{"editor", "editor", "editor"}
	b := []string{"editor"}
	if got := OverlapRatio(a, b); got != 1.0 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestOverlapRatioEmpty(t *testing.T) {
	if got := OverlapRatio(nil, []string{"x"}); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestAlignStepVectorsIdentical(t *testing.T) {
	steps := [][]float32{{1, 0}, {0, 1}}
	if got := AlignStepVectors(steps, steps); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestAlignStepVectorsLengthPenalty(t *testing.T) {
	a := [][]float32{{1, 0}, {0, 1}}
	b := [][]float32{{1, 0}, {0, 1}, {1, 1}, {0, 1}}
	// perfect prefix match over half the longer sequence
	if got := AlignStepVectors(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestAlignStepText(t *testing.T) {
	a := []string{"open settings", "toggle dark mode"}
	b := []string{"open settings", "toggle dark mode"}
	if got := AlignStepText(a, b); got != 1.0 {
		t.Errorf("expected 1.0, got %f", got)
	}

	c := []string{"open settings", "quit"}
	if got := AlignStepText(a, c); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}
