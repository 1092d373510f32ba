package strategy

import "testing"

func TestSMAInsufficientData(t *testing.T) {
	if _, ok := SMA([]float64{1, 2}, 3); ok {
		t.Fatalf("expected insufficient data to return ok=false")
	}
}

func TestSMAComputesWindowAverage(t *testing.T) {
	got, ok := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	want := (3.0 + 4.0 + 5.0) / 3.0
	if got != want {
		t.Errorf("SMA = %v, want %v", got, want)
	}
}

func TestEMAInsufficientData(t *testing.T) {
	if _, ok := EMA([]float64{1, 2}, 5); ok {
		t.Fatalf("expected insufficient data to return ok=false")
	}
}

func TestEMASeededBySMAThenSmooths(t *testing.T) {
	closes := []float64{10, 10, 10, 20}
	got, ok := EMA(closes, 3)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	seed := 10.0
	k := 2.0 / 4.0
	want := 20*k + seed*(1-k)
	if got != want {
		t.Errorf("EMA = %v, want %v", got, want)
	}
}
