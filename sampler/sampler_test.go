package sampler

import (
	"math"
	"testing"
)

func TestDualAveragingDirection(t *testing.T) {
	tests := []struct {
		name       string
		acceptProb float64
		wantShrink bool
	}{
		{"low acceptance shrinks step", 0.2, true},
		{"high acceptance grows step", 0.99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da := newDualAveraging(0.5, 0.8)
			eps := 0.5
			for i := 0; i < 50; i++ {
				eps = da.update(tt.acceptProb)
			}
			if tt.wantShrink && eps >= 0.5 {
				t.Errorf("step size %v, want below 0.5", eps)
			}
			if !tt.wantShrink && eps <= 0.5 {
				t.Errorf("step size %v, want above 0.5", eps)
			}
			if got := da.adapted(); got <= 0 || math.IsNaN(got) {
				t.Errorf("adapted() = %v, want positive", got)
			}
		})
	}
}

func TestDualAveragingConvergesAtTarget(t *testing.T) {
	// Feeding exactly the target acceptance keeps the step near the
	// anchor instead of drifting away.
	da := newDualAveraging(0.3, 0.8)
	var eps float64
	for i := 0; i < 1000; i++ {
		eps = da.update(0.8)
	}
	if eps < 0.05 || eps > 5 {
		t.Errorf("step size drifted to %v under on-target feedback", eps)
	}
}

func TestWarmupScheduleStanWindows(t *testing.T) {
	s := newWarmupSchedule(1000)

	if s.initBuffer != 75 || s.termBuffer != 50 || s.baseWindow != 25 {
		t.Fatalf("buffers = %d/%d/%d, want 75/50/25", s.initBuffer, s.termBuffer, s.baseWindow)
	}

	// Fast init buffer contributes nothing to the metric.
	for m := 0; m < 75; m++ {
		if s.inMassWindow(m) {
			t.Fatalf("iteration %d inside init buffer should not feed the metric", m)
		}
	}
	if !s.inMassWindow(75) {
		t.Error("first slow iteration should feed the metric")
	}

	// Doubling windows close at 99, 149, 249, 449 and the absorbed
	// tail at 949.
	var closed []int
	for m := 0; m < 1000; m++ {
		if s.windowClosed(m) {
			closed = append(closed, m)
			s.advance()
		}
	}
	want := []int{99, 149, 249, 449, 949}
	if len(closed) != len(want) {
		t.Fatalf("window closes at %v, want %v", closed, want)
	}
	for i := range want {
		if closed[i] != want[i] {
			t.Fatalf("window closes at %v, want %v", closed, want)
		}
	}

	// Fast tail.
	for m := 950; m < 1000; m++ {
		if s.inMassWindow(m) {
			t.Fatalf("iteration %d inside term buffer should not feed the metric", m)
		}
	}
}

func TestWarmupScheduleShortRun(t *testing.T) {
	s := newWarmupSchedule(100)
	if s.initBuffer != 15 || s.termBuffer != 10 {
		t.Fatalf("collapsed buffers = %d/%d, want 15/10", s.initBuffer, s.termBuffer)
	}
	if s.baseWindow != 75 {
		t.Fatalf("collapsed slow window = %d, want 75", s.baseWindow)
	}
	closes := 0
	for m := 0; m < 100; m++ {
		if s.windowClosed(m) {
			closes++
			s.advance()
		}
	}
	if closes != 1 {
		t.Errorf("short warmup closed %d windows, want 1", closes)
	}
}

func TestWelfordEstimate(t *testing.T) {
	w := newWelford(1)
	xs := []float64{1, 2, 3, 4, 5}
	for _, x := range xs {
		w.add([]float64{x})
	}

	invMass := []float64{1}
	w.estimate(invMass)

	// Sample variance 2.5, shrunk by n/(n+5) toward 1e-3.
	shrink := 5.0 / 10.0
	want := shrink*2.5 + (1-shrink)*1e-3
	if math.Abs(invMass[0]-want) > 1e-12 {
		t.Errorf("estimate = %v, want %v", invMass[0], want)
	}

	w.reset()
	invMass[0] = 7
	w.estimate(invMass)
	if invMass[0] != 7 {
		t.Error("estimate with fewer than two samples should leave the metric unchanged")
	}
}

func TestUTurnCriterion(t *testing.T) {
	in := &integrator{invMass: []float64{1, 1}}
	n := &nuts{in: in}

	mk := func(q, p []float64) *state {
		s := newState(2)
		copy(s.q, q)
		copy(s.p, p)
		return s
	}

	tests := []struct {
		name  string
		minus *state
		plus  *state
		want  bool
	}{
		{
			"momenta aligned with chord",
			mk([]float64{0, 0}, []float64{1, 0}),
			mk([]float64{2, 0}, []float64{1, 0}),
			false,
		},
		{
			"forward rim doubling back",
			mk([]float64{0, 0}, []float64{1, 0}),
			mk([]float64{2, 0}, []float64{-1, 0}),
			true,
		},
		{
			"backward rim doubling back",
			mk([]float64{0, 0}, []float64{-1, 0}),
			mk([]float64{2, 0}, []float64{1, 0}),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.uTurn(tt.minus, tt.plus); got != tt.want {
				t.Errorf("uTurn() = %v, want %v", got, tt.want)
			}
		})
	}
}
