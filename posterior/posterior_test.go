package posterior

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/hillmc/model"
)

// twoChainSet builds a small single-curve draw set with known values.
func twoChainSet() *DrawSet {
	names := []string{"top", "nH", "bottom", "logIC50", "sigma"}

	mkChain := func(tops []float64, divergences int, status ChainStatus) ChainResult {
		c := ChainResult{Status: status, Divergences: divergences}
		for _, top := range tops {
			c.Params = append(c.Params, model.Params{
				Top:     top,
				NH:      1,
				Bottom:  []float64{0.1},
				LogIC50: []float64{-6},
				Sigma:   []float64{0.05},
			})
			c.Diag = append(c.Diag, Diagnostics{LogPosterior: -10, StepSize: 0.2})
		}
		return c
	}

	return NewDrawSet(names, []ChainResult{
		mkChain([]float64{1, 2, 3, 4}, 1, Complete),
		mkChain([]float64{5, 6, 7, 8}, 2, Complete),
	})
}

func TestDrawSetAccessors(t *testing.T) {
	ds := twoChainSet()

	if got := ds.NumChains(); got != 2 {
		t.Fatalf("NumChains() = %d, want 2", got)
	}
	if got := ds.TotalDivergences(); got != 3 {
		t.Errorf("TotalDivergences() = %d, want 3", got)
	}

	per, err := ds.PerChain("top")
	if err != nil {
		t.Fatalf("PerChain(top) error = %v", err)
	}
	if len(per) != 2 || len(per[0]) != 4 {
		t.Fatalf("PerChain(top) shape = %dx%d, want 2x4", len(per), len(per[0]))
	}
	if per[1][2] != 7 {
		t.Errorf("PerChain(top)[1][2] = %v, want 7", per[1][2])
	}

	flat, err := ds.Flat("top")
	if err != nil {
		t.Fatalf("Flat(top) error = %v", err)
	}
	if len(flat) != 8 {
		t.Fatalf("Flat(top) has %d values, want 8", len(flat))
	}

	series, err := ds.Series("top", 1)
	if err != nil {
		t.Fatalf("Series(top, 1) error = %v", err)
	}
	if len(series) != 4 || series[0] != 5 {
		t.Errorf("Series(top, 1) = %v, want [5 6 7 8]", series)
	}

	if _, err := ds.PerChain("nope"); err == nil {
		t.Error("PerChain() with unknown parameter expected an error")
	}
	if _, err := ds.Series("top", 9); err == nil {
		t.Error("Series() with out-of-range chain expected an error")
	}
	if _, err := ds.Chain(5); err == nil {
		t.Error("Chain(5) expected an index error")
	}
}

func TestDrawSetMeanAndQuantile(t *testing.T) {
	ds := twoChainSet()

	m, err := ds.Mean("top")
	if err != nil {
		t.Fatalf("Mean(top) error = %v", err)
	}
	if m != 4.5 {
		t.Errorf("Mean(top) = %v, want 4.5", m)
	}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 4.5},
		{1, 8},
	}
	for _, tt := range tests {
		got, err := ds.Quantile("top", tt.q)
		if err != nil {
			t.Fatalf("Quantile(top, %v) error = %v", tt.q, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(top, %v) = %v, want %v", tt.q, got, tt.want)
		}
	}

	if _, err := ds.Quantile("top", 1.5); err == nil {
		t.Error("Quantile() outside [0,1] expected an error")
	}
}

func TestDrawSetLayoutMatchesFlatten(t *testing.T) {
	ds := twoChainSet()

	// "sigma" is the last coordinate of the flattened layout.
	xs, err := ds.Flat("sigma")
	if err != nil {
		t.Fatalf("Flat(sigma) error = %v", err)
	}
	for _, x := range xs {
		if x != 0.05 {
			t.Fatalf("Flat(sigma) returned %v, want 0.05", x)
		}
	}
}

func TestChainStatusString(t *testing.T) {
	tests := []struct {
		status ChainStatus
		want   string
	}{
		{Complete, "complete"},
		{Incomplete, "incomplete"},
		{Failed, "failed"},
		{ChainStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ChainStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
