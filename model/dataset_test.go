package model

import (
	"testing"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

func TestNewDatasetSingle(t *testing.T) {
	d, err := NewDataset([]float64{-8, -6, -4}, []float64{1.0, 0.6, 0.1})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if d.NumObs() != 3 || d.NumCompounds() != 1 || d.NumBatches() != 1 {
		t.Errorf("unexpected shape: obs=%d compounds=%d batches=%d",
			d.NumObs(), d.NumCompounds(), d.NumBatches())
	}
	for i := 0; i < d.NumObs(); i++ {
		if d.CompoundOf(i) != 0 || d.BatchOf(i) != 0 {
			t.Errorf("implicit indices should be zero at obs %d", i)
		}
	}
}

func TestNewDatasetIndexed(t *testing.T) {
	logConc := []float64{-8, -6, -8, -6}
	resp := []float64{1, 0.2, 0.9, 0.4}

	d, err := NewDataset(logConc, resp,
		WithCompoundIndex([]int{1, 1, 2, 2}, 2),
		WithBatchIndex([]int{1, 2, 1, 2}, 2),
	)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if d.CompoundOf(2) != 1 {
		t.Errorf("CompoundOf(2) = %d, want 1 (0-based)", d.CompoundOf(2))
	}
	if d.BatchOf(3) != 1 {
		t.Errorf("BatchOf(3) = %d, want 1 (0-based)", d.BatchOf(3))
	}
}

func TestNewDatasetErrors(t *testing.T) {
	logConc := []float64{-8, -6, -4}
	resp := []float64{1, 0.5, 0}

	tests := []struct {
		name      string
		opts      []DatasetOption
		wantIndex bool
	}{
		{
			name:      "index out of range",
			opts:      []DatasetOption{WithCompoundIndex([]int{1, 2, 4}, 3)},
			wantIndex: true,
		},
		{
			name:      "zero index",
			opts:      []DatasetOption{WithCompoundIndex([]int{0, 1, 2}, 2)},
			wantIndex: true,
		},
		{
			name:      "gap in coverage",
			opts:      []DatasetOption{WithBatchIndex([]int{1, 1, 3}, 3)},
			wantIndex: true,
		},
		{
			name: "length mismatch",
			opts: []DatasetOption{WithCompoundIndex([]int{1, 2}, 2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset(logConc, resp, tt.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			var idxErr *errors.IndexError
			if got := errors.As(err, &idxErr); got != tt.wantIndex {
				t.Errorf("IndexError = %v, want %v (err: %v)", got, tt.wantIndex, err)
			}
		})
	}
}

func TestNewDatasetResponseMismatch(t *testing.T) {
	_, err := NewDataset([]float64{-8, -6}, []float64{1})
	if err == nil {
		t.Fatal("expected DimensionError")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected *DimensionError, got %T", err)
	}
}
