// Package model defines the hierarchical Hill-equation dose-response
// models: the observed dataset, the tagged-variant model specification
// with its priors, and the log-posterior evaluator with hand-derived
// gradients that the sampler consumes.
package model

import (
	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// Dataset holds the observations of a screening experiment: one
// response per (compound, batch, log10-concentration) point. It is
// read-only after construction and safely shared by all chains.
type Dataset struct {
	// LogConc is the log10 ligand concentration per observation.
	LogConc []float64
	// Response is the measured assay response per observation.
	Response []float64

	compound     []int // 0-based compound index per observation
	batch        []int // 0-based batch index per observation
	numCompounds int
	numBatches   int
}

// DatasetOption configures a Dataset.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	compound     []int
	numCompounds int
	batch        []int
	numBatches   int
}

// WithCompoundIndex attaches a per-observation compound index. Indices
// are 1-based in the input and must cover 1..numCompounds densely.
func WithCompoundIndex(index []int, numCompounds int) DatasetOption {
	return func(c *datasetConfig) {
		c.compound = index
		c.numCompounds = numCompounds
	}
}

// WithBatchIndex attaches a per-observation batch index. Indices are
// 1-based in the input and must cover 1..numBatches densely.
func WithBatchIndex(index []int, numBatches int) DatasetOption {
	return func(c *datasetConfig) {
		c.batch = index
		c.numBatches = numBatches
	}
}

// NewDataset validates the observation arrays and builds a Dataset.
// Without options every observation belongs to one implicit compound
// and one implicit batch. Index validation failures are fatal and occur
// here, before any sampling can begin.
func NewDataset(logConc, response []float64, opts ...DatasetOption) (*Dataset, error) {
	const op = "NewDataset"

	if len(logConc) == 0 {
		return nil, errors.NewValueError(op, "empty concentration vector")
	}
	if len(response) != len(logConc) {
		return nil, errors.NewDimensionError(op, "response", len(logConc), len(response))
	}

	cfg := &datasetConfig{numCompounds: 1, numBatches: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	n := len(logConc)
	compound, err := validateIndex(op, "compound", cfg.compound, cfg.numCompounds, n)
	if err != nil {
		return nil, err
	}
	batch, err := validateIndex(op, "batch", cfg.batch, cfg.numBatches, n)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		LogConc:      append([]float64(nil), logConc...),
		Response:     append([]float64(nil), response...),
		compound:     compound,
		batch:        batch,
		numCompounds: cfg.numCompounds,
		numBatches:   cfg.numBatches,
	}
	return d, nil
}

// validateIndex checks a 1-based entity index array for density over
// 1..count and returns its 0-based copy. A nil index is allowed only
// when count == 1 and expands to all zeros.
func validateIndex(op, field string, index []int, count, n int) ([]int, error) {
	if count < 1 {
		return nil, errors.NewValueError(op, field+" count must be >= 1")
	}
	if index == nil {
		if count != 1 {
			return nil, errors.NewValueError(op, field+" index required when count > 1")
		}
		return make([]int, n), nil
	}
	if len(index) != n {
		return nil, errors.NewDimensionError(op, field+" index", n, len(index))
	}

	seen := make([]bool, count)
	out := make([]int, n)
	for i, id := range index {
		if id < 1 || id > count {
			return nil, errors.NewIndexError(op, field, id, "outside declared range 1..count")
		}
		seen[id-1] = true
		out[i] = id - 1
	}
	for id, ok := range seen {
		if !ok {
			return nil, errors.NewIndexError(op, field, id+1, "index never observed (indices must cover 1..count)")
		}
	}
	return out, nil
}

// NumObs returns the number of observations.
func (d *Dataset) NumObs() int { return len(d.LogConc) }

// NumCompounds returns the number of distinct compounds.
func (d *Dataset) NumCompounds() int { return d.numCompounds }

// NumBatches returns the number of distinct experimental batches.
func (d *Dataset) NumBatches() int { return d.numBatches }

// CompoundOf returns the 0-based compound index of observation i.
func (d *Dataset) CompoundOf(i int) int { return d.compound[i] }

// BatchOf returns the 0-based batch index of observation i.
func (d *Dataset) BatchOf(i int) int { return d.batch[i] }
