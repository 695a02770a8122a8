// Package posterior holds sampled draws and the per-draw sampler
// diagnostics attached to them. A DrawSet is the output of a sampler
// run: one ChainResult per chain, each carrying constrained parameter
// draws alongside step size, tree depth, energy and divergence flags.
package posterior

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/hillmc/model"
	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// ChainStatus reports how a chain ended.
type ChainStatus int

const (
	// Complete means the chain produced every requested draw.
	Complete ChainStatus = iota
	// Incomplete means the run was cancelled before all draws were
	// collected; the draws gathered so far are retained.
	Incomplete
	// Failed means the chain exceeded its warmup divergence budget and
	// produced no usable draws.
	Failed
)

func (s ChainStatus) String() string {
	switch s {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Diagnostics records the sampler state for a single draw.
type Diagnostics struct {
	LogPosterior float64
	StepSize     float64
	TreeDepth    int
	Energy       float64
	AcceptProb   float64
	Divergent    bool
}

// ChainResult holds the post-warmup draws of one chain.
type ChainResult struct {
	Params []model.Params
	Diag   []Diagnostics
	Status ChainStatus

	// Divergences counts divergent transitions after warmup;
	// WarmupDivergences counts those during warmup.
	Divergences       int
	WarmupDivergences int
}

// DrawSet is the combined output of all chains of one run.
type DrawSet struct {
	names  []string
	chains []ChainResult
}

// NewDrawSet bundles per-chain results under a shared parameter naming.
func NewDrawSet(names []string, chains []ChainResult) *DrawSet {
	return &DrawSet{names: names, chains: chains}
}

// ParamNames returns the flat parameter names, in layout order.
func (d *DrawSet) ParamNames() []string { return d.names }

// NumChains returns the number of chains, including failed ones.
func (d *DrawSet) NumChains() int { return len(d.chains) }

// Chain returns the result for one chain.
func (d *DrawSet) Chain(i int) (*ChainResult, error) {
	if i < 0 || i >= len(d.chains) {
		return nil, errors.NewIndexError("posterior.Chain", "chain", i, "out of range")
	}
	return &d.chains[i], nil
}

// paramIndex resolves a flat parameter name to its layout position.
func (d *DrawSet) paramIndex(op, name string) (int, error) {
	for i, n := range d.names {
		if n == name {
			return i, nil
		}
	}
	return 0, errors.NewValueError(op, "unknown parameter "+name)
}

// PerChain returns the series of one named parameter, one slice per
// chain. Failed chains contribute empty slices.
func (d *DrawSet) PerChain(name string) ([][]float64, error) {
	idx, err := d.paramIndex("posterior.PerChain", name)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(d.chains))
	buf := make([]float64, 0, len(d.names))
	for c := range d.chains {
		series := make([]float64, len(d.chains[c].Params))
		for i := range d.chains[c].Params {
			buf = d.chains[c].Params[i].Flatten(buf[:0])
			series[i] = buf[idx]
		}
		out[c] = series
	}
	return out, nil
}

// Series returns the draws of one named parameter within one chain.
func (d *DrawSet) Series(name string, chain int) ([]float64, error) {
	if chain < 0 || chain >= len(d.chains) {
		return nil, errors.NewIndexError("posterior.Series", "chain", chain, "out of range")
	}
	per, err := d.PerChain(name)
	if err != nil {
		return nil, err
	}
	return per[chain], nil
}

// Flat returns one named parameter pooled across all chains.
func (d *DrawSet) Flat(name string) ([]float64, error) {
	per, err := d.PerChain(name)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, s := range per {
		out = append(out, s...)
	}
	return out, nil
}

// Draws iterates every post-warmup draw across chains.
func (d *DrawSet) Draws(fn func(chain int, p model.Params, diag Diagnostics)) {
	for c := range d.chains {
		for i := range d.chains[c].Params {
			fn(c, d.chains[c].Params[i], d.chains[c].Diag[i])
		}
	}
}

// TotalDivergences sums post-warmup divergences over all chains.
func (d *DrawSet) TotalDivergences() int {
	n := 0
	for _, c := range d.chains {
		n += c.Divergences
	}
	return n
}

// Mean returns the pooled posterior mean of one named parameter.
func (d *DrawSet) Mean(name string) (float64, error) {
	xs, err := d.Flat(name)
	if err != nil {
		return 0, err
	}
	if len(xs) == 0 {
		return 0, errors.NewValueError("posterior.Mean", "no draws available")
	}
	return stat.Mean(xs, nil), nil
}

// Quantile returns the pooled posterior quantile of one named
// parameter, by linear interpolation between order statistics.
func (d *DrawSet) Quantile(name string, q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, errors.NewValueError("posterior.Quantile", "quantile must be in [0, 1]")
	}
	xs, err := d.Flat(name)
	if err != nil {
		return 0, err
	}
	if len(xs) == 0 {
		return 0, errors.NewValueError("posterior.Quantile", "no draws available")
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo == len(sorted)-1 {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac, nil
}
