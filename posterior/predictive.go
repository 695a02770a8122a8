package posterior

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/hillmc/core/parallel"
	"github.com/YuminosukeSato/hillmc/model"
	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// parallelThreshold is the grid size below which predictive sweeps run
// sequentially.
const parallelThreshold = 64

// CurveBand holds pointwise posterior summaries of the mean
// dose-response curve over a concentration grid.
type CurveBand struct {
	LogConc []float64
	Mean    []float64
	Lower   []float64
	Upper   []float64
}

// collect gathers the valid draws for one compound and one batch.
type predDraw struct {
	top     float64
	bottom  float64
	logIC50 float64
	nH      float64
	sigma   float64
}

func (d *DrawSet) predDraws(op string, compound, batch int) ([]predDraw, error) {
	var out []predDraw
	var idxErr error
	d.Draws(func(_ int, p model.Params, _ Diagnostics) {
		if idxErr != nil {
			return
		}
		if compound < 0 || compound >= len(p.Bottom) {
			idxErr = errors.NewIndexError(op, "compound", compound, "out of range")
			return
		}
		if batch < 0 || batch >= len(p.Sigma) {
			idxErr = errors.NewIndexError(op, "batch", batch, "out of range")
			return
		}
		out = append(out, predDraw{
			top:     p.Top,
			bottom:  p.Bottom[compound],
			logIC50: p.LogIC50[compound],
			nH:      p.NH,
			sigma:   p.Sigma[batch],
		})
	})
	if idxErr != nil {
		return nil, idxErr
	}
	if len(out) == 0 {
		return nil, errors.NewValueError(op, "no draws available")
	}
	return out, nil
}

// Curve evaluates the posterior of the mean response for one compound
// over a log10-concentration grid, returning the pointwise mean and a
// central credible band of the given probability mass.
func (d *DrawSet) Curve(compound int, logConc []float64, prob float64) (*CurveBand, error) {
	const op = "posterior.Curve"
	if prob <= 0 || prob >= 1 {
		return nil, errors.NewValueError(op, "band probability must be in (0, 1)")
	}
	draws, err := d.predDraws(op, compound, 0)
	if err != nil {
		return nil, err
	}

	band := &CurveBand{
		LogConc: logConc,
		Mean:    make([]float64, len(logConc)),
		Lower:   make([]float64, len(logConc)),
		Upper:   make([]float64, len(logConc)),
	}
	alpha := (1 - prob) / 2

	parallel.ParallelizeWithThreshold(len(logConc), parallelThreshold, func(start, end int) {
		mus := make([]float64, len(draws))
		for g := start; g < end; g++ {
			sum := 0.0
			for i, dr := range draws {
				mu := model.HillMean(dr.top, dr.bottom, dr.logIC50, dr.nH, logConc[g])
				mus[i] = mu
				sum += mu
			}
			band.Mean[g] = sum / float64(len(mus))
			sort.Float64s(mus)
			band.Lower[g] = quantileSorted(mus, alpha)
			band.Upper[g] = quantileSorted(mus, 1-alpha)
		}
	})
	return band, nil
}

// Replicates simulates posterior predictive observations for one
// compound in one batch: for every retained draw, the mean response at
// each grid point plus observation noise. The result is indexed
// [draw][grid point].
func (d *DrawSet) Replicates(compound, batch int, logConc []float64, rng *rand.Rand) ([][]float64, error) {
	const op = "posterior.Replicates"
	draws, err := d.predDraws(op, compound, batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(draws))
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for i, dr := range draws {
		rep := make([]float64, len(logConc))
		for g, lc := range logConc {
			mu := model.HillMean(dr.top, dr.bottom, dr.logIC50, dr.nH, lc)
			rep[g] = mu + dr.sigma*noise.Rand()
		}
		out[i] = rep
	}
	return out, nil
}

// PointwiseLogLik returns the log-likelihood of every observation under
// every retained draw, indexed [draw][observation]. This is the input
// to cross-validation model comparison.
func (d *DrawSet) PointwiseLogLik(data *model.Dataset) ([][]float64, error) {
	const op = "posterior.PointwiseLogLik"

	var params []model.Params
	d.Draws(func(_ int, p model.Params, _ Diagnostics) {
		params = append(params, p)
	})
	if len(params) == 0 {
		return nil, errors.NewValueError(op, "no draws available")
	}
	for c := 0; c < data.NumObs(); c++ {
		if data.CompoundOf(c) >= len(params[0].Bottom) {
			return nil, errors.NewIndexError(op, "compound", data.CompoundOf(c), "dataset has more compounds than the fitted model")
		}
		if data.BatchOf(c) >= len(params[0].Sigma) {
			return nil, errors.NewIndexError(op, "batch", data.BatchOf(c), "dataset has more batches than the fitted model")
		}
	}

	out := make([][]float64, len(params))
	parallel.ParallelizeWithThreshold(len(params), 8, func(start, end int) {
		for i := start; i < end; i++ {
			p := params[i]
			row := make([]float64, data.NumObs())
			for j := 0; j < data.NumObs(); j++ {
				c := data.CompoundOf(j)
				mu := model.HillMean(p.Top, p.Bottom[c], p.LogIC50[c], p.NH, data.LogConc[j])
				lik := distuv.Normal{Mu: mu, Sigma: p.Sigma[data.BatchOf(j)]}
				row[j] = lik.LogProb(data.Response[j])
			}
			out[i] = row
		}
	})
	return out, nil
}

// quantileSorted interpolates the q-quantile of an ascending slice.
func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
