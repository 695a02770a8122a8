// Package diagnostics implements MCMC convergence checks for sampling
// runs: split potential scale reduction (R-hat) and effective sample
// size via Geyer's initial positive sequence estimator, plus a
// per-parameter summary over a draw set.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
	"github.com/YuminosukeSato/hillmc/pkg/log"
	"github.com/YuminosukeSato/hillmc/posterior"
)

// Convergence thresholds. Parameters beyond these are flagged in the
// summary and logged as warnings.
const (
	// RHatThreshold is the split R-hat above which mixing is suspect.
	RHatThreshold = 1.01
	// ESSFraction is the minimum effective sample size relative to the
	// total number of draws.
	ESSFraction = 0.1
)

// splitChains halves every chain, discarding one leading draw from
// odd-length chains so halves align.
func splitChains(chains [][]float64) [][]float64 {
	var out [][]float64
	for _, c := range chains {
		n := len(c)
		if n%2 == 1 {
			c = c[1:]
			n--
		}
		if n == 0 {
			continue
		}
		out = append(out, c[:n/2], c[n/2:])
	}
	return out
}

// SplitRHat computes the split potential scale reduction statistic of
// Gelman et al. over the given per-chain series. Values near 1 indicate
// the chains have mixed; above RHatThreshold they have not.
func SplitRHat(chains [][]float64) (float64, error) {
	const op = "diagnostics.SplitRHat"

	split := splitChains(chains)
	if len(split) < 2 {
		return 0, errors.NewValueError(op, "need at least one chain with two or more draws")
	}
	n := len(split[0])
	for _, c := range split {
		if len(c) != n {
			return 0, errors.NewValueError(op, "chains must have equal length")
		}
	}
	if n < 2 {
		return 0, errors.NewValueError(op, "need at least four draws per chain")
	}

	m := len(split)
	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}

	grand := stat.Mean(means, nil)
	between := 0.0
	for _, mu := range means {
		d := mu - grand
		between += d * d
	}
	between *= float64(n) / float64(m-1)
	within := stat.Mean(vars, nil)

	if within == 0 {
		// Constant chains: identical means give R-hat 1, distinct
		// means give +Inf.
		if between == 0 {
			return 1, nil
		}
		return math.Inf(1), nil
	}

	varPlus := float64(n-1)/float64(n)*within + between/float64(n)
	return math.Sqrt(varPlus / within), nil
}

// autocovariance returns the lag-t autocovariances of xs up to maxLag,
// normalized by the series length.
func autocovariance(xs []float64, maxLag int) []float64 {
	n := len(xs)
	mu := stat.Mean(xs, nil)
	acov := make([]float64, maxLag+1)
	for t := 0; t <= maxLag; t++ {
		s := 0.0
		for i := 0; i+t < n; i++ {
			s += (xs[i] - mu) * (xs[i+t] - mu)
		}
		acov[t] = s / float64(n)
	}
	return acov
}

// ESS estimates the effective sample size of the pooled chains using
// the multi-chain autocorrelation estimator with Geyer's initial
// positive sequence truncation, as in Stan.
func ESS(chains [][]float64) (float64, error) {
	const op = "diagnostics.ESS"

	split := splitChains(chains)
	if len(split) == 0 {
		return 0, errors.NewValueError(op, "no draws available")
	}
	n := len(split[0])
	for _, c := range split {
		if len(c) != n {
			return 0, errors.NewValueError(op, "chains must have equal length")
		}
	}
	if n < 4 {
		return 0, errors.NewValueError(op, "need at least four draws per chain")
	}

	m := len(split)
	maxLag := n - 1

	means := make([]float64, m)
	vars := make([]float64, m)
	acovs := make([][]float64, m)
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
		acovs[i] = autocovariance(c, maxLag)
	}

	grand := stat.Mean(means, nil)
	between := 0.0
	for _, mu := range means {
		d := mu - grand
		between += d * d
	}
	if m > 1 {
		between *= float64(n) / float64(m-1)
	}
	within := stat.Mean(vars, nil)
	varPlus := float64(n-1) / float64(n) * within
	if m > 1 {
		varPlus += between / float64(n)
	}
	if varPlus == 0 {
		return 0, errors.NewValueError(op, "draws are constant")
	}

	meanAcov := func(t int) float64 {
		s := 0.0
		for i := range acovs {
			s += acovs[i][t]
		}
		return s / float64(m)
	}

	// Sum paired autocorrelations while the pair sums stay positive
	// and non-increasing.
	rho := func(t int) float64 { return 1 - (within-meanAcov(t))/varPlus }

	sum := 0.0
	prevPair := math.Inf(1)
	for t := 1; t+1 <= maxLag; t += 2 {
		pair := rho(t) + rho(t+1)
		if pair <= 0 {
			break
		}
		if pair > prevPair {
			pair = prevPair
		}
		prevPair = pair
		sum += pair
	}

	tau := 1 + 2*sum
	ess := float64(m*n) / tau
	total := float64(m * n)
	if ess > total {
		ess = total
	}
	return ess, nil
}

// Summary describes the pooled posterior of one parameter.
type Summary struct {
	Name   string
	Mean   float64
	SD     float64
	Q5     float64
	Median float64
	Q95    float64
	RHat   float64
	ESS    float64
	// Flagged is set when R-hat or the effective sample size crossed
	// its threshold.
	Flagged bool
}

// Summarize computes per-parameter summaries over every usable chain
// of a draw set. Failed or empty chains are skipped; convergence
// problems are flagged and logged, never returned as errors.
func Summarize(ds *posterior.DrawSet) ([]Summary, error) {
	logger := log.GetLogger()
	names := ds.ParamNames()
	out := make([]Summary, 0, len(names))

	for _, name := range names {
		per, err := ds.PerChain(name)
		if err != nil {
			return nil, err
		}
		var chains [][]float64
		minLen := math.MaxInt
		for _, c := range per {
			if len(c) > 0 {
				chains = append(chains, c)
				if len(c) < minLen {
					minLen = len(c)
				}
			}
		}
		if len(chains) == 0 {
			return nil, errors.NewValueError("diagnostics.Summarize", "no usable chains")
		}
		// Incomplete chains can be shorter; align on the common prefix.
		for i := range chains {
			chains[i] = chains[i][:minLen]
		}
		total := minLen * len(chains)

		s := Summary{Name: name}
		s.Mean, _ = ds.Mean(name)
		flat, err := ds.Flat(name)
		if err != nil {
			return nil, err
		}
		s.SD = stat.StdDev(flat, nil)
		s.Q5, _ = ds.Quantile(name, 0.05)
		s.Median, _ = ds.Quantile(name, 0.5)
		s.Q95, _ = ds.Quantile(name, 0.95)

		if rhat, err := SplitRHat(chains); err == nil {
			s.RHat = rhat
		} else {
			s.RHat = math.NaN()
		}
		if ess, err := ESS(chains); err == nil {
			s.ESS = ess
		} else {
			s.ESS = math.NaN()
		}

		if s.RHat > RHatThreshold {
			s.Flagged = true
			logger.Warn("split R-hat above threshold",
				log.RHatKey, s.RHat,
				"parameter", name,
			)
		}
		if !math.IsNaN(s.ESS) && s.ESS < ESSFraction*float64(total) {
			s.Flagged = true
			logger.Warn("effective sample size below threshold",
				log.ESSKey, s.ESS,
				"parameter", name,
			)
		}
		out = append(out, s)
	}
	return out, nil
}
