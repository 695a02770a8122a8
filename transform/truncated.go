package transform

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// Probabilities are kept away from 0 and 1 so the normal quantile stays
// finite even when the bound sits many standard deviations from the mean.
const quantileEps = 1e-12

// LowerTruncatedNormal draws one sample from a Normal(mu, sigma)
// truncated below at lb, by inverting the normal CDF over the uniform
// range (Phi((lb-mu)/sigma), 1).
//
// This is a generative utility for prior simulation and for drawing
// valid initial values under the bottom < top constraint; the posterior
// fitting path never calls it.
func LowerTruncatedNormal(mu, sigma, lb float64, rng *rand.Rand) float64 {
	pLow := distuv.UnitNormal.CDF((lb - mu) / sigma)
	u := pLow + rng.Float64()*(1-pLow)
	u = errors.ClipValue(u, quantileEps, 1-quantileEps)
	return mu + sigma*distuv.UnitNormal.Quantile(u)
}

// UpperTruncatedNormal draws one sample from a Normal(mu, sigma)
// truncated above at ub, by inverting the normal CDF over the uniform
// range (0, Phi((ub-mu)/sigma)).
func UpperTruncatedNormal(mu, sigma, ub float64, rng *rand.Rand) float64 {
	pHigh := distuv.UnitNormal.CDF((ub - mu) / sigma)
	u := rng.Float64() * pHigh
	u = errors.ClipValue(u, quantileEps, 1-quantileEps)
	return mu + sigma*distuv.UnitNormal.Quantile(u)
}
