package model

import (
	"math"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// ln10 converts base-10 exponents to natural ones.
const ln10 = math.Ln10

// HillMean computes the expected response at one log10 concentration:
//
//	mu = top + (bottom - top) / (1 + 10^((logIC50 - logConc) * nH))
//
// The power of ten is evaluated as exp(ln10 * nH * (logIC50 - logConc))
// with the exponent clamped, so differences of tens of log units and
// steep Hill coefficients yield a finite asymptote instead of NaN.
func HillMean(top, bottom, logIC50, nH, logConc float64) float64 {
	return top + (bottom-top)*hillFraction(nH*(logIC50-logConc))
}

// hillFraction returns 1/(1 + 10^t) computed stably for any t.
func hillFraction(t float64) float64 {
	e := errors.StabilizeExp(ln10 * t)
	return 1 / (1 + e)
}
