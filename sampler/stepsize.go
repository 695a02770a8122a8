package sampler

import (
	"math"
	"math/rand/v2"
)

// Dual-averaging constants from Hoffman & Gelman (2014).
const (
	daGamma = 0.05
	daT0    = 10.0
	daKappa = 0.75
)

// dualAveraging adapts the leapfrog step size toward a target
// acceptance probability during warmup.
type dualAveraging struct {
	mu        float64
	target    float64
	count     int
	hBar      float64
	logEps    float64
	logEpsBar float64
}

// newDualAveraging starts adaptation anchored at eps0, shrinking toward
// 10*eps0 as recommended by Hoffman & Gelman.
func newDualAveraging(eps0, target float64) *dualAveraging {
	return &dualAveraging{
		mu:     math.Log(10 * eps0),
		target: target,
		logEps: math.Log(eps0),
	}
}

// update consumes the acceptance statistic of one transition and
// returns the step size for the next one.
func (da *dualAveraging) update(acceptProb float64) float64 {
	da.count++
	m := float64(da.count)

	eta := 1 / (m + daT0)
	da.hBar = (1-eta)*da.hBar + eta*(da.target-acceptProb)
	da.logEps = da.mu - math.Sqrt(m)/daGamma*da.hBar
	w := math.Pow(m, -daKappa)
	da.logEpsBar = w*da.logEps + (1-w)*da.logEpsBar

	return math.Exp(da.logEps)
}

// adapted returns the smoothed step size to freeze for sampling.
func (da *dualAveraging) adapted() float64 {
	if da.count == 0 {
		return math.Exp(da.logEps)
	}
	return math.Exp(da.logEpsBar)
}

// findReasonableEpsilon locates an initial step size whose single-step
// acceptance ratio straddles 0.5, by doubling or halving from 1
// (Hoffman & Gelman, algorithm 4). The search is capped so a
// pathological posterior cannot loop forever.
func (in *integrator) findReasonableEpsilon(s *state, rng *rand.Rand) float64 {
	eps := 1.0
	scratch := newState(len(s.q))
	scratch.copyFrom(s)
	in.sampleMomentum(scratch, rng)
	h0 := in.energy(scratch)

	trial := newState(len(s.q))
	trial.copyFrom(scratch)
	in.leapfrog(trial, eps)
	logRatio := h0 - in.energy(trial)

	dir := 1.0
	if !(logRatio > math.Log(0.5)) {
		dir = -1.0
	}

	for i := 0; i < 100; i++ {
		if dir > 0 && !(logRatio > math.Log(0.5)) {
			break
		}
		if dir < 0 && !(logRatio < math.Log(0.5)) {
			break
		}
		eps *= math.Pow(2, dir)
		trial.copyFrom(scratch)
		in.leapfrog(trial, eps)
		logRatio = h0 - in.energy(trial)
		if math.IsNaN(logRatio) {
			logRatio = math.Inf(-1)
		}
	}

	// Keep the result inside a sane range even if the search hit its cap.
	if eps > 1e4 {
		eps = 1e4
	}
	if eps < 1e-10 {
		eps = 1e-10
	}
	return eps
}
