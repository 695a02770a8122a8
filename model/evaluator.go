package model

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
	"github.com/YuminosukeSato/hillmc/transform"
)

const halfLog2Pi = 0.9189385332046727 // log(2*pi)/2

// Evaluator computes the unnormalized log-posterior of one model spec
// over one dataset, together with its exact gradient with respect to
// the unconstrained parameter vector. It holds no mutable state besides
// preallocated scratch, so distinct chains use distinct evaluators.
//
// Unconstrained vector layout (see Spec.Dim):
//
//	[ top, log(nH), uBottom[0..C), logIC50[0..C), log(sigma)[0..B) ]
//
// where bottom[c] = top - exp(uBottom[c]), making bottom < top hold at
// every point the sampler can visit.
type Evaluator struct {
	spec *Spec
	data *Dataset

	// scratch for the constrained-space gradient accumulators
	dBottom  []float64
	dLogIC50 []float64
	dSigma   []float64
}

// NewEvaluator validates that spec and data agree on entity counts and
// returns an evaluator. An IndexError or count mismatch here is fatal;
// nothing has been sampled yet.
func NewEvaluator(spec *Spec, data *Dataset) (*Evaluator, error) {
	const op = "NewEvaluator"

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if data.NumCompounds() != spec.NumCompounds {
		return nil, errors.NewDimensionError(op, "compounds", spec.NumCompounds, data.NumCompounds())
	}
	if data.NumBatches() != spec.NumBatches {
		return nil, errors.NewDimensionError(op, "batches", spec.NumBatches, data.NumBatches())
	}

	return &Evaluator{
		spec:     spec,
		data:     data,
		dBottom:  make([]float64, spec.NumCompounds),
		dLogIC50: make([]float64, spec.NumCompounds),
		dSigma:   make([]float64, spec.NumBatches),
	}, nil
}

// Spec returns the model spec the evaluator interprets.
func (e *Evaluator) Spec() *Spec { return e.spec }

// Data returns the dataset.
func (e *Evaluator) Data() *Dataset { return e.data }

// Dim returns the dimensionality of the (un)constrained vector.
func (e *Evaluator) Dim() int { return e.spec.Dim() }

// Constrain maps an unconstrained vector to constrained parameters and
// returns the accumulated log-Jacobian of the map.
func (e *Evaluator) Constrain(u []float64) (Params, float64) {
	nc := e.spec.NumCompounds
	nb := e.spec.NumBatches

	p := Params{
		Top:     u[0],
		Bottom:  make([]float64, nc),
		LogIC50: make([]float64, nc),
		Sigma:   make([]float64, nb),
	}

	logJac := 0.0
	var lj float64
	p.NH, lj = transform.ConstrainPositive(u[1])
	logJac += lj
	for c := 0; c < nc; c++ {
		p.Bottom[c], lj = transform.ConstrainOrderedBelow(p.Top, u[2+c])
		logJac += lj
		p.LogIC50[c] = u[2+nc+c]
	}
	for k := 0; k < nb; k++ {
		p.Sigma[k], lj = transform.ConstrainPositive(u[2+2*nc+k])
		logJac += lj
	}
	return p, logJac
}

// Unconstrain maps constrained parameters to the sampler's working
// vector. It returns a DomainError when a supplied value violates its
// constraint; used to validate caller-provided initializations.
func (e *Evaluator) Unconstrain(p Params) ([]float64, error) {
	const op = "Unconstrain"
	nc := e.spec.NumCompounds
	nb := e.spec.NumBatches

	if len(p.Bottom) != nc {
		return nil, errors.NewDimensionError(op, "Bottom", nc, len(p.Bottom))
	}
	if len(p.LogIC50) != nc {
		return nil, errors.NewDimensionError(op, "LogIC50", nc, len(p.LogIC50))
	}
	if len(p.Sigma) != nb {
		return nil, errors.NewDimensionError(op, "Sigma", nb, len(p.Sigma))
	}

	u := make([]float64, e.Dim())
	u[0] = p.Top
	var err error
	if u[1], _, err = transform.UnconstrainPositive(op, "nH", p.NH); err != nil {
		return nil, err
	}
	for c := 0; c < nc; c++ {
		if u[2+c], _, err = transform.UnconstrainOrderedBelow(op, p.Top, p.Bottom[c]); err != nil {
			return nil, err
		}
		u[2+nc+c] = p.LogIC50[c]
	}
	for k := 0; k < nb; k++ {
		if u[2+2*nc+k], _, err = transform.UnconstrainPositive(op, "sigma", p.Sigma[k]); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// LogPosterior evaluates the unnormalized log-posterior density at the
// unconstrained point u and writes its gradient into grad (len Dim).
// Returns -Inf (with a zero gradient) when the point is numerically
// unusable, which the sampler treats as a rejected trajectory state.
func (e *Evaluator) LogPosterior(u, grad []float64) float64 {
	nc := e.spec.NumCompounds
	nb := e.spec.NumBatches
	pr := &e.spec.Priors

	for i := range grad {
		grad[i] = 0
	}

	top := u[0]
	nH := math.Exp(u[1])

	// Per-entity constrained values and accumulators.
	dTop := 0.0
	dNH := 0.0
	dB := e.dBottom
	dL := e.dLogIC50
	dS := e.dSigma
	for c := 0; c < nc; c++ {
		dB[c], dL[c] = 0, 0
	}
	for k := 0; k < nb; k++ {
		dS[k] = 0
	}

	// log-Jacobian: one log-scale term per transformed coordinate.
	logJac := u[1]
	for c := 0; c < nc; c++ {
		logJac += u[2+c]
	}
	for k := 0; k < nb; k++ {
		logJac += u[2+2*nc+k]
	}

	// Likelihood.
	ll := 0.0
	for i := 0; i < e.data.NumObs(); i++ {
		c := e.data.CompoundOf(i)
		k := e.data.BatchOf(i)

		bottom := top - math.Exp(u[2+c])
		logIC50 := u[2+nc+c]
		sigma := math.Exp(u[2+2*nc+k])

		diff := logIC50 - e.data.LogConc[i]
		ex := errors.StabilizeExp(ln10 * nH * diff)
		s := 1 / (1 + ex)
		q := s * (1 - s)

		mu := top + (bottom-top)*s
		r := e.data.Response[i] - mu
		inv2 := 1 / (sigma * sigma)

		ll += -math.Log(sigma) - halfLog2Pi - 0.5*r*r*inv2

		common := r * inv2 // d loglik / d mu
		dTop += common * (1 - s)
		dB[c] += common * s
		scale := common * (top - bottom) * ln10 * q
		dL[c] += scale * nH
		dNH += scale * diff
		dS[k] += -1/sigma + r*r/(sigma*sigma*sigma)
	}

	// Priors, evaluated in constrained space.
	lp := pr.Top.LogProb(top)
	dTop += pr.Top.Score(top)
	lp += pr.NH.LogProb(nH)
	dNH += pr.NH.Score(nH)
	for c := 0; c < nc; c++ {
		bottom := top - math.Exp(u[2+c])
		lp += pr.Bottom.LogProb(bottom)
		dB[c] += pr.Bottom.Score(bottom)
		lp += pr.LogIC50.LogProb(u[2+nc+c])
		dL[c] += pr.LogIC50.Score(u[2+nc+c])
	}
	for k := 0; k < nb; k++ {
		sigma := math.Exp(u[2+2*nc+k])
		lp += pr.Sigma.LogProb(sigma)
		dS[k] += pr.Sigma.Score(sigma)
	}

	total := ll + lp + logJac
	if math.IsNaN(total) || math.IsInf(total, 1) {
		// Absorbed as a rejection, never surfaced as NaN.
		return math.Inf(-1)
	}

	// Chain rule back to unconstrained coordinates. bottom[c] moves
	// one-for-one with top, so every dB term also feeds grad[0].
	grad[0] = dTop
	grad[1] = dNH*nH + 1
	for c := 0; c < nc; c++ {
		eb := math.Exp(u[2+c]) // top - bottom[c]
		grad[0] += dB[c]
		grad[2+c] = -dB[c]*eb + 1
		grad[2+nc+c] = dL[c]
	}
	for k := 0; k < nb; k++ {
		sigma := math.Exp(u[2+2*nc+k])
		grad[2+2*nc+k] = dS[k]*sigma + 1
	}

	for i := range grad {
		if math.IsNaN(grad[i]) || math.IsInf(grad[i], 0) {
			for j := range grad {
				grad[j] = 0
			}
			return math.Inf(-1)
		}
	}

	return total
}

// InitFromPrior draws a valid unconstrained starting point from the
// priors. Draws that would violate a constraint are replaced by
// properly truncated draws rather than rejected wholesale, so
// initialization never fails with a DomainError.
func (e *Evaluator) InitFromPrior(rng *rand.Rand) []float64 {
	nc := e.spec.NumCompounds
	nb := e.spec.NumBatches
	pr := &e.spec.Priors

	p := Params{
		Top:     pr.Top.Rand(rng),
		NH:      positiveDraw(pr.NH, rng),
		Bottom:  make([]float64, nc),
		LogIC50: make([]float64, nc),
		Sigma:   make([]float64, nb),
	}
	for c := 0; c < nc; c++ {
		p.Bottom[c] = belowDraw(pr.Bottom, p.Top, rng)
		p.LogIC50[c] = pr.LogIC50.Rand(rng)
	}
	for k := 0; k < nb; k++ {
		p.Sigma[k] = positiveDraw(pr.Sigma, rng)
	}

	u, err := e.Unconstrain(p)
	if err != nil {
		// Unreachable: every component above respects its constraint.
		panic(err)
	}
	return u
}

// positiveDraw samples from prior conditioned on x > 0. Normal priors
// are truncated analytically; other families are positive already, with
// a redraw loop as a safety net.
func positiveDraw(prior Prior, rng *rand.Rand) float64 {
	if np, ok := prior.(NormalPrior); ok {
		return transform.LowerTruncatedNormal(np.Mu, np.Sigma, 0, rng)
	}
	for i := 0; i < 100; i++ {
		if x := prior.Rand(rng); x > 0 {
			return x
		}
	}
	return math.SmallestNonzeroFloat64
}

// belowDraw samples from prior conditioned on x < top.
func belowDraw(prior Prior, top float64, rng *rand.Rand) float64 {
	if np, ok := prior.(NormalPrior); ok {
		return transform.UpperTruncatedNormal(np.Mu, np.Sigma, top, rng)
	}
	for i := 0; i < 100; i++ {
		if x := prior.Rand(rng); x < top {
			return x
		}
	}
	return top - 1e-3
}
