// Package sampler implements gradient-based MCMC over the unconstrained
// parameter space of a dose-response model: a leapfrog-integrated
// No-U-Turn sampler with dual-averaging step-size adaptation and
// windowed diagonal mass-matrix estimation, run independently across
// chains.
package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/hillmc/model"
)

// state is one phase-space point of a trajectory: position and momentum
// in unconstrained coordinates, with the cached log-posterior and its
// gradient at the position.
type state struct {
	q    []float64
	p    []float64
	grad []float64
	lp   float64
}

func newState(dim int) *state {
	return &state{
		q:    make([]float64, dim),
		p:    make([]float64, dim),
		grad: make([]float64, dim),
	}
}

func (s *state) copyFrom(o *state) {
	copy(s.q, o.q)
	copy(s.p, o.p)
	copy(s.grad, o.grad)
	s.lp = o.lp
}

// integrator performs leapfrog steps against one model evaluator with a
// diagonal inverse mass matrix. Owned by a single chain.
type integrator struct {
	ev      *model.Evaluator
	invMass []float64
}

func newIntegrator(ev *model.Evaluator) *integrator {
	invMass := make([]float64, ev.Dim())
	for i := range invMass {
		invMass[i] = 1
	}
	return &integrator{ev: ev, invMass: invMass}
}

// kinetic returns the kinetic energy 0.5 * p' M^-1 p.
func (in *integrator) kinetic(p []float64) float64 {
	k := 0.0
	for i, pi := range p {
		k += in.invMass[i] * pi * pi
	}
	return 0.5 * k
}

// sampleMomentum draws p ~ Normal(0, M) into s.p.
func (in *integrator) sampleMomentum(s *state, rng *rand.Rand) {
	for i := range s.p {
		s.p[i] = rng.NormFloat64() / math.Sqrt(in.invMass[i])
	}
}

// energy returns the Hamiltonian -logPosterior(q) + kinetic(p).
func (in *integrator) energy(s *state) float64 {
	return -s.lp + in.kinetic(s.p)
}

// leapfrog advances s by one step of size eps in place, refreshing the
// cached log-posterior and gradient. A non-finite position simply
// yields lp = -Inf, which the caller treats as a divergence.
func (in *integrator) leapfrog(s *state, eps float64) {
	for i := range s.p {
		s.p[i] += 0.5 * eps * s.grad[i]
	}
	for i := range s.q {
		s.q[i] += eps * in.invMass[i] * s.p[i]
	}
	s.lp = in.ev.LogPosterior(s.q, s.grad)
	for i := range s.p {
		s.p[i] += 0.5 * eps * s.grad[i]
	}
}
