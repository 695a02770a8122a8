package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is one univariate prior distribution: its log-density, the
// derivative of the log-density with respect to the variable (needed by
// the gradient-based sampler), and a generator for prior simulation and
// chain initialization.
type Prior interface {
	LogProb(x float64) float64
	Score(x float64) float64
	Rand(rng *rand.Rand) float64
}

// NormalPrior is a Normal(Mu, Sigma) prior; Sigma is the standard deviation.
type NormalPrior struct {
	Mu    float64
	Sigma float64
}

func (p NormalPrior) LogProb(x float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.LogProb(x)
}

func (p NormalPrior) Score(x float64) float64 {
	return -(x - p.Mu) / (p.Sigma * p.Sigma)
}

func (p NormalPrior) Rand(rng *rand.Rand) float64 {
	return p.Mu + p.Sigma*rng.NormFloat64()
}

// LogNormalPrior is a LogNormal(Mu, Sigma) prior on a positive variable:
// log(x) ~ Normal(Mu, Sigma).
type LogNormalPrior struct {
	Mu    float64
	Sigma float64
}

func (p LogNormalPrior) LogProb(x float64) float64 {
	return distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma}.LogProb(x)
}

func (p LogNormalPrior) Score(x float64) float64 {
	if x <= 0 {
		return math.NaN()
	}
	return -(1 + (math.Log(x)-p.Mu)/(p.Sigma*p.Sigma)) / x
}

func (p LogNormalPrior) Rand(rng *rand.Rand) float64 {
	return math.Exp(p.Mu + p.Sigma*rng.NormFloat64())
}

// ExponentialPrior is an Exponential(Rate) prior on a positive variable.
type ExponentialPrior struct {
	Rate float64
}

func (p ExponentialPrior) LogProb(x float64) float64 {
	return distuv.Exponential{Rate: p.Rate}.LogProb(x)
}

func (p ExponentialPrior) Score(x float64) float64 {
	if x < 0 {
		return math.NaN()
	}
	return -p.Rate
}

func (p ExponentialPrior) Rand(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / p.Rate
}

// Priors collects the prior for each parameter family of a model
// variant. Bottom, LogIC50 and Sigma apply i.i.d. across their entities
// in the pooled variants.
type Priors struct {
	Top     Prior
	Bottom  Prior
	LogIC50 Prior
	NH      Prior
	Sigma   Prior
}
