// Package hillmc provides Bayesian inference for Hill-equation
// dose-response curves, designed for compound screening pipelines that
// need calibrated potency estimates rather than point fits.
//
// HillMC fits four-parameter logistic (Hill) curves by Hamiltonian
// Monte Carlo with the No-U-Turn sampler, using exact analytic
// gradients of the log-posterior.
//
// # Features
//
// - Three model variants: single curve, multi-compound screening, and
// screening with per-batch observation noise
// - NUTS with dual-averaging step-size adaptation and windowed
// diagonal mass-matrix estimation
// - Parallel chains with reproducible per-chain random streams
// - Convergence diagnostics: split R-hat and effective sample size
// - Posterior predictive curves, replicates, and pointwise
// log-likelihoods for model comparison
//
// # Installation
//
// Install HillMC using go get:
//
//	go get github.com/YuminosukeSato/hillmc
//
// # Quick Start
//
// Fit a single dose-response curve:
//
//	data, err := model.NewDataset(logConc, response)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ev, err := model.NewEvaluator(model.NewSingleCurveSpec(), data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := sampler.New(ev, sampler.WithSeed(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	draws, err := s.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mean, _ := draws.Mean("logIC50")
//	fmt.Printf("posterior mean logIC50: %.3f\n", mean)
//
// # Package Layout
//
// - model: datasets, priors, model variants, and the log-posterior
// evaluator with analytic gradients
// - transform: constrained/unconstrained parameter maps with
// log-Jacobians
// - sampler: the NUTS core, warmup adaptation, and chain execution
// - posterior: draw storage, summaries, and posterior predictive
// quantities
// - diagnostics: split R-hat, effective sample size, and run summaries
package hillmc
