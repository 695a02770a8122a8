package sampler

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/hillmc/model"
	"github.com/YuminosukeSato/hillmc/pkg/errors"
	"github.com/YuminosukeSato/hillmc/pkg/log"
	"github.com/YuminosukeSato/hillmc/posterior"
)

// Phase is the lifecycle state of one chain.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseWarmup
	PhaseSampling
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseWarmup:
		return "warmup"
	case PhaseSampling:
		return "sampling"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// initRetries bounds the number of prior redraws when the starting
// point has a non-finite log-posterior.
const initRetries = 100

// chain runs one independent NUTS chain through warmup and sampling.
type chain struct {
	id    int
	ev    *model.Evaluator
	in    *integrator
	rng   *rand.Rand
	cfg   *config
	phase Phase

	cur     *state
	eps     float64
	nuts    *nuts
	divWarm int
	div     int

	logger log.Logger
}

func newChain(id int, ev *model.Evaluator, cfg *config, rng *rand.Rand) *chain {
	in := newIntegrator(ev)
	return &chain{
		id:     id,
		ev:     ev,
		in:     in,
		rng:    rng,
		cfg:    cfg,
		phase:  PhaseUninitialized,
		nuts:   newNUTS(in, cfg.maxTreeDepth, rng),
		logger: cfg.logger.With(log.ChainKey, id),
	}
}

// initialize picks a starting point with a finite log-posterior, either
// the configured one or repeated prior draws.
func (c *chain) initialize() error {
	const op = "chain.initialize"

	c.cur = newState(c.ev.Dim())
	if c.cfg.init != nil {
		u, err := c.ev.Unconstrain(*c.cfg.init)
		if err != nil {
			return err
		}
		copy(c.cur.q, u)
		c.cur.lp = c.ev.LogPosterior(c.cur.q, c.cur.grad)
		if math.IsInf(c.cur.lp, -1) || math.IsNaN(c.cur.lp) {
			return errors.NewValueError(op, "configured initial point has non-finite log-posterior")
		}
		return nil
	}

	for i := 0; i < initRetries; i++ {
		copy(c.cur.q, c.ev.InitFromPrior(c.rng))
		c.cur.lp = c.ev.LogPosterior(c.cur.q, c.cur.grad)
		if !math.IsInf(c.cur.lp, -1) && !math.IsNaN(c.cur.lp) {
			return nil
		}
	}
	return errors.NewValueError(op, "no finite starting point found after prior redraws")
}

// run drives the chain through its whole lifecycle and returns its
// result. The returned error covers unrecoverable setup failures;
// divergence-budget failures are reported through the result status.
func (c *chain) run(ctx context.Context) (res posterior.ChainResult, err error) {
	defer errors.Recover(&err, "chain.run")

	if err = c.initialize(); err != nil {
		c.phase = PhaseFailed
		res.Status = posterior.Failed
		return res, err
	}

	c.phase = PhaseWarmup
	c.logger.Info("warmup started", log.PhaseKey, c.phase.String())
	if !c.warmup(ctx) {
		if c.phase == PhaseFailed {
			res.Status = posterior.Failed
			res.WarmupDivergences = c.divWarm
			return res, nil
		}
		res.Status = posterior.Incomplete
		res.WarmupDivergences = c.divWarm
		return res, nil
	}

	c.phase = PhaseSampling
	c.logger.Info("sampling started",
		log.PhaseKey, c.phase.String(),
		log.StepSizeKey, c.eps,
	)

	res.Params = make([]model.Params, 0, c.cfg.draws)
	res.Diag = make([]posterior.Diagnostics, 0, c.cfg.draws)
	res.WarmupDivergences = c.divWarm
	res.Status = posterior.Complete

	for m := 0; m < c.cfg.draws; m++ {
		select {
		case <-ctx.Done():
			res.Status = posterior.Incomplete
			res.Divergences = c.div
			c.logger.Warn("sampling cancelled",
				log.IterationKey, m,
				log.PhaseKey, c.phase.String(),
			)
			return res, nil
		default:
		}

		tr := c.nuts.transition(c.cur, c.eps)
		if tr.divergent {
			c.div++
			errors.Warn(errors.NewDivergenceWarning(c.id, c.cfg.warmup+m, tr.energyError))
		}

		p, _ := c.ev.Constrain(c.cur.q)
		res.Params = append(res.Params, p)
		res.Diag = append(res.Diag, posterior.Diagnostics{
			LogPosterior: c.cur.lp,
			StepSize:     c.eps,
			TreeDepth:    tr.treeDepth,
			Energy:       tr.energy,
			AcceptProb:   tr.acceptProb,
			Divergent:    tr.divergent,
		})
	}

	res.Divergences = c.div
	c.phase = PhaseDone
	c.logger.Info("chain finished",
		log.PhaseKey, c.phase.String(),
		log.DivergencesKey, c.div,
		log.StepSizeKey, c.eps,
	)
	return res, nil
}

// warmup runs step-size and mass-matrix adaptation. It returns false
// when the chain was cancelled or failed its divergence budget.
func (c *chain) warmup(ctx context.Context) bool {
	c.eps = c.in.findReasonableEpsilon(c.cur, c.rng)
	da := newDualAveraging(c.eps, c.cfg.targetAccept)
	sched := newWarmupSchedule(c.cfg.warmup)
	wf := newWelford(c.ev.Dim())

	for m := 0; m < c.cfg.warmup; m++ {
		select {
		case <-ctx.Done():
			c.logger.Warn("warmup cancelled",
				log.IterationKey, m,
				log.PhaseKey, c.phase.String(),
			)
			return false
		default:
		}

		tr := c.nuts.transition(c.cur, c.eps)
		c.eps = da.update(tr.acceptProb)

		if tr.divergent {
			c.divWarm++
			errors.Warn(errors.NewDivergenceWarning(c.id, m, tr.energyError))
			if c.divWarm > c.cfg.divergenceBudget {
				c.phase = PhaseFailed
				w := errors.NewChainFailureWarning(c.id, c.divWarm, c.cfg.warmup,
					"divergence budget exceeded during warmup")
				errors.Warn(w)
				c.logger.Error("chain failed",
					log.PhaseKey, c.phase.String(),
					log.IterationKey, m,
					log.DivergencesKey, c.divWarm,
				)
				return false
			}
		}

		if sched.inMassWindow(m) {
			wf.add(c.cur.q)
		}
		if sched.windowClosed(m) {
			wf.estimate(c.in.invMass)
			wf.reset()
			sched.advance()

			// Re-anchor step-size adaptation under the new metric.
			c.eps = c.in.findReasonableEpsilon(c.cur, c.rng)
			da = newDualAveraging(c.eps, c.cfg.targetAccept)
			c.logger.Debug("adaptation window closed",
				log.IterationKey, m,
				log.StepSizeKey, c.eps,
			)
		}
	}

	c.eps = da.adapted()
	return true
}
