package sampler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/hillmc/core/parallel"
	"github.com/YuminosukeSato/hillmc/model"
	"github.com/YuminosukeSato/hillmc/pkg/log"
	"github.com/YuminosukeSato/hillmc/posterior"
)

// Sampler fits a dose-response model by running several independent
// NUTS chains and collecting their draws.
type Sampler struct {
	ev  *model.Evaluator
	cfg *config
}

// New builds a sampler for one evaluator. Options override the default
// 4 chains x (1000 warmup + 1000 draws) at 0.8 target acceptance.
func New(ev *model.Evaluator, opts ...Option) (*Sampler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Sampler{ev: ev, cfg: cfg}, nil
}

// Run executes all chains concurrently and returns their combined
// draws. Cancelling ctx stops chains between iterations; draws already
// collected are kept and the affected chains report Incomplete status.
// A failed chain never fails the run; its status and warnings carry the
// information instead.
func (s *Sampler) Run(ctx context.Context) (*posterior.DrawSet, error) {
	spec := s.ev.Spec()
	start := time.Now()

	s.cfg.logger.Info("sampling run started",
		log.VariantKey, spec.Variant.String(),
		log.ChainsKey, s.cfg.chains,
		log.WarmupKey, s.cfg.warmup,
		log.DrawsKey, s.cfg.draws,
		log.SeedKey, s.cfg.seed,
		log.ObservationsKey, s.ev.Data().NumObs(),
		log.ParametersKey, s.ev.Dim(),
	)

	results := make([]posterior.ChainResult, s.cfg.chains)
	errs := make([]error, s.cfg.chains)

	parallel.ForEach(s.cfg.chains, func(i int) {
		// Every chain owns an evaluator: LogPosterior uses internal
		// scratch buffers and is not safe to share across goroutines.
		ev, err := model.NewEvaluator(spec, s.ev.Data())
		if err != nil {
			errs[i] = err
			results[i].Status = posterior.Failed
			return
		}
		rng := rand.New(rand.NewPCG(s.cfg.seed, uint64(i)))
		ch := newChain(i, ev, s.cfg, rng)
		results[i], errs[i] = ch.run(ctx)
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ds := posterior.NewDrawSet(spec.ParamNames(), results)
	s.cfg.logger.Info("sampling run finished",
		log.VariantKey, spec.Variant.String(),
		log.DivergencesKey, ds.TotalDivergences(),
		log.DurationSecondsKey, time.Since(start).Seconds(),
	)
	return ds, nil
}
