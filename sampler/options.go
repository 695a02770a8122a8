package sampler

import (
	"github.com/YuminosukeSato/hillmc/model"
	"github.com/YuminosukeSato/hillmc/pkg/errors"
	"github.com/YuminosukeSato/hillmc/pkg/log"
)

// Defaults for a sampling run.
const (
	DefaultChains       = 4
	DefaultWarmup       = 1000
	DefaultDraws        = 1000
	DefaultTargetAccept = 0.8
	DefaultMaxTreeDepth = 10
)

// config carries the validated run settings shared by all chains.
type config struct {
	chains       int
	warmup       int
	draws        int
	targetAccept float64
	maxTreeDepth int
	seed         uint64
	// divergenceBudget is the number of warmup divergences a chain
	// tolerates before it is marked failed.
	divergenceBudget int
	init             *model.Params
	logger           log.Logger
}

func defaultConfig() *config {
	return &config{
		chains:           DefaultChains,
		warmup:           DefaultWarmup,
		draws:            DefaultDraws,
		targetAccept:     DefaultTargetAccept,
		maxTreeDepth:     DefaultMaxTreeDepth,
		seed:             1,
		divergenceBudget: -1, // resolved from warmup at validation
		logger:           log.GetLogger(),
	}
}

func (c *config) validate() error {
	const op = "sampler.New"
	if c.chains < 1 {
		return errors.NewValueError(op, "number of chains must be at least 1")
	}
	if c.warmup < 0 {
		return errors.NewValueError(op, "warmup iterations must be non-negative")
	}
	if c.draws < 1 {
		return errors.NewValueError(op, "number of draws must be at least 1")
	}
	if c.targetAccept <= 0 || c.targetAccept >= 1 {
		return errors.NewValueError(op, "target acceptance must be in (0, 1)")
	}
	if c.maxTreeDepth < 1 {
		return errors.NewValueError(op, "max tree depth must be at least 1")
	}
	if c.divergenceBudget < 0 {
		c.divergenceBudget = c.warmup / 2
	}
	return nil
}

// Option configures a Sampler.
type Option func(*config)

// WithChains sets the number of independent chains.
func WithChains(n int) Option {
	return func(c *config) { c.chains = n }
}

// WithWarmup sets the number of adaptation iterations per chain.
func WithWarmup(n int) Option {
	return func(c *config) { c.warmup = n }
}

// WithDraws sets the number of retained draws per chain.
func WithDraws(n int) Option {
	return func(c *config) { c.draws = n }
}

// WithTargetAccept sets the dual-averaging acceptance target.
func WithTargetAccept(t float64) Option {
	return func(c *config) { c.targetAccept = t }
}

// WithSeed sets the base random seed. Chain i derives its generator
// from (seed, i), so runs with the same seed are reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithMaxTreeDepth caps the NUTS trajectory doubling depth.
func WithMaxTreeDepth(d int) Option {
	return func(c *config) { c.maxTreeDepth = d }
}

// WithDivergenceBudget sets how many warmup divergences a chain
// tolerates before failing. The default is half the warmup length.
func WithDivergenceBudget(n int) Option {
	return func(c *config) { c.divergenceBudget = n }
}

// WithInit fixes the starting point of every chain instead of drawing
// it from the priors.
func WithInit(p model.Params) Option {
	return func(c *config) { c.init = &p }
}

// WithLogger replaces the package-default logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}
