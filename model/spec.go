package model

import (
	"fmt"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// Variant selects the pooling structure of the model.
type Variant int

const (
	// SingleCurve fits one compound: every parameter is a scalar.
	SingleCurve Variant = iota
	// Screening pools many compounds: top, nH and sigma are shared,
	// bottom and logIC50 vary per compound.
	Screening
	// ScreeningBatch additionally gives each experimental batch its own
	// observation noise sigma.
	ScreeningBatch
)

func (v Variant) String() string {
	switch v {
	case SingleCurve:
		return "single_curve"
	case Screening:
		return "screening"
	case ScreeningBatch:
		return "screening_batch"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Spec is the declarative description of one model: its pooling
// structure, entity counts and priors. One evaluator interprets all
// variants; the spec only decides which symbols are indexed per entity
// and which are scalar.
type Spec struct {
	Variant      Variant
	NumCompounds int
	NumBatches   int
	Priors       Priors
}

// SpecOption overrides a default prior on a Spec.
type SpecOption func(*Spec)

// WithTopPrior overrides the prior on the shared upper asymptote.
func WithTopPrior(p Prior) SpecOption { return func(s *Spec) { s.Priors.Top = p } }

// WithBottomPrior overrides the prior on the lower asymptote(s).
func WithBottomPrior(p Prior) SpecOption { return func(s *Spec) { s.Priors.Bottom = p } }

// WithLogIC50Prior overrides the prior on the log10 IC50(s).
func WithLogIC50Prior(p Prior) SpecOption { return func(s *Spec) { s.Priors.LogIC50 = p } }

// WithNHPrior overrides the prior on the Hill coefficient.
func WithNHPrior(p Prior) SpecOption { return func(s *Spec) { s.Priors.NH = p } }

// WithSigmaPrior overrides the prior on the observation noise scale(s).
func WithSigmaPrior(p Prior) SpecOption { return func(s *Spec) { s.Priors.Sigma = p } }

// NewSingleCurveSpec builds the single-compound model.
//
// Defaults: bottom ~ Normal(0, 0.05), top ~ Normal(1, 0.01),
// logIC50 ~ Normal(-6, 1.5), nH ~ LogNormal(0, 1), sigma ~ Exponential(10).
func NewSingleCurveSpec(opts ...SpecOption) *Spec {
	s := &Spec{
		Variant:      SingleCurve,
		NumCompounds: 1,
		NumBatches:   1,
		Priors: Priors{
			Top:     NormalPrior{Mu: 1, Sigma: 0.01},
			Bottom:  NormalPrior{Mu: 0, Sigma: 0.05},
			LogIC50: NormalPrior{Mu: -6, Sigma: 1.5},
			NH:      LogNormalPrior{Mu: 0, Sigma: 1},
			Sigma:   ExponentialPrior{Rate: 10},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewScreeningSpec builds the multi-compound model with shared top, nH
// and sigma.
//
// Defaults: top ~ Normal(1, 0.01), nH ~ Normal(1, 0.01),
// sigma ~ Exponential(10), bottom_i ~ Normal(0.25, 0.25) and
// logIC50_i ~ Normal(-6, 1.5) i.i.d. per compound.
func NewScreeningSpec(numCompounds int, opts ...SpecOption) *Spec {
	s := &Spec{
		Variant:      Screening,
		NumCompounds: numCompounds,
		NumBatches:   1,
		Priors: Priors{
			Top:     NormalPrior{Mu: 1, Sigma: 0.01},
			Bottom:  NormalPrior{Mu: 0.25, Sigma: 0.25},
			LogIC50: NormalPrior{Mu: -6, Sigma: 1.5},
			NH:      NormalPrior{Mu: 1, Sigma: 0.01},
			Sigma:   ExponentialPrior{Rate: 10},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewScreeningBatchSpec builds the multi-compound model with
// batch-specific observation noise: sigma_k ~ Exponential(10) i.i.d.
// per batch, other priors as in NewScreeningSpec.
func NewScreeningBatchSpec(numCompounds, numBatches int, opts ...SpecOption) *Spec {
	s := NewScreeningSpec(numCompounds, opts...)
	s.Variant = ScreeningBatch
	s.NumBatches = numBatches
	return s
}

// Validate checks entity counts.
func (s *Spec) Validate() error {
	const op = "Spec.Validate"
	if s.NumCompounds < 1 {
		return errors.NewValueError(op, "NumCompounds must be >= 1")
	}
	if s.NumBatches < 1 {
		return errors.NewValueError(op, "NumBatches must be >= 1")
	}
	if s.Variant == SingleCurve && s.NumCompounds != 1 {
		return errors.NewValueError(op, "single-curve model admits exactly one compound")
	}
	if s.Variant != ScreeningBatch && s.NumBatches != 1 {
		return errors.NewValueError(op, "per-batch noise requires the screening_batch variant")
	}
	return nil
}

// Dim returns the dimensionality of the parameter vector:
// top, nH, one bottom and one logIC50 per compound, one sigma per batch.
func (s *Spec) Dim() int {
	return 2 + 2*s.NumCompounds + s.NumBatches
}

// ParamNames returns the flattened parameter names in vector order.
// Per-entity parameters carry 1-based indices matching the input ids.
func (s *Spec) ParamNames() []string {
	names := make([]string, 0, s.Dim())
	names = append(names, "top", "nH")
	for c := 0; c < s.NumCompounds; c++ {
		if s.NumCompounds == 1 {
			names = append(names, "bottom")
		} else {
			names = append(names, fmt.Sprintf("bottom[%d]", c+1))
		}
	}
	for c := 0; c < s.NumCompounds; c++ {
		if s.NumCompounds == 1 {
			names = append(names, "logIC50")
		} else {
			names = append(names, fmt.Sprintf("logIC50[%d]", c+1))
		}
	}
	for k := 0; k < s.NumBatches; k++ {
		if s.NumBatches == 1 {
			names = append(names, "sigma")
		} else {
			names = append(names, fmt.Sprintf("sigma[%d]", k+1))
		}
	}
	return names
}

// Params is a parameter vector in constrained space. Bottom and LogIC50
// have one entry per compound, Sigma one per batch; all satisfy
// Bottom[c] < Top, NH > 0, Sigma[k] > 0.
type Params struct {
	Top     float64
	NH      float64
	Bottom  []float64
	LogIC50 []float64
	Sigma   []float64
}

// Flatten appends the constrained values in vector order to dst.
func (p *Params) Flatten(dst []float64) []float64 {
	dst = append(dst, p.Top, p.NH)
	dst = append(dst, p.Bottom...)
	dst = append(dst, p.LogIC50...)
	dst = append(dst, p.Sigma...)
	return dst
}
