package model

import (
	"math"
	"math/rand/v2"
	"testing"
)

// synthDataset builds a small screening dataset with known parameters.
func synthDataset(t *testing.T, numCompounds, numBatches int, rng *rand.Rand) *Dataset {
	t.Helper()

	grid := []float64{-8, -7, -6, -5, -4, -3}
	var (
		logConc  []float64
		response []float64
		compound []int
		batch    []int
	)
	for c := 0; c < numCompounds; c++ {
		bottom := 0.25 + 0.1*rng.NormFloat64()
		logIC50 := -6 + rng.NormFloat64()
		for j, lc := range grid {
			mu := HillMean(1.0, bottom, logIC50, 1.0, lc)
			logConc = append(logConc, lc)
			response = append(response, mu+0.15*rng.NormFloat64())
			compound = append(compound, c+1)
			batch = append(batch, j%numBatches+1)
		}
	}

	var opts []DatasetOption
	if numCompounds > 1 {
		opts = append(opts, WithCompoundIndex(compound, numCompounds))
	}
	if numBatches > 1 {
		opts = append(opts, WithBatchIndex(batch, numBatches))
	}
	d, err := NewDataset(logConc, response, opts...)
	if err != nil {
		t.Fatalf("synthDataset: %v", err)
	}
	return d
}

func specForVariant(v Variant, numCompounds, numBatches int) *Spec {
	switch v {
	case SingleCurve:
		return NewSingleCurveSpec()
	case Screening:
		return NewScreeningSpec(numCompounds)
	default:
		return NewScreeningBatchSpec(numCompounds, numBatches)
	}
}

func TestSpecDimAndNames(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spec
		wantDim int
		first   string
		last    string
	}{
		{"single", NewSingleCurveSpec(), 5, "top", "sigma"},
		{"screening", NewScreeningSpec(3), 9, "top", "sigma"},
		{"batch", NewScreeningBatchSpec(3, 2), 10, "top", "sigma[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Dim(); got != tt.wantDim {
				t.Errorf("Dim() = %d, want %d", got, tt.wantDim)
			}
			names := tt.spec.ParamNames()
			if len(names) != tt.wantDim {
				t.Fatalf("len(ParamNames()) = %d, want %d", len(names), tt.wantDim)
			}
			if names[0] != tt.first || names[len(names)-1] != tt.last {
				t.Errorf("names = %v", names)
			}
		})
	}
}

func TestSpecValidate(t *testing.T) {
	bad := &Spec{Variant: Screening, NumCompounds: 5, NumBatches: 3}
	if err := bad.Validate(); err == nil {
		t.Error("screening with >1 batch should fail validation")
	}
	bad = &Spec{Variant: SingleCurve, NumCompounds: 2, NumBatches: 1}
	if err := bad.Validate(); err == nil {
		t.Error("single-curve with 2 compounds should fail validation")
	}
}

func TestConstrainUnconstrainRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 0))

	for _, v := range []Variant{SingleCurve, Screening, ScreeningBatch} {
		t.Run(v.String(), func(t *testing.T) {
			nc, nb := 1, 1
			if v != SingleCurve {
				nc = 4
			}
			if v == ScreeningBatch {
				nb = 3
			}
			spec := specForVariant(v, nc, nb)
			ev, err := NewEvaluator(spec, synthDataset(t, nc, nb, rng))
			if err != nil {
				t.Fatalf("NewEvaluator: %v", err)
			}

			for trial := 0; trial < 50; trial++ {
				u := make([]float64, ev.Dim())
				for i := range u {
					u[i] = rng.NormFloat64()
				}
				p, _ := ev.Constrain(u)

				for c := range p.Bottom {
					if !(p.Bottom[c] < p.Top) {
						t.Fatalf("constraint violated: bottom=%g top=%g", p.Bottom[c], p.Top)
					}
				}
				if p.NH <= 0 {
					t.Fatalf("nH = %g, want > 0", p.NH)
				}

				back, err := ev.Unconstrain(p)
				if err != nil {
					t.Fatalf("Unconstrain: %v", err)
				}
				for i := range u {
					if math.Abs(back[i]-u[i]) > 1e-9*math.Max(1, math.Abs(u[i])) {
						t.Fatalf("round trip u[%d]: %g -> %g", i, u[i], back[i])
					}
				}
			}
		})
	}
}

// The analytic gradient must agree with central finite differences at
// random unconstrained points, for every variant.
func TestLogPosteriorGradient(t *testing.T) {
	rng := rand.New(rand.NewPCG(22, 0))

	for _, v := range []Variant{SingleCurve, Screening, ScreeningBatch} {
		t.Run(v.String(), func(t *testing.T) {
			nc, nb := 1, 1
			if v != SingleCurve {
				nc = 3
			}
			if v == ScreeningBatch {
				nb = 2
			}
			spec := specForVariant(v, nc, nb)
			ev, err := NewEvaluator(spec, synthDataset(t, nc, nb, rng))
			if err != nil {
				t.Fatalf("NewEvaluator: %v", err)
			}

			const h = 1e-6
			grad := make([]float64, ev.Dim())
			scratch := make([]float64, ev.Dim())

			for trial := 0; trial < 20; trial++ {
				u := ev.InitFromPrior(rng)
				lp := ev.LogPosterior(u, grad)
				if math.IsInf(lp, 0) || math.IsNaN(lp) {
					t.Fatalf("log posterior at prior draw = %g", lp)
				}

				for i := range u {
					orig := u[i]
					u[i] = orig + h
					fPlus := ev.LogPosterior(u, scratch)
					u[i] = orig - h
					fMinus := ev.LogPosterior(u, scratch)
					u[i] = orig

					numeric := (fPlus - fMinus) / (2 * h)
					denom := math.Max(1, math.Abs(grad[i]))
					if math.Abs(numeric-grad[i])/denom > 1e-4 {
						t.Errorf("trial %d grad[%d]: analytic %g, numeric %g", trial, i, grad[i], numeric)
					}
				}
			}
		})
	}
}

// Differences up to +/-50 log units and Hill coefficients up to 10 must
// give a finite log posterior, never NaN.
func TestLogPosteriorNumericStability(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 0))
	spec := NewSingleCurveSpec()
	ev, err := NewEvaluator(spec, synthDataset(t, 1, 1, rng))
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	grad := make([]float64, ev.Dim())
	for _, logIC50 := range []float64{-56, -30, -6, 20, 44} {
		for _, nH := range []float64{0.1, 1, 10} {
			p := Params{
				Top:     1,
				NH:      nH,
				Bottom:  []float64{0},
				LogIC50: []float64{logIC50},
				Sigma:   []float64{0.15},
			}
			u, err := ev.Unconstrain(p)
			if err != nil {
				t.Fatalf("Unconstrain: %v", err)
			}
			lp := ev.LogPosterior(u, grad)
			if math.IsNaN(lp) {
				t.Errorf("logIC50=%g nH=%g: log posterior is NaN", logIC50, nH)
			}
			if math.IsInf(lp, 1) {
				t.Errorf("logIC50=%g nH=%g: log posterior is +Inf", logIC50, nH)
			}
		}
	}
}

func TestInitFromPriorAlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewPCG(24, 0))
	spec := NewScreeningSpec(5)
	ev, err := NewEvaluator(spec, synthDataset(t, 5, 1, rng))
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	grad := make([]float64, ev.Dim())
	for trial := 0; trial < 200; trial++ {
		u := ev.InitFromPrior(rng)
		p, _ := ev.Constrain(u)
		for c := range p.Bottom {
			if !(p.Bottom[c] < p.Top) {
				t.Fatalf("prior init violated bottom < top")
			}
		}
		if lp := ev.LogPosterior(u, grad); math.IsNaN(lp) {
			t.Fatalf("prior init gave NaN log posterior")
		}
	}
}

func TestNewEvaluatorCountMismatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(25, 0))
	data := synthDataset(t, 3, 1, rng)
	if _, err := NewEvaluator(NewScreeningSpec(4), data); err == nil {
		t.Error("compound count mismatch should fail")
	}
}
