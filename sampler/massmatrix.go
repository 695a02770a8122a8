package sampler

// welford accumulates per-coordinate mean and variance of warmup draws
// for diagonal mass-matrix estimation.
type welford struct {
	n    int
	mean []float64
	m2   []float64
}

func newWelford(dim int) *welford {
	return &welford{
		mean: make([]float64, dim),
		m2:   make([]float64, dim),
	}
}

func (w *welford) reset() {
	w.n = 0
	for i := range w.mean {
		w.mean[i] = 0
		w.m2[i] = 0
	}
}

func (w *welford) add(q []float64) {
	w.n++
	for i, x := range q {
		delta := x - w.mean[i]
		w.mean[i] += delta / float64(w.n)
		w.m2[i] += delta * (x - w.mean[i])
	}
}

// estimate writes the regularized sample variance into invMass,
// shrinking toward unit scale the way Stan does so short windows cannot
// produce a degenerate metric.
func (w *welford) estimate(invMass []float64) {
	if w.n < 2 {
		return
	}
	n := float64(w.n)
	shrink := n / (n + 5)
	for i := range invMass {
		v := w.m2[i] / (n - 1)
		invMass[i] = shrink*v + (1-shrink)*1e-3
	}
}

// warmupSchedule splits warmup into a fast start (step size only), a
// sequence of doubling slow windows (mass-matrix estimation) and a fast
// tail, following the Stan adaptation schedule. Short warmups collapse
// the buffers proportionally.
type warmupSchedule struct {
	initBuffer int
	termBuffer int
	baseWindow int
	total      int

	nextWindowEnd int
	windowSize    int
}

func newWarmupSchedule(warmup int) *warmupSchedule {
	s := &warmupSchedule{
		initBuffer: 75,
		termBuffer: 50,
		baseWindow: 25,
		total:      warmup,
	}
	if warmup < s.initBuffer+s.termBuffer+s.baseWindow {
		s.initBuffer = int(0.15 * float64(warmup))
		s.termBuffer = int(0.10 * float64(warmup))
		s.baseWindow = warmup - s.initBuffer - s.termBuffer
	}
	s.windowSize = s.baseWindow
	s.nextWindowEnd = s.initBuffer + s.windowSize
	s.maybeAbsorbTail()
	return s
}

// inMassWindow reports whether iteration m (0-based) contributes to
// mass-matrix estimation.
func (s *warmupSchedule) inMassWindow(m int) bool {
	return m >= s.initBuffer && m < s.total-s.termBuffer && s.baseWindow > 0
}

// windowClosed reports whether iteration m is the last of the current
// slow window; callers then update the metric and call advance.
func (s *warmupSchedule) windowClosed(m int) bool {
	return s.baseWindow > 0 && m == s.nextWindowEnd-1 && m < s.total-s.termBuffer
}

// advance doubles the window and moves the boundary.
func (s *warmupSchedule) advance() {
	s.windowSize *= 2
	s.nextWindowEnd += s.windowSize
	s.maybeAbsorbTail()
}

// maybeAbsorbTail extends the final slow window to the term buffer when
// the next doubling would not fit.
func (s *warmupSchedule) maybeAbsorbTail() {
	slowEnd := s.total - s.termBuffer
	if s.nextWindowEnd+2*s.windowSize > slowEnd {
		s.nextWindowEnd = slowEnd
	}
}
