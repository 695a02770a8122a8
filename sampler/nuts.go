package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// maxDeltaH is the energy-error threshold beyond which a trajectory is
// flagged divergent and its subtree discarded.
const maxDeltaH = 1000.0

// transitionResult summarizes one NUTS transition.
type transitionResult struct {
	accepted    bool
	divergent   bool
	treeDepth   int
	energy      float64
	energyError float64 // H - H0 of the divergent leapfrog step, if any
	acceptProb  float64 // average Metropolis statistic over the trajectory
}

// tree is one balanced subtree of a NUTS trajectory. rimMinus/rimPlus
// are the backward and forward rim states, prop the multinomial
// proposal drawn from the subtree.
type tree struct {
	rimMinus *state
	rimPlus  *state
	prop     *state

	logSumW      float64
	sumMetroProb float64
	nLeapfrog    int
	divergent    bool
	divDeltaH    float64
	turning      bool
}

// nuts holds the per-chain scratch for trajectory construction.
type nuts struct {
	in       *integrator
	rng      *rand.Rand
	maxDepth int
	h0       float64
}

func newNUTS(in *integrator, maxDepth int, rng *rand.Rand) *nuts {
	return &nuts{in: in, maxDepth: maxDepth, rng: rng}
}

// transition performs one No-U-Turn update of cur in place and reports
// the trajectory statistics.
func (n *nuts) transition(cur *state, eps float64) transitionResult {
	dim := len(cur.q)
	n.in.sampleMomentum(cur, n.rng)
	n.h0 = n.in.energy(cur)

	// The trajectory starts as a single state with unit weight.
	traj := &tree{
		rimMinus: newState(dim),
		rimPlus:  newState(dim),
		prop:     newState(dim),
		logSumW:  0,
	}
	traj.rimMinus.copyFrom(cur)
	traj.rimPlus.copyFrom(cur)
	traj.prop.copyFrom(cur)

	res := transitionResult{energy: n.h0}

	depth := 0
	for depth < n.maxDepth {
		var sub *tree
		goForward := n.rng.Float64() < 0.5
		if goForward {
			sub = n.buildTree(traj.rimPlus, depth, eps, +1)
		} else {
			sub = n.buildTree(traj.rimMinus, depth, eps, -1)
		}

		traj.nLeapfrog += sub.nLeapfrog
		traj.sumMetroProb += sub.sumMetroProb

		if sub.divergent {
			res.divergent = true
			res.energyError = sub.divDeltaH
			break
		}
		if sub.turning {
			break
		}

		// Biased progressive sampling: favor the fresh subtree.
		if math.Log(n.rng.Float64()) < sub.logSumW-traj.logSumW {
			traj.prop.copyFrom(sub.prop)
			res.accepted = true
		}
		traj.logSumW = errors.LogAddExp(traj.logSumW, sub.logSumW)

		if goForward {
			traj.rimPlus.copyFrom(sub.rimPlus)
		} else {
			traj.rimMinus.copyFrom(sub.rimMinus)
		}

		depth++
		if n.uTurn(traj.rimMinus, traj.rimPlus) {
			break
		}
	}

	res.treeDepth = depth
	if traj.nLeapfrog > 0 {
		res.acceptProb = traj.sumMetroProb / float64(traj.nLeapfrog)
	}
	cur.copyFrom(traj.prop)
	res.energy = n.in.energy(cur)
	return res
}

// buildTree grows a balanced subtree of the given depth from one rim
// state, stepping in direction dir.
func (n *nuts) buildTree(from *state, depth int, eps float64, dir int) *tree {
	dim := len(from.q)

	if depth == 0 {
		s := newState(dim)
		s.copyFrom(from)
		n.in.leapfrog(s, float64(dir)*eps)

		h := n.in.energy(s)
		deltaH := h - n.h0
		if math.IsNaN(deltaH) {
			deltaH = math.Inf(1)
		}

		t := &tree{rimMinus: s, rimPlus: s, prop: s, nLeapfrog: 1}
		if deltaH > maxDeltaH {
			t.divergent = true
			t.divDeltaH = deltaH
			t.logSumW = math.Inf(-1)
			return t
		}
		t.logSumW = -deltaH
		t.sumMetroProb = math.Min(1, math.Exp(-deltaH))
		return t
	}

	first := n.buildTree(from, depth-1, eps, dir)
	if first.divergent || first.turning {
		return first
	}

	var second *tree
	if dir > 0 {
		second = n.buildTree(first.rimPlus, depth-1, eps, dir)
	} else {
		second = n.buildTree(first.rimMinus, depth-1, eps, dir)
	}

	t := &tree{
		prop:         first.prop,
		logSumW:      errors.LogAddExp(first.logSumW, second.logSumW),
		sumMetroProb: first.sumMetroProb + second.sumMetroProb,
		nLeapfrog:    first.nLeapfrog + second.nLeapfrog,
		divergent:    second.divergent,
		divDeltaH:    second.divDeltaH,
	}
	if dir > 0 {
		t.rimMinus = first.rimMinus
		t.rimPlus = second.rimPlus
	} else {
		t.rimMinus = second.rimMinus
		t.rimPlus = first.rimPlus
	}
	if t.divergent {
		return t
	}

	// Multinomial selection between the two halves.
	if math.Log(n.rng.Float64()) < second.logSumW-t.logSumW {
		t.prop = second.prop
	}

	t.turning = second.turning || n.uTurn(t.rimMinus, t.rimPlus)
	return t
}

// uTurn implements the generalized no-U-turn criterion: the trajectory
// stops once the momentum at either rim points back across the chord
// between the rims (in the metric induced by the mass matrix).
func (n *nuts) uTurn(minus, plus *state) bool {
	forward := 0.0
	backward := 0.0
	for i := range minus.q {
		dq := plus.q[i] - minus.q[i]
		forward += dq * n.in.invMass[i] * plus.p[i]
		backward += dq * n.in.invMass[i] * minus.p[i]
	}
	return forward < 0 || backward < 0
}
