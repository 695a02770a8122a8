// Package transform maps between the sampler's unconstrained working
// space and the constrained dose-response parameter space.
//
// Every constrained parameter travels through one of two monotone
// bijections: log/exp for positivity (nH, sigma) and a shifted
// exponential for the ordering constraint bottom < top. Each direction
// reports the log-Jacobian contribution that must be added to the
// log-posterior when the density is evaluated in unconstrained space,
// so the constraint can never be violated by construction and no
// rejection step is needed.
package transform

import (
	"math"

	"github.com/YuminosukeSato/hillmc/pkg/errors"
)

// ConstrainPositive maps an unconstrained value to a positive parameter
// via x = exp(u). The returned log-Jacobian is log(dx/du) = u.
func ConstrainPositive(u float64) (x, logJacobian float64) {
	return math.Exp(u), u
}

// UnconstrainPositive maps a positive parameter to the real line via
// u = log(x). Returns a DomainError if x is not strictly positive;
// callers hit this only when validating user-supplied initializations,
// never for internally generated values.
func UnconstrainPositive(op, param string, x float64) (u, logJacobian float64, err error) {
	if !(x > 0) {
		return 0, 0, errors.NewDomainError(op, param, x, "> 0")
	}
	u = math.Log(x)
	return u, u, nil
}

// ConstrainOrderedBelow maps an unconstrained value to a parameter
// strictly below top via bottom = top - exp(u). The log-Jacobian is
// log|d bottom/du| = u, which equals log(top - bottom).
func ConstrainOrderedBelow(top, u float64) (bottom, logJacobian float64) {
	return top - math.Exp(u), u
}

// UnconstrainOrderedBelow maps a parameter strictly below top to the
// real line via u = log(top - bottom). Returns a DomainError if
// bottom >= top.
func UnconstrainOrderedBelow(op string, top, bottom float64) (u, logJacobian float64, err error) {
	if !(bottom < top) {
		return 0, 0, errors.NewDomainError(op, "bottom", bottom, "bottom < top")
	}
	u = math.Log(top - bottom)
	return u, u, nil
}
