// Package errors provides the error and warning system for HillMC.
// It distinguishes fatal input errors (bad index arrays, constraint
// violations at initialization) from non-fatal sampling warnings
// (divergent transitions, failed chains), which are routed through a
// configurable warning handler instead of being returned.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to the standard logger.
		log.Printf("HillMC-Warning: %v\n", w)
	}
	// zerolog warn function (lazily injected to avoid an import cycle).
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// Sampling warnings such as DivergenceWarning and ChainFailureWarning
// are delivered through this handler; sampling itself continues.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. Injected as a
// function value so this package never imports pkg/log.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. When a zerolog sink is installed it takes
// precedence; otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Sampling warnings
//
// ===========================================================================

// DivergenceWarning is emitted when a Hamiltonian trajectory diverges:
// the energy error along the trajectory exceeded the divergence
// threshold and the transition was treated as rejected. Non-fatal; the
// count is also surfaced in the chain's diagnostics.
type DivergenceWarning struct {
	Chain       int
	Iteration   int
	EnergyError float64
}

func (w *DivergenceWarning) Error() string {
	return fmt.Sprintf("divergent transition on chain %d at iteration %d (energy error %.3g). Consider a higher target acceptance probability.",
		w.Chain, w.Iteration, w.EnergyError)
}

// MarshalZerologObject adds structured warning information to a zerolog event.
func (w *DivergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("chain", w.Chain).
		Int("iteration", w.Iteration).
		Float64("energy_error", w.EnergyError).
		Str("type", "DivergenceWarning")
}

// NewDivergenceWarning creates a new DivergenceWarning.
func NewDivergenceWarning(chain, iteration int, energyError float64) *DivergenceWarning {
	return &DivergenceWarning{Chain: chain, Iteration: iteration, EnergyError: energyError}
}

// ChainFailureWarning is emitted when a chain cannot stabilize during
// warmup: step-size adaptation kept producing divergent trajectories
// past the retry budget. The chain is marked failed and its partial
// draws are kept; the caller decides whether to re-run with different
// initialization or a lower target acceptance probability.
type ChainFailureWarning struct {
	Chain       int
	Divergences int
	Warmup      int
	Message     string
}

func (w *ChainFailureWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("chain %d failed to stabilize during warmup (%d divergences in %d iterations): %s",
			w.Chain, w.Divergences, w.Warmup, w.Message)
	}
	return fmt.Sprintf("chain %d failed to stabilize during warmup (%d divergences in %d iterations). Re-run with a different seed or a higher target acceptance probability.",
		w.Chain, w.Divergences, w.Warmup)
}

// MarshalZerologObject adds structured warning information to a zerolog event.
func (w *ChainFailureWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("chain", w.Chain).
		Int("divergences", w.Divergences).
		Int("warmup", w.Warmup).
		Str("message", w.Message).
		Str("type", "ChainFailureWarning")
}

// NewChainFailureWarning creates a new ChainFailureWarning.
func NewChainFailureWarning(chain, divergences, warmup int, message string) *ChainFailureWarning {
	return &ChainFailureWarning{Chain: chain, Divergences: divergences, Warmup: warmup, Message: message}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// DomainError reports a constrained parameter that violates its declared
// bound, e.g. a user-supplied initialization with bottom >= top, or a
// non-positive value handed to a log transform.
type DomainError struct {
	Op         string
	Param      string
	Value      float64
	Constraint string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("hillmc: %s: parameter %s violates constraint %s (got %g)",
		e.Op, e.Param, e.Constraint, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DomainError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.Param).
		Float64("value", e.Value).
		Str("constraint", e.Constraint).
		Str("type", "DomainError")
}

// NewDomainError creates a new DomainError with a stack trace attached.
func NewDomainError(op, param string, value float64, constraint string) error {
	err := &DomainError{Op: op, Param: param, Value: value, Constraint: constraint}
	return errors.WithStack(err)
}

// IndexError reports a malformed compound or batch index array: indices
// must form a dense 1..count range with no gaps. Fatal; raised before
// any sampling begins.
type IndexError struct {
	Op     string
	Field  string
	Index  int
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("hillmc: %s: invalid %s index %d: %s", e.Op, e.Field, e.Index, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *IndexError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("field", e.Field).
		Int("index", e.Index).
		Str("reason", e.Reason).
		Str("type", "IndexError")
}

// NewIndexError creates a new IndexError with a stack trace attached.
func NewIndexError(op, field string, index int, reason string) error {
	err := &IndexError{Op: op, Field: field, Index: index, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError reports input vectors whose lengths disagree, e.g. a
// response vector shorter than the concentration vector.
type DimensionError struct {
	Op       string
	Field    string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("hillmc: %s: length mismatch for %s. Expected %d, got %d",
		e.Op, e.Field, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("field", e.Field).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace attached.
func NewDimensionError(op, field string, expected, got int) error {
	err := &DimensionError{Op: op, Field: field, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the
// operation, e.g. a non-positive chain count.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("hillmc: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NumericalInstabilityError reports NaN or Inf values escaping a density
// or gradient evaluation. Inside a trajectory these are absorbed as
// rejections; this error type is for the places where they must not
// occur at all, such as validating a user-supplied initialization.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("hillmc: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError creates a new NumericalInstabilityError
// with a stack trace attached.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast to the target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}
