// Standard attribute keys for sampling operations.
//
// Using these keys consistently enables log-based monitoring of MCMC
// runs: filtering by chain, tracking adaptation, and counting
// divergences without parsing message text. Keys follow a hierarchical
// naming convention (e.g. "chain.id", "sampler.step_size").

package log

// Model and run context.
const (
	// VariantKey identifies the model variant being fitted.
	// Values: "single_curve", "screening", "screening_batch"
	VariantKey = "model.variant"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "sampler", "posterior", "diagnostics"
	ComponentKey = "component"

	// SeedKey records the random seed of the run, for reproducibility.
	SeedKey = "run.seed"

	// PhaseKey indicates the chain phase.
	// Values: "warmup", "sampling"
	PhaseKey = "chain.phase"
)

// Chain and iteration context.
const (
	// ChainKey identifies the chain emitting the record (0-based).
	ChainKey = "chain.id"

	// IterationKey records the current iteration within the chain.
	IterationKey = "chain.iteration"

	// ChainsKey records the total number of chains in the run.
	ChainsKey = "run.chains"

	// WarmupKey records the configured warmup iterations per chain.
	WarmupKey = "run.warmup"

	// DrawsKey records the configured retained draws per chain.
	DrawsKey = "run.draws"
)

// Data shape.
const (
	// ObservationsKey records the number of observations in the dataset.
	ObservationsKey = "data.observations"

	// CompoundsKey records the number of compounds.
	CompoundsKey = "data.compounds"

	// BatchesKey records the number of experimental batches.
	BatchesKey = "data.batches"

	// ParametersKey records the dimensionality of the parameter vector.
	ParametersKey = "model.parameters"
)

// Sampler state and diagnostics.
const (
	// StepSizeKey records the current (or adapted) leapfrog step size.
	StepSizeKey = "sampler.step_size"

	// TreeDepthKey records the depth of the last NUTS trajectory.
	TreeDepthKey = "sampler.tree_depth"

	// AcceptProbKey records the average acceptance statistic.
	AcceptProbKey = "sampler.accept_prob"

	// DivergencesKey records the accumulated divergence count.
	DivergencesKey = "sampler.divergences"

	// LogPosteriorKey records the unnormalized log-posterior density.
	LogPosteriorKey = "sampler.log_posterior"

	// RHatKey records a potential-scale-reduction statistic.
	RHatKey = "diagnostics.rhat"

	// ESSKey records an effective-sample-size estimate.
	ESSKey = "diagnostics.ess"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for whole runs.
	DurationSecondsKey = "perf.duration_seconds"
)
