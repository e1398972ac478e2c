// Package log defines standard attribute keys for machine learning operations.
//
// Using these standard keys enables consistent log analysis and filtering
// across the library. The keys follow a hierarchical naming convention
// (e.g. "model.name", "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "GaussianProcessRegressor", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "optimize"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "gaussian_process", "preprocessing", "metrics"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Gaussian Process Context
const (
	// KernelKey carries the string rendering of the covariance kernel.
	KernelKey = "gp.kernel"

	// AlphaKey is the diagonal noise/jitter term added to the training covariance.
	AlphaKey = "gp.alpha"

	// LMLKey is the log-marginal-likelihood of the fitted model.
	LMLKey = "gp.log_marginal_likelihood"

	// RestartsKey is the number of optimizer restarts used during fitting.
	RestartsKey = "gp.optimizer_restarts"

	// ThetaKey carries the log-transformed kernel hyperparameters.
	ThetaKey = "gp.theta"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
