// Package log defines standard attribute keys for machine learning operations.
//
// Using these standard keys enables consistent log analysis, monitoring,
// and debugging across fitting and scoring workflows. The keys follow a
// hierarchical naming convention (e.g., "model.name", "data.samples").
package log

// Model and Operation Context
// These attributes identify the model type, instance, and operation being performed.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "PLDA", "VectorNormalizer"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "fit_ml", "transform", "predict_log_proba"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "plda", "preprocessing", "metrics"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
// These attributes describe the structure and properties of data being processed.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct classes (speakers/languages).
	ClassesKey = "data.classes"

	// LatentDimKey indicates the dimensionality of the latent eigenvoice space.
	LatentDimKey = "data.latent_dim"
)

// Training Progress
const (
	// IterationKey records the current EM iteration (1-based).
	IterationKey = "train.iteration"

	// LogLikelihoodKey records the model log-likelihood diagnostic.
	LogLikelihoodKey = "train.llk"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
