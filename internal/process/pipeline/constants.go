package pipeline

// Log field constants
const (
	LogFieldLabel    = "label"
	LogFieldProbFake = "prob_fake"
	LogFieldKind     = "kind"
	LogFieldCount    = "count"
	LogFieldDegraded = "degraded"
)

const (
	opPredict  = "pipeline.predict"
	opEvaluate = "pipeline.evaluate"
)
