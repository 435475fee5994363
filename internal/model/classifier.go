package model

import "context"

// Classifier turns a feature vector into a labeled verdict. Implementations
// may run in-process, call out to an external model runtime, or be a test
// stub; callers must tolerate per-call errors without aborting the pipeline.
type Classifier interface {
	Classify(ctx context.Context, fv *FeatureVector) (Classification, error)
}
