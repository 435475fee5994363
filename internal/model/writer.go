package model

// Writer persists one output record per processed packet: the full feature
// vector with its current label. Implementations own batching and flushing.
type Writer interface {
	WriteRecord(fv *FeatureVector) error
	Close() error
}
