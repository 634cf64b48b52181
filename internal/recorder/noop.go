package recorder

import "StockLens/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
// Every signal is reported as new.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignals(_ string, signals []model.Signal) ([]model.Signal, error) {
	out := make([]model.Signal, len(signals))
	copy(out, signals)
	return out, nil
}

func (n *NoopRecorder) RecordAnalysis(_ string, _ *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
