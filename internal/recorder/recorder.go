// Package recorder persists emitted signals and AI analyses so that repeated
// scans only report what is new.
package recorder

import "StockLens/internal/model"

// Recorder persists historical data.
type Recorder interface {
	// RecordSignals stores the signals of a ticker and returns the ones that
	// had not been recorded before, in input order.
	RecordSignals(ticker string, signals []model.Signal) ([]model.Signal, error)
	RecordAnalysis(ticker string, res *model.AnalysisResult) error
	Close() error
}
