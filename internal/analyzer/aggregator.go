package analyzer

import (
	"github.com/ludo-technologies/simeval/domain"
)

// Aggregator combines the five sub-scores into a SimilarityReport
type Aggregator struct {
	weights domain.Weights
}

// NewAggregator creates an aggregator. Weights are expected to be validated.
func NewAggregator(weights domain.Weights) *Aggregator {
	return &Aggregator{weights: weights}
}

// Weights returns the aggregation weights
func (a *Aggregator) Weights() domain.Weights {
	return a.weights
}

// Aggregate clamps each sub-score into [0,1] and fills Overall.
// Any Overall already present on scores is ignored.
func (a *Aggregator) Aggregate(scores domain.SimilarityReport) domain.SimilarityReport {
	report := domain.SimilarityReport{
		Interface:   clamp01(scores.Interface),
		Structure:   clamp01(scores.Structure),
		ControlFlow: clamp01(scores.ControlFlow),
		Halstead:    clamp01(scores.Halstead),
		TokenEdit:   clamp01(scores.TokenEdit),
	}
	report.Overall = clamp01(report.WeightedSum(a.weights))
	return report
}
