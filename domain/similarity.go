package domain

import (
	"fmt"
	"math"
)

// Default aggregation weights. They sum to 1.0.
const (
	DefaultInterfaceWeight   = 0.2
	DefaultStructureWeight   = 0.15
	DefaultControlFlowWeight = 0.2
	DefaultHalsteadWeight    = 0.3
	DefaultTokenEditWeight   = 0.15

	// WeightTolerance is how far configured weights may drift from a sum of 1.0.
	WeightTolerance = 1e-9
)

// Weights are the per-dimension coefficients used to compute SimilarityReport.Overall
type Weights struct {
	Interface   float64 `json:"interface" yaml:"interface" toml:"interface" mapstructure:"interface"`
	Structure   float64 `json:"structure" yaml:"structure" toml:"structure" mapstructure:"structure"`
	ControlFlow float64 `json:"control_flow" yaml:"control_flow" toml:"control_flow" mapstructure:"control_flow"`
	Halstead    float64 `json:"halstead" yaml:"halstead" toml:"halstead" mapstructure:"halstead"`
	TokenEdit   float64 `json:"token_edit" yaml:"token_edit" toml:"token_edit" mapstructure:"token_edit"`
}

// DefaultWeights returns the standard weighting
func DefaultWeights() Weights {
	return Weights{
		Interface:   DefaultInterfaceWeight,
		Structure:   DefaultStructureWeight,
		ControlFlow: DefaultControlFlowWeight,
		Halstead:    DefaultHalsteadWeight,
		TokenEdit:   DefaultTokenEditWeight,
	}
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Interface + w.Structure + w.ControlFlow + w.Halstead + w.TokenEdit
}

// Validate checks that every weight is non-negative and that they sum to 1.0
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"interface":    w.Interface,
		"structure":    w.Structure,
		"control_flow": w.ControlFlow,
		"halstead":     w.Halstead,
		"token_edit":   w.TokenEdit,
	} {
		if v < 0 || math.IsNaN(v) {
			return NewValidationError(fmt.Sprintf("weight %s must be >= 0, got %v", name, v))
		}
	}
	if math.Abs(w.Sum()-1.0) > WeightTolerance {
		return NewValidationError(fmt.Sprintf("weights must sum to 1.0, got %v", w.Sum()))
	}
	return nil
}

// SimilarityReport bundles the five sub-scores and their weighted aggregate.
// Every field lies in [0,1].
type SimilarityReport struct {
	Interface   float64 `json:"interface" yaml:"interface" csv:"interface"`
	Structure   float64 `json:"structure" yaml:"structure" csv:"structure"`
	ControlFlow float64 `json:"control_flow" yaml:"control_flow" csv:"control_flow"`
	Halstead    float64 `json:"halstead" yaml:"halstead" csv:"halstead"`
	TokenEdit   float64 `json:"token_edit" yaml:"token_edit" csv:"token_edit"`
	Overall     float64 `json:"overall" yaml:"overall" csv:"overall"`
}

// ZeroReport is the penalty report recorded for a pair that failed to score.
func ZeroReport() SimilarityReport {
	return SimilarityReport{}
}

// WeightedSum computes the overall score of the report's five sub-scores
func (r SimilarityReport) WeightedSum(w Weights) float64 {
	return w.Interface*r.Interface +
		w.Structure*r.Structure +
		w.ControlFlow*r.ControlFlow +
		w.Halstead*r.Halstead +
		w.TokenEdit*r.TokenEdit
}

// Fields returns the report values in column order: interface, structure,
// control_flow, halstead, token_edit, overall.
func (r SimilarityReport) Fields() []float64 {
	return []float64{r.Interface, r.Structure, r.ControlFlow, r.Halstead, r.TokenEdit, r.Overall}
}

// ReportFieldNames lists the column names matching SimilarityReport.Fields
var ReportFieldNames = []string{"interface", "structure", "control_flow", "halstead", "token_edit", "overall"}

// MeanReport returns the per-field arithmetic mean. An empty input yields ZeroReport.
func MeanReport(reports []SimilarityReport) SimilarityReport {
	if len(reports) == 0 {
		return ZeroReport()
	}
	var sum SimilarityReport
	for _, r := range reports {
		sum.Interface += r.Interface
		sum.Structure += r.Structure
		sum.ControlFlow += r.ControlFlow
		sum.Halstead += r.Halstead
		sum.TokenEdit += r.TokenEdit
		sum.Overall += r.Overall
	}
	n := float64(len(reports))
	return SimilarityReport{
		Interface:   sum.Interface / n,
		Structure:   sum.Structure / n,
		ControlFlow: sum.ControlFlow / n,
		Halstead:    sum.Halstead / n,
		TokenEdit:   sum.TokenEdit / n,
		Overall:     sum.Overall / n,
	}
}

// Signature is the interface extracted from a function header.
// All fields are empty when the header did not match.
type Signature struct {
	ReturnType string `json:"return_type" yaml:"return_type"`
	Name       string `json:"name" yaml:"name"`
	Params     string `json:"params" yaml:"params"`
}

// IsEmpty reports whether extraction failed to find an interface
func (s Signature) IsEmpty() bool {
	return s.ReturnType == "" && s.Name == "" && s.Params == ""
}

// InterfaceScore is the breakdown of an interface comparison
type InterfaceScore struct {
	Name       float64 `json:"name" yaml:"name"`
	ReturnType float64 `json:"return_type" yaml:"return_type"`
	Params     float64 `json:"params" yaml:"params"`
	Total      float64 `json:"total" yaml:"total"`
}

// HalsteadMetrics holds operator/operand counts and the derived measures
type HalsteadMetrics struct {
	DistinctOperators int     `json:"distinct_operators" yaml:"distinct_operators"`
	DistinctOperands  int     `json:"distinct_operands" yaml:"distinct_operands"`
	TotalOperators    int     `json:"total_operators" yaml:"total_operators"`
	TotalOperands     int     `json:"total_operands" yaml:"total_operands"`
	Vocabulary        int     `json:"vocabulary" yaml:"vocabulary"`
	Length            int     `json:"length" yaml:"length"`
	Volume            float64 `json:"volume" yaml:"volume"`
	Difficulty        float64 `json:"difficulty" yaml:"difficulty"`
	Effort            float64 `json:"effort" yaml:"effort"`
}
