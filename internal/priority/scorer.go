package priority

import (
	"fmt"

	"studyhall-backend/internal/models"
)

// WeightedFactor ties a factor to its share of the final score.
type WeightedFactor struct {
	Factor Factor
	Weight float64
}

// Scorer combines factor scores into one priority value per course.
// Weights are normalized at construction so they always sum to 1.
type Scorer struct {
	factors []WeightedFactor
}

// NewScorer builds a scorer from the given weighted factors. Weights may be
// given in any scale; they are normalized to sum to 1. An empty factor list
// or a zero (or negative) weight total is an error.
func NewScorer(factors []WeightedFactor) (*Scorer, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("scorer requires at least one factor")
	}

	total := 0.0
	for _, wf := range factors {
		total += wf.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("factor weights must sum to a positive value, got %v", total)
	}

	normalized := make([]WeightedFactor, len(factors))
	for i, wf := range factors {
		normalized[i] = WeightedFactor{Factor: wf.Factor, Weight: wf.Weight / total}
	}
	return &Scorer{factors: normalized}, nil
}

// DefaultScorer returns the standard factor mix: progress 30%, test urgency
// 25%, test performance 20%, feedback 15%, course state 10%.
func DefaultScorer() *Scorer {
	s, err := NewScorer([]WeightedFactor{
		{Factor: ProgressFactor{}, Weight: 0.30},
		{Factor: TestUrgencyFactor{}, Weight: 0.25},
		{Factor: TestPerformanceFactor{}, Weight: 0.20},
		{Factor: FeedbackFactor{}, Weight: 0.15},
		{Factor: CourseStateFactor{}, Weight: 0.10},
	})
	if err != nil {
		panic(err) // static weights, cannot fail
	}
	return s
}

// Score returns the combined priority in [0,1].
func (s *Scorer) Score(course models.Course, sig CourseSignals) float64 {
	total := 0.0
	for _, wf := range s.factors {
		total += wf.Weight * wf.Factor.Score(course, sig)
	}
	return total
}

// ScoreWithBreakdown returns the combined priority plus each factor's raw
// (unweighted) score keyed by factor name.
func (s *Scorer) ScoreWithBreakdown(course models.Course, sig CourseSignals) (float64, map[string]float64) {
	total := 0.0
	breakdown := make(map[string]float64, len(s.factors))
	for _, wf := range s.factors {
		raw := wf.Factor.Score(course, sig)
		breakdown[wf.Factor.Name()] = raw
		total += wf.Weight * raw
	}
	return total, breakdown
}
