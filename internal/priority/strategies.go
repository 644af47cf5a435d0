package priority

import "fmt"

// StudentScore is one student's priority score for a course, plus the
// grade context some strategies weigh by.
type StudentScore struct {
	StudentID    int64
	Score        float64
	AverageGrade *float64
}

// Strategy folds per-student course scores into one group score.
type Strategy interface {
	Name() string
	Aggregate(scores []StudentScore) float64
}

// AverageStrategy: plain mean across the group.
type AverageStrategy struct{}

func (AverageStrategy) Name() string { return "average" }

func (AverageStrategy) Aggregate(scores []StudentScore) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	total := 0.0
	for _, s := range scores {
		total += s.Score
	}
	return total / float64(len(scores))
}

// WeightedAverageStrategy: struggling students (low historical grades) pull
// the group score harder than strong ones.
type WeightedAverageStrategy struct{}

func (WeightedAverageStrategy) Name() string { return "weighted_average" }

func (WeightedAverageStrategy) Aggregate(scores []StudentScore) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	weightedSum := 0.0
	weightTotal := 0.0
	for _, s := range scores {
		w := gradeWeight(s.AverageGrade)
		weightedSum += w * s.Score
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0.0
	}
	return weightedSum / weightTotal
}

func gradeWeight(grade *float64) float64 {
	if grade == nil {
		return 1.0
	}
	switch g := *grade; {
	case g < 60:
		return 2.0
	case g < 75:
		return 1.5
	case g < 85:
		return 1.0
	default:
		return 0.7
	}
}

// HighestNeedStrategy: driven by the single neediest student, nudged by how
// closely the rest of the group tracks that need.
type HighestNeedStrategy struct{}

func (HighestNeedStrategy) Name() string { return "highest_need" }

func (HighestNeedStrategy) Aggregate(scores []StudentScore) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	max := scores[0].Score
	total := 0.0
	for _, s := range scores {
		if s.Score > max {
			max = s.Score
		}
		total += s.Score
	}
	avg := total / float64(len(scores))

	groupFactor := 0.5
	if max > 0 {
		groupFactor = avg / max
	}
	return 0.7*max + 0.3*max*groupFactor
}

// MaxStrategy: the group score is simply the highest individual score.
type MaxStrategy struct{}

func (MaxStrategy) Name() string { return "max" }

func (MaxStrategy) Aggregate(scores []StudentScore) float64 {
	max := 0.0
	for _, s := range scores {
		if s.Score > max {
			max = s.Score
		}
	}
	return max
}

// BalancedStrategy: splits the difference between the group mean and the
// highest-need signal.
type BalancedStrategy struct{}

func (BalancedStrategy) Name() string { return "balanced" }

func (BalancedStrategy) Aggregate(scores []StudentScore) float64 {
	avg := AverageStrategy{}.Aggregate(scores)
	need := HighestNeedStrategy{}.Aggregate(scores)
	return 0.6*avg + 0.4*need
}

// DefaultStrategy is used when a caller does not name one.
func DefaultStrategy() Strategy { return BalancedStrategy{} }

// StrategyByName resolves an aggregation strategy from its wire name.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", "balanced":
		return BalancedStrategy{}, nil
	case "average":
		return AverageStrategy{}, nil
	case "weighted_average":
		return WeightedAverageStrategy{}, nil
	case "highest_need":
		return HighestNeedStrategy{}, nil
	case "max":
		return MaxStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown prioritization strategy %q", name)
	}
}
