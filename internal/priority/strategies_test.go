package priority

import "testing"

func TestAverageStrategy(t *testing.T) {
	s := AverageStrategy{}
	if got := s.Aggregate(nil); got != 0.0 {
		t.Errorf("Aggregate(nil) = %v, want 0", got)
	}
	scores := []StudentScore{{Score: 0.2}, {Score: 0.6}, {Score: 0.7}}
	if got := s.Aggregate(scores); !almostEqual(got, 0.5) {
		t.Errorf("Aggregate() = %v, want 0.5", got)
	}
}

func TestWeightedAverageStrategyFavorsStrugglingStudents(t *testing.T) {
	s := WeightedAverageStrategy{}

	// A failing student (weight 2.0) with a high score should pull the
	// group above the plain mean.
	scores := []StudentScore{
		{Score: 0.9, AverageGrade: floatPtr(50)},
		{Score: 0.3, AverageGrade: floatPtr(90)},
	}
	got := s.Aggregate(scores)
	want := (2.0*0.9 + 0.7*0.3) / 2.7
	if !almostEqual(got, want) {
		t.Errorf("Aggregate() = %v, want %v", got, want)
	}
	plain := AverageStrategy{}.Aggregate(scores)
	if got <= plain {
		t.Errorf("weighted %v should exceed plain mean %v", got, plain)
	}
}

func TestWeightedAverageStrategyUnknownGrades(t *testing.T) {
	s := WeightedAverageStrategy{}
	scores := []StudentScore{{Score: 0.4}, {Score: 0.8}}
	if got := s.Aggregate(scores); !almostEqual(got, 0.6) {
		t.Errorf("Aggregate() with unknown grades = %v, want plain mean 0.6", got)
	}
}

func TestHighestNeedStrategy(t *testing.T) {
	s := HighestNeedStrategy{}

	scores := []StudentScore{{Score: 0.8}, {Score: 0.4}}
	// max 0.8, avg 0.6, group factor 0.75.
	want := 0.7*0.8 + 0.3*0.8*0.75
	if got := s.Aggregate(scores); !almostEqual(got, want) {
		t.Errorf("Aggregate() = %v, want %v", got, want)
	}

	// All-zero scores must not divide by zero.
	if got := s.Aggregate([]StudentScore{{Score: 0}, {Score: 0}}); got != 0.0 {
		t.Errorf("Aggregate() with zero scores = %v, want 0", got)
	}
}

func TestMaxStrategy(t *testing.T) {
	s := MaxStrategy{}
	scores := []StudentScore{{Score: 0.3}, {Score: 0.9}, {Score: 0.5}}
	if got := s.Aggregate(scores); !almostEqual(got, 0.9) {
		t.Errorf("Aggregate() = %v, want 0.9", got)
	}
}

func TestBalancedStrategy(t *testing.T) {
	scores := []StudentScore{{Score: 0.8}, {Score: 0.4}}
	avg := AverageStrategy{}.Aggregate(scores)
	need := HighestNeedStrategy{}.Aggregate(scores)
	want := 0.6*avg + 0.4*need
	if got := (BalancedStrategy{}).Aggregate(scores); !almostEqual(got, want) {
		t.Errorf("Aggregate() = %v, want %v", got, want)
	}
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", "balanced", false},
		{"balanced", "balanced", false},
		{"average", "average", false},
		{"weighted_average", "weighted_average", false},
		{"highest_need", "highest_need", false},
		{"max", "max", false},
		{"median", "", true},
	}

	for _, tt := range tests {
		s, err := StrategyByName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("StrategyByName(%q) expected error, got nil", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("StrategyByName(%q) error = %v", tt.name, err)
			continue
		}
		if s.Name() != tt.wantName {
			t.Errorf("StrategyByName(%q).Name() = %q, want %q", tt.name, s.Name(), tt.wantName)
		}
	}
}
