package priority

import (
	"testing"

	"studyhall-backend/internal/models"
)

type fixedFactor struct {
	name  string
	value float64
}

func (f fixedFactor) Name() string                                { return f.name }
func (f fixedFactor) Score(models.Course, CourseSignals) float64 { return f.value }

func TestNewScorerNormalizesWeights(t *testing.T) {
	s, err := NewScorer([]WeightedFactor{
		{Factor: fixedFactor{"a", 1.0}, Weight: 3},
		{Factor: fixedFactor{"b", 0.0}, Weight: 1},
	})
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}

	// Weights 3:1 normalize to 0.75:0.25, so a full score on "a" alone
	// yields 0.75.
	got := s.Score(models.Course{}, CourseSignals{})
	if !almostEqual(got, 0.75) {
		t.Errorf("Score() = %v, want 0.75", got)
	}
}

func TestNewScorerRejectsBadInput(t *testing.T) {
	if _, err := NewScorer(nil); err == nil {
		t.Error("NewScorer(nil) expected error, got nil")
	}
	if _, err := NewScorer([]WeightedFactor{{Factor: fixedFactor{"a", 1}, Weight: 0}}); err == nil {
		t.Error("NewScorer() with zero weight total expected error, got nil")
	}
}

func TestDefaultScorerRanksUrgentCourseHigher(t *testing.T) {
	s := DefaultScorer()

	// Barely started course with a test in two days and weak grades.
	urgent := CourseSignals{
		Enrollment:   models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.1},
		NextTestDate: datePtr(testAsOf.AddDate(0, 0, 2)),
		AverageGrade: floatPtr(55),
		AsOf:         testAsOf,
	}
	// Nearly finished course with no test on the horizon and strong grades.
	relaxed := CourseSignals{
		Enrollment:   models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.9},
		AverageGrade: floatPtr(92),
		AsOf:         testAsOf,
	}

	urgentScore := s.Score(models.Course{}, urgent)
	relaxedScore := s.Score(models.Course{}, relaxed)
	if urgentScore <= relaxedScore {
		t.Errorf("urgent course scored %v, relaxed %v; want urgent higher", urgentScore, relaxedScore)
	}
	if urgentScore < 0.8 {
		t.Errorf("urgent course scored %v, want >= 0.8", urgentScore)
	}
	if relaxedScore > 0.35 {
		t.Errorf("relaxed course scored %v, want <= 0.35", relaxedScore)
	}
}

func TestScoreWithBreakdownReportsRawScores(t *testing.T) {
	s := DefaultScorer()
	sig := CourseSignals{
		Enrollment:   models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.9},
		AverageGrade: floatPtr(92),
		AsOf:         testAsOf,
	}

	total, breakdown := s.ScoreWithBreakdown(models.Course{}, sig)
	if len(breakdown) != 5 {
		t.Fatalf("breakdown has %d entries, want 5", len(breakdown))
	}
	if !almostEqual(breakdown["course_progress"], 0.1) {
		t.Errorf("course_progress = %v, want 0.1", breakdown["course_progress"])
	}
	if !almostEqual(breakdown["test_urgency"], 0.0) {
		t.Errorf("test_urgency = %v, want 0.0", breakdown["test_urgency"])
	}
	if !almostEqual(breakdown["test_performance"], 0.5-7.0/50) {
		t.Errorf("test_performance = %v, want %v", breakdown["test_performance"], 0.5-7.0/50)
	}
	if total <= 0 || total > 1 {
		t.Errorf("total = %v, want in (0,1]", total)
	}
}
