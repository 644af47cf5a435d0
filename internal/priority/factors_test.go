package priority

import (
	"math"
	"testing"
	"time"

	"studyhall-backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func datePtr(t time.Time) *time.Time { return &t }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var testAsOf = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestProgressFactor(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		want     float64
	}{
		{"untouched course", 0.0, 1.0},
		{"halfway", 0.5, 0.5},
		{"nearly done", 0.9, 0.1},
		{"complete", 1.0, 0.0},
	}

	f := ProgressFactor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := CourseSignals{Enrollment: models.Enrollment{Progress: tt.progress}, AsOf: testAsOf}
			got := f.Score(models.Course{}, sig)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestUrgencyFactor(t *testing.T) {
	tests := []struct {
		name     string
		testDate *time.Time
		want     float64
	}{
		{"no upcoming test", nil, 0.0},
		{"test today", datePtr(testAsOf), 1.0},
		{"test in 2 days", datePtr(testAsOf.AddDate(0, 0, 2)), 1.0 - 2.0/14},
		{"test in 7 days", datePtr(testAsOf.AddDate(0, 0, 7)), 0.5},
		{"test in 8 days", datePtr(testAsOf.AddDate(0, 0, 8)), 0.5 * (1.0 - 1.0/46)},
		{"test in 30 days", datePtr(testAsOf.AddDate(0, 0, 30)), 0.5 * (1.0 - 23.0/46)},
		{"test far out", datePtr(testAsOf.AddDate(0, 2, 0)), 0.1},
	}

	f := TestUrgencyFactor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := CourseSignals{NextTestDate: tt.testDate, AsOf: testAsOf}
			got := f.Score(models.Course{}, sig)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestPerformanceFactor(t *testing.T) {
	tests := []struct {
		name  string
		grade *float64
		want  float64
	}{
		{"no grade history", nil, 0.5},
		{"failing", floatPtr(55), 1.0},
		{"low pass", floatPtr(70), 0.9 - 10.0/150},
		{"solid", floatPtr(80), 0.7 - 5.0/50},
		{"strong", floatPtr(90), 0.5 - 5.0/50},
		{"excellent", floatPtr(97), 0.1},
	}

	f := TestPerformanceFactor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := CourseSignals{AverageGrade: tt.grade, AsOf: testAsOf}
			got := f.Score(models.Course{}, sig)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeedbackFactor(t *testing.T) {
	tests := []struct {
		name     string
		feedback *float64
		want     float64
	}{
		{"no feedback", nil, 0.5},
		{"struggling hard", floatPtr(3), 1.0},
		{"struggling", floatPtr(5.5), 0.8},
		{"uneasy", floatPtr(7), 0.6},
		{"comfortable", floatPtr(8), 0.4},
		{"confident", floatPtr(9), 0.2},
		{"mastered", floatPtr(10), 0.1},
	}

	f := FeedbackFactor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := CourseSignals{RecentFeedback: tt.feedback, AsOf: testAsOf}
			got := f.Score(models.Course{}, sig)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCourseStateFactor(t *testing.T) {
	tests := []struct {
		name  string
		state models.EnrollmentState
		want  float64
	}{
		{"in progress", models.EnrollmentInProgress, 1.0},
		{"not started", models.EnrollmentNotStarted, 0.6},
		{"completed", models.EnrollmentCompleted, 0.2},
		{"unknown state", models.EnrollmentState("archived"), 0.5},
	}

	f := CourseStateFactor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := CourseSignals{Enrollment: models.Enrollment{State: tt.state}, AsOf: testAsOf}
			got := f.Score(models.Course{}, sig)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}
