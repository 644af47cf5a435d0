// Package priority ranks a student's (or a group's) courses by learning
// urgency. Independent scoring factors each map one course to a value in
// [0,1]; a weighted scorer combines them, and aggregation strategies fold
// per-student scores into group scores.
package priority

import (
	"time"

	"studyhall-backend/internal/models"
)

// CourseSignals carries everything the factors need about one student-course
// pair. Loading it is the service's job; factors stay pure.
type CourseSignals struct {
	Enrollment models.Enrollment

	// NextTestDate is the nearest upcoming test in the course, nil when
	// there is none.
	NextTestDate *time.Time

	// AverageGrade is the student's historical mean grade in the course
	// (0-100), nil when no test history exists.
	AverageGrade *float64

	// RecentFeedback is the mean difficulty+understanding self-report
	// (1-10) over recent sessions covering the course, nil when absent.
	RecentFeedback *float64

	// AsOf anchors time-based factors.
	AsOf time.Time
}

// Factor scores one course for one student. Higher means "study this
// sooner". Implementations must return values in [0,1].
type Factor interface {
	Name() string
	Score(course models.Course, sig CourseSignals) float64
}

// ProgressFactor: the less of a course is done, the more urgent it is.
type ProgressFactor struct{}

func (ProgressFactor) Name() string { return "course_progress" }

func (ProgressFactor) Score(_ models.Course, sig CourseSignals) float64 {
	return 1.0 - sig.Enrollment.Progress
}

// TestUrgencyFactor: tests due today or overdue score 1.0, decaying linearly
// through two ranges (0-7 days: 1.0 to 0.5, 7-30 days: 0.5 to 0.25), with a
// 0.1 floor beyond 30 days. No upcoming test scores 0.
type TestUrgencyFactor struct{}

func (TestUrgencyFactor) Name() string { return "test_urgency" }

func (TestUrgencyFactor) Score(_ models.Course, sig CourseSignals) float64 {
	if sig.NextTestDate == nil {
		return 0.0
	}

	days := daysBetween(sig.AsOf, *sig.NextTestDate)
	switch {
	case days <= 0:
		return 1.0
	case days <= 7:
		return 1.0 - float64(days)/14
	case days <= 30:
		return 0.5 * (1.0 - float64(days-7)/46)
	default:
		return 0.1
	}
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// TestPerformanceFactor: lower historical grades mean higher priority,
// mapped through four grade bands. Neutral 0.5 without history.
type TestPerformanceFactor struct{}

func (TestPerformanceFactor) Name() string { return "test_performance" }

func (TestPerformanceFactor) Score(_ models.Course, sig CourseSignals) float64 {
	if sig.AverageGrade == nil {
		return 0.5
	}

	grade := *sig.AverageGrade
	switch {
	case grade < 60:
		return 1.0
	case grade < 75:
		return 0.9 - (grade-60)/150
	case grade < 85:
		return 0.7 - (grade-75)/50
	case grade < 95:
		return 0.5 - (grade-85)/50
	default:
		return 0.1
	}
}

// FeedbackFactor: students reporting low difficulty+understanding scores get
// the course prioritized. Neutral 0.5 without feedback.
type FeedbackFactor struct{}

func (FeedbackFactor) Name() string { return "student_feedback" }

func (FeedbackFactor) Score(_ models.Course, sig CourseSignals) float64 {
	if sig.RecentFeedback == nil {
		return 0.5
	}

	feedback := *sig.RecentFeedback
	switch {
	case feedback <= 4:
		return 1.0
	case feedback <= 6:
		return 0.8
	case feedback <= 7:
		return 0.6
	case feedback <= 8:
		return 0.4
	case feedback <= 9:
		return 0.2
	default:
		return 0.1
	}
}

// CourseStateFactor: in-progress courses come first, untouched ones next,
// completed ones last.
type CourseStateFactor struct{}

func (CourseStateFactor) Name() string { return "course_state" }

func (CourseStateFactor) Score(_ models.Course, sig CourseSignals) float64 {
	switch sig.Enrollment.State {
	case models.EnrollmentInProgress:
		return 1.0
	case models.EnrollmentNotStarted:
		return 0.6
	case models.EnrollmentCompleted:
		return 0.2
	default:
		return 0.5
	}
}
