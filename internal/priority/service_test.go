package priority

import (
	"context"
	"testing"
	"time"

	"studyhall-backend/internal/models"
)

// fakeDataSource serves canned courses and signals keyed by student and
// course id.
type fakeDataSource struct {
	enrolled map[int64][]models.Course
	shared   []models.Course
	signals  map[int64]map[int64]CourseSignals
	grades   map[int64]*float64
}

func (f *fakeDataSource) EnrolledCourses(_ context.Context, studentID int64) ([]models.Course, error) {
	return f.enrolled[studentID], nil
}

func (f *fakeDataSource) SharedCourses(context.Context, []int64) ([]models.Course, error) {
	return f.shared, nil
}

func (f *fakeDataSource) CourseSignals(_ context.Context, studentID, courseID int64, asOf time.Time) (CourseSignals, error) {
	sig := f.signals[studentID][courseID]
	sig.AsOf = asOf
	return sig, nil
}

func (f *fakeDataSource) AverageGrade(_ context.Context, studentID int64) (*float64, error) {
	return f.grades[studentID], nil
}

func TestRankForStudentOrdersByScore(t *testing.T) {
	math := models.Course{ID: 1, Name: "Algebra", Subject: "math"}
	history := models.Course{ID: 2, Name: "World History", Subject: "history"}

	data := &fakeDataSource{
		enrolled: map[int64][]models.Course{10: {history, math}},
		signals: map[int64]map[int64]CourseSignals{
			10: {
				// Urgent: barely started, test imminent, weak grades.
				1: {
					Enrollment:   models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.1},
					NextTestDate: datePtr(testAsOf.AddDate(0, 0, 2)),
					AverageGrade: floatPtr(55),
				},
				// Relaxed: nearly done, no test, strong grades.
				2: {
					Enrollment:   models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.9},
					AverageGrade: floatPtr(92),
				},
			},
		},
	}

	svc := NewService(data, nil)
	svc.now = func() time.Time { return testAsOf }

	ranked, err := svc.RankForStudent(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("RankForStudent() error = %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d ranked courses, want 2", len(ranked))
	}
	if ranked[0].Course.ID != 1 {
		t.Errorf("top course = %d (%q), want the urgent one (1)", ranked[0].Course.ID, ranked[0].Course.Name)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("scores not descending: %v then %v", ranked[0].Score, ranked[1].Score)
	}
	if len(ranked[0].FactorScores) != 5 {
		t.Errorf("top course has %d factor scores, want 5", len(ranked[0].FactorScores))
	}
}

func TestRankForGroupAggregatesSharedCourses(t *testing.T) {
	course := models.Course{ID: 1, Name: "Algebra", Subject: "math"}
	data := &fakeDataSource{
		shared: []models.Course{course},
		signals: map[int64]map[int64]CourseSignals{
			10: {1: {Enrollment: models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.2}}},
			11: {1: {Enrollment: models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.8}}},
		},
		grades: map[int64]*float64{10: floatPtr(50), 11: floatPtr(90)},
	}

	svc := NewService(data, nil)
	svc.now = func() time.Time { return testAsOf }

	ranked, err := svc.RankForGroup(context.Background(), []int64{10, 11}, MaxStrategy{})
	if err != nil {
		t.Fatalf("RankForGroup() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d ranked courses, want 1", len(ranked))
	}

	// Max strategy picks the neediest student's score: the one at 20%
	// progress.
	sig := CourseSignals{Enrollment: models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.2}, AsOf: testAsOf}
	want := DefaultScorer().Score(course, sig)
	if !almostEqual(ranked[0].Score, want) {
		t.Errorf("group score = %v, want %v", ranked[0].Score, want)
	}
}

func TestRankForGroupRequiresStudents(t *testing.T) {
	svc := NewService(&fakeDataSource{}, nil)
	if _, err := svc.RankForGroup(context.Background(), nil, nil); err == nil {
		t.Error("RankForGroup() with no students expected error, got nil")
	}
}

func TestNextCourse(t *testing.T) {
	math := models.Course{ID: 1, Name: "Algebra"}
	data := &fakeDataSource{
		enrolled: map[int64][]models.Course{10: {math}},
		signals: map[int64]map[int64]CourseSignals{
			10: {1: {Enrollment: models.Enrollment{State: models.EnrollmentInProgress, Progress: 0.5}}},
		},
	}

	svc := NewService(data, nil)
	svc.now = func() time.Time { return testAsOf }

	next, err := svc.NextCourse(context.Background(), []int64{10}, nil)
	if err != nil {
		t.Fatalf("NextCourse() error = %v", err)
	}
	if next == nil || next.Course.ID != 1 {
		t.Fatalf("NextCourse() = %+v, want course 1", next)
	}

	// A group with no shared courses yields no recommendation.
	empty := NewService(&fakeDataSource{}, nil)
	next, err = empty.NextCourse(context.Background(), []int64{10, 11}, nil)
	if err != nil {
		t.Fatalf("NextCourse() error = %v", err)
	}
	if next != nil {
		t.Errorf("NextCourse() = %+v, want nil", next)
	}
}
