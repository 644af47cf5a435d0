package priority

import (
	"context"
	"fmt"
	"sort"
	"time"

	"studyhall-backend/internal/models"
)

// DataSource loads the course and signal data the ranking needs. The
// repository layer implements it.
type DataSource interface {
	EnrolledCourses(ctx context.Context, studentID int64) ([]models.Course, error)
	SharedCourses(ctx context.Context, studentIDs []int64) ([]models.Course, error)
	CourseSignals(ctx context.Context, studentID, courseID int64, asOf time.Time) (CourseSignals, error)
	AverageGrade(ctx context.Context, studentID int64) (*float64, error)
}

// ScoredCourse is one ranked course with its score and per-factor breakdown.
type ScoredCourse struct {
	Course       models.Course      `json:"course"`
	Score        float64            `json:"score"`
	FactorScores map[string]float64 `json:"factor_scores"`
}

// Service ranks courses for students and student groups.
type Service struct {
	data   DataSource
	scorer *Scorer
	now    func() time.Time
}

func NewService(data DataSource, scorer *Scorer) *Service {
	if scorer == nil {
		scorer = DefaultScorer()
	}
	return &Service{data: data, scorer: scorer, now: time.Now}
}

// RankForStudent scores the given courses for one student and returns them
// sorted by descending priority. A nil course list means "all enrolled
// courses".
func (s *Service) RankForStudent(ctx context.Context, studentID int64, courses []models.Course) ([]ScoredCourse, error) {
	if courses == nil {
		var err error
		courses, err = s.data.EnrolledCourses(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("loading enrolled courses for student %d: %w", studentID, err)
		}
	}

	asOf := s.now()
	ranked := make([]ScoredCourse, 0, len(courses))
	for _, course := range courses {
		sig, err := s.data.CourseSignals(ctx, studentID, course.ID, asOf)
		if err != nil {
			return nil, fmt.Errorf("loading signals for student %d course %d: %w", studentID, course.ID, err)
		}
		score, breakdown := s.scorer.ScoreWithBreakdown(course, sig)
		ranked = append(ranked, ScoredCourse{Course: course, Score: score, FactorScores: breakdown})
	}

	sortRanked(ranked)
	return ranked, nil
}

// RankForGroup scores the courses shared by every student in the group,
// folding per-student scores with the given strategy (DefaultStrategy when
// nil). Courses not shared by all students are excluded.
func (s *Service) RankForGroup(ctx context.Context, studentIDs []int64, strategy Strategy) ([]ScoredCourse, error) {
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("group ranking requires at least one student")
	}
	if strategy == nil {
		strategy = DefaultStrategy()
	}

	courses, err := s.data.SharedCourses(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("loading shared courses: %w", err)
	}

	grades := make(map[int64]*float64, len(studentIDs))
	for _, id := range studentIDs {
		grade, err := s.data.AverageGrade(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading average grade for student %d: %w", id, err)
		}
		grades[id] = grade
	}

	asOf := s.now()
	ranked := make([]ScoredCourse, 0, len(courses))
	for _, course := range courses {
		scores := make([]StudentScore, 0, len(studentIDs))
		for _, id := range studentIDs {
			sig, err := s.data.CourseSignals(ctx, id, course.ID, asOf)
			if err != nil {
				return nil, fmt.Errorf("loading signals for student %d course %d: %w", id, course.ID, err)
			}
			scores = append(scores, StudentScore{
				StudentID:    id,
				Score:        s.scorer.Score(course, sig),
				AverageGrade: grades[id],
			})
		}
		ranked = append(ranked, ScoredCourse{Course: course, Score: strategy.Aggregate(scores)})
	}

	sortRanked(ranked)
	return ranked, nil
}

// NextCourse returns the top-priority course for the group (a single student
// is a group of one), or nil when no common course exists.
func (s *Service) NextCourse(ctx context.Context, studentIDs []int64, strategy Strategy) (*ScoredCourse, error) {
	var (
		ranked []ScoredCourse
		err    error
	)
	if len(studentIDs) == 1 {
		ranked, err = s.RankForStudent(ctx, studentIDs[0], nil)
	} else {
		ranked, err = s.RankForGroup(ctx, studentIDs, strategy)
	}
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	return &ranked[0], nil
}

// sortRanked orders by descending score, breaking ties by course name so the
// order is stable across runs.
func sortRanked(ranked []ScoredCourse) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Course.Name < ranked[j].Course.Name
	})
}
