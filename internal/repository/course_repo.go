package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
)

type CourseRepo struct {
	db database.Querier
}

func NewCourseRepo(db database.Querier) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) WithTx(tx pgx.Tx) *CourseRepo {
	return &CourseRepo{db: tx}
}

func (r *CourseRepo) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	c := &models.Course{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, subject, grade_level, description FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Subject, &c.GradeLevel, &c.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

const unitColumns = `course_id, name, COALESCE(previous_unit, ''), COALESCE(next_unit, ''), estimated_duration_minutes`

// UnitsByCourse returns the course's units in storage order; callers needing
// sequence order run the result through assignment.OrderUnits.
func (r *CourseRepo) UnitsByCourse(ctx context.Context, courseID int64) ([]models.LearningUnit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+unitColumns+` FROM learning_units WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUnits(rows)
}

func (r *CourseRepo) UnitsByName(ctx context.Context, courseID int64, names []string) ([]models.LearningUnit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+unitColumns+` FROM learning_units WHERE course_id = $1 AND name = ANY($2)`,
		courseID, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUnits(rows)
}

func collectUnits(rows pgx.Rows) ([]models.LearningUnit, error) {
	var units []models.LearningUnit
	for rows.Next() {
		var u models.LearningUnit
		err := rows.Scan(&u.CourseID, &u.Name, &u.PreviousUnit, &u.NextUnit, &u.EstimatedDurationMinutes)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// Enrollment returns the student-course record, or nil when the student is
// not enrolled.
func (r *CourseRepo) Enrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	err := r.db.QueryRow(ctx,
		`SELECT student_id, course_id, state, progress FROM enrollments WHERE student_id = $1 AND course_id = $2`,
		studentID, courseID,
	).Scan(&e.StudentID, &e.CourseID, &e.State, &e.Progress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UnitProgress returns per-student unit progress for a course, keyed by
// student id then unit name. Units with no record are simply absent (treated
// as zero progress by callers).
func (r *CourseRepo) UnitProgress(ctx context.Context, courseID int64, studentIDs []int64) (map[int64]map[string]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT student_id, unit_name, progress
		FROM unit_progress
		WHERE course_id = $1 AND student_id = ANY($2)`,
		courseID, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make(map[int64]map[string]float64)
	for rows.Next() {
		var studentID int64
		var unitName string
		var value float64
		if err := rows.Scan(&studentID, &unitName, &value); err != nil {
			return nil, err
		}
		if progress[studentID] == nil {
			progress[studentID] = make(map[string]float64)
		}
		progress[studentID][unitName] = value
	}
	return progress, rows.Err()
}
