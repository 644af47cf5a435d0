package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/priority"
)

// feedbackWindowDays bounds how far back session feedback counts toward the
// feedback scoring factor.
const feedbackWindowDays = 30

type StudentRepo struct {
	db database.Querier
}

func NewStudentRepo(db database.Querier) *StudentRepo {
	return &StudentRepo{db: db}
}

func (r *StudentRepo) WithTx(tx pgx.Tx) *StudentRepo {
	return &StudentRepo{db: tx}
}

const studentColumns = `id, full_name, email, password_hash, class_manager_id, created_at`

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.PasswordHash, &s.ClassManagerID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StudentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *StudentRepo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *StudentRepo) ByManager(ctx context.Context, managerID int64) ([]models.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE class_manager_id = $1 ORDER BY id`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Lock takes a row lock on the student, serializing concurrent session
// creation for the same student within the surrounding transaction.
func (r *StudentRepo) Lock(ctx context.Context, studentID int64) error {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, studentID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgx.ErrNoRows
	}
	return err
}

// ─── Prioritization data source ───

func (r *StudentRepo) EnrolledCourses(ctx context.Context, studentID int64) ([]models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.subject, c.grade_level, c.description
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY c.id`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCourses(rows)
}

// SharedCourses returns courses every listed student is enrolled in.
func (r *StudentRepo) SharedCourses(ctx context.Context, studentIDs []int64) ([]models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.subject, c.grade_level, c.description
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = ANY($1)
		GROUP BY c.id
		HAVING COUNT(DISTINCT e.student_id) = $2
		ORDER BY c.id`,
		studentIDs, len(studentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCourses(rows)
}

func collectCourses(rows pgx.Rows) ([]models.Course, error) {
	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Subject, &c.GradeLevel, &c.Description); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// AverageGrade returns the student's mean grade across all courses, or nil
// when no test history exists.
func (r *StudentRepo) AverageGrade(ctx context.Context, studentID int64) (*float64, error) {
	var avg *float64
	err := r.db.QueryRow(ctx, `
		SELECT AVG(tr.grade)
		FROM test_results tr
		WHERE tr.student_id = $1`,
		studentID).Scan(&avg)
	if err != nil {
		return nil, err
	}
	return avg, nil
}

// CourseSignals gathers the per-course inputs for the scoring factors:
// enrollment state/progress, the nearest upcoming test date, the historical
// average grade in the course, and the mean difficulty+understanding
// self-report from recent sessions covering the course.
func (r *StudentRepo) CourseSignals(ctx context.Context, studentID, courseID int64, asOf time.Time) (priority.CourseSignals, error) {
	sig := priority.CourseSignals{AsOf: asOf}

	enrollment, err := r.enrollment(ctx, studentID, courseID)
	if err != nil {
		return sig, err
	}
	if enrollment == nil {
		return sig, pgx.ErrNoRows
	}
	sig.Enrollment = *enrollment

	err = r.db.QueryRow(ctx, `
		SELECT MIN(scheduled_for)
		FROM tests
		WHERE course_id = $1 AND scheduled_for >= $2::date`,
		courseID, asOf).Scan(&sig.NextTestDate)
	if err != nil {
		return sig, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT AVG(tr.grade)
		FROM test_results tr
		JOIN tests t ON t.id = tr.test_id
		WHERE tr.student_id = $1 AND t.course_id = $2`,
		studentID, courseID).Scan(&sig.AverageGrade)
	if err != nil {
		return sig, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT AVG((ss.difficulty_feedback + ss.understanding_feedback) / 2.0)
		FROM session_students ss
		JOIN study_sessions s ON s.id = ss.session_id
		WHERE ss.student_id = $1
		  AND ss.difficulty_feedback IS NOT NULL
		  AND ss.understanding_feedback IS NOT NULL
		  AND s.start_time >= $3 - make_interval(days => $4)
		  AND EXISTS (
			SELECT 1 FROM session_units su
			WHERE su.session_id = s.id AND su.course_id = $2
		  )`,
		studentID, courseID, asOf, feedbackWindowDays).Scan(&sig.RecentFeedback)
	if err != nil {
		return sig, err
	}

	return sig, nil
}

func (r *StudentRepo) enrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
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
