package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
)

type SessionRepo struct {
	db database.Querier
}

func NewSessionRepo(db database.Querier) *SessionRepo {
	return &SessionRepo{db: db}
}

// WithTx returns a copy of the repo that runs its queries in the given
// transaction.
func (r *SessionRepo) WithTx(tx pgx.Tx) *SessionRepo {
	return &SessionRepo{db: tx}
}

const sessionColumns = `id, kind, type, status, start_time, end_time,
	teacher_agent_id, class_manager_id, planned_duration_minutes, created_at`

func scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := row.Scan(
		&s.ID, &s.Kind, &s.Type, &s.Status, &s.StartTime, &s.EndTime,
		&s.TeacherAgentID, &s.ClassManagerID, &s.PlannedDurationMinutes, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	query := `
		INSERT INTO study_sessions (kind, type, status, start_time, teacher_agent_id, class_manager_id, planned_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		s.Kind, s.Type, s.Status, s.StartTime, s.TeacherAgentID, s.ClassManagerID, s.PlannedDurationMinutes,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID loads a session. An empty kind matches either kind.
func (r *SessionRepo) GetByID(ctx context.Context, id int64, kind models.SessionKind) (*models.StudySession, error) {
	return r.get(ctx, id, kind, false)
}

// GetForUpdate loads a session with a row lock, for use inside a transaction.
func (r *SessionRepo) GetForUpdate(ctx context.Context, id int64, kind models.SessionKind) (*models.StudySession, error) {
	return r.get(ctx, id, kind, true)
}

func (r *SessionRepo) get(ctx context.Context, id int64, kind models.SessionKind, forUpdate bool) (*models.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1 AND ($2 = '' OR kind = $2)`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	s, err := scanSession(r.db.QueryRow(ctx, query, id, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetByIDAndStudent loads a session only if the student participates in it.
func (r *SessionRepo) GetByIDAndStudent(ctx context.Context, id, studentID int64, kind models.SessionKind) (*models.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE id = $1
		  AND ($3 = '' OR kind = $3)
		  AND EXISTS (
			SELECT 1 FROM session_students
			WHERE session_id = study_sessions.id AND student_id = $2
		  )`

	s, err := scanSession(r.db.QueryRow(ctx, query, id, studentID, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ActiveForStudent returns the student's non-terminal session across both
// kinds, or nil.
func (r *SessionRepo) ActiveForStudent(ctx context.Context, studentID int64) (*models.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions s
		JOIN session_students ss ON ss.session_id = s.id
		WHERE ss.student_id = $1
		  AND s.status IN ('PENDING', 'ACTIVE', 'PAUSED')
		ORDER BY s.start_time DESC
		LIMIT 1`

	s, err := scanSession(r.db.QueryRow(ctx, query, studentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, id int64, status models.SessionStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE study_sessions SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *SessionRepo) Complete(ctx context.Context, id int64, endTime time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE study_sessions SET status = 'COMPLETED', end_time = $2 WHERE id = $1`,
		id, endTime)
	return err
}

// CancelStalePending cancels PENDING sessions started before the cutoff.
// When studentID > 0, only that student's sessions are considered.
func (r *SessionRepo) CancelStalePending(ctx context.Context, cutoff time.Time, studentID int64) (int, error) {
	query := `
		UPDATE study_sessions s
		SET status = 'CANCELLED'
		WHERE s.status = 'PENDING'
		  AND s.start_time < $1
		  AND ($2 = 0 OR EXISTS (
			SELECT 1 FROM session_students ss
			WHERE ss.session_id = s.id AND ss.student_id = $2
		  ))`

	tag, err := r.db.Exec(ctx, query, cutoff, studentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepo) ListByManager(ctx context.Context, managerID int64, statuses ...models.SessionStatus) ([]*models.StudySession, error) {
	vals := make([]string, len(statuses))
	for i, st := range statuses {
		vals[i] = string(st)
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE class_manager_id = $1 AND status = ANY($2)
		ORDER BY start_time DESC`

	rows, err := r.db.Query(ctx, query, managerID, vals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

// ExpiredUnjoined returns the manager's PENDING school sessions started
// before the cutoff that have no attendant participant.
func (r *SessionRepo) ExpiredUnjoined(ctx context.Context, managerID int64, cutoff time.Time) ([]*models.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions s
		WHERE s.kind = 'school'
		  AND s.class_manager_id = $1
		  AND s.status = 'PENDING'
		  AND s.start_time < $2
		  AND NOT EXISTS (
			SELECT 1 FROM session_students ss
			WHERE ss.session_id = s.id AND ss.is_attendant
		  )`

	rows, err := r.db.Query(ctx, query, managerID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]*models.StudySession, error) {
	var sessions []*models.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ─── Pauses ───

func (r *SessionRepo) OpenPause(ctx context.Context, sessionID int64, startTime time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO session_pauses (session_id, start_time) VALUES ($1, $2)`,
		sessionID, startTime)
	return err
}

// ClosePause sets end_time on the session's open pause. Returns false when no
// pause was open.
func (r *SessionRepo) ClosePause(ctx context.Context, sessionID int64, endTime time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE session_pauses SET end_time = $2 WHERE session_id = $1 AND end_time IS NULL`,
		sessionID, endTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepo) Pauses(ctx context.Context, sessionID int64) ([]models.Pause, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, start_time, end_time FROM session_pauses WHERE session_id = $1 ORDER BY start_time`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pauses []models.Pause
	for rows.Next() {
		var p models.Pause
		if err := rows.Scan(&p.ID, &p.SessionID, &p.StartTime, &p.EndTime); err != nil {
			return nil, err
		}
		pauses = append(pauses, p)
	}
	return pauses, rows.Err()
}

// ─── Participation ───

func (r *SessionRepo) CreateParticipation(ctx context.Context, p *models.Participation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO session_students (session_id, student_id, emotional_state_before, is_attendant)
		VALUES ($1, $2, $3, $4)`,
		p.SessionID, p.StudentID, p.EmotionalStateBefore, p.IsAttendant)
	return err
}

// MarkJoined records the student's before-state and flips is_attendant.
func (r *SessionRepo) MarkJoined(ctx context.Context, sessionID, studentID int64, state models.EmotionalState) error {
	_, err := r.db.Exec(ctx, `
		UPDATE session_students
		SET emotional_state_before = $3, is_attendant = TRUE
		WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID, state)
	return err
}

// RecordFeedback stores the end-of-session after-state and feedback values.
func (r *SessionRepo) RecordFeedback(ctx context.Context, p *models.Participation) error {
	_, err := r.db.Exec(ctx, `
		UPDATE session_students
		SET emotional_state_after = $3,
			difficulty_feedback = $4,
			understanding_feedback = $5,
			textual_feedback = $6
		WHERE session_id = $1 AND student_id = $2`,
		p.SessionID, p.StudentID, p.EmotionalStateAfter,
		p.DifficultyFeedback, p.UnderstandingFeedback, p.TextualFeedback)
	return err
}

func (r *SessionRepo) Participants(ctx context.Context, sessionID int64) ([]models.Participation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, student_id, emotional_state_before, emotional_state_after,
			is_attendant, attendance_reason, difficulty_feedback, understanding_feedback, textual_feedback
		FROM session_students WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []models.Participation
	for rows.Next() {
		var p models.Participation
		err := rows.Scan(
			&p.SessionID, &p.StudentID, &p.EmotionalStateBefore, &p.EmotionalStateAfter,
			&p.IsAttendant, &p.AttendanceReason, &p.DifficultyFeedback, &p.UnderstandingFeedback, &p.TextualFeedback,
		)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ─── Assigned units ───

func (r *SessionRepo) AddUnits(ctx context.Context, sessionID int64, units []models.LearningUnit) error {
	for i, u := range units {
		_, err := r.db.Exec(ctx, `
			INSERT INTO session_units (session_id, course_id, unit_name, position)
			VALUES ($1, $2, $3, $4)`,
			sessionID, u.CourseID, u.Name, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepo) Units(ctx context.Context, sessionID int64) ([]models.SessionUnit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, course_id, unit_name, position
		FROM session_units WHERE session_id = $1 ORDER BY position`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.SessionUnit
	for rows.Next() {
		var u models.SessionUnit
		if err := rows.Scan(&u.SessionID, &u.CourseID, &u.UnitName, &u.Position); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
