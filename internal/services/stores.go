package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
)

// The lifecycle talks to storage through these narrow interfaces rather
// than the concrete repos, so the state machine can be exercised without a
// database. The pg* adapters below are what production wiring uses.

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type sessionStore interface {
	WithTx(tx pgx.Tx) sessionStore
	Create(ctx context.Context, s *models.StudySession) error
	GetForUpdate(ctx context.Context, id int64, kind models.SessionKind) (*models.StudySession, error)
	GetByIDAndStudent(ctx context.Context, id, studentID int64, kind models.SessionKind) (*models.StudySession, error)
	ActiveForStudent(ctx context.Context, studentID int64) (*models.StudySession, error)
	UpdateStatus(ctx context.Context, id int64, status models.SessionStatus) error
	Complete(ctx context.Context, id int64, endTime time.Time) error
	CancelStalePending(ctx context.Context, cutoff time.Time, studentID int64) (int, error)
	ExpiredUnjoined(ctx context.Context, managerID int64, cutoff time.Time) ([]*models.StudySession, error)
	OpenPause(ctx context.Context, sessionID int64, startTime time.Time) error
	ClosePause(ctx context.Context, sessionID int64, endTime time.Time) (bool, error)
	CreateParticipation(ctx context.Context, p *models.Participation) error
	MarkJoined(ctx context.Context, sessionID, studentID int64, state models.EmotionalState) error
	RecordFeedback(ctx context.Context, p *models.Participation) error
	AddUnits(ctx context.Context, sessionID int64, units []models.LearningUnit) error
}

type studentStore interface {
	WithTx(tx pgx.Tx) studentStore
	ByManager(ctx context.Context, managerID int64) ([]models.Student, error)
	Lock(ctx context.Context, studentID int64) error
}

type courseStore interface {
	WithTx(tx pgx.Tx) courseStore
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	UnitsByName(ctx context.Context, courseID int64, names []string) ([]models.LearningUnit, error)
	Enrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
}

type teacherStore interface {
	WithTx(tx pgx.Tx) teacherStore
	BySubject(ctx context.Context, subject string) (*models.TeacherAgent, error)
}

type pgSessionStore struct{ *repository.SessionRepo }

func (s pgSessionStore) WithTx(tx pgx.Tx) sessionStore {
	return pgSessionStore{s.SessionRepo.WithTx(tx)}
}

type pgStudentStore struct{ *repository.StudentRepo }

func (s pgStudentStore) WithTx(tx pgx.Tx) studentStore {
	return pgStudentStore{s.StudentRepo.WithTx(tx)}
}

type pgCourseStore struct{ *repository.CourseRepo }

func (s pgCourseStore) WithTx(tx pgx.Tx) courseStore {
	return pgCourseStore{s.CourseRepo.WithTx(tx)}
}

type pgTeacherStore struct{ *repository.TeacherAgentRepo }

func (s pgTeacherStore) WithTx(tx pgx.Tx) teacherStore {
	return pgTeacherStore{s.TeacherAgentRepo.WithTx(tx)}
}
