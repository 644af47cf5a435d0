package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"studyhall-backend/internal/assignment"
	"studyhall-backend/internal/config"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/priority"
	"studyhall-backend/internal/repository"
)

// Lifecycle drives study sessions through their state machine:
// PENDING -> ACTIVE <-> PAUSED -> COMPLETED, with PENDING -> CANCELLED on
// timeout. Every multi-step mutation runs in one transaction.
type Lifecycle struct {
	pool       txBeginner
	sessions   sessionStore
	students   studentStore
	courses    courseStore
	teachers   teacherStore
	priority   *priority.Service
	assignment *assignment.Service
	notifier   Notifier
	evaluator  EvaluationTrigger

	pendingTimeout  time.Duration
	unjoinedTimeout time.Duration
	defaultMinutes  int
	now             func() time.Time
}

func NewLifecycle(
	pool *pgxpool.Pool,
	sessions *repository.SessionRepo,
	students *repository.StudentRepo,
	courses *repository.CourseRepo,
	teachers *repository.TeacherAgentRepo,
	prioritySvc *priority.Service,
	assignmentSvc *assignment.Service,
	notifier Notifier,
	evaluator EvaluationTrigger,
	cfg *config.Config,
) *Lifecycle {
	return &Lifecycle{
		pool:            pool,
		sessions:        pgSessionStore{sessions},
		students:        pgStudentStore{students},
		courses:         pgCourseStore{courses},
		teachers:        pgTeacherStore{teachers},
		priority:        prioritySvc,
		assignment:      assignmentSvc,
		notifier:        notifier,
		evaluator:       evaluator,
		pendingTimeout:  time.Duration(cfg.PendingTimeoutMinutes) * time.Minute,
		unjoinedTimeout: time.Duration(cfg.UnjoinedTimeoutMinutes) * time.Minute,
		defaultMinutes:  cfg.DefaultSessionMinutes,
		now:             time.Now,
	}
}

// transition loads the session with a row lock, verifies its status is one
// of from, runs body, flips the status to to, and commits. A failed
// transition out of PENDING force-cancels the session instead of leaving a
// stale draft behind.
func (l *Lifecycle) transition(
	ctx context.Context,
	sessionID int64,
	kind models.SessionKind,
	op string,
	to models.SessionStatus,
	body func(repo sessionStore, s *models.StudySession) error,
	from ...models.SessionStatus,
) (*models.StudySession, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("failed to %s session", op), Err: err}
	}
	defer tx.Rollback(ctx)

	repo := l.sessions.WithTx(tx)
	session, err := repo.GetForUpdate(ctx, sessionID, kind)
	if err != nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("failed to load session for %s", op), Err: err}
	}
	if session == nil {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	if !statusIn(session.Status, from) {
		return nil, &InvalidSessionStateError{SessionID: sessionID, Operation: op, Status: session.Status}
	}

	wasPending := session.Status == models.StatusPending

	runErr := func() error {
		if body != nil {
			if err := body(repo, session); err != nil {
				return err
			}
		}
		if session.Status != to {
			if err := repo.UpdateStatus(ctx, sessionID, to); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	}()

	if runErr != nil {
		tx.Rollback(ctx)
		if wasPending {
			l.forceCancel(ctx, sessionID)
		}
		if _, ok := runErr.(*StudySessionError); ok {
			return nil, runErr
		}
		return nil, &StudySessionError{Message: fmt.Sprintf("failed to %s session %d", op, sessionID), Err: runErr}
	}

	session.Status = to
	return session, nil
}

// forceCancel marks a session CANCELLED outside any transaction, best-effort.
func (l *Lifecycle) forceCancel(ctx context.Context, sessionID int64) {
	if err := l.sessions.UpdateStatus(ctx, sessionID, models.StatusCancelled); err != nil {
		log.Printf("Warning: failed to force-cancel session %d: %v", sessionID, err)
	}
}

func statusIn(status models.SessionStatus, set []models.SessionStatus) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

// ─── Creation ───

type CreateHomeSessionInput struct {
	StudentID      int64
	Type           string // homework or test_preparation
	CourseID       int64
	UnitNames      []string
	EmotionalState models.EmotionalState
}

// CreateHomeSession creates a student-initiated session in PENDING:
// validates enrollment, units and teacher availability, then writes the
// session, its participation row and its unit links atomically. A student
// with an existing non-terminal session is rejected.
func (l *Lifecycle) CreateHomeSession(ctx context.Context, in CreateHomeSessionInput) (*models.StudySession, error) {
	if in.Type != models.TypeHomework && in.Type != models.TypeTestPreparation {
		return nil, &ValidationError{Fields: map[string]string{"session_type": "must be homework or test_preparation"}}
	}
	if len(in.UnitNames) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"unit_names": "at least one learning unit is required"}}
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to create home session", Err: err}
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent creations for the same student on their row
	// lock; the active-session check below happens under it.
	if err := l.students.WithTx(tx).Lock(ctx, in.StudentID); err != nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("failed to lock student %d", in.StudentID), Err: err}
	}

	sessions := l.sessions.WithTx(tx)
	if _, err := sessions.CancelStalePending(ctx, l.now().Add(-l.pendingTimeout), in.StudentID); err != nil {
		return nil, &StudySessionError{Message: "failed to clean up stale sessions", Err: err}
	}

	if active, err := sessions.ActiveForStudent(ctx, in.StudentID); err != nil {
		return nil, &StudySessionError{Message: "failed to check for active sessions", Err: err}
	} else if active != nil {
		return nil, &ActiveSessionExistsError{StudentID: in.StudentID, SessionID: active.ID}
	}

	courses := l.courses.WithTx(tx)
	enrollment, err := courses.Enrollment(ctx, in.StudentID, in.CourseID)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to load enrollment", Err: err}
	}
	if enrollment == nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("student %d is not enrolled in course %d", in.StudentID, in.CourseID)}
	}

	units, err := courses.UnitsByName(ctx, in.CourseID, in.UnitNames)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to load learning units", Err: err}
	}
	if len(units) != len(in.UnitNames) {
		return nil, &StudySessionError{Message: fmt.Sprintf("course %d does not contain all requested units", in.CourseID)}
	}

	course, err := courses.GetByID(ctx, in.CourseID)
	if err != nil || course == nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("course %d not found", in.CourseID), Err: err}
	}

	teacher, err := l.teachers.WithTx(tx).BySubject(ctx, course.Subject)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to look up teacher agent", Err: err}
	}
	if teacher == nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("no teacher agent available for subject %q", course.Subject)}
	}

	session := &models.StudySession{
		Kind:           models.KindHome,
		Type:           in.Type,
		Status:         models.StatusPending,
		StartTime:      l.now(),
		TeacherAgentID: &teacher.ID,
	}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, &StudySessionError{Message: "failed to create session", Err: err}
	}

	state := in.EmotionalState
	participation := &models.Participation{
		SessionID:            session.ID,
		StudentID:            in.StudentID,
		EmotionalStateBefore: &state,
		IsAttendant:          true,
	}
	if err := sessions.CreateParticipation(ctx, participation); err != nil {
		return nil, &StudySessionError{Message: "failed to create participation", Err: err}
	}

	if err := sessions.AddUnits(ctx, session.ID, units); err != nil {
		return nil, &StudySessionError{Message: "failed to link learning units", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StudySessionError{Message: "failed to create home session", Err: err}
	}
	return session, nil
}

// CreateSchoolSessions creates one independent PENDING school session per
// student in the manager's class. Each student gets their highest-priority
// course and a duration-bounded unit assignment. Students who cannot be
// given a session (active session, no course, no units, no teacher) are
// skipped with a warning; the batch fails only when nobody could be served.
func (l *Lifecycle) CreateSchoolSessions(ctx context.Context, managerID int64, durationMinutes int) ([]*models.StudySession, error) {
	if durationMinutes <= 0 {
		durationMinutes = l.defaultMinutes
	}

	students, err := l.students.ByManager(ctx, managerID)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to load class", Err: err}
	}
	if len(students) == 0 {
		return nil, &StudySessionError{Message: fmt.Sprintf("class manager %d has no students", managerID)}
	}

	var created []*models.StudySession
	for _, student := range students {
		session, err := l.createSchoolSessionFor(ctx, managerID, student.ID, durationMinutes)
		if err != nil {
			log.Printf("Warning: skipping school session for student %d: %v", student.ID, err)
			continue
		}
		created = append(created, session)
		l.notifier.NotifyStudent(ctx, student.ID, models.WSMessage{
			Type:    "school_session_created",
			Payload: session,
		})
	}

	if len(created) == 0 {
		return nil, &StudySessionError{Message: "could not create a school session for any student in the class"}
	}
	return created, nil
}

func (l *Lifecycle) createSchoolSessionFor(ctx context.Context, managerID, studentID int64, durationMinutes int) (*models.StudySession, error) {
	// Course and content selection read committed state; only the write
	// itself needs the student lock.
	next, err := l.priority.NextCourse(ctx, []int64{studentID}, nil)
	if err != nil {
		return nil, fmt.Errorf("prioritization failed: %w", err)
	}
	if next == nil {
		return nil, fmt.Errorf("no course to prioritize")
	}

	assigned, err := l.assignment.Assign(ctx, next.Course.ID, []int64{studentID}, durationMinutes)
	if err != nil {
		return nil, fmt.Errorf("unit assignment failed: %w", err)
	}
	if len(assigned.AssignedUnits) == 0 {
		return nil, fmt.Errorf("no units to assign: %s", assigned.Reason)
	}

	teacher, err := l.teachers.BySubject(ctx, next.Course.Subject)
	if err != nil {
		return nil, fmt.Errorf("teacher lookup failed: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("no teacher agent for subject %q", next.Course.Subject)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := l.students.WithTx(tx).Lock(ctx, studentID); err != nil {
		return nil, err
	}

	sessions := l.sessions.WithTx(tx)
	if _, err := sessions.CancelStalePending(ctx, l.now().Add(-l.pendingTimeout), studentID); err != nil {
		return nil, err
	}
	if active, err := sessions.ActiveForStudent(ctx, studentID); err != nil {
		return nil, err
	} else if active != nil {
		return nil, &ActiveSessionExistsError{StudentID: studentID, SessionID: active.ID}
	}

	session := &models.StudySession{
		Kind:                   models.KindSchool,
		Type:                   models.TypeIndividual,
		Status:                 models.StatusPending,
		StartTime:              l.now(),
		TeacherAgentID:         &teacher.ID,
		ClassManagerID:         &managerID,
		PlannedDurationMinutes: &durationMinutes,
	}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := sessions.CreateParticipation(ctx, &models.Participation{
		SessionID: session.ID,
		StudentID: studentID,
	}); err != nil {
		return nil, err
	}
	if err := sessions.AddUnits(ctx, session.ID, assigned.AssignedUnits); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// ─── Transitions ───

// JoinSchoolSession records a student entering their PENDING school session:
// stores the before-emotional-state and flips is_attendant. Joining is only
// allowed within the planned duration of the scheduled start.
func (l *Lifecycle) JoinSchoolSession(ctx context.Context, sessionID, studentID int64, state models.EmotionalState) (*models.StudySession, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to join session", Err: err}
	}
	defer tx.Rollback(ctx)

	sessions := l.sessions.WithTx(tx)
	session, err := sessions.GetForUpdate(ctx, sessionID, models.KindSchool)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to load session", Err: err}
	}
	if session == nil {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	if session.Status != models.StatusPending {
		return nil, &InvalidSessionStateError{SessionID: sessionID, Operation: "join", Status: session.Status}
	}

	window := time.Duration(l.defaultMinutes) * time.Minute
	if session.PlannedDurationMinutes != nil {
		window = time.Duration(*session.PlannedDurationMinutes) * time.Minute
	}
	if l.now().After(session.StartTime.Add(window)) {
		return nil, &StudySessionError{Message: fmt.Sprintf("session %d has already ended", sessionID)}
	}

	member, err := sessions.GetByIDAndStudent(ctx, sessionID, studentID, models.KindSchool)
	if err != nil {
		return nil, &StudySessionError{Message: "failed to verify participation", Err: err}
	}
	if member == nil {
		return nil, &StudySessionError{Message: fmt.Sprintf("student %d is not part of session %d", studentID, sessionID)}
	}

	if err := sessions.MarkJoined(ctx, sessionID, studentID, state); err != nil {
		return nil, &StudySessionError{Message: "failed to record join", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &StudySessionError{Message: "failed to join session", Err: err}
	}

	l.notifyManager(ctx, session, "student_joined_session", map[string]interface{}{
		"session_id": sessionID,
		"student_id": studentID,
	})
	return session, nil
}

// Start moves a PENDING session to ACTIVE when the student begins
// interacting with the tutor.
func (l *Lifecycle) Start(ctx context.Context, sessionID int64, kind models.SessionKind) (*models.StudySession, error) {
	session, err := l.transition(ctx, sessionID, kind, "start", models.StatusActive, nil, models.StatusPending)
	if err != nil {
		return nil, err
	}
	l.notifyManager(ctx, session, "student_started_session", map[string]interface{}{"session_id": sessionID})
	return session, nil
}

// Pause moves an ACTIVE session to PAUSED, opening a pause record.
func (l *Lifecycle) Pause(ctx context.Context, sessionID int64, kind models.SessionKind) (*models.StudySession, error) {
	session, err := l.transition(ctx, sessionID, kind, "pause", models.StatusPaused,
		func(repo sessionStore, s *models.StudySession) error {
			return repo.OpenPause(ctx, s.ID, l.now())
		},
		models.StatusActive)
	if err != nil {
		return nil, err
	}
	l.notifyManager(ctx, session, "session_paused", map[string]interface{}{"session_id": sessionID})
	return session, nil
}

// Resume moves a PAUSED session back to ACTIVE, closing its open pause.
func (l *Lifecycle) Resume(ctx context.Context, sessionID int64, kind models.SessionKind) (*models.StudySession, error) {
	session, err := l.transition(ctx, sessionID, kind, "resume", models.StatusActive,
		func(repo sessionStore, s *models.StudySession) error {
			closed, err := repo.ClosePause(ctx, s.ID, l.now())
			if err != nil {
				return err
			}
			if !closed {
				return fmt.Errorf("session %d has no open pause", s.ID)
			}
			return nil
		},
		models.StatusPaused)
	if err != nil {
		return nil, err
	}
	l.notifyManager(ctx, session, "session_resumed", map[string]interface{}{"session_id": sessionID})
	return session, nil
}

type EndSessionInput struct {
	SessionID             int64
	StudentID             int64
	Kind                  models.SessionKind
	EmotionalStateAfter   models.EmotionalState
	DifficultyFeedback    int // 1-10
	UnderstandingFeedback int // 1-10
	TextualFeedback       *string
}

// EndSession completes an ACTIVE or PAUSED session: closes any open pause,
// sets end_time, stores the student's feedback, and commits. Evaluation and
// the manager notification run after commit and are best-effort.
func (l *Lifecycle) EndSession(ctx context.Context, in EndSessionInput) (*models.StudySession, error) {
	fields := make(map[string]string)
	if in.DifficultyFeedback < 1 || in.DifficultyFeedback > 10 {
		fields["difficulty_feedback"] = "must be between 1 and 10"
	}
	if in.UnderstandingFeedback < 1 || in.UnderstandingFeedback > 10 {
		fields["understanding_feedback"] = "must be between 1 and 10"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	endTime := l.now()
	session, err := l.transition(ctx, in.SessionID, in.Kind, "end", models.StatusCompleted,
		func(repo sessionStore, s *models.StudySession) error {
			if s.Status == models.StatusPaused {
				if _, err := repo.ClosePause(ctx, s.ID, endTime); err != nil {
					return err
				}
			}
			if err := repo.Complete(ctx, s.ID, endTime); err != nil {
				return err
			}
			after := in.EmotionalStateAfter
			return repo.RecordFeedback(ctx, &models.Participation{
				SessionID:             s.ID,
				StudentID:             in.StudentID,
				EmotionalStateAfter:   &after,
				DifficultyFeedback:    &in.DifficultyFeedback,
				UnderstandingFeedback: &in.UnderstandingFeedback,
				TextualFeedback:       in.TextualFeedback,
			})
		},
		models.StatusActive, models.StatusPaused)
	if err != nil {
		return nil, err
	}
	session.EndTime = &endTime

	l.notifyManager(ctx, session, "session_completed", map[string]interface{}{
		"session_id": session.ID,
		"student_id": in.StudentID,
	})

	// Completion must survive a broken evaluation pipeline.
	if err := l.evaluator.TriggerEvaluation(ctx, session, []int64{in.StudentID}); err != nil {
		log.Printf("Warning: failed to trigger evaluation for session %d: %v", session.ID, err)
	}
	return session, nil
}

// ─── Lazy cleanup ───

// CancelStalePending cancels every PENDING session older than the pending
// timeout, across all students. Runs on read paths, not a scheduler.
func (l *Lifecycle) CancelStalePending(ctx context.Context) (int, error) {
	return l.sessions.CancelStalePending(ctx, l.now().Add(-l.pendingTimeout), 0)
}

// CompleteExpiredSchoolSessions force-completes the manager's PENDING school
// sessions that nobody joined within the unjoined timeout. end_time is
// back-computed as start_time + planned duration, since the slot was
// consumed even though no one showed up.
func (l *Lifecycle) CompleteExpiredSchoolSessions(ctx context.Context, managerID int64) (int, error) {
	expired, err := l.sessions.ExpiredUnjoined(ctx, managerID, l.now().Add(-l.unjoinedTimeout))
	if err != nil {
		return 0, &StudySessionError{Message: "failed to list expired sessions", Err: err}
	}

	count := 0
	for _, session := range expired {
		minutes := l.defaultMinutes
		if session.PlannedDurationMinutes != nil {
			minutes = *session.PlannedDurationMinutes
		}
		endTime := session.StartTime.Add(time.Duration(minutes) * time.Minute)
		if err := l.sessions.Complete(ctx, session.ID, endTime); err != nil {
			log.Printf("Warning: failed to auto-complete session %d: %v", session.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

func (l *Lifecycle) notifyManager(ctx context.Context, session *models.StudySession, event string, payload map[string]interface{}) {
	if session.ClassManagerID == nil {
		return
	}
	l.notifier.NotifyManager(ctx, *session.ClassManagerID, models.WSMessage{Type: event, Payload: payload})
}
