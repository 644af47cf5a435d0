package services

import (
	"fmt"

	"studyhall-backend/internal/models"
)

// StudySessionError is the catch-all for lifecycle failures that do not fit
// a more specific type: creation validation (missing enrollment, unknown
// units, no teacher agent) and persistence failures wrapped during a
// transition.
type StudySessionError struct {
	Message string
	Err     error
}

func (e *StudySessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StudySessionError) Unwrap() error { return e.Err }

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// ActiveSessionExistsError: a student may hold at most one non-terminal
// session at a time.
type ActiveSessionExistsError struct {
	StudentID int64
	SessionID int64
}

func (e *ActiveSessionExistsError) Error() string {
	return fmt.Sprintf("student %d already has an active session (id %d)", e.StudentID, e.SessionID)
}

type SessionNotFoundError struct{ SessionID int64 }

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %d not found", e.SessionID)
}

// InvalidSessionStateError rejects a lifecycle operation the session's
// current status does not allow.
type InvalidSessionStateError struct {
	SessionID int64
	Operation string
	Status    models.SessionStatus
}

func (e *InvalidSessionStateError) Error() string {
	return fmt.Sprintf("cannot %s session %d in status %s", e.Operation, e.SessionID, e.Status)
}
