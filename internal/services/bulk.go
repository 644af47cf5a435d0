package services

import (
	"context"
	"fmt"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
)

// BulkResult summarizes one class-wide action. Bulk operations degrade to
// partial success: per-session failures are collected, never fatal.
type BulkResult struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Bulk applies lifecycle transitions across every session a class manager
// owns.
type Bulk struct {
	lifecycle *Lifecycle
	sessions  *repository.SessionRepo
	notifier  Notifier
}

func NewBulk(lifecycle *Lifecycle, sessions *repository.SessionRepo, notifier Notifier) *Bulk {
	return &Bulk{lifecycle: lifecycle, sessions: sessions, notifier: notifier}
}

// ForcePauseAll pauses every ACTIVE session in the manager's class and tells
// each affected student.
func (b *Bulk) ForcePauseAll(ctx context.Context, managerID int64) BulkResult {
	sessions, err := b.sessions.ListByManager(ctx, managerID, models.StatusActive)
	if err != nil {
		return listFailure(err)
	}

	var errs []string
	count := 0
	for _, session := range sessions {
		if _, err := b.lifecycle.Pause(ctx, session.ID, models.KindSchool); err != nil {
			errs = append(errs, fmt.Sprintf("session %d: %v", session.ID, err))
			continue
		}
		count++
		b.notifyParticipants(ctx, session.ID, "force_pause")
	}
	return summarize(count, errs, "Paused %d session(s)")
}

// ForceResumeAll resumes every PAUSED session in the manager's class.
func (b *Bulk) ForceResumeAll(ctx context.Context, managerID int64) BulkResult {
	sessions, err := b.sessions.ListByManager(ctx, managerID, models.StatusPaused)
	if err != nil {
		return listFailure(err)
	}

	var errs []string
	count := 0
	for _, session := range sessions {
		if _, err := b.lifecycle.Resume(ctx, session.ID, models.KindSchool); err != nil {
			errs = append(errs, fmt.Sprintf("session %d: %v", session.ID, err))
			continue
		}
		count++
		b.notifyParticipants(ctx, session.ID, "force_resume")
	}
	return summarize(count, errs, "Resumed %d session(s)")
}

// ForceStopAll tells every student in an ACTIVE or PAUSED session to wrap up
// and submit feedback. It does not complete the sessions; each still ends
// through the normal end transition once feedback arrives.
func (b *Bulk) ForceStopAll(ctx context.Context, managerID int64) BulkResult {
	sessions, err := b.sessions.ListByManager(ctx, managerID, models.StatusActive, models.StatusPaused)
	if err != nil {
		return listFailure(err)
	}

	count := 0
	for _, session := range sessions {
		b.notifyParticipants(ctx, session.ID, "force_stop")
		count++
	}
	return summarize(count, nil, "Asked %d session(s) to wrap up")
}

func (b *Bulk) notifyParticipants(ctx context.Context, sessionID int64, event string) {
	participants, err := b.sessions.Participants(ctx, sessionID)
	if err != nil {
		return
	}
	for _, p := range participants {
		b.notifier.NotifyStudent(ctx, p.StudentID, models.WSMessage{
			Type:    event,
			Payload: map[string]interface{}{"session_id": sessionID},
		})
	}
}

func listFailure(err error) BulkResult {
	return BulkResult{Message: "Failed to list class sessions", Errors: []string{err.Error()}}
}

func summarize(count int, errs []string, format string) BulkResult {
	return BulkResult{
		Success: len(errs) == 0,
		Count:   count,
		Message: fmt.Sprintf(format, count),
		Errors:  errs,
	}
}
