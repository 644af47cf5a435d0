package models

import (
	"time"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "PENDING"
	StatusActive    SessionStatus = "ACTIVE"
	StatusPaused    SessionStatus = "PAUSED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
)

// IsTerminal reports whether the session can no longer change state.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type SessionKind string

const (
	KindHome   SessionKind = "home"
	KindSchool SessionKind = "school"
)

// Session type values. Home sessions are homework or test preparation;
// school sessions are individual, group, or social.
const (
	TypeHomework        = "homework"
	TypeTestPreparation = "test_preparation"
	TypeIndividual      = "individual"
	TypeGroup           = "group"
	TypeSocial          = "social"
)

type EmotionalState string

const (
	EmotionPositive EmotionalState = "positive"
	EmotionNeutral  EmotionalState = "neutral"
	EmotionNegative EmotionalState = "negative"
	EmotionExtreme  EmotionalState = "extreme"
)

// StudySession is the shared shape for both home and school sessions.
// School-only fields (ClassManagerID, PlannedDurationMinutes) are nil for
// home sessions.
type StudySession struct {
	ID                     int64         `json:"id"`
	Kind                   SessionKind   `json:"kind"`
	Type                   string        `json:"type"`
	Status                 SessionStatus `json:"status"`
	StartTime              time.Time     `json:"start_time"`
	EndTime                *time.Time    `json:"end_time,omitempty"`
	TeacherAgentID         *int64        `json:"teacher_agent_id,omitempty"`
	ClassManagerID         *int64        `json:"class_manager_id,omitempty"`
	PlannedDurationMinutes *int          `json:"planned_duration_minutes,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
}

// Duration is the elapsed session time: end_time minus start_time, or time
// since start for a session that has not ended yet.
func (s *StudySession) Duration() time.Duration {
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return end.Sub(s.StartTime)
}

// Pause records one pause interval. EndTime is nil while the pause is open;
// a session has an open pause iff its status is PAUSED.
type Pause struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Participation is the per-student record on a session. Home sessions create
// it with IsAttendant true; school sessions flip it true when the student
// joins.
type Participation struct {
	SessionID             int64           `json:"session_id"`
	StudentID             int64           `json:"student_id"`
	EmotionalStateBefore  *EmotionalState `json:"emotional_state_before,omitempty"`
	EmotionalStateAfter   *EmotionalState `json:"emotional_state_after,omitempty"`
	IsAttendant           bool            `json:"is_attendant"`
	AttendanceReason      *string         `json:"attendance_reason,omitempty"`
	DifficultyFeedback    *int            `json:"difficulty_feedback,omitempty"`
	UnderstandingFeedback *int            `json:"understanding_feedback,omitempty"`
	TextualFeedback       *string         `json:"textual_feedback,omitempty"`
}

// SessionUnit links a session to one assigned learning unit.
type SessionUnit struct {
	SessionID int64  `json:"session_id"`
	CourseID  int64  `json:"course_id"`
	UnitName  string `json:"unit_name"`
	Position  int    `json:"position"`
}
