package models

import "time"

// SessionMessage is one turn of the tutoring conversation, written by the
// external chat runtime and read here to build evaluation transcripts.
type SessionMessage struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Sender    string    `json:"sender"` // "student" or "teacher"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type EvaluationKind string

const (
	EvaluationProficiency EvaluationKind = "proficiency"
	EvaluationInvestment  EvaluationKind = "investment"
)

type SessionEvaluation struct {
	ID          int64          `json:"id"`
	SessionID   int64          `json:"session_id"`
	StudentID   int64          `json:"student_id"`
	Kind        EvaluationKind `json:"kind"`
	Score       int            `json:"score"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// EvaluationJob is the payload queued for the evaluation worker after a
// session completes.
type EvaluationJob struct {
	ID        string      `json:"id"`
	SessionID int64       `json:"session_id"`
	StudentID int64       `json:"student_id"`
	Kind      SessionKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}
