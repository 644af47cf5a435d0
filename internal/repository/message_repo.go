package repository

import (
	"context"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
)

type MessageRepo struct {
	db database.Querier
}

func NewMessageRepo(db database.Querier) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) ListBySession(ctx context.Context, sessionID int64) ([]models.SessionMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, sender, content, created_at
		FROM session_messages WHERE session_id = $1
		ORDER BY created_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.SessionMessage
	for rows.Next() {
		var m models.SessionMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) InsertEvaluation(ctx context.Context, e *models.SessionEvaluation) error {
	query := `
		INSERT INTO session_evaluations (session_id, student_id, kind, score, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		e.SessionID, e.StudentID, e.Kind, e.Score, e.Description,
	).Scan(&e.ID, &e.CreatedAt)
}
