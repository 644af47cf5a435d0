package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
)

type TeacherAgentRepo struct {
	db database.Querier
}

func NewTeacherAgentRepo(db database.Querier) *TeacherAgentRepo {
	return &TeacherAgentRepo{db: db}
}

func (r *TeacherAgentRepo) WithTx(tx pgx.Tx) *TeacherAgentRepo {
	return &TeacherAgentRepo{db: tx}
}

// BySubject returns a teacher agent for the subject, or nil when none is
// configured.
func (r *TeacherAgentRepo) BySubject(ctx context.Context, subject string) (*models.TeacherAgent, error) {
	t := &models.TeacherAgent{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, subject, model_name, created_at
		FROM teacher_agents WHERE subject = $1
		ORDER BY id LIMIT 1`,
		subject).Scan(&t.ID, &t.Name, &t.Subject, &t.ModelName, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeacherAgentRepo) GetByID(ctx context.Context, id int64) (*models.TeacherAgent, error) {
	t := &models.TeacherAgent{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, subject, model_name, created_at
		FROM teacher_agents WHERE id = $1`,
		id).Scan(&t.ID, &t.Name, &t.Subject, &t.ModelName, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
