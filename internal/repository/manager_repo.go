package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studyhall-backend/internal/database"
	"studyhall-backend/internal/models"
)

type ManagerRepo struct {
	db database.Querier
}

func NewManagerRepo(db database.Querier) *ManagerRepo {
	return &ManagerRepo{db: db}
}

func (r *ManagerRepo) GetByID(ctx context.Context, id int64) (*models.ClassManager, error) {
	m := &models.ClassManager{}
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, created_at FROM class_managers WHERE id = $1`,
		id).Scan(&m.ID, &m.FullName, &m.Email, &m.PasswordHash, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *ManagerRepo) GetByEmail(ctx context.Context, email string) (*models.ClassManager, error) {
	m := &models.ClassManager{}
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, created_at FROM class_managers WHERE email = $1`,
		email).Scan(&m.ID, &m.FullName, &m.Email, &m.PasswordHash, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
