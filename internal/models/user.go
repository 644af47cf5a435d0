package models

import "time"

type Student struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ClassManagerID *int64    `json:"class_manager_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClassManager struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeacherAgent is the subject-matched AI tutor identity attached to a
// session. The chat runtime that drives it lives outside this service.
type TeacherAgent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	ModelName string    `json:"model_name"`
	CreatedAt time.Time `json:"created_at"`
}
