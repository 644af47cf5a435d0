package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/repository"
)

// AuthService issues JWTs for students and class managers. Account
// provisioning happens out of band; only login lives here.
type AuthService struct {
	students *repository.StudentRepo
	managers *repository.ManagerRepo
	jwt      *middleware.JWTAuth
}

func NewAuthService(students *repository.StudentRepo, managers *repository.ManagerRepo, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{students: students, managers: managers, jwt: jwt}
}

type LoginResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Login authenticates by role: "student" checks the students table,
// "class_manager" the class_managers table.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, &ValidationError{Fields: map[string]string{"credentials": "email and password are required"}}
	}

	var (
		userID       int64
		fullName     string
		passwordHash string
	)
	switch role {
	case middleware.RoleStudent:
		student, err := s.students.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to load student: %w", err)
		}
		if student == nil {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		userID, fullName, passwordHash = student.ID, student.FullName, student.PasswordHash
	case middleware.RoleClassManager:
		manager, err := s.managers.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to load class manager: %w", err)
		}
		if manager == nil {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		userID, fullName, passwordHash = manager.ID, manager.FullName, manager.PasswordHash
	default:
		return nil, &ValidationError{Fields: map[string]string{"role": "must be student or class_manager"}}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	token, err := s.jwt.GenerateAccessToken(userID, email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{Token: token, UserID: userID, FullName: fullName, Role: role}, nil
}
