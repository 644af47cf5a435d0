package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/services"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation error",
			err:        &services.ValidationError{Fields: map[string]string{"session_type": "bad"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "active session exists",
			err:        &services.ActiveSessionExistsError{StudentID: 1, SessionID: 2},
			wantStatus: http.StatusConflict,
			wantCode:   "ACTIVE_SESSION_EXISTS",
		},
		{
			name:       "session not found",
			err:        &services.SessionNotFoundError{SessionID: 9},
			wantStatus: http.StatusNotFound,
			wantCode:   "SESSION_NOT_FOUND",
		},
		{
			name:       "invalid transition",
			err:        &services.InvalidSessionStateError{SessionID: 9, Operation: "pause", Status: models.StatusPending},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_SESSION_STATE",
		},
		{
			name:       "base study session error",
			err:        &services.StudySessionError{Message: "student 3 is not enrolled in course 7"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "STUDY_SESSION_ERROR",
		},
		{
			name:       "unauthorized",
			err:        &services.UnauthorizedError{Message: "Invalid email or password"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "unexpected error",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/9/pause", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tc.wantCode)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("request_id = %q, want req-123", resp.Error.RequestID)
			}
		})
	}
}

func TestSessionKindParam(t *testing.T) {
	tests := []struct {
		query string
		want  models.SessionKind
		ok    bool
	}{
		{"", "", true},
		{"session_type=home", models.KindHome, true},
		{"session_type=school", models.KindSchool, true},
		{"session_type=classroom", "", false},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/1/start?"+tc.query, nil)
		kind, ok := sessionKind(req)
		if ok != tc.ok || kind != tc.want {
			t.Errorf("sessionKind(%q) = (%q, %v), want (%q, %v)", tc.query, kind, ok, tc.want, tc.ok)
		}
	}
}
