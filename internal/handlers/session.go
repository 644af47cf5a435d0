package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/services"
)

// SessionHandler is the student-facing surface of the session lifecycle.
type SessionHandler struct {
	lifecycle *services.Lifecycle
	sessions  *repository.SessionRepo
	messages  *repository.MessageRepo
}

func NewSessionHandler(lifecycle *services.Lifecycle, sessions *repository.SessionRepo, messages *repository.MessageRepo) *SessionHandler {
	return &SessionHandler{lifecycle: lifecycle, sessions: sessions, messages: messages}
}

func sessionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// sessionKind reads the optional session_type query parameter, used to
// disambiguate when both kinds could share an id space.
func sessionKind(r *http.Request) (models.SessionKind, bool) {
	switch r.URL.Query().Get("session_type") {
	case "":
		return "", true
	case "home":
		return models.KindHome, true
	case "school":
		return models.KindSchool, true
	default:
		return "", false
	}
}

func (h *SessionHandler) CreateHome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionType    string   `json:"session_type"`
		CourseID       int64    `json:"course_id"`
		UnitNames      []string `json:"unit_names"`
		EmotionalState string   `json:"emotional_state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.lifecycle.CreateHomeSession(r.Context(), services.CreateHomeSessionInput{
		StudentID:      middleware.GetUserID(r.Context()),
		Type:           req.SessionType,
		CourseID:       req.CourseID,
		UnitNames:      req.UnitNames,
		EmotionalState: models.EmotionalState(req.EmotionalState),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Current returns the student's non-terminal session, if any. Stale PENDING
// drafts are cancelled lazily on this read path.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	if _, err := h.lifecycle.CancelStalePending(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}

	session, err := h.sessions.ActiveForStudent(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// Get returns one of the student's sessions with its pauses, assigned units
// and transcript.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}

	session, err := h.sessions.GetByIDAndStudent(r.Context(), id, middleware.GetUserID(r.Context()), "")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return
	}

	pauses, err := h.sessions.Pauses(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	units, err := h.sessions.Units(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	messages, err := h.messages.ListBySession(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"pauses":   pauses,
		"units":    units,
		"messages": messages,
	})
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}

	var req struct {
		EmotionalState string `json:"emotional_state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.lifecycle.JoinSchoolSession(r.Context(), id, middleware.GetUserID(r.Context()), models.EmotionalState(req.EmotionalState))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.lifecycle.Start)
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.lifecycle.Pause)
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.lifecycle.Resume)
}

func (h *SessionHandler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, sessionID int64, kind models.SessionKind) (*models.StudySession, error),
) {
	id, ok := sessionID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}
	kind, ok := sessionKind(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session_type", r))
		return
	}

	session, err := op(r.Context(), id, kind)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}
	kind, ok := sessionKind(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session_type", r))
		return
	}

	var req struct {
		EmotionalState string  `json:"emotional_state"`
		Difficulty     int     `json:"difficulty_feedback"`
		Understanding  int     `json:"understanding_feedback"`
		Text           *string `json:"textual_feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.lifecycle.EndSession(r.Context(), services.EndSessionInput{
		SessionID:             id,
		StudentID:             middleware.GetUserID(r.Context()),
		Kind:                  kind,
		EmotionalStateAfter:   models.EmotionalState(req.EmotionalState),
		DifficultyFeedback:    req.Difficulty,
		UnderstandingFeedback: req.Understanding,
		TextualFeedback:       req.Text,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
