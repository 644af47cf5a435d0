package handlers

import (
	"encoding/json"
	"net/http"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/services"
)

// ClassroomHandler is the class-manager surface: batch creation, the class
// overview, and the force-* overrides.
type ClassroomHandler struct {
	lifecycle *services.Lifecycle
	bulk      *services.Bulk
	sessions  *repository.SessionRepo
}

func NewClassroomHandler(lifecycle *services.Lifecycle, bulk *services.Bulk, sessions *repository.SessionRepo) *ClassroomHandler {
	return &ClassroomHandler{lifecycle: lifecycle, bulk: bulk, sessions: sessions}
}

func (h *ClassroomHandler) CreateSessions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationMinutes int `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessions, err := h.lifecycle.CreateSchoolSessions(r.Context(), middleware.GetUserID(r.Context()), req.DurationMinutes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// ListSessions returns the class's non-terminal sessions. Both lazy cleanup
// passes run first, so stale drafts and unclaimed sessions disappear from
// the view instead of lingering until a scheduler notices.
func (h *ClassroomHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	managerID := middleware.GetUserID(r.Context())

	if _, err := h.lifecycle.CancelStalePending(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if _, err := h.lifecycle.CompleteExpiredSchoolSessions(r.Context(), managerID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	sessions, err := h.sessions.ListByManager(r.Context(), managerID,
		models.StatusPending, models.StatusActive, models.StatusPaused)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *ClassroomHandler) ExpireSessions(w http.ResponseWriter, r *http.Request) {
	count, err := h.lifecycle.CompleteExpiredSchoolSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"completed": count})
}

func (h *ClassroomHandler) ForcePauseAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bulk.ForcePauseAll(r.Context(), middleware.GetUserID(r.Context())))
}

func (h *ClassroomHandler) ForceResumeAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bulk.ForceResumeAll(r.Context(), middleware.GetUserID(r.Context())))
}

func (h *ClassroomHandler) ForceStopAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bulk.ForceStopAll(r.Context(), middleware.GetUserID(r.Context())))
}
