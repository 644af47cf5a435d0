package handlers

import (
	"encoding/json"
	"net/http"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/priority"
)

// CourseHandler exposes the prioritization engine.
type CourseHandler struct {
	priority *priority.Service
}

func NewCourseHandler(prioritySvc *priority.Service) *CourseHandler {
	return &CourseHandler{priority: prioritySvc}
}

// Ranked returns the calling student's enrolled courses ordered by learning
// urgency, with the per-factor breakdown.
func (h *CourseHandler) Ranked(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.priority.RankForStudent(r.Context(), middleware.GetUserID(r.Context()), nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": ranked})
}

// Next returns the single course the student should study next.
func (h *CourseHandler) Next(w http.ResponseWriter, r *http.Request) {
	next, err := h.priority.NextCourse(r.Context(), []int64{middleware.GetUserID(r.Context())}, nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"course": next})
}

// GroupRanked ranks the courses shared by a set of students, aggregated
// with the requested strategy. Manager-only.
func (h *CourseHandler) GroupRanked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentIDs []int64 `json:"student_ids"`
		Strategy   string  `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.StudentIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "student_ids is required", r))
		return
	}

	strategy, err := priority.StrategyByName(req.Strategy)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	ranked, err := h.priority.RankForGroup(r.Context(), req.StudentIDs, strategy)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": ranked})
}
