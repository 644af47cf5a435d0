package assignment

import (
	"context"
	"fmt"

	"studyhall-backend/internal/models"
)

// UnitSource loads a course's learning units.
type UnitSource interface {
	UnitsByCourse(ctx context.Context, courseID int64) ([]models.LearningUnit, error)
}

// ProgressSource loads per-student unit completion for a course, keyed by
// student id then unit name. Missing entries mean no progress.
type ProgressSource interface {
	UnitProgress(ctx context.Context, courseID int64, studentIDs []int64) (map[int64]map[string]float64, error)
}

// Result is the outcome of one assignment: the chosen units in study order,
// their combined estimated duration, and a human-readable justification for
// what was (or was not) assigned.
type Result struct {
	AssignedUnits []models.LearningUnit `json:"assigned_units"`
	TotalDuration int                   `json:"total_duration_minutes"`
	StudentIDs    []int64               `json:"student_ids"`
	Reason        string                `json:"reason,omitempty"`
}

// Service assigns units for home and school sessions alike.
type Service struct {
	units    UnitSource
	progress ProgressSource
}

func NewService(units UnitSource, progress ProgressSource) *Service {
	return &Service{units: units, progress: progress}
}

// Assign picks the units the given students should study in the course
// within budgetMinutes. The starting unit is the earliest one in curriculum
// order that ANY of the students has not finished, so a group never skips
// past its least-advanced member. From there consecutive units are added
// while they fit the budget; a session always covers at least the starting
// unit even when that alone exceeds the budget.
func (s *Service) Assign(ctx context.Context, courseID int64, studentIDs []int64, budgetMinutes int) (*Result, error) {
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("assignment requires at least one student")
	}
	if budgetMinutes <= 0 {
		return nil, fmt.Errorf("assignment requires a positive time budget, got %d", budgetMinutes)
	}

	units, err := s.units.UnitsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("loading units for course %d: %w", courseID, err)
	}
	result := &Result{AssignedUnits: []models.LearningUnit{}, StudentIDs: studentIDs}
	if len(units) == 0 {
		result.Reason = "course has no learning units"
		return result, nil
	}

	progress, err := s.progress.UnitProgress(ctx, courseID, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("loading unit progress for course %d: %w", courseID, err)
	}

	ordered := OrderUnits(units)
	start := firstIncompleteIndex(ordered, studentIDs, progress)
	if start < 0 {
		result.Reason = "all learning units completed"
		return result, nil
	}

	result.AssignedUnits, result.TotalDuration = packWithinBudget(ordered[start:], budgetMinutes)
	result.Reason = fmt.Sprintf("Assigned %d unit(s) starting from '%s' (%d minutes)",
		len(result.AssignedUnits), result.AssignedUnits[0].Name, result.TotalDuration)
	return result, nil
}

// firstIncompleteIndex finds the earliest unit some student has not
// finished, or -1 when every student finished everything.
func firstIncompleteIndex(ordered []models.LearningUnit, studentIDs []int64, progress map[int64]map[string]float64) int {
	for i, unit := range ordered {
		for _, id := range studentIDs {
			if progress[id][unit.Name] < 1.0 {
				return i
			}
		}
	}
	return -1
}

// packWithinBudget takes consecutive units while they fit, always taking
// the first.
func packWithinBudget(units []models.LearningUnit, budgetMinutes int) ([]models.LearningUnit, int) {
	assigned := []models.LearningUnit{units[0]}
	total := units[0].EstimatedDurationMinutes
	for _, unit := range units[1:] {
		if total+unit.EstimatedDurationMinutes > budgetMinutes {
			break
		}
		assigned = append(assigned, unit)
		total += unit.EstimatedDurationMinutes
	}
	return assigned, total
}
