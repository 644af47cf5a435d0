// Package assignment selects the learning units a study session should
// cover: follow the course's unit chain to the first unit anybody in the
// session still needs, then pack consecutive units into the time budget.
package assignment

import (
	"sort"

	"studyhall-backend/internal/models"
)

// OrderUnits returns the course's units in curriculum order. Units form a
// linked chain through their previous/next names; the walk starts at the
// head (a unit whose previous pointer is empty or dangling) and follows
// next pointers. Units unreachable from the chain are appended
// alphabetically, and a course with no detectable head falls back to a
// plain alphabetical order.
func OrderUnits(units []models.LearningUnit) []models.LearningUnit {
	if len(units) <= 1 {
		return units
	}

	byName := make(map[string]models.LearningUnit, len(units))
	for _, u := range units {
		byName[u.Name] = u
	}

	var head *models.LearningUnit
	for i := range units {
		if units[i].PreviousUnit == "" {
			head = &units[i]
			break
		}
		// A previous pointer naming a unit outside the course also
		// marks a head.
		if _, ok := byName[units[i].PreviousUnit]; !ok {
			head = &units[i]
			break
		}
	}
	if head == nil {
		return sortedByName(units)
	}

	ordered := make([]models.LearningUnit, 0, len(units))
	seen := make(map[string]bool, len(units))
	for cur, ok := *head, true; ok && !seen[cur.Name]; {
		ordered = append(ordered, cur)
		seen[cur.Name] = true
		if cur.NextUnit == "" {
			break
		}
		cur, ok = byName[cur.NextUnit]
	}

	if len(ordered) < len(units) {
		var orphans []models.LearningUnit
		for _, u := range units {
			if !seen[u.Name] {
				orphans = append(orphans, u)
			}
		}
		ordered = append(ordered, sortedByName(orphans)...)
	}
	return ordered
}

func sortedByName(units []models.LearningUnit) []models.LearningUnit {
	out := make([]models.LearningUnit, len(units))
	copy(out, units)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
