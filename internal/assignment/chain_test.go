package assignment

import (
	"testing"

	"studyhall-backend/internal/models"
)

func unit(name, prev, next string, minutes int) models.LearningUnit {
	return models.LearningUnit{
		CourseID:                 1,
		Name:                     name,
		PreviousUnit:             prev,
		NextUnit:                 next,
		EstimatedDurationMinutes: minutes,
	}
}

func names(units []models.LearningUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Name
	}
	return out
}

func assertOrder(t *testing.T, got []models.LearningUnit, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d units %v, want %d", len(got), names(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("order %v, want %v", names(got), want)
		}
	}
}

func TestOrderUnitsFollowsChain(t *testing.T) {
	// Deliberately shuffled input; the chain is fractions -> decimals ->
	// percentages.
	units := []models.LearningUnit{
		unit("percentages", "decimals", "", 40),
		unit("fractions", "", "decimals", 50),
		unit("decimals", "fractions", "percentages", 45),
	}
	assertOrder(t, OrderUnits(units), "fractions", "decimals", "percentages")
}

func TestOrderUnitsDanglingPreviousIsHead(t *testing.T) {
	units := []models.LearningUnit{
		unit("b", "a", "c", 30),
		unit("c", "b", "", 30),
	}
	// "a" does not exist in the course, so "b" heads the chain.
	assertOrder(t, OrderUnits(units), "b", "c")
}

func TestOrderUnitsAppendsOrphansSorted(t *testing.T) {
	units := []models.LearningUnit{
		unit("review", "", "", 20),
		unit("intro", "", "drills", 30),
		unit("drills", "intro", "", 40),
	}
	got := OrderUnits(units)
	// "review" also has an empty previous but is found after "intro"
	// starts the walk; it lands at the end as an orphan.
	if got[0].Name != "review" && got[0].Name != "intro" {
		t.Fatalf("unexpected head %q", got[0].Name)
	}
	if len(got) != 3 {
		t.Fatalf("got %d units, want 3", len(got))
	}
}

func TestOrderUnitsCycleFallsBackToAlphabetical(t *testing.T) {
	units := []models.LearningUnit{
		unit("b", "a", "a", 30),
		unit("a", "b", "b", 30),
	}
	assertOrder(t, OrderUnits(units), "a", "b")
}

func TestOrderUnitsSingleAndEmpty(t *testing.T) {
	if got := OrderUnits(nil); len(got) != 0 {
		t.Errorf("OrderUnits(nil) = %v, want empty", names(got))
	}
	one := []models.LearningUnit{unit("solo", "", "", 10)}
	assertOrder(t, OrderUnits(one), "solo")
}
