package rules_test

import (
	"testing"

	"civicsense-be/models"
	"civicsense-be/rules"
)

func TestComputeSeverity_CriticalKeywordBump(t *testing.T) {
	score, level := rules.ComputeSeverity(models.Pothole, "Large dangerous pothole causing accidents")
	if level != models.SeverityCritical {
		t.Errorf("expected critical severity, got %q", level)
	}
	if score < 9 || score > 10 {
		t.Errorf("expected score in the critical band, got %d", score)
	}
}

func TestComputeSeverity_ClampedHigh(t *testing.T) {
	// Base 8 plus the critical bump must not exceed 10.
	score, _ := rules.ComputeSeverity(models.Pothole, "emergency accident hazard danger")
	if score != 10 {
		t.Errorf("expected clamped score 10, got %d", score)
	}
}

func TestComputeSeverity_ClampedLow(t *testing.T) {
	// Base 3 minus the low-keyword adjustment must not drop below 1.
	score, level := rules.ComputeSeverity(models.StrayAnimals, "a small and barely noticeable thing")
	if score != 1 {
		t.Errorf("expected clamped score 1, got %d", score)
	}
	if level != models.SeverityLow {
		t.Errorf("expected low severity, got %q", level)
	}
}

func TestComputeSeverity_NoKeywords(t *testing.T) {
	score, level := rules.ComputeSeverity(models.Garbage, "pile of trash on the corner")
	if score != 5 {
		t.Errorf("expected base score 5, got %d", score)
	}
	if level != models.SeverityMedium {
		t.Errorf("expected medium severity, got %q", level)
	}
}

func TestLevelForScore_Bands(t *testing.T) {
	cases := map[int]models.SeverityLevel{
		1: models.SeverityLow, 3: models.SeverityLow,
		4: models.SeverityMedium, 6: models.SeverityMedium,
		7: models.SeverityHigh, 8: models.SeverityHigh,
		9: models.SeverityCritical, 10: models.SeverityCritical,
	}
	for score, want := range cases {
		if got := rules.LevelForScore(score); got != want {
			t.Errorf("LevelForScore(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestDepartmentFor_PureAndStable(t *testing.T) {
	if dept := rules.DepartmentFor(models.Pothole); dept != "roads" {
		t.Errorf("expected pothole -> roads, got %q", dept)
	}
	for i := 0; i < 5; i++ {
		if rules.DepartmentFor(models.Pothole) != "roads" {
			t.Fatal("DepartmentFor is not stable across calls")
		}
	}
}

func TestDepartmentFor_UnknownFallsBack(t *testing.T) {
	if dept := rules.DepartmentFor(models.IssueCategory("ufo_landing")); dept != "general" {
		t.Errorf("expected fallback to general, got %q", dept)
	}
	if score := rules.BaseScore(models.IssueCategory("ufo_landing")); score != 4 {
		t.Errorf("expected others base score 4, got %d", score)
	}
}

func TestDepartmentByName_Unknown(t *testing.T) {
	info := rules.DepartmentByName("nonexistent")
	if info.Name != "general" {
		t.Errorf("expected general fallback, got %q", info.Name)
	}
}

func TestPredictedResolutionHours(t *testing.T) {
	// roads targets 48h; critical halves it.
	if hours := rules.PredictedResolutionHours("roads", models.SeverityCritical); hours != 24 {
		t.Errorf("expected 24h, got %v", hours)
	}
	// low severity stretches the target.
	if hours := rules.PredictedResolutionHours("roads", models.SeverityLow); hours != 72 {
		t.Errorf("expected 72h, got %v", hours)
	}
	// unknown severity uses the neutral multiplier.
	if hours := rules.PredictedResolutionHours("roads", models.SeverityLevel("weird")); hours != 48 {
		t.Errorf("expected 48h, got %v", hours)
	}
}

func TestAllDepartmentsCoversCategoryTable(t *testing.T) {
	known := make(map[string]bool)
	for _, name := range rules.AllDepartments() {
		known[name] = true
	}
	for _, cat := range models.AllCategories {
		if dept := rules.DepartmentFor(cat); !known[dept] {
			t.Errorf("category %q maps to unlisted department %q", cat, dept)
		}
	}
}
