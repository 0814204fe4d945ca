// Package rules holds the static severity and department lookup tables.
// Everything here is a pure function over immutable maps.
package rules

import (
	"strings"

	"civicsense-be/models"
)

// baseScores maps a category to its starting severity score (1-10).
var baseScores = map[models.IssueCategory]int{
	models.Pothole:       8,
	models.Garbage:       5,
	models.WaterLeak:     7,
	models.Streetlight:   4,
	models.Sewage:        7,
	models.RoadDamage:    7,
	models.TreeFall:      6,
	models.Encroachment:  4,
	models.StrayAnimals:  3,
	models.OtherCategory: 4,
}

// departments maps a category to the municipal unit responsible for it.
var departments = map[models.IssueCategory]string{
	models.Pothole:       "roads",
	models.Garbage:       "sanitation",
	models.WaterLeak:     "water",
	models.Streetlight:   "electricity",
	models.Sewage:        "water",
	models.RoadDamage:    "roads",
	models.TreeFall:      "parks",
	models.Encroachment:  "enforcement",
	models.StrayAnimals:  "animal_control",
	models.OtherCategory: "general",
}

// DepartmentInfo describes a municipal department.
type DepartmentInfo struct {
	Name                string  `json:"name"`
	DisplayName         string  `json:"displayName"`
	Contact             string  `json:"contact"`
	TargetResponseHours float64 `json:"targetResponseHours"`
}

var departmentDirectory = map[string]DepartmentInfo{
	"roads":          {Name: "roads", DisplayName: "Roads & Infrastructure", Contact: "roads@civicsense.gov", TargetResponseHours: 48},
	"sanitation":     {Name: "sanitation", DisplayName: "Sanitation & Waste", Contact: "sanitation@civicsense.gov", TargetResponseHours: 24},
	"water":          {Name: "water", DisplayName: "Water & Sewerage", Contact: "water@civicsense.gov", TargetResponseHours: 24},
	"electricity":    {Name: "electricity", DisplayName: "Street Lighting & Power", Contact: "electricity@civicsense.gov", TargetResponseHours: 36},
	"parks":          {Name: "parks", DisplayName: "Parks & Horticulture", Contact: "parks@civicsense.gov", TargetResponseHours: 72},
	"enforcement":    {Name: "enforcement", DisplayName: "Enforcement", Contact: "enforcement@civicsense.gov", TargetResponseHours: 96},
	"animal_control": {Name: "animal_control", DisplayName: "Animal Control", Contact: "animals@civicsense.gov", TargetResponseHours: 48},
	"general":        {Name: "general", DisplayName: "General Administration", Contact: "help@civicsense.gov", TargetResponseHours: 120},
}

// Keyword classes scanned in the description. Only the strongest matching
// class adjusts the base score.
var (
	criticalKeywords = []string{"danger", "accident", "emergency", "injur", "death", "collapse", "fire", "urgent", "hazard"}
	highKeywords     = []string{"large", "major", "severe", "overflow", "blocked", "broken", "leaking badly"}
	lowKeywords      = []string{"minor", "small", "slight", "cosmetic", "barely"}
)

// severityMultipliers scales a department's base response hours.
var severityMultipliers = map[models.SeverityLevel]float64{
	models.SeverityLow:      1.5,
	models.SeverityMedium:   1.0,
	models.SeverityHigh:     0.75,
	models.SeverityCritical: 0.5,
}

// BaseScore returns the starting severity score for a category. Unknown
// categories fall back to "others".
func BaseScore(category models.IssueCategory) int {
	if score, ok := baseScores[category]; ok {
		return score
	}
	return baseScores[models.OtherCategory]
}

// DepartmentFor maps a category to its department. Unknown categories fall
// back to "general".
func DepartmentFor(category models.IssueCategory) string {
	if dept, ok := departments[category]; ok {
		return dept
	}
	return departments[models.OtherCategory]
}

// DepartmentByName returns directory info for a department, falling back to
// "general" for unknown names.
func DepartmentByName(name string) DepartmentInfo {
	if info, ok := departmentDirectory[name]; ok {
		return info
	}
	return departmentDirectory["general"]
}

// AllDepartments lists every known department name.
func AllDepartments() []string {
	names := make([]string, 0, len(departmentDirectory))
	for name := range departmentDirectory {
		names = append(names, name)
	}
	return names
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// ComputeSeverity derives the numeric score and level for an issue at
// creation time. The description is scanned for keyword classes; the
// strongest matching class adjusts the category base score, and the result is
// clamped to [1,10].
func ComputeSeverity(category models.IssueCategory, description string) (int, models.SeverityLevel) {
	score := BaseScore(category)
	desc := strings.ToLower(description)

	switch {
	case containsAny(desc, criticalKeywords):
		score += 2
	case containsAny(desc, highKeywords):
		score++
	case containsAny(desc, lowKeywords):
		score -= 2
	}

	if score > 10 {
		score = 10
	}
	if score < 1 {
		score = 1
	}
	return score, LevelForScore(score)
}

// LevelForScore maps a 1-10 score onto the severity bands.
func LevelForScore(score int) models.SeverityLevel {
	switch {
	case score >= 9:
		return models.SeverityCritical
	case score >= 7:
		return models.SeverityHigh
	case score >= 4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// PredictedResolutionHours estimates time to resolution from the department's
// target response hours scaled by severity.
func PredictedResolutionHours(department string, severity models.SeverityLevel) float64 {
	info := DepartmentByName(department)
	multiplier, ok := severityMultipliers[severity]
	if !ok {
		multiplier = 1.0
	}
	return info.TargetResponseHours * multiplier
}
