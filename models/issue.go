package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole       IssueCategory = "pothole"
	Garbage       IssueCategory = "garbage"
	WaterLeak     IssueCategory = "water_leak"
	Streetlight   IssueCategory = "streetlight"
	Sewage        IssueCategory = "sewage"
	RoadDamage    IssueCategory = "road_damage"
	TreeFall      IssueCategory = "tree_fall"
	Encroachment  IssueCategory = "encroachment"
	StrayAnimals  IssueCategory = "stray_animals"
	OtherCategory IssueCategory = "others"
)

// AllCategories lists the closed category set in a stable order.
var AllCategories = []IssueCategory{
	Pothole, Garbage, WaterLeak, Streetlight, Sewage,
	RoadDamage, TreeFall, Encroachment, StrayAnimals, OtherCategory,
}

// ValidCategories is the closed set accepted from clients and the classifier.
var ValidCategories = map[IssueCategory]bool{
	Pothole: true, Garbage: true, WaterLeak: true, Streetlight: true,
	Sewage: true, RoadDamage: true, TreeFall: true, Encroachment: true,
	StrayAnimals: true, OtherCategory: true,
}

// IssueStatus enum
type IssueStatus string

const (
	Pending     IssueStatus = "pending"
	Verified    IssueStatus = "verified"
	UnderReview IssueStatus = "under_review"
	InProgress  IssueStatus = "in_progress"
	Resolved    IssueStatus = "resolved"
	Rejected    IssueStatus = "rejected"
	Duplicate   IssueStatus = "duplicate"
)

// ValidStatuses is the closed set accepted in status filters and updates.
var ValidStatuses = map[IssueStatus]bool{
	Pending: true, Verified: true, UnderReview: true, InProgress: true,
	Resolved: true, Rejected: true, Duplicate: true,
}

// SeverityLevel enum
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// VerificationThreshold is the number of distinct verifiers that flips an
// issue to authentic.
const VerificationThreshold = 3

// statusTransitions is the allowed status state machine. Resolved, rejected
// and duplicate are terminal.
var statusTransitions = map[IssueStatus][]IssueStatus{
	Pending:     {Verified, Rejected, Duplicate},
	Verified:    {UnderReview, Rejected},
	UnderReview: {InProgress, Rejected},
	InProgress:  {Resolved},
	Resolved:    {},
	Rejected:    {},
	Duplicate:   {},
}

// CanTransition reports whether a status change is allowed. Same-status calls
// are rejected so a transition never produces a duplicate timeline entry.
func CanTransition(from, to IssueStatus) bool {
	if from == to {
		return false
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(s IssueStatus) bool {
	return len(statusTransitions[s]) == 0
}

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// TimelineEntry is one record of the append-only status audit trail.
type TimelineEntry struct {
	Status    IssueStatus        `bson:"status" json:"status"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Actor     primitive.ObjectID `bson:"actor" json:"actor"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
}

// Resolution is populated exactly once, on the transition to resolved.
type Resolution struct {
	ResolvedAt time.Time          `bson:"resolvedAt" json:"resolvedAt"`
	ResolvedBy primitive.ObjectID `bson:"resolvedBy" json:"resolvedBy"`
	ProofImage string             `bson:"proofImage,omitempty" json:"proofImage,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Issue represents a reported civic problem.
type Issue struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ReportedBy    primitive.ObjectID   `bson:"reportedBy" json:"reportedBy"`
	Description   string               `bson:"description" json:"description"`
	Category      IssueCategory        `bson:"category" json:"category"`
	AIConfidence  int                  `bson:"aiConfidence" json:"aiConfidence"`
	Location      GeoPoint             `bson:"location" json:"location"`
	Address       string               `bson:"address,omitempty" json:"address,omitempty"`
	ImageURL      string               `bson:"imageUrl" json:"imageUrl"`
	Severity      SeverityLevel        `bson:"severity" json:"severity"`
	SeverityScore int                  `bson:"severityScore" json:"severityScore"`
	Status        IssueStatus          `bson:"status" json:"status"`
	Timeline      []TimelineEntry      `bson:"timeline" json:"timeline"`
	VerifiedBy    []primitive.ObjectID `bson:"verifiedBy" json:"verifiedBy"`
	Verifications int                  `bson:"verifications" json:"verifications"`
	IsAuthentic   bool                 `bson:"isAuthentic" json:"isAuthentic"`
	Department    string               `bson:"assignedDepartment" json:"assignedDepartment"`
	AssignedTo    *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Resolution    *Resolution          `bson:"resolution,omitempty" json:"resolution,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasVerifier reports whether the user already appears in the verifier set.
func (i *Issue) HasVerifier(userID primitive.ObjectID) bool {
	for _, v := range i.VerifiedBy {
		if v == userID {
			return true
		}
	}
	return false
}
