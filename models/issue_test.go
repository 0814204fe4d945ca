package models_test

import (
	"testing"

	"civicsense-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransition_AllowedPaths(t *testing.T) {
	allowed := []struct {
		from, to models.IssueStatus
	}{
		{models.Pending, models.Verified},
		{models.Pending, models.Rejected},
		{models.Pending, models.Duplicate},
		{models.Verified, models.UnderReview},
		{models.Verified, models.Rejected},
		{models.UnderReview, models.InProgress},
		{models.UnderReview, models.Rejected},
		{models.InProgress, models.Resolved},
	}
	for _, tc := range allowed {
		if !models.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_ForbiddenPaths(t *testing.T) {
	forbidden := []struct {
		from, to models.IssueStatus
	}{
		{models.Pending, models.Resolved},
		{models.Pending, models.InProgress},
		{models.Verified, models.Resolved},
		{models.Resolved, models.Pending},
		{models.Rejected, models.Verified},
		{models.Duplicate, models.Pending},
	}
	for _, tc := range forbidden {
		if models.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be forbidden", tc.from, tc.to)
		}
	}
}

func TestCanTransition_SameStatusRejected(t *testing.T) {
	for status := range models.ValidStatuses {
		if models.CanTransition(status, status) {
			t.Errorf("same-status transition %s -> %s must be rejected", status, status)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []models.IssueStatus{models.Resolved, models.Rejected, models.Duplicate}
	for _, status := range terminal {
		if !models.IsTerminal(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	open := []models.IssueStatus{models.Pending, models.Verified, models.UnderReview, models.InProgress}
	for _, status := range open {
		if models.IsTerminal(status) {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestNewGeoPoint_CoordinateOrder(t *testing.T) {
	p := models.NewGeoPoint(77.59, 12.97)
	if p.Type != "Point" {
		t.Errorf("expected GeoJSON Point, got %q", p.Type)
	}
	if p.Longitude() != 77.59 || p.Latitude() != 12.97 {
		t.Errorf("coordinates out of order: %v", p.Coordinates)
	}
}

func TestHasVerifier(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	issue := models.Issue{VerifiedBy: []primitive.ObjectID{a}}

	if !issue.HasVerifier(a) {
		t.Error("expected verifier a to be found")
	}
	if issue.HasVerifier(b) {
		t.Error("did not expect verifier b to be found")
	}
}
