package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func testContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParseIssueQuery_EqualityFilters(t *testing.T) {
	c := testContext(t, "/api/issues?status=pending&category=pothole&severity=high&department=roads")

	q, err := parseIssueQuery(c)
	if err != nil {
		t.Fatalf("parseIssueQuery failed: %v", err)
	}

	filter := q.Filter()
	if filter["status"] != "pending" {
		t.Errorf("expected status filter, got %v", filter["status"])
	}
	if filter["category"] != "pothole" {
		t.Errorf("expected category filter, got %v", filter["category"])
	}
	if filter["severity"] != "high" {
		t.Errorf("expected severity filter, got %v", filter["severity"])
	}
	if filter["assignedDepartment"] != "roads" {
		t.Errorf("department filter must map to assignedDepartment, got %v", filter["assignedDepartment"])
	}
}

func TestParseIssueQuery_InvalidStatus(t *testing.T) {
	c := testContext(t, "/api/issues?status=bogus")
	if _, err := parseIssueQuery(c); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestParseIssueQuery_InvalidCategory(t *testing.T) {
	c := testContext(t, "/api/issues?category=ufo")
	if _, err := parseIssueQuery(c); err == nil {
		t.Error("expected error for invalid category")
	}
}

func TestParseIssueQuery_SearchBuildsOr(t *testing.T) {
	c := testContext(t, "/api/issues?search=leak")

	q, err := parseIssueQuery(c)
	if err != nil {
		t.Fatalf("parseIssueQuery failed: %v", err)
	}

	or, ok := q.Filter()["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or over description and address, got %v", q.Filter()["$or"])
	}
}

func TestParseIssueQuery_GeoFilter(t *testing.T) {
	c := testContext(t, "/api/issues?lat=12.97&lng=77.59&radius=500")

	q, err := parseIssueQuery(c)
	if err != nil {
		t.Fatalf("parseIssueQuery failed: %v", err)
	}
	if !q.HasGeo {
		t.Fatal("expected geo filter to be parsed")
	}

	loc, ok := q.Filter()["location"].(bson.M)
	if !ok {
		t.Fatal("expected location filter")
	}
	within := loc["$geoWithin"].(bson.M)
	sphere := within["$centerSphere"].(bson.A)
	center := sphere[0].(bson.A)
	if center[0] != 77.59 || center[1] != 12.97 {
		t.Errorf("center must be [lng lat], got %v", center)
	}
	radians := sphere[1].(float64)
	if radians <= 0 || radians > 0.0001 {
		t.Errorf("500m should be a tiny radian value, got %v", radians)
	}
}

func TestParseIssueQuery_PartialGeoRejected(t *testing.T) {
	c := testContext(t, "/api/issues?lat=12.97")
	if _, err := parseIssueQuery(c); err == nil {
		t.Error("expected error when lng and radius are missing")
	}
}

func TestParseIssueQuery_OutOfRangeCoordinates(t *testing.T) {
	c := testContext(t, "/api/issues?lat=91&lng=77.59&radius=500")
	if _, err := parseIssueQuery(c); err == nil {
		t.Error("expected error for latitude out of range")
	}
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"1", "10", 1, 10},
		{"0", "10", 1, 10},
		{"-3", "0", 1, 10},
		{"2", "200", 2, 10},
		{"garbage", "garbage", 1, 10},
		{"3", "25", 3, 25},
	}
	for _, tc := range cases {
		page, limit := parsePagination(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Errorf("parsePagination(%q,%q) = (%d,%d), want (%d,%d)",
				tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if pages := totalPages(25, 10); pages != 3 {
		t.Errorf("25 items at limit 10 should be 3 pages, got %d", pages)
	}
	if pages := totalPages(0, 10); pages != 0 {
		t.Errorf("0 items should be 0 pages, got %d", pages)
	}
	if pages := totalPages(10, 10); pages != 1 {
		t.Errorf("10 items at limit 10 should be 1 page, got %d", pages)
	}
}

func TestParseSort(t *testing.T) {
	sort := parseSort("severityScore", "asc")
	if sort[0].Key != "severityScore" || sort[0].Value != 1 {
		t.Errorf("unexpected sort %v", sort)
	}

	sort = parseSort("dropTables", "desc")
	if sort[0].Key != "createdAt" || sort[0].Value != -1 {
		t.Errorf("non-whitelisted sort key must fall back to createdAt desc, got %v", sort)
	}
}
