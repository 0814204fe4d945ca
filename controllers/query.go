package controllers

import (
	"fmt"
	"strconv"

	"civicsense-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// earthRadiusMeters converts a radius in meters to the radians Mongo's
// $centerSphere expects.
const earthRadiusMeters = 6378137.0

// IssueQuery holds the parsed listing filters.
type IssueQuery struct {
	Status     string
	Category   string
	Severity   string
	Department string
	Search     string
	Lat        float64
	Lng        float64
	Radius     float64
	HasGeo     bool
}

func parseIssueQuery(c *gin.Context) (IssueQuery, error) {
	q := IssueQuery{
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Severity:   c.Query("severity"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}

	if q.Status != "" && !models.ValidStatuses[models.IssueStatus(q.Status)] {
		return q, fmt.Errorf("invalid status %q", q.Status)
	}
	if q.Category != "" && !models.ValidCategories[models.IssueCategory(q.Category)] {
		return q, fmt.Errorf("invalid category %q", q.Category)
	}
	switch models.SeverityLevel(q.Severity) {
	case "", models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
	default:
		return q, fmt.Errorf("invalid severity %q", q.Severity)
	}

	latStr, lngStr, radiusStr := c.Query("lat"), c.Query("lng"), c.Query("radius")
	if latStr != "" || lngStr != "" || radiusStr != "" {
		lat, okLat := parseFloat(latStr)
		lng, okLng := parseFloat(lngStr)
		radius, okRadius := parseFloat(radiusStr)
		if !okLat || !okLng || !okRadius || radius <= 0 ||
			lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return q, fmt.Errorf("proximity filter requires valid lat, lng and radius")
		}
		q.Lat, q.Lng, q.Radius, q.HasGeo = lat, lng, radius, true
	}

	return q, nil
}

// Filter translates the query into a Mongo filter document.
func (q IssueQuery) Filter() bson.M {
	filter := bson.M{}

	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Severity != "" {
		filter["severity"] = q.Severity
	}
	if q.Department != "" {
		filter["assignedDepartment"] = q.Department
	}
	if q.Search != "" {
		filter["$or"] = []bson.M{
			{"description": bson.M{"$regex": q.Search, "$options": "i"}},
			{"address": bson.M{"$regex": q.Search, "$options": "i"}},
		}
	}
	if q.HasGeo {
		// $geoWithin (unlike $near) works in both Find and CountDocuments.
		filter["location"] = bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{
				bson.A{q.Lng, q.Lat},
				q.Radius / earthRadiusMeters,
			},
		}}
	}

	return filter
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}

// sortableFields whitelists the client-facing sort keys.
var sortableFields = map[string]string{
	"createdAt":     "createdAt",
	"updatedAt":     "updatedAt",
	"severityScore": "severityScore",
	"verifications": "verifications",
}

func parseSort(sortBy, sortOrder string) bson.D {
	field, ok := sortableFields[sortBy]
	if !ok {
		field = "createdAt"
	}
	order := -1
	if sortOrder == "asc" {
		order = 1
	}
	return bson.D{{Key: field, Value: order}}
}
