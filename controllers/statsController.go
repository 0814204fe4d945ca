package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const overviewCacheKey = "stats:overview"
const overviewCacheTTL = 60 * time.Second

func countsBy(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
	}

	issueCollection := config.GetCollection("issues")
	cursor, err := issueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// StatsOverview returns counts by status/category/severity/department, the
// resolution rate and the active citizen count. Cached in Redis for a minute.
func StatsOverview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if config.RedisClient != nil {
		if cached, err := config.RedisClient.Get(ctx, overviewCacheKey).Result(); err == nil {
			var overview map[string]interface{}
			if json.Unmarshal([]byte(cached), &overview) == nil {
				c.JSON(http.StatusOK, overview)
				return
			}
		}
	}

	byStatus, err := countsBy(ctx, "status")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}
	byCategory, err := countsBy(ctx, "category")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}
	bySeverity, err := countsBy(ctx, "severity")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}
	byDepartment, err := countsBy(ctx, "assignedDepartment")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	var total int64
	for _, count := range byStatus {
		total += count
	}
	resolved := byStatus[string(models.Resolved)]

	resolutionRate := 0.0
	if total > 0 {
		resolutionRate = float64(resolved) / float64(total)
	}

	userCollection := config.GetCollection("users")
	activeCitizens, err := userCollection.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"issuesReported": bson.M{"$gt": 0}},
		{"issuesVerified": bson.M{"$gt": 0}},
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count active citizens"})
		return
	}

	overview := gin.H{
		"totalIssues":    total,
		"byStatus":       byStatus,
		"byCategory":     byCategory,
		"bySeverity":     bySeverity,
		"byDepartment":   byDepartment,
		"resolutionRate": resolutionRate,
		"activeCitizens": activeCitizens,
	}

	if config.RedisClient != nil {
		if payload, err := json.Marshal(overview); err == nil {
			if err := config.RedisClient.Set(ctx, overviewCacheKey, payload, overviewCacheTTL).Err(); err != nil {
				config.Logger.Warn("caching stats overview", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, overview)
}

// StatsTrends returns per-day created and resolved counts over the requested
// window (default 7 days, capped at 90).
func StatsTrends(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	trend := make([]gin.H, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		created, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{"$gte": date, "$lt": nextDate},
		})
		if err != nil {
			created = 0
		}

		resolvedCount, err := issueCollection.CountDocuments(ctx, bson.M{
			"resolution.resolvedAt": bson.M{"$gte": date, "$lt": nextDate},
		})
		if err != nil {
			resolvedCount = 0
		}

		trend = append(trend, gin.H{
			"date":     date.Format("2006-01-02"),
			"created":  created,
			"resolved": resolvedCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "trend": trend})
}
