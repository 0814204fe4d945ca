package routes

import (
	"civicsense-be/controllers"

	"github.com/gin-gonic/gin"
)

// StatsRoutes sets up the aggregation and directory routes
func StatsRoutes(r *gin.Engine) {
	stats := r.Group("/api/stats")
	{
		stats.GET("/overview", controllers.StatsOverview)
		stats.GET("/trends", controllers.StatsTrends)
	}

	r.GET("/api/departments", controllers.ListDepartments)
}
