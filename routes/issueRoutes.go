package routes

import (
	"civicsense-be/controllers"
	"civicsense-be/middlewares"
	"civicsense-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issues := r.Group("/api/issues")
	{
		issues.GET("", controllers.GetAllIssues)
		issues.GET("/map", controllers.MapIssues)
		issues.GET("/heatmap", controllers.Heatmap)

		issues.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(10), controllers.CreateIssue)
		issues.GET("/mine", middlewares.AuthMiddleware(), controllers.GetMyIssues)
		issues.GET("/:id", controllers.GetIssue)
		issues.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issues.POST("/:id/verify", middlewares.AuthMiddleware(), controllers.VerifyIssue)

		staff := middlewares.RequireRole(models.RoleAuthority, models.RoleAdmin)
		issues.PATCH("/:id", middlewares.AuthMiddleware(), staff, controllers.UpdateIssue)
		issues.POST("/:id/resolve", middlewares.AuthMiddleware(), staff, controllers.ResolveIssue)
	}
}
