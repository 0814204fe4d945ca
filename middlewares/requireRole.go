package middlewares

import (
	"net/http"

	"civicsense-be/models"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose token role is not in the allowed set.
// Runs after AuthMiddleware. No detail beyond the 403 is leaked.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		role, ok := roleVal.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		for _, a := range allowed {
			if models.UserRole(role) == a {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		c.Abort()
	}
}
