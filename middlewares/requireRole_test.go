package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"civicsense-be/middlewares"
	"civicsense-be/models"

	"github.com/gin-gonic/gin"
)

func roleRouter(t *testing.T, role string, allowed ...models.UserRole) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setRole := func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
	r.PATCH("/staff", setRole, middlewares.RequireRole(allowed...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireRole_AllowsStaff(t *testing.T) {
	r := roleRouter(t, "authority", models.RoleAuthority, models.RoleAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PATCH", "/staff", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for authority, got %d", rec.Code)
	}
}

func TestRequireRole_RejectsCitizen(t *testing.T) {
	r := roleRouter(t, "citizen", models.RoleAuthority, models.RoleAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PATCH", "/staff", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for citizen, got %d", rec.Code)
	}
}

func TestRequireRole_RejectsMissingRole(t *testing.T) {
	r := roleRouter(t, "", models.RoleAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PATCH", "/staff", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without a role, got %d", rec.Code)
	}
}
