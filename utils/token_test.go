package authUtils

import (
	"testing"

	"civicsense-be/models"

	"github.com/dgrijalva/jwt-go"
)

func TestGenerateAndSetToken_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := GenerateAndSetToken("abc", models.RoleCitizen); err == nil {
		t.Error("expected error when JWT_SECRET is unset")
	}
}

func TestGenerateAndSetToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tokenString, err := GenerateAndSetToken("user-123", models.RoleAuthority)
	if err != nil {
		t.Fatalf("GenerateAndSetToken failed: %v", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not parse: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"] != "user-123" {
		t.Errorf("expected user_id claim, got %v", claims["user_id"])
	}
	if claims["role"] != string(models.RoleAuthority) {
		t.Errorf("expected role claim, got %v", claims["role"])
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("expected exp claim")
	}
}
