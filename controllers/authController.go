package controllers

import (
	"context"
	"net/http"
	"os"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/services"
	authUtils "civicsense-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IdentityVerifier is set in main after the environment is loaded. Swappable
// in tests.
var IdentityVerifier services.ExternalIdentityVerifier

// RegisterUser handles user registration
func RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		config.Logger.Error("checking existing user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	user := models.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Role:      models.RoleCitizen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := user.HashPassword(); err != nil {
		config.Logger.Error("hashing password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	result, err := userCollection.InsertOne(ctx, user)
	if err != nil {
		config.Logger.Error("inserting user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        result.InsertedID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	})
}

func loginResponse(c *gin.Context, user *models.User) {
	token, err := authUtils.GenerateAndSetToken(user.ID.Hex(), user.Role)
	if err != nil {
		config.Logger.Error("generating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	// For production, don't set domain to allow cross-origin cookies
	if environment == "production" {
		domain = ""
	}

	cookie := &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		MaxAge:   3600,
		Path:     "/",
		Domain:   domain,
		Secure:   environment == "production",
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
	http.SetCookie(c.Writer, cookie)

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"department": user.Department,
		"trustScore": user.TrustScore,
		"token":      token,
		"createdAt":  user.CreatedAt,
	})
}

func touchLastLogin(ctx context.Context, userID primitive.ObjectID) {
	userCollection := config.GetCollection("users")
	now := time.Now()
	_, err := userCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"lastLoginAt": now, "updatedAt": now}})
	if err != nil {
		config.Logger.Warn("updating last login", zap.Error(err))
	}
}

// LoginUser handles user login
func LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	touchLastLogin(ctx, user.ID)
	loginResponse(c, &user)
}

// AdminLogin authenticates authority/admin accounts only.
func AdminLogin(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil || !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	touchLastLogin(ctx, user.ID)
	loginResponse(c, &user)
}

// FirebaseLogin exchanges an external-auth ID token for a session. Creates
// the user on first login.
func FirebaseLogin(c *gin.Context) {
	var input struct {
		IDToken string `json:"idToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if IdentityVerifier == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "External login not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	identity, err := IdentityVerifier.Verify(ctx, input.IDToken)
	if err != nil {
		config.Logger.Warn("firebase token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid ID token"})
		return
	}

	userCollection := config.GetCollection("users")

	var user models.User
	err = userCollection.FindOne(ctx, bson.M{"$or": []bson.M{
		{"firebaseUid": identity.UID},
		{"email": identity.Email},
	}}).Decode(&user)

	switch {
	case err == mongo.ErrNoDocuments:
		name := identity.Name
		if name == "" {
			name = identity.Email
		}
		uid := identity.UID
		user = models.User{
			Name:        name,
			Email:       identity.Email,
			FirebaseUID: &uid,
			Role:        models.RoleCitizen,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		result, insertErr := userCollection.InsertOne(ctx, user)
		if insertErr != nil {
			config.Logger.Error("inserting firebase user", zap.Error(insertErr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)
	case err != nil:
		config.Logger.Error("looking up firebase user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	default:
		// Link the external identifier on first external login for an
		// existing email account.
		if user.FirebaseUID == nil {
			_, linkErr := userCollection.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{"firebaseUid": identity.UID, "updatedAt": time.Now()}})
			if linkErr != nil {
				config.Logger.Warn("linking firebase uid", zap.Error(linkErr))
			}
		}
	}

	touchLastLogin(ctx, user.ID)
	loginResponse(c, &user)
}

// GetMe retrieves the authenticated user's information
func GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"role":           user.Role,
		"department":     user.Department,
		"issuesReported": user.IssuesReported,
		"issuesVerified": user.IssuesVerified,
		"trustScore":     user.TrustScore,
		"createdAt":      user.CreatedAt,
	})
}

// LogoutUser handles user logout by clearing the auth_token cookie
func LogoutUser(c *gin.Context) {
	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	c.SetCookie("auth_token", "", -1, "/", domain, environment == "production", true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
