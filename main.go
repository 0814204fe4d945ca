package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"civicsense-be/config"
	"civicsense-be/controllers"
	"civicsense-be/middlewares"
	"civicsense-be/models"
	"civicsense-be/routes"
	"civicsense-be/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	config.InitLogger()
	defer config.Logger.Sync()

	db := config.ConnectDB()
	if db == nil {
		config.Logger.Fatal("Failed to connect to MongoDB")
	}
	config.Logger.Info("MongoDB connection established")

	config.ConnectRedis()
	config.Logger.Info("Redis connection established")

	if err := models.EnsureUserIndexes(config.GetCollection("users")); err != nil {
		config.Logger.Fatal("ensuring user indexes", zap.Error(err))
	}
	if err := models.EnsureIssueIndexes(config.GetCollection("issues")); err != nil {
		config.Logger.Fatal("ensuring issue indexes", zap.Error(err))
	}

	// External collaborators are constructed after the environment is loaded.
	controllers.Classifier = services.NewImageClassifier()
	controllers.Images = services.NewImageStore()
	controllers.IdentityVerifier = services.NewIdentityVerifier()

	controllers.RegisterValidators()

	if os.Getenv("GO_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.Metrics())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.StatsRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		config.Logger.Fatal("Failed to start server", zap.Error(err))
	}
}
