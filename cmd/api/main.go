package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ArthGameti/Travel-Tales/internal/database"
	"github.com/ArthGameti/Travel-Tales/internal/handlers"
	"github.com/ArthGameti/Travel-Tales/internal/media"
	"github.com/ArthGameti/Travel-Tales/internal/middleware"
	"github.com/ArthGameti/Travel-Tales/internal/monitoring"
	"github.com/ArthGameti/Travel-Tales/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	if err := utils.EnsureJWTReady(); err != nil {
		log.Fatal("Token configuration error: ", err)
	}

	database.InitDB()
	defer database.CloseDB()
	database.CreateTables()

	mediaStore := media.NewStoreFromEnv()
	handlers.SetMediaStore(mediaStore)
	handlers.SetMonitoringService(monitoring.NewService(time.Now()))

	router := gin.Default()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(monitoring.RequestMetricsMiddleware())
	router.Use(cors.New(corsConfig()))

	// Uploaded media is served straight off the uploads directory.
	router.Static("/uploads", mediaStore.BaseDir)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/api/status", handlers.Status)

	router.POST("/create-account", handlers.Register)
	router.POST("/login", handlers.Login)
	router.GET("/get-user", middleware.AuthMiddleware(), handlers.GetUser)

	router.POST("/image-upload", handlers.UploadImage)
	router.DELETE("/delete-image", handlers.DeleteImage)

	authorized := router.Group("/", middleware.AuthMiddleware())
	authorized.POST("/add-travel-story", handlers.AddTravelStory)
	authorized.GET("/get-all-stories", handlers.GetAllStories)
	authorized.PUT("/edit-story/:id", handlers.EditTravelStory)
	authorized.DELETE("/delete-story/:id", handlers.DeleteTravelStory)
	authorized.PUT("/update-is-fav/:id", handlers.UpdateIsFavorite)
	authorized.GET("/search", handlers.SearchTravelStories)
	authorized.GET("/travel-stories/search-stories", handlers.SearchTravelStories)
	authorized.GET("/travel-stories/search-all-stories", handlers.SearchAllStories)
	authorized.GET("/search-all-stories", handlers.SearchAllStories)
	authorized.GET("/travel-stories/filter", handlers.FilterStoriesByDate)
	authorized.GET("/get-all-user-all-story", handlers.GetAllUsersStories)

	monitor := router.Group("/api/monitoring")
	monitor.GET("/status", handlers.MonitorStatus)
	monitor.GET("/storage", handlers.MonitorStorage)
	monitor.GET("/connections", handlers.MonitorConnections)
	monitor.GET("/users", handlers.MonitorUsers)
	monitor.GET("/users/list", handlers.MonitorUsersList)
	monitor.GET("/runtime", handlers.MonitorRuntime)
	monitor.GET("/all", handlers.MonitorAll)
	monitor.GET("/snapshot", handlers.MonitorSnapshot)

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	log.Printf("Travel Tales API starting on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed to start: ", err)
	}
}

func corsConfig() cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}

	origin := strings.TrimSpace(os.Getenv("ALLOWED_ORIGIN"))
	if origin == "" || origin == "*" {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = strings.Split(origin, ",")
	return config
}
