package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/config"
	"github.com/campuseats/campus-eats/middlewares"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/router"
	"github.com/campuseats/campus-eats/utils"
)

func main() {
	// Load .env before anything reads the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	app := config.Load()

	// One hub per process; orders fan out to outlet dashboards and
	// customer devices through it.
	hub := broadcast.NewHub()
	if app.MaxRoomMembers > 0 {
		hub.MaxRoomMembers = app.MaxRoomMembers
	}

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouterWithConfig(db, hub, app)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	utils.InfoLogger.Printf("Listening on port %s", app.Port)
	if err := r.Run(":" + app.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Outlet{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
