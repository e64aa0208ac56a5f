package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"biblekwiz-backend/config"
	"biblekwiz-backend/controllers"
	"biblekwiz-backend/database"
	"biblekwiz-backend/leaderboard"
	"biblekwiz-backend/routes"
)

func main() {
	// Load env vars from .env file
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("No .env file found, continuing with system environment variables")
		}
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database.ConnectDB()

	repo := leaderboard.NewPostgresRepository(database.DB)
	engine := leaderboard.NewEngine(repo)
	processor := leaderboard.NewProcessor(repo, engine)
	rollover := leaderboard.NewRolloverController(repo, engine)
	controllers.InitLeaderboard(repo, processor, rollover)

	scheduler, err := leaderboard.StartScheduler(cfg.RolloverCron, rollover)
	if err != nil {
		log.Fatalf("Failed to start rollover scheduler: %v", err)
	}
	defer scheduler.Stop()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Setup(app)

	log.Println("Server running on port " + cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
