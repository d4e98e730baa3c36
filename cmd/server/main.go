package main

import (
	"log"
	"time"

	config "gate-catering-api/configs"
	"gate-catering-api/pkg/router"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()
	app := router.New(cfg)

	go pruneSessions(app, cfg.SessionTTL)

	log.Printf("Starting gate catering API on :%s (%s)", cfg.Port, cfg.Environment)
	if err := app.Engine.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// pruneSessions drops idle planning sessions every ttl/4.
func pruneSessions(app *router.App, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if n := app.Planning.PruneIdle(ttl); n > 0 {
			log.Printf("🧹 pruned %d idle planning sessions (%d left)", n, app.Planning.Count())
		}
	}
}
