package handler

import (
	"log"
	"net/http"
	"sync"

	config "gate-catering-api/configs"
	"gate-catering-api/pkg/router"

	"github.com/gin-gonic/gin"
)

var (
	app  *gin.Engine
	once sync.Once
)

// setupApp builds the router once per serverless instance. Environment
// variables come from the platform, so .env is not read here.
func setupApp() *gin.Engine {
	once.Do(func() {
		cfg := config.LoadConfig()
		app = router.New(cfg).Engine
		log.Printf("🟢 [setupApp] router ready (%s)", cfg.Environment)
	})
	return app
}

// Handler is the serverless entry point.
func Handler(w http.ResponseWriter, r *http.Request) {
	setupApp().ServeHTTP(w, r)
}
