package router

import (
	"log"
	"net/http"

	config "gate-catering-api/configs"
	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/handlers"
	"gate-catering-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is the wired HTTP application.
type App struct {
	Engine     *gin.Engine
	Planning   *services.PlanningService
	Monitoring *services.MonitoringService
}

// APIKeyMiddleware checks X-API-KEY. An empty key disables the check.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			log.Printf("❌ [auth] invalid API key for %s %s", c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// New builds the services and the gin router from cfg.
func New(cfg *config.Config) *App {
	r := gin.Default()

	// One client per upstream so metrics and logs carry the service name.
	flightsClient := apiclient.NewClient("flights", cfg.UpstreamTimeout)
	productsClient := apiclient.NewClient("products", cfg.UpstreamTimeout)
	modelClient := apiclient.NewClient("model", cfg.UpstreamTimeout)
	agentClient := apiclient.NewClient("agent", cfg.UpstreamTimeout)
	edgeClient := apiclient.NewClient("aviation-edge", cfg.UpstreamTimeout)

	monitoringService := services.NewMonitoringService(cfg.Timezone)
	aviationEdgeService := services.NewAviationEdgeService(edgeClient, cfg.AviationEdgeURL, cfg.AviationEdgeAPIKey)
	flightService := services.NewFlightService(flightsClient, cfg.FlightsAPIURL, aviationEdgeService)
	productService := services.NewProductService(productsClient, cfg.ProductsAPIURL, cfg.InventoryFallbackPort)
	lotService := services.NewLotService(productsClient, cfg.ProductsAPIURL)
	planningService := services.NewPlanningService(
		services.NewPredictionService(modelClient, cfg.ModelAPIURL),
		services.NewAgentService(agentClient, cfg.AgentAPIURL),
	)
	planningService.SetIdleTTL(cfg.SessionTTL)

	flightHandler := handlers.NewFlightHandler(flightService)
	inventoryHandler := handlers.NewInventoryHandler(productService, lotService)
	planningHandler := handlers.NewPlanningHandler(planningService, flightService)
	adminHandler := handlers.NewAdminHandler(cfg)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyMiddleware(cfg.APIKey))
	v1.Use(handlers.MaintenanceGuard())
	{
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}

		flights := v1.Group("/flights")
		{
			flights.GET("", flightHandler.ListFlights)
			flights.GET("/:id", flightHandler.GetFlight)
		}

		v1.GET("/inventory", inventoryHandler.ListInventory)
		inventoryHandler.RegisterProductRoutes(v1.Group("/products"))
		inventoryHandler.RegisterLotRoutes(v1.Group("/lotes"))

		v1.GET("/agent/categories", handlers.GetCategories)

		planning := v1.Group("/planning/sessions")
		{
			planning.POST("", planningHandler.CreateSession)
			planning.GET("/:id", planningHandler.GetSession)
			planning.DELETE("/:id", planningHandler.DeleteSession)
			planning.PUT("/:id/flight", planningHandler.SelectFlight)
			planning.POST("/:id/menu", planningHandler.UploadMenu)
			planning.POST("/:id/messages", planningHandler.AddMessage)
			planning.DELETE("/:id/messages", planningHandler.ClearChat)
			planning.POST("/:id/analyze", planningHandler.Analyze)
			planning.PUT("/:id/buffer", planningHandler.SetBuffer)
			planning.POST("/:id/predict", planningHandler.Predict)
			planning.POST("/:id/rerun", planningHandler.ReRun)
			planning.GET("/:id/results", planningHandler.Results)
			planning.GET("/:id/results/:index/chart", planningHandler.Chart)
			planning.GET("/:id/comparison", planningHandler.Comparison)
			planning.GET("/:id/kpis", planningHandler.KPIs)
			planning.GET("/:id/export", planningHandler.Export)
		}
	}

	return &App{
		Engine:     r,
		Planning:   planningService,
		Monitoring: monitoringService,
	}
}
