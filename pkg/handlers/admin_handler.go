package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	config "gate-catering-api/configs"

	"github.com/gin-gonic/gin"
)

// isMaintenanceMode is shared by every handler in the process.
var isMaintenanceMode atomic.Bool

// AdminHandler toggles maintenance mode.
type AdminHandler struct {
	AdminUsername string
	AdminPassword string
}

func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}
}

// AdminCredentials is the body of the maintenance endpoints.
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return false
	}

	// an unset password never authorizes
	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.AdminUsername)) == 1
	passOK := h.AdminPassword != "" && subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.AdminPassword)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return false
	}
	return true
}

func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	isMaintenanceMode.Store(true)
	log.Printf("🛠️ [admin] maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	isMaintenanceMode.Store(false)
	log.Printf("🛠️ [admin] maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": isMaintenanceMode.Load()})
}

// HealthCheck answers load balancer probes.
func HealthCheck(c *gin.Context) {
	if isMaintenanceMode.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MaintenanceGuard rejects planning and write requests while maintenance
// mode is on. Reads of listings and the admin endpoints stay available.
func MaintenanceGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMaintenanceMode.Load() {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/admin") {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodGet && !strings.HasPrefix(path, "/api/v1/planning") {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Server is in maintenance mode",
		})
	}
}
