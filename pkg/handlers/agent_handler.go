package handlers

import (
	"net/http"

	config "gate-catering-api/configs"

	"github.com/gin-gonic/gin"
)

// GetCategories returns the context category table used by the agent.
func GetCategories(c *gin.Context) {
	categories, err := config.LoadCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
}
