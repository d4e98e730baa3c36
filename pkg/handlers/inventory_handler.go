package handlers

import (
	"context"
	"net/http"

	"gate-catering-api/pkg/models"
	"gate-catering-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves the inventory view and the products and lots
// passthroughs.
type InventoryHandler struct {
	products *services.ProductService
	lots     *services.LotService
}

func NewInventoryHandler(products *services.ProductService, lots *services.LotService) *InventoryHandler {
	return &InventoryHandler{products: products, lots: lots}
}

// ListInventory returns the flattened inventory filtered by q. When the
// products backend cannot be reached the sample inventory is returned with
// the diagnostic detail. Filtering reuses the listing loaded when the view
// opened; refresh=true loads it again.
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	listing, fetchedAt := h.products.InventorySnapshot(c.Request.Context(), wantsRefresh(c))

	total := len(listing.Items)
	items := services.FilterInventory(listing.Items, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"source":       listing.Source,
		"warning":      listing.Warning,
		"error_detail": listing.ErrorDetail,
		"request_url":  listing.RequestURL,
		"total":        total,
		"count":        len(items),
		"items":        items,
		"fetched_at":   fetchedAt,
	})
}

type recordFunc func(ctx context.Context) (models.Record, error)
type recordByIDFunc func(ctx context.Context, id string) (models.Record, error)
type writeFunc func(ctx context.Context, body map[string]interface{}) (models.Record, error)
type writeByIDFunc func(ctx context.Context, id string, body map[string]interface{}) (models.Record, error)
type deleteFunc func(ctx context.Context, id string) error

func proxyList(fn recordFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := fn(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondRecord(c, http.StatusOK, record)
	}
}

func proxyGet(fn recordByIDFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := fn(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondRecord(c, http.StatusOK, record)
	}
}

func proxyCreate(fn writeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body: " + err.Error()})
			return
		}
		record, err := fn(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		respondRecord(c, http.StatusCreated, record)
	}
}

func proxyUpdate(fn writeByIDFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body: " + err.Error()})
			return
		}
		record, err := fn(c.Request.Context(), c.Param("id"), body)
		if err != nil {
			respondError(c, err)
			return
		}
		respondRecord(c, http.StatusOK, record)
	}
}

func proxyRemove(fn deleteFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RegisterProductRoutes mounts /products on g.
func (h *InventoryHandler) RegisterProductRoutes(g *gin.RouterGroup) {
	g.GET("", proxyList(h.products.Products))
	g.POST("", proxyCreate(h.products.CreateProduct))
	g.GET("/:id", proxyGet(h.products.Product))
	g.PATCH("/:id", proxyUpdate(h.products.UpdateProduct))
	g.DELETE("/:id", proxyRemove(h.products.DeleteProduct))
}

// RegisterLotRoutes mounts /lotes on g.
func (h *InventoryHandler) RegisterLotRoutes(g *gin.RouterGroup) {
	g.GET("", proxyList(h.lots.Lots))
	g.POST("", proxyCreate(h.lots.CreateLot))
	g.GET("/:id", proxyGet(h.lots.Lot))
	g.PATCH("/:id", proxyUpdate(h.lots.UpdateLot))
	g.DELETE("/:id", proxyRemove(h.lots.DeleteLot))
	g.GET("/:id/detailed", proxyGet(h.lots.LotDetailed))
	g.GET("/:id/items", proxyGet(h.lots.LotItems))
}
