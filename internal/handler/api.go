package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuxishi/quota-provider/internal/cache"
	"github.com/yuxishi/quota-provider/internal/model"
	"github.com/yuxishi/quota-provider/internal/provider"
)

const errInvalidCacheDataType = "Invalid cache data type"

// RegionLister lists the regions an account can use.
type RegionLister interface {
	Regions(ctx context.Context) ([]model.Region, error)
}

type Handler struct {
	provider *provider.Provider
	regions  RegionLister
	cache    *cache.Cache
}

func New(p *provider.Provider, regions RegionLister, cache *cache.Cache) *Handler {
	return &Handler{
		provider: p,
		regions:  regions,
		cache:    cache,
	}
}

// Routes registers the API on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/events", h.HandleEvent)
		api.GET("/resource-types", h.GetResourceTypes)
		api.GET("/regions", h.GetRegions)
		api.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleEvent runs one lifecycle event. Failed events are still answered
// with 200; the progress event carries the failure.
func (h *Handler) HandleEvent(c *gin.Context) {
	var req model.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.provider.Handle(c.Request.Context(), &req))
}

func (h *Handler) GetResourceTypes(c *gin.Context) {
	types := h.provider.Types()
	c.JSON(http.StatusOK, gin.H{
		"resource_types": types,
		"total":          len(types),
	})
}

func (h *Handler) GetRegions(c *gin.Context) {
	cacheKey := "regions"
	if cached, ok := h.cache.Get(cacheKey); ok {
		regions, ok := cached.([]model.Region)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInvalidCacheDataType})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"regions":    regions,
			"from_cache": true,
		})
		return
	}

	regions, err := h.regions.Regions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Set(cacheKey, regions)
	c.JSON(http.StatusOK, gin.H{
		"regions":    regions,
		"from_cache": false,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared successfully",
	})
}
