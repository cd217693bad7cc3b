package handler

import (
	"context"
	"net/http"
	"time"

	"credit-api/pkg/response"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store answers
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/", h.Index)
	router.GET("/health", h.Health)
}

// Index is a plain liveness banner
// @Summary      Service banner
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       / [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "credit consultation API"))
}

// Health checks that the database answers
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.PingContext(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "database unreachable"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": "OK"}))
}
