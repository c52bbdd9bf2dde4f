package http

import (
	"net/http"

	"ratings-aggregator/domain/dto"
	"ratings-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	RatingUsecase usecase.IRatingUsecase
}

func NewHealthHandler(ratingUsecase usecase.IRatingUsecase) IHealthHandler {
	return &HealthHandler{RatingUsecase: ratingUsecase}
}

// Healthz always reports ok; a degraded cache only slows lookups down.
func (h *HealthHandler) Healthz(c *gin.Context) {
	cache := "degraded"
	if h.RatingUsecase.CacheReady() {
		cache = "ready"
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Cache: cache})
}
