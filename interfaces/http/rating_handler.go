package http

import (
	"net/http"
	"strings"

	"ratings-aggregator/domain/dto"
	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/logger"
	"ratings-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

type IRatingHandler interface {
	GetRatings(c *gin.Context)
}

type RatingHandler struct {
	RatingUsecase usecase.IRatingUsecase
}

func NewRatingHandler(ratingUsecase usecase.IRatingUsecase) IRatingHandler {
	return &RatingHandler{RatingUsecase: ratingUsecase}
}

// GetRatings handles GET /api/ratings/:type/:id
func (h *RatingHandler) GetRatings(c *gin.Context) {
	mediaType, ok := model.ParseMediaType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.RatingsResponse{Success: false, Message: "unsupported type"})
		return
	}
	id := strings.TrimSuffix(c.Param("id"), ".json")

	records, found := h.RatingUsecase.GetRatings(c.Request.Context(), mediaType, id)
	if !found {
		logger.GetLogger().WithField("type", mediaType).WithField("id", id).Info("No ratings found")
		c.JSON(http.StatusNotFound, dto.RatingsResponse{Success: false, Message: "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.RatingsResponse{Success: true, Data: records})
}
