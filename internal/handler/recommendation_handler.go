package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/middleware"
	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type recommendationService interface {
	RecommendForStudent(ctx context.Context, studentID string) (*models.RecommendationResult, error)
}

// RecommendationHandler exposes AI intervention suggestions.
type RecommendationHandler struct {
	recommendations recommendationService
}

// NewRecommendationHandler constructs RecommendationHandler.
func NewRecommendationHandler(recommendations recommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

// ForStudent godoc
// @Summary Ranked intervention recommendations
// @Description Returns an empty list with meta.degraded=true when the AI service is unavailable.
// @Tags Recommendations
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/recommendations [get]
func (h *RecommendationHandler) ForStudent(c *gin.Context) {
	result, err := h.recommendations.RecommendForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetDegraded(c, result.Degraded)
	middleware.SetCacheHit(c, result.Cached)
	response.JSON(c, http.StatusOK, result, nil, middleware.ResponseMeta(c))
}
