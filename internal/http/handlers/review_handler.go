package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-backend/internal/http/handlers/common"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// ReviewHandler обслуживает отзывы и агрегированные рейтинги.
type ReviewHandler struct {
	reviews  *service.ReviewService
	sessions *service.SessionService
}

func NewReviewHandler(reviews *service.ReviewService, sessions *service.SessionService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, sessions: sessions}
}

// CreateReview POST /orders/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	var req struct {
		Rating  int     `json:"rating" binding:"required,min=1,max=5"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "рейтинг должен быть от 1 до 5")
		return
	}

	review, err := h.sessions.ReviewCounterpart(c.Request.Context(), orderID, userID, req.Rating, req.Comment)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListUserReviews GET /users/:id/reviews
// Отзывы о пользователе вместе с его агрегированным рейтингом.
func (h *ReviewHandler) ListUserReviews(c *gin.Context) {
	targetID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный user_id")
		return
	}

	limit, offset := common.GetPagination(c)

	reviews, err := h.reviews.ListFor(c.Request.Context(), targetID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	rating, err := h.reviews.AverageFor(c.Request.Context(), targetID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"rating":  rating,
	})
}
