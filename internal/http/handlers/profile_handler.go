package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-backend/internal/http/handlers/common"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// ProfileHandler отдаёт публичный профиль пользователя: отображаемую
// идентичность, его прайс и агрегированный рейтинг. Само хранилище
// профилей этим сервисом не управляется.
type ProfileHandler struct {
	users   *repository.UserRepository
	catalog *repository.CatalogRepository
	reviews *service.ReviewService
}

func NewProfileHandler(users *repository.UserRepository, catalog *repository.CatalogRepository, reviews *service.ReviewService) *ProfileHandler {
	return &ProfileHandler{users: users, catalog: catalog, reviews: reviews}
}

// GetUserProfile GET /users/:id
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный user_id")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			common.RespondNotFound(c, "пользователь не найден")
			return
		}
		common.RespondAppError(c, err)
		return
	}

	services, err := h.catalog.ListServicesByUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	rating, err := h.reviews.AverageFor(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"services": services,
		"rating":   rating,
	})
}
