package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-backend/internal/config"
	"github.com/ignatzorin/uslugi-backend/internal/http/handlers"
	"github.com/ignatzorin/uslugi-backend/internal/http/middleware"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	orderHandler *handlers.OrderHandler,
	chatHandler *handlers.ChatHandler,
	reviewHandler *handlers.ReviewHandler,
	profileHandler *handlers.ProfileHandler,
	catalogHandler *handlers.CatalogHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.GetUserProfile)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListUserReviews)
	api.GET("/catalog/categories", catalogHandler.ListCategories)
	api.GET("/catalog/services", catalogHandler.ListServices)

	// Все операции с заказами требуют принципала
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/orders", orderHandler.ListMyOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetConversation)
		protected.POST("/orders/:id/status", middleware.UUIDValidator("id"), orderHandler.UpdateStatus)
		protected.GET("/orders/:id/messages", middleware.UUIDValidator("id"), chatHandler.ListMessages)
		protected.POST("/orders/:id/messages", middleware.UUIDValidator("id"), chatHandler.SendMessage)
	}

	// Создание заказов и отзывов дополнительно ограничено по частоте
	writeLimited := api.Group("")
	writeLimited.Use(middleware.AuthMiddleware(tokenManager))
	writeLimited.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		writeLimited.POST("/orders", orderHandler.CreateOrder)
		writeLimited.POST("/orders/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.CreateReview)
	}

	return r
}
