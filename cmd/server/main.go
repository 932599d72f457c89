package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/uslugi-backend/internal/config"
	"github.com/ignatzorin/uslugi-backend/internal/db"
	httpHandlers "github.com/ignatzorin/uslugi-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/uslugi-backend/internal/http/router"
	"github.com/ignatzorin/uslugi-backend/internal/logger"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
	"github.com/ignatzorin/uslugi-backend/internal/service"
	"github.com/ignatzorin/uslugi-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Проверка access токенов внешнего сервиса аутентификации.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)

	// Сервисы.
	cache := service.NewCacheService()
	orderService := service.NewOrderService(orderRepo, catalogRepo)
	chatService := service.NewChatService(messageRepo, orderRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, cache, cfg.RatingCacheTTL)
	sessionService := service.NewSessionService(orderService, chatService, reviewService, userRepo, catalogRepo)

	// Вебсокеты: канал на заказ.
	hub := ws.NewHub()
	go hub.Run()
	orderService.SetHub(hub)
	chatService.SetHub(hub)

	// HTTP хэндлеры.
	orderHandler := httpHandlers.NewOrderHandler(orderService, sessionService)
	chatHandler := httpHandlers.NewChatHandler(chatService, sessionService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService, sessionService)
	profileHandler := httpHandlers.NewProfileHandler(userRepo, catalogRepo, reviewService)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, orderService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, orderHandler, chatHandler, reviewHandler, profileHandler, catalogHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
