package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
)

// ReviewRepository описывает взаимодействие с хранилищем отзывов.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByDirection(ctx context.Context, orderID, fromUserID, toUserID uuid.UUID) (*models.Review, error)
	ListByToUserID(ctx context.Context, toUserID uuid.UUID, limit, offset int) ([]models.Review, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
}

// OrderReaderForReviews описывает минимальный контракт с хранилищем заказов.
type OrderReaderForReviews interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ReviewService реализует книгу отзывов: по одной оценке на направление
// (order, от кого, кому), только после завершения заказа.
type ReviewService struct {
	repo     ReviewRepository
	orders   OrderReaderForReviews
	cache    *CacheService
	cacheTTL time.Duration
}

// NewReviewService создаёт сервис отзывов.
// cache может быть nil, тогда агрегированный рейтинг всегда читается из базы.
func NewReviewService(repo ReviewRepository, orders OrderReaderForReviews, cache *CacheService, cacheTTL time.Duration) *ReviewService {
	return &ReviewService{repo: repo, orders: orders, cache: cache, cacheTTL: cacheTTL}
}

// Submit создаёт отзыв от fromUserID о второй стороне заказа.
// Направление разрешается автоматически: кому — это второй участник.
func (s *ReviewService) Submit(ctx context.Context, orderID, fromUserID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "рейтинг должен быть от 1 до 5")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}

	toUserID, ok := order.Counterpart(fromUserID)
	if !ok {
		return nil, apperror.ErrNotAParticipant
	}

	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.ErrNotCompleted
	}

	// Предварительная проверка дубликата даёт понятную ошибку без похода
	// на вставку; гонку двух submit всё равно ловит уникальный индекс.
	existing, err := s.repo.GetByDirection(ctx, orderID, fromUserID, toUserID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отзыв")
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateReview
	}

	review := &models.Review{
		OrderID:    orderID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Rating:     rating,
		Comment:    comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.ErrDuplicateReview
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отзыв")
	}

	// Инвалидация кэша рейтинга: автор свежего отзыва сразу увидит его
	// в агрегате получателя.
	if s.cache != nil {
		s.cache.Delete(RatingCacheKey(toUserID))
	}

	return review, nil
}

// AverageFor возвращает средний рейтинг пользователя и число отзывов.
// Без отзывов — (0, 0).
func (s *ReviewService) AverageFor(ctx context.Context, userID uuid.UUID) (*models.UserRating, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(RatingCacheKey(userID)); ok {
			if rating, ok := cached.(*models.UserRating); ok {
				return rating, nil
			}
		}
	}

	avg, count, err := s.repo.GetAverageRating(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось вычислить рейтинг")
	}

	rating := &models.UserRating{Average: avg, Count: count}
	if s.cache != nil {
		s.cache.Set(RatingCacheKey(userID), rating, s.cacheTTL)
	}
	return rating, nil
}

// CanReview проверяет, может ли пользователь сейчас оставить отзыв по заказу:
// заказ завершён, пользователь его сторона и ещё не оценивал контрагента.
func (s *ReviewService) CanReview(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, nil
	}
	toUserID, ok := order.Counterpart(userID)
	if !ok {
		return false, nil
	}
	if order.Status != models.OrderStatusCompleted {
		return false, nil
	}
	existing, err := s.repo.GetByDirection(ctx, orderID, userID, toUserID)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отзыв")
	}
	return existing == nil, nil
}

// ListFor возвращает отзывы о пользователе, новые первыми.
func (s *ReviewService) ListFor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reviews, err := s.repo.ListByToUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	return reviews, nil
}
