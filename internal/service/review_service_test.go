package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByDirection(ctx context.Context, orderID, fromUserID, toUserID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID, fromUserID, toUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByToUserID(ctx context.Context, toUserID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, toUserID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func TestReviewService_Submit_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	comment := "отличная работа"

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Submit(ctx, order.ID, order.ClientID, 5, &comment)

	assert.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	// Получатель определяется автоматически: вторая сторона заказа.
	assert.Equal(t, order.ProviderID, review.ToUserID)
	assert.Equal(t, order.ClientID, review.FromUserID)
}

func TestReviewService_Submit_ProviderReviewsClient(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ProviderID, order.ClientID).Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Submit(ctx, order.ID, order.ProviderID, 4, nil)

	assert.NoError(t, err)
	assert.Equal(t, order.ClientID, review.ToUserID)
}

func TestReviewService_Submit_RatingOutOfRange(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockOrderRepo), nil, 0)
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.Submit(ctx, uuid.New(), uuid.New(), rating, nil)
		assert.True(t, apperror.IsValidation(err), "rating %d", rating)
	}
}

func TestReviewService_Submit_OrderNotCompleted(t *testing.T) {
	for _, status := range []string{models.OrderStatusPending, models.OrderStatusAccepted, models.OrderStatusInProgress, models.OrderStatusCancelled} {
		repo := new(mockReviewRepo)
		orders := new(mockOrderRepo)
		svc := NewReviewService(repo, orders, nil, 0)
		ctx := context.Background()

		order := newTestOrder(status)
		orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := svc.Submit(ctx, order.ID, order.ClientID, 5, nil)

		assert.Equal(t, apperror.ErrCodeNotCompleted, apperror.CodeOf(err), "status %s", status)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestReviewService_Submit_NonParticipant(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := NewReviewService(new(mockReviewRepo), orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Submit(ctx, order.ID, uuid.New(), 5, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_Submit_DuplicateDetectedByPrecheck(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	existing := &models.Review{ID: uuid.New(), OrderID: order.ID, FromUserID: order.ClientID, ToUserID: order.ProviderID, Rating: 5}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(existing, nil)

	_, err := svc.Submit(ctx, order.ID, order.ClientID, 4, nil)

	assert.Equal(t, apperror.ErrCodeDuplicateReview, apperror.CodeOf(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_Submit_DuplicateDetectedByUniqueIndex(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	// Гонка двух submit: предварительная проверка прошла, вставка упёрлась
	// в уникальный индекс.
	order := newTestOrder(models.OrderStatusCompleted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(repository.ErrReviewExists)

	_, err := svc.Submit(ctx, order.ID, order.ClientID, 4, nil)

	assert.Equal(t, apperror.ErrCodeDuplicateReview, apperror.CodeOf(err))
}

func TestReviewService_Submit_InvalidatesRatingCache(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	cache := NewCacheService()
	svc := NewReviewService(repo, orders, cache, time.Minute)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	cache.Set(RatingCacheKey(order.ProviderID), &models.UserRating{Average: 3, Count: 1}, time.Minute)

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	_, err := svc.Submit(ctx, order.ID, order.ClientID, 5, nil)

	assert.NoError(t, err)
	_, ok := cache.Get(RatingCacheKey(order.ProviderID))
	assert.False(t, ok)
}

func TestReviewService_AverageFor_NoReviews(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockOrderRepo), nil, 0)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("GetAverageRating", ctx, userID).Return(0.0, 0, nil)

	rating, err := svc.AverageFor(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, rating.Average)
	assert.Equal(t, 0, rating.Count)
}

func TestReviewService_AverageFor_Aggregates(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockOrderRepo), nil, 0)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("GetAverageRating", ctx, userID).Return(4.0, 3, nil)

	rating, err := svc.AverageFor(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, 4.0, rating.Average)
	assert.Equal(t, 3, rating.Count)
}

func TestReviewService_AverageFor_CacheHitSkipsRepo(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := NewCacheService()
	svc := NewReviewService(repo, new(mockOrderRepo), cache, time.Minute)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("GetAverageRating", ctx, userID).Return(4.5, 2, nil).Once()

	first, err := svc.AverageFor(ctx, userID)
	assert.NoError(t, err)

	second, err := svc.AverageFor(ctx, userID)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "GetAverageRating", 1)
}

func TestReviewService_CanReview(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(nil, nil)

	ok, err := svc.CanReview(ctx, order.ID, order.ClientID)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Посторонний пользователь отзыв оставить не может.
	ok, err = svc.CanReview(ctx, order.ID, uuid.New())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewService_CanReview_AlreadyReviewed(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	svc := NewReviewService(repo, orders, nil, 0)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	existing := &models.Review{ID: uuid.New()}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("GetByDirection", ctx, order.ID, order.ClientID, order.ProviderID).Return(existing, nil)

	ok, err := svc.CanReview(ctx, order.ID, order.ClientID)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewService_ListFor_ClampsLimit(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockOrderRepo), nil, 0)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("ListByToUserID", ctx, userID, 20, 0).Return([]models.Review{}, nil)

	_, err := svc.ListFor(ctx, userID, 0, -5)

	assert.NoError(t, err)
	repo.AssertCalled(t, "ListByToUserID", ctx, userID, 20, 0)
}
