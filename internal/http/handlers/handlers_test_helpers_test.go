package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-backend/internal/http/middleware"
	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// Фейковые хранилища в памяти для проверки HTTP контракта целиком:
// хендлер -> сервис -> хранилище, без базы.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.IsParticipant(userID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, target string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Status != expected {
		return nil, repository.ErrStatusChanged
	}
	order.Status = target
	cp := *order
	return &cp, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []models.Message
	seq      int64
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	msg.ID = uuid.New()
	msg.Seq = f.seq
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeReviewKey struct {
	orderID, fromUserID, toUserID uuid.UUID
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[fakeReviewKey]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[fakeReviewKey]*models.Review)}
}

func (f *fakeReviewRepo) Create(_ context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fakeReviewKey{review.OrderID, review.FromUserID, review.ToUserID}
	if _, exists := f.reviews[key]; exists {
		return repository.ErrReviewExists
	}
	review.ID = uuid.New()
	review.CreatedAt = time.Now()
	cp := *review
	f.reviews[key] = &cp
	return nil
}

func (f *fakeReviewRepo) GetByDirection(_ context.Context, orderID, fromUserID, toUserID uuid.UUID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[fakeReviewKey{orderID, fromUserID, toUserID}]
	if !ok {
		return nil, nil
	}
	cp := *review
	return &cp, nil
}

func (f *fakeReviewRepo) ListByToUserID(_ context.Context, toUserID uuid.UUID, limit, offset int) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if r.ToUserID == toUserID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetAverageRating(_ context.Context, userID uuid.UUID) (float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, count := 0, 0
	for _, r := range f.reviews {
		if r.ToUserID == userID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type fakeCatalogRepo struct {
	items map[uuid.UUID]*models.ServiceItem
}

func (f *fakeCatalogRepo) GetServiceItem(_ context.Context, id uuid.UUID) (*models.ServiceItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrServiceItemNotFound
	}
	return item, nil
}

type handlerEnv struct {
	orders     *service.OrderService
	sessions   *service.SessionService
	reviews    *service.ReviewService
	orderRepo  *fakeOrderRepo
	clientID   uuid.UUID
	providerID uuid.UUID
	itemID     uuid.UUID
}

func newHandlerEnv() *handlerEnv {
	clientID := uuid.New()
	providerID := uuid.New()
	itemID := uuid.New()

	orderRepo := newFakeOrderRepo()
	users := &fakeUserRepo{users: map[uuid.UUID]*models.User{
		clientID:   {ID: clientID, Name: "Азиз", Role: models.UserRoleClient},
		providerID: {ID: providerID, Name: "Дильноза", Role: models.UserRoleProvider},
	}}
	catalog := &fakeCatalogRepo{items: map[uuid.UUID]*models.ServiceItem{
		itemID: {ID: itemID, Price: 50000},
	}}

	orders := service.NewOrderService(orderRepo, catalog)
	chat := service.NewChatService(&fakeMessageRepo{}, orderRepo)
	reviews := service.NewReviewService(newFakeReviewRepo(), orderRepo, nil, 0)
	sessions := service.NewSessionService(orders, chat, reviews, users, catalog)

	return &handlerEnv{
		orders:     orders,
		sessions:   sessions,
		reviews:    reviews,
		orderRepo:  orderRepo,
		clientID:   clientID,
		providerID: providerID,
		itemID:     itemID,
	}
}

// seedOrder создаёт заказ в заданном статусе в обход HTTP слоя.
func (e *handlerEnv) seedOrder(status string) *models.Order {
	order := &models.Order{
		ClientID:      e.clientID,
		ProviderID:    e.providerID,
		ServiceItemID: e.itemID,
		ScheduledDate: "2025-01-10",
		ScheduledTime: "14:00",
		Price:         50000,
		Status:        status,
	}
	_ = e.orderRepo.Create(context.Background(), order)
	return order
}

// asUser имитирует auth middleware: кладёт userID в контекст запроса.
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}
