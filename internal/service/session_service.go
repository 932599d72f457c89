package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
)

// ProfileReader описывает минимальный контракт с хранилищем профилей.
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ConversationView собирает всё, что нужно экрану чата одного заказа.
type ConversationView struct {
	Order       *models.Order       `json:"order"`
	Counterpart *models.User        `json:"counterpart"`
	ServiceItem *models.ServiceItem `json:"service_item,omitempty"`
	Messages    []models.Message    `json:"messages"`
	CanReview   bool                `json:"can_review"`
}

// SessionService — фасад над заказами, чатом и отзывами: единая точка входа
// для сценария «открыть переписку по заказу». Сквозные инварианты
// (нет сообщений после закрытия, нет отзыва до завершения) обеспечиваются
// нижележащими сервисами, фасад их только комбинирует.
type SessionService struct {
	orders  *OrderService
	chat    *ChatService
	reviews *ReviewService
	users   ProfileReader
	catalog CatalogReader
}

// NewSessionService создаёт фасад.
func NewSessionService(orders *OrderService, chat *ChatService, reviews *ReviewService, users ProfileReader, catalog CatalogReader) *SessionService {
	return &SessionService{orders: orders, chat: chat, reviews: reviews, users: users, catalog: catalog}
}

// OpenConversation возвращает заказ, контрагента и полную историю сообщений.
// Третьим лицам переписка недоступна.
func (s *SessionService) OpenConversation(ctx context.Context, orderID, viewerID uuid.UUID) (*ConversationView, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	counterpartID, ok := order.Counterpart(viewerID)
	if !ok {
		return nil, apperror.ErrNotAParticipant
	}

	counterpart, err := s.users.GetByID(ctx, counterpartID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль контрагента")
	}

	messages, err := s.chat.History(ctx, orderID, viewerID)
	if err != nil {
		return nil, err
	}

	view := &ConversationView{
		Order:       order,
		Counterpart: counterpart,
		Messages:    messages,
	}

	// Позиция прайса нужна шапке чата; её отсутствие не ломает переписку.
	if item, err := s.catalog.GetServiceItem(ctx, order.ServiceItemID); err == nil {
		view.ServiceItem = item
	}

	if can, err := s.reviews.CanReview(ctx, orderID, viewerID); err == nil {
		view.CanReview = can
	}

	return view, nil
}

// SendMessage добавляет сообщение в переписку заказа.
func (s *SessionService) SendMessage(ctx context.Context, orderID, viewerID uuid.UUID, content, msgType string) (*models.Message, error) {
	return s.chat.Append(ctx, orderID, viewerID, content, msgType)
}

// Cancel отменяет заказ от имени любой из сторон.
func (s *SessionService) Cancel(ctx context.Context, orderID, viewerID uuid.UUID) (*models.Order, error) {
	return s.orders.Transition(ctx, orderID, viewerID, models.OrderStatusCancelled)
}

// CompleteResult — результат завершения заказа. PromptReview подсказывает
// клиенту сразу предложить оценить контрагента; сам отзыв создаётся
// отдельным вызовом ReviewCounterpart.
type CompleteResult struct {
	Order        *models.Order `json:"order"`
	PromptReview bool          `json:"prompt_review"`
}

// Complete завершает заказ от имени любой из сторон.
func (s *SessionService) Complete(ctx context.Context, orderID, viewerID uuid.UUID) (*CompleteResult, error) {
	order, err := s.orders.Transition(ctx, orderID, viewerID, models.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}

	result := &CompleteResult{Order: order}
	if can, err := s.reviews.CanReview(ctx, orderID, viewerID); err == nil {
		result.PromptReview = can
	}
	return result, nil
}

// ReviewCounterpart оставляет отзыв о второй стороне заказа,
// направление разрешается автоматически.
func (s *SessionService) ReviewCounterpart(ctx context.Context, orderID, viewerID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	return s.reviews.Submit(ctx, orderID, viewerID, rating, comment)
}
