package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-backend/internal/domain/valueobject"
	"github.com/ignatzorin/uslugi-backend/internal/logger"
	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
	"github.com/ignatzorin/uslugi-backend/internal/validation"
)

// OrderRepository описывает взаимодействие сервиса с хранилищем заказов.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, target string) (*models.Order, error)
}

// CatalogReader описывает минимальный контракт с каталогом услуг:
// ядру нужна только цена позиции прайса на момент создания заказа.
type CatalogReader interface {
	GetServiceItem(ctx context.Context, id uuid.UUID) (*models.ServiceItem, error)
}

// OrderNotifier отправляет событие всем подписчикам канала заказа.
type OrderNotifier interface {
	BroadcastToOrder(orderID uuid.UUID, event string, data interface{}) error
}

// OrderService содержит бизнес-логику жизненного цикла заказа.
type OrderService struct {
	repo    OrderRepository
	catalog CatalogReader
	hub     OrderNotifier
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(repo OrderRepository, catalog CatalogReader) *OrderService {
	return &OrderService{repo: repo, catalog: catalog}
}

// SetHub устанавливает hub для отправки событий об изменении статуса.
func (s *OrderService) SetHub(hub OrderNotifier) {
	s.hub = hub
}

// CreateOrderInput описывает входные данные.
type CreateOrderInput struct {
	ClientID      uuid.UUID
	ProviderID    uuid.UUID
	ServiceItemID uuid.UUID
	ScheduledDate string
	ScheduledTime string
	LocationLink  *string
}

// CreateOrder создаёт заказ в статусе PENDING. Цена снимается с позиции
// прайса на момент создания и дальше не меняется, даже если исполнитель
// поменяет прайс.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.ClientID == in.ProviderID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя оформить заказ самому себе")
	}
	if err := validation.ValidateScheduleDate(in.ScheduledDate); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateScheduleTime(in.ScheduledTime); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.LocationLink != nil {
		if err := validation.ValidateLink(*in.LocationLink); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	item, err := s.catalog.GetServiceItem(ctx, in.ServiceItemID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceItemNotFound) {
			return nil, apperror.ErrItemNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить услугу")
	}
	if item.Price <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена услуги должна быть больше нуля")
	}

	order := &models.Order{
		ClientID:      in.ClientID,
		ProviderID:    in.ProviderID,
		ServiceItemID: in.ServiceItemID,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		Price:         item.Price,
		Status:        models.OrderStatusPending,
		LocationLink:  in.LocationLink,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}

	return order, nil
}

// GetOrder возвращает заказ по ID.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}

// ListMyOrders возвращает заказы пользователя (как клиента и как исполнителя),
// новые первыми.
func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список заказов")
	}
	return orders, nil
}

// Transition переводит заказ в целевой статус от имени actorID.
// Переход применяется атомарно: compare-and-swap по текущему статусу.
// Проигравший гонку вызов получает CONFLICT (или TERMINAL_STATE, если
// победитель уже закрыл заказ) и должен перечитать заказ.
func (s *OrderService) Transition(ctx context.Context, orderID, actorID uuid.UUID, target string) (*models.Order, error) {
	targetStatus, err := valueobject.NewOrderStatus(target)
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParticipant(actorID) {
		return nil, apperror.ErrNotAParticipant
	}

	current := valueobject.OrderStatus(order.Status)
	if current.IsTerminal() {
		return nil, apperror.ErrTerminalState
	}
	if !current.CanTransitionTo(targetStatus) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			"переход из статуса "+order.Status+" в "+target+" недопустим")
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, order.Status, target)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, s.classifyLostRace(ctx, orderID)
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус заказа")
	}

	s.notifyStatusChanged(updated)

	return updated, nil
}

// classifyLostRace различает проигрыш CAS гонки: если победивший переход
// уже закрыл заказ, возвращаем TERMINAL_STATE, иначе CONFLICT.
func (s *OrderService) classifyLostRace(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return apperror.ErrOrderNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось перечитать заказ")
	}
	if order.IsTerminal() {
		return apperror.ErrTerminalState
	}
	return apperror.ErrStatusConflict
}

// notifyStatusChanged отправляет событие order.updated в канал заказа,
// чтобы открытые чаты увидели смену статуса без перезагрузки.
func (s *OrderService) notifyStatusChanged(order *models.Order) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToOrder(order.ID, "order.updated", order); err != nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"status":   order.Status,
		}).WithError(err).Warn("не удалось отправить событие о смене статуса")
	}
}
