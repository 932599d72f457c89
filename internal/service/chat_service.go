package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-backend/internal/logger"
	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
	"github.com/ignatzorin/uslugi-backend/internal/validation"
)

// MessageRepository описывает взаимодействие с логом сообщений.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Message, error)
}

// OrderReaderForChat описывает минимальный контракт с хранилищем заказов.
type OrderReaderForChat interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ChatService ведёт append-only лог сообщений заказа и раздаёт новые
// сообщения живым подписчикам канала заказа.
type ChatService struct {
	messages MessageRepository
	orders   OrderReaderForChat
	hub      OrderNotifier
}

// NewChatService создаёт сервис чата.
func NewChatService(messages MessageRepository, orders OrderReaderForChat) *ChatService {
	return &ChatService{messages: messages, orders: orders}
}

// SetHub устанавливает hub для realtime доставки сообщений.
func (s *ChatService) SetHub(hub OrderNotifier) {
	s.hub = hub
}

// Append добавляет сообщение в лог заказа.
// Отправителем может быть только сторона заказа; по завершённому или
// отменённому заказу переписка закрыта — проверка выполняется на сервере,
// а не только скрытием поля ввода в интерфейсе.
func (s *ChatService) Append(ctx context.Context, orderID, senderID uuid.UUID, content, msgType string) (*models.Message, error) {
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if _, ok := models.ValidMessageTypes[msgType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип сообщения")
	}
	// Для ссылочных типов содержимое — это URL (картинка, голосовое, точка на карте).
	if msgType != models.MessageTypeText {
		if err := validation.ValidateLink(content); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParticipant(senderID) {
		return nil, apperror.ErrNotAParticipant
	}
	if order.IsTerminal() {
		return nil, apperror.ErrTerminalState
	}

	msg := &models.Message{
		OrderID:  orderID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		// Заказ могли закрыть между проверкой статуса и вставкой,
		// последнее слово за блокировкой строки заказа в репозитории.
		switch {
		case errors.Is(err, repository.ErrOrderClosed):
			return nil, apperror.ErrTerminalState
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, apperror.ErrOrderNotFound
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сообщение")
		}
	}

	// Доставка подписчикам fire-and-forget: сообщение уже записано,
	// отвалившийся подписчик доберёт историю при переподключении.
	if s.hub != nil {
		if err := s.hub.BroadcastToOrder(orderID, "message.new", msg); err != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"order_id":   orderID,
				"message_id": msg.ID,
			}).WithError(err).Warn("не удалось доставить сообщение подписчикам")
		}
	}

	return msg, nil
}

// History возвращает всю историю сообщений заказа, старые первыми.
// Доступна только сторонам заказа.
func (s *ChatService) History(ctx context.Context, orderID, viewerID uuid.UUID) ([]models.Message, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParticipant(viewerID) {
		return nil, apperror.ErrNotAParticipant
	}

	messages, err := s.messages.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить историю сообщений")
	}
	return messages, nil
}

func (s *ChatService) getOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}
