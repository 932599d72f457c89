package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/repository"
)

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		msg.ID = uuid.New()
		msg.Seq = 1
	}
	return args.Error(0)
}

func (m *mockMessageRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func TestChatService_Append_Success(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	hub := new(mockNotifier)
	svc := NewChatService(messages, orders)
	svc.SetHub(hub)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusAccepted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	hub.On("BroadcastToOrder", order.ID, "message.new", mock.Anything).Return(nil)

	msg, err := svc.Append(ctx, order.ID, order.ClientID, "Здравствуйте, во сколько подъедете?", models.MessageTypeText)

	assert.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Equal(t, order.ClientID, msg.SenderID)
	assert.Equal(t, models.MessageTypeText, msg.Type)
	hub.AssertCalled(t, "BroadcastToOrder", order.ID, "message.new", mock.Anything)
}

func TestChatService_Append_BroadcastFailureDoesNotLoseMessage(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	hub := new(mockNotifier)
	svc := NewChatService(messages, orders)
	svc.SetHub(hub)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusAccepted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	hub.On("BroadcastToOrder", order.ID, "message.new", mock.Anything).Return(assert.AnError)

	msg, err := svc.Append(ctx, order.ID, order.ProviderID, "Выезжаю", models.MessageTypeText)

	assert.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestChatService_Append_TerminalOrderRejected(t *testing.T) {
	for _, status := range []string{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		messages := new(mockMessageRepo)
		orders := new(mockOrderRepo)
		svc := NewChatService(messages, orders)
		ctx := context.Background()

		order := newTestOrder(status)
		orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := svc.Append(ctx, order.ID, order.ClientID, "ещё вопрос", models.MessageTypeText)

		assert.Equal(t, apperror.ErrCodeTerminalState, apperror.CodeOf(err), "status %s", status)
		messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestChatService_Append_OrderClosesUnderneath(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(messages, orders)
	ctx := context.Background()

	// Проверка статуса прошла по активному заказу, но к моменту вставки
	// конкурент успел его закрыть: хранилище отказывает под блокировкой строки.
	order := newTestOrder(models.OrderStatusAccepted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.Message")).Return(repository.ErrOrderClosed)

	_, err := svc.Append(ctx, order.ID, order.ClientID, "успел?", models.MessageTypeText)

	assert.Equal(t, apperror.ErrCodeTerminalState, apperror.CodeOf(err))
}

func TestChatService_Append_NonParticipantRejected(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(messages, orders)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusAccepted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Append(ctx, order.ID, uuid.New(), "привет", models.MessageTypeText)

	assert.True(t, apperror.IsForbidden(err))
}

func TestChatService_Append_Validation(t *testing.T) {
	svc := NewChatService(new(mockMessageRepo), new(mockOrderRepo))
	ctx := context.Background()
	orderID := uuid.New()
	senderID := uuid.New()

	_, err := svc.Append(ctx, orderID, senderID, "", models.MessageTypeText)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Append(ctx, orderID, senderID, strings.Repeat("а", 5001), models.MessageTypeText)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Append(ctx, orderID, senderID, "привет", "STICKER")
	assert.True(t, apperror.IsValidation(err))

	// Для не-текстовых типов содержимое должно быть ссылкой.
	_, err = svc.Append(ctx, orderID, senderID, "не ссылка", models.MessageTypeImage)
	assert.True(t, apperror.IsValidation(err))
}

func TestChatService_Append_LocationMessage(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(messages, orders)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusInProgress)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.Message")).Return(nil)

	msg, err := svc.Append(ctx, order.ID, order.ClientID, "https://maps.google.com/?q=41.31,69.28", models.MessageTypeLocation)

	assert.NoError(t, err)
	assert.Equal(t, models.MessageTypeLocation, msg.Type)
}

func TestChatService_History_ParticipantOnly(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(messages, orders)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusAccepted)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.History(ctx, order.ID, uuid.New())

	assert.True(t, apperror.IsForbidden(err))
	messages.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestChatService_History_ReturnsLogInOrder(t *testing.T) {
	messages := new(mockMessageRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(messages, orders)
	ctx := context.Background()

	order := newTestOrder(models.OrderStatusCompleted)
	stored := []models.Message{
		{ID: uuid.New(), OrderID: order.ID, SenderID: order.ClientID, Content: "первое", Seq: 1},
		{ID: uuid.New(), OrderID: order.ID, SenderID: order.ProviderID, Content: "второе", Seq: 2},
		{ID: uuid.New(), OrderID: order.ID, SenderID: order.ClientID, Content: "третье", Seq: 3},
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	messages.On("ListByOrderID", ctx, order.ID).Return(stored, nil)

	// История доступна и по завершённому заказу, закрыта только отправка.
	got, err := svc.History(ctx, order.ID, order.ClientID)

	assert.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "первое", got[0].Content)
	assert.Equal(t, "третье", got[2].Content)
}

func TestChatService_History_OrderNotFound(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := NewChatService(new(mockMessageRepo), orders)
	ctx := context.Background()

	id := uuid.New()
	orders.On("GetByID", ctx, id).Return(nil, repository.ErrOrderNotFound)

	_, err := svc.History(ctx, id, uuid.New())

	assert.True(t, apperror.IsNotFound(err))
}
