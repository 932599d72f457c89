package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-backend/internal/http/handlers/common"
	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// OrderHandler обслуживает жизненный цикл заказа.
type OrderHandler struct {
	orders   *service.OrderService
	sessions *service.SessionService
}

func NewOrderHandler(orders *service.OrderService, sessions *service.SessionService) *OrderHandler {
	return &OrderHandler{orders: orders, sessions: sessions}
}

// CreateOrder POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		ProviderID    uuid.UUID `json:"provider_id" binding:"required"`
		ServiceItemID uuid.UUID `json:"service_item_id" binding:"required"`
		ScheduledDate string    `json:"scheduled_date" binding:"required"`
		ScheduledTime string    `json:"scheduled_time" binding:"required"`
		LocationLink  *string   `json:"location_link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "неверное тело запроса: укажите исполнителя, услугу, дату и время")
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		ClientID:      userID,
		ProviderID:    req.ProviderID,
		ServiceItemID: req.ServiceItemID,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		LocationLink:  req.LocationLink,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListMyOrders GET /orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orders, err := h.orders.ListMyOrders(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetConversation GET /orders/:id
// Возвращает заказ, контрагента и историю сообщений одним ответом.
func (h *OrderHandler) GetConversation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	view, err := h.sessions.OpenConversation(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateStatus POST /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "укажите целевой статус")
		return
	}

	// Завершение идёт через фасад: ответ дополнительно подсказывает клиенту
	// предложить оценить контрагента.
	switch req.Status {
	case models.OrderStatusCompleted:
		result, err := h.sessions.Complete(c.Request.Context(), orderID, userID)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case models.OrderStatusCancelled:
		order, err := h.sessions.Cancel(c.Request.Context(), orderID, userID)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	default:
		order, err := h.orders.Transition(c.Request.Context(), orderID, userID, req.Status)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
