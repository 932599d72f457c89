package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-backend/internal/http/handlers/common"
	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// ChatHandler обслуживает переписку внутри заказа.
type ChatHandler struct {
	chat     *service.ChatService
	sessions *service.SessionService
}

func NewChatHandler(chat *service.ChatService, sessions *service.SessionService) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

// ListMessages GET /orders/:id/messages
// Полная история, старые первыми. Подписчик, потерявший соединение,
// сначала забирает историю отсюда, затем подключается к websocket каналу.
func (h *ChatHandler) ListMessages(c *gin.Context) {
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

	messages, err := h.chat.History(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage POST /orders/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
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
		Content string `json:"content" binding:"required"`
		Type    string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сообщение не может быть пустым")
		return
	}
	if req.Type == "" {
		req.Type = models.MessageTypeText
	}

	msg, err := h.sessions.SendMessage(c.Request.Context(), orderID, userID, req.Content, req.Type)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}
