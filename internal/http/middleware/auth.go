package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-backend/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware проверяет JWT access токен внешнего сервиса аутентификации.
// Без валидного принципала запрос не доходит ни до одной бизнес-проверки.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, apperror.ErrUnauthorized.Message)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, role, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			abortUnauthorized(c, "токен невалиден")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// abortUnauthorized отвечает в формате доменной ошибки UNAUTHORIZED.
func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(apperror.ErrUnauthorized.HTTPStatus, gin.H{
		"error": message,
		"code":  apperror.ErrUnauthorized.Code,
	})
}
