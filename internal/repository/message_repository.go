package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/repository/common"
)

// ErrOrderClosed возвращается при попытке записи в лог завершённого
// или отменённого заказа.
var ErrOrderClosed = errors.New("order is closed for new messages")

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create добавляет сообщение в лог заказа. Порядковый номер seq присваивает
// база (BIGSERIAL), он задаёт стабильный полный порядок при равных created_at.
// Вставка идёт в транзакции под разделяемой блокировкой строки заказа:
// параллельный перевод в терминальный статус не проскочит между проверкой
// статуса и вставкой.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var status string
		err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1 FOR SHARE`, msg.OrderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("message repository: lock order: %w", err)
		}
		if status == models.OrderStatusCompleted || status == models.OrderStatusCancelled {
			return ErrOrderClosed
		}

		query := `
			INSERT INTO messages (order_id, sender_id, content, type)
			VALUES ($1, $2, $3, $4)
			RETURNING id, seq, created_at
		`
		err = tx.QueryRowxContext(ctx, query,
			msg.OrderID, msg.SenderID, msg.Content, msg.Type,
		).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("message repository: create: %w", err)
		}
		return nil
	})
}

// ListByOrderID возвращает всю историю сообщений заказа, старые первыми.
func (r *MessageRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE order_id = $1
		ORDER BY created_at ASC, seq ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("message repository: list by order: %w", err)
	}
	return messages, nil
}
