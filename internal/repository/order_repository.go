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

var ErrOrderNotFound = errors.New("order not found")

// ErrStatusChanged возвращается, когда CAS обновление статуса не нашло
// строку с ожидаемым текущим статусом: заказ параллельно перевели в другой статус.
var ErrStatusChanged = errors.New("order status changed concurrently")

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create создаёт заказ в статусе PENDING и заполняет серверные поля.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (client_id, provider_id, service_item_id, scheduled_date, scheduled_time, price, status, location_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		order.ClientID, order.ProviderID, order.ServiceItemID,
		order.ScheduledDate, order.ScheduledTime, order.Price, order.Status, order.LocationLink,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order repository: create: %w", err)
	}
	return nil
}

// GetByID возвращает заказ по ID.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, r.db, "orders", id, ErrOrderNotFound)
}

// ListForUser возвращает все заказы, где пользователь клиент или исполнитель,
// новые первыми.
func (r *OrderRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE client_id = $1 OR provider_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list for user: %w", err)
	}
	return orders, nil
}

// UpdateStatus атомарно переводит заказ из expected в target.
// Compare-and-swap по полю status: строка обновляется только если текущий
// статус всё ещё равен expected, иначе возвращается ErrStatusChanged.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, target string) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING *
	`, id, expected, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("order repository: update status: %w", err)
	}
	return &order, nil
}
