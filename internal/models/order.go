package models

import (
	"time"

	"github.com/google/uuid"
)

// Order описывает запланированный заказ между клиентом и исполнителем.
// Цена фиксируется на момент создания и не меняется при изменении прайса услуги.
type Order struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ClientID      uuid.UUID `db:"client_id" json:"client_id"`
	ProviderID    uuid.UUID `db:"provider_id" json:"provider_id"`
	ServiceItemID uuid.UUID `db:"service_item_id" json:"service_item_id"`
	ScheduledDate string    `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	Price         float64   `db:"price" json:"price"`
	Status        string    `db:"status" json:"status"`
	LocationLink  *string   `db:"location_link" json:"location_link,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Связанные данные (загружаются отдельно для отображения)
	Client      *User        `json:"client,omitempty"`
	Provider    *User        `json:"provider,omitempty"`
	ServiceItem *ServiceItem `json:"service_item,omitempty"`
}

// IsParticipant проверяет, является ли пользователь стороной заказа.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return userID == o.ClientID || userID == o.ProviderID
}

// Counterpart возвращает вторую сторону заказа относительно userID.
func (o *Order) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case o.ClientID:
		return o.ProviderID, true
	case o.ProviderID:
		return o.ClientID, true
	}
	return uuid.Nil, false
}

// IsTerminal сообщает, находится ли заказ в конечном статусе.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}
