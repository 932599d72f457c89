package models

import (
	"time"

	"github.com/google/uuid"
)

// Message описывает сообщение в чате заказа.
// Seq присваивается базой и задаёт строгий порядок внутри одного заказа.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"type" json:"type"`
	Seq       int64     `db:"seq" json:"seq"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Отправитель (загружается отдельно)
	Sender *User `json:"sender,omitempty"`
}
