package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв одной стороны заказа о другой.
// Пара (order_id, from_user_id, to_user_id) уникальна.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	FromUserID uuid.UUID `db:"from_user_id" json:"from_user_id"`
	ToUserID   uuid.UUID `db:"to_user_id" json:"to_user_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// Автор отзыва (загружается отдельно для отображения)
	FromUser *User `json:"from_user,omitempty"`
}

// UserRating агрегированный рейтинг пользователя по всем отзывам.
type UserRating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
