package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает публичный профиль пользователя.
// Аутентификация и учётные данные находятся вне этого сервиса,
// здесь только отображаемая идентичность.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Avatar    *string   `db:"avatar" json:"avatar,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
