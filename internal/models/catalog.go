package models

import (
	"time"

	"github.com/google/uuid"
)

// Category описывает категорию услуг.
type Category struct {
	ID     uuid.UUID `db:"id" json:"id"`
	NameUz string    `db:"name_uz" json:"name_uz"`
	NameRu string    `db:"name_ru" json:"name_ru"`
	Icon   string    `db:"icon" json:"icon"`
}

// Service описывает опубликованный сервис исполнителя в категории.
type Service struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	CategoryID  uuid.UUID `db:"category_id" json:"category_id"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	User     *User         `json:"user,omitempty"`
	Category *Category     `json:"category,omitempty"`
	Items    []ServiceItem `json:"items,omitempty"`
}

// ServiceItem описывает конкретную позицию прайса исполнителя.
// Цена из этой позиции снимается в заказ на момент создания.
type ServiceItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ServiceID     uuid.UUID `db:"service_id" json:"service_id"`
	NameUz        string    `db:"name_uz" json:"name_uz"`
	NameRu        string    `db:"name_ru" json:"name_ru"`
	Price         float64   `db:"price" json:"price"`
	DescriptionUz *string   `db:"description_uz" json:"description_uz,omitempty"`
	DescriptionRu *string   `db:"description_ru" json:"description_ru,omitempty"`
}
