package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/uslugi-backend/internal/models"
	"github.com/ignatzorin/uslugi-backend/internal/repository/common"
)

var ErrServiceItemNotFound = errors.New("service item not found")

// CatalogRepository читает каталог услуг. Ядро использует его в одном месте:
// снятие цены позиции прайса на момент создания заказа.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories возвращает все категории.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name_ru ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list categories: %w", err)
	}
	return categories, nil
}

// ListServices возвращает активные сервисы, опционально по категории,
// с позициями прайса.
func (r *CatalogRepository) ListServices(ctx context.Context, categoryID *uuid.UUID) ([]models.Service, error) {
	var services []models.Service
	var err error
	if categoryID != nil {
		err = r.db.SelectContext(ctx, &services, `
			SELECT * FROM services WHERE is_active = TRUE AND category_id = $1 ORDER BY created_at DESC
		`, *categoryID)
	} else {
		err = r.db.SelectContext(ctx, &services, `
			SELECT * FROM services WHERE is_active = TRUE ORDER BY created_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list services: %w", err)
	}

	for i := range services {
		items, err := r.ListServiceItems(ctx, services[i].ID)
		if err != nil {
			return nil, err
		}
		services[i].Items = items
	}
	return services, nil
}

// ListServicesByUser возвращает активные сервисы исполнителя с позициями прайса.
func (r *CatalogRepository) ListServicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Service, error) {
	var services []models.Service
	err := r.db.SelectContext(ctx, &services, `
		SELECT * FROM services WHERE is_active = TRUE AND user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list services by user: %w", err)
	}

	for i := range services {
		items, err := r.ListServiceItems(ctx, services[i].ID)
		if err != nil {
			return nil, err
		}
		services[i].Items = items
	}
	return services, nil
}

// ListServiceItems возвращает позиции прайса сервиса.
func (r *CatalogRepository) ListServiceItems(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceItem, error) {
	var items []models.ServiceItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM service_items WHERE service_id = $1 ORDER BY price ASC
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list service items: %w", err)
	}
	return items, nil
}

// GetServiceItem возвращает позицию прайса по ID.
func (r *CatalogRepository) GetServiceItem(ctx context.Context, id uuid.UUID) (*models.ServiceItem, error) {
	return common.GetByID[models.ServiceItem](ctx, r.db, "service_items", id, ErrServiceItemNotFound)
}
