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

// ErrReviewExists возвращается при нарушении уникальности
// (order_id, from_user_id, to_user_id) — в том числе при гонке двух submit.
var ErrReviewExists = errors.New("review already exists for this order and direction")

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create создаёт отзыв. Дубликат по направлению отклоняется базой.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (order_id, from_user_id, to_user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		review.OrderID, review.FromUserID, review.ToUserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrReviewExists
		}
		return fmt.Errorf("review repository: create: %w", err)
	}
	return nil
}

// GetByDirection возвращает отзыв по направлению (order, from, to) или nil.
func (r *ReviewRepository) GetByDirection(ctx context.Context, orderID, fromUserID, toUserID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `
		SELECT * FROM reviews WHERE order_id = $1 AND from_user_id = $2 AND to_user_id = $3
	`, orderID, fromUserID, toUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by direction: %w", err)
	}
	return &review, nil
}

// ListByToUserID возвращает отзывы о пользователе, новые первыми,
// с присоединённой идентичностью автора для отображения.
func (r *ReviewRepository) ListByToUserID(ctx context.Context, toUserID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE to_user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, toUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by to_user: %w", err)
	}

	for i := range reviews {
		var user models.User
		if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, reviews[i].FromUserID); err == nil {
			reviews[i].FromUser = &user
		}
	}
	return reviews, nil
}

// GetAverageRating возвращает средний рейтинг пользователя и число отзывов.
// Без отзывов возвращает (0, 0), деления на ноль нет.
func (r *ReviewRepository) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &result, `
		SELECT COALESCE(AVG(rating), 0) as avg, COUNT(*) as count FROM reviews WHERE to_user_id = $1
	`, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: get average rating: %w", err)
	}
	return result.Avg.Float64, result.Count, nil
}
