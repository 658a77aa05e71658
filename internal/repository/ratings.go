package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/models"
)

// CreateRating inserts a rating row. The unique (photo_id, user_id)
// constraint closes the race between concurrent submissions from the same
// user; a violation surfaces as Conflict.
func (r *Repository) CreateRating(ctx context.Context, rating *models.Rating) error {
	query := `
		INSERT INTO ratings (photo_id, user_id, score)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rating.PhotoID, rating.RaterID, rating.Score).
		Scan(&rating.ID, &rating.CreatedAt)
	if isUniqueViolation(err, "ratings_photo_user_unique") {
		return apperrors.Conflict("photo already rated by this user")
	}
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// FindRatingByID retrieves a rating by ID
func (r *Repository) FindRatingByID(ctx context.Context, id int64) (*models.Rating, error) {
	rating := &models.Rating{}
	query := `
		SELECT id, photo_id, user_id, score, created_at
		FROM ratings
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&rating.ID, &rating.PhotoID, &rating.RaterID, &rating.Score, &rating.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("rating not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rating: %w", err)
	}
	return rating, nil
}

// DeleteRating removes a rating
func (r *Repository) DeleteRating(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	return requireAffected(res, "rating")
}

// PhotoRatingStats computes the read-time aggregate for a photo. The
// average is never stored, so it cannot drift; COUNT of zero yields a nil
// average and no division ever happens.
func (r *Repository) PhotoRatingStats(ctx context.Context, photoID int64) (*models.RatingStats, error) {
	var avg sql.NullFloat64
	var count int
	query := `SELECT AVG(score)::float8, COUNT(*) FROM ratings WHERE photo_id = $1`
	if err := r.db.QueryRowContext(ctx, query, photoID).Scan(&avg, &count); err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return &models.RatingStats{Average: averagePtr(avg), Count: count}, nil
}
