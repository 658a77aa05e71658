package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/models"
)

// CreateComment creates a new comment under a photo
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (photo_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, edited, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, comment.PhotoID, comment.AuthorID, comment.Body).
		Scan(&comment.ID, &comment.Edited, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// FindCommentByID retrieves a comment by ID
func (r *Repository) FindCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment := &models.Comment{}
	query := `
		SELECT id, photo_id, user_id, body, edited, created_at, updated_at
		FROM comments
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&comment.ID, &comment.PhotoID, &comment.AuthorID, &comment.Body,
			&comment.Edited, &comment.CreatedAt, &comment.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return comment, nil
}

// UpdateCommentBody updates a comment's body and marks it edited
func (r *Repository) UpdateCommentBody(ctx context.Context, id int64, body string) (*models.Comment, error) {
	comment := &models.Comment{}
	query := `
		UPDATE comments
		SET body = $1, edited = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, photo_id, user_id, body, edited, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, body, id).
		Scan(&comment.ID, &comment.PhotoID, &comment.AuthorID, &comment.Body,
			&comment.Edited, &comment.CreatedAt, &comment.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(res, "comment")
}

// ListCommentsByPhoto returns a page of a photo's comments, oldest first
func (r *Repository) ListCommentsByPhoto(ctx context.Context, photoID int64, limit, offset int) ([]*models.Comment, error) {
	query := `
		SELECT id, photo_id, user_id, body, edited, created_at, updated_at
		FROM comments
		WHERE photo_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, photoID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		err := rows.Scan(&c.ID, &c.PhotoID, &c.AuthorID, &c.Body, &c.Edited, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	return comments, nil
}
