package service

import (
	"context"
	"strings"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/models"
)

// AddComment creates a comment under a photo
func (s *Service) AddComment(ctx context.Context, actor *models.User, photoID int64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.Validation("comment body is required")
	}
	if _, err := s.repo.FindPhotoByID(ctx, photoID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PhotoID:  photoID,
		AuthorID: actor.ID,
		Body:     body,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment updates a comment's body and sets the edited flag. Author
// only (Admin passes the policy for all actions).
func (s *Service) EditComment(ctx context.Context, actor *models.User, commentID int64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.Validation("comment body is required")
	}

	comment, err := s.repo.FindCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, auth.ActionCommentEdit, comment.AuthorID) {
		return nil, apperrors.Forbidden("only the author can edit this comment")
	}
	return s.repo.UpdateCommentBody(ctx, commentID, body)
}

// DeleteComment removes a comment. Author, Moderator or Admin.
func (s *Service) DeleteComment(ctx context.Context, actor *models.User, commentID int64) error {
	comment, err := s.repo.FindCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if !auth.Can(actor, auth.ActionCommentDelete, comment.AuthorID) {
		return apperrors.Forbidden("not allowed to delete this comment")
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.log.Infof("Comment %d deleted by user %d", commentID, actor.ID)
	return nil
}

// ListComments returns a page of a photo's comments
func (s *Service) ListComments(ctx context.Context, photoID int64, page, size int) ([]*models.Comment, error) {
	if _, err := s.repo.FindPhotoByID(ctx, photoID); err != nil {
		return nil, err
	}
	limit, offset := pageToRange(page, size)
	return s.repo.ListCommentsByPhoto(ctx, photoID, limit, offset)
}
