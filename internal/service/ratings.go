package service

import (
	"context"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/models"
)

// SubmitRating records a 1-5 star vote on a photo. Self-rating is
// disallowed; duplicate votes are rejected by the database constraint.
func (s *Service) SubmitRating(ctx context.Context, actor *models.User, photoID int64, score int) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, apperrors.Validation("score must be between 1 and 5")
	}

	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.OwnerID == actor.ID {
		return nil, apperrors.Validation("cannot rate your own photo")
	}

	rating := &models.Rating{
		PhotoID: photoID,
		RaterID: actor.ID,
		Score:   score,
	}
	if err := s.repo.CreateRating(ctx, rating); err != nil {
		return nil, err
	}

	s.log.Infof("Photo %d rated %d by user %d", photoID, score, actor.ID)
	return rating, nil
}

// RatingAverage returns the photo's read-time rating aggregate
func (s *Service) RatingAverage(ctx context.Context, photoID int64) (*models.RatingStats, error) {
	if _, err := s.repo.FindPhotoByID(ctx, photoID); err != nil {
		return nil, err
	}
	return s.repo.PhotoRatingStats(ctx, photoID)
}

// DeleteRating removes a rating. Moderator or Admin only.
func (s *Service) DeleteRating(ctx context.Context, actor *models.User, ratingID int64) error {
	if !auth.Can(actor, auth.ActionRatingDelete, 0) {
		return apperrors.Forbidden("moderator privileges required")
	}
	if _, err := s.repo.FindRatingByID(ctx, ratingID); err != nil {
		return err
	}
	if err := s.repo.DeleteRating(ctx, ratingID); err != nil {
		return err
	}
	s.log.Infof("Rating %d deleted by user %d", ratingID, actor.ID)
	return nil
}
