package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/integrations/imagecdn"
	"github.com/dkravets/photoshare-service/internal/models"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/utils/qr"
)

// normalizeTags trims, lower-cases and deduplicates tag names. Attaching a
// duplicate name is a no-op; more than five distinct tags is rejected.
func normalizeTags(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var tags []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	if len(tags) > models.MaxTagsPerPhoto {
		return nil, apperrors.Validation("a photo can have at most %d tags", models.MaxTagsPerPhoto)
	}
	return tags, nil
}

// UploadPhoto stores the image on the CDN and records it with its tags
func (s *Service) UploadPhoto(ctx context.Context, actor *models.User, filename, contentType string, data []byte, description string, tagNames []string) (*models.Photo, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.Validation("file must be an image")
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("file is empty")
	}
	tags, err := normalizeTags(tagNames)
	if err != nil {
		return nil, err
	}

	upload, err := s.cdn.Upload(ctx, filename, data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to upload image")
	}

	photo := &models.Photo{
		OwnerID:       actor.ID,
		OwnerUsername: actor.Username,
		URL:           upload.URL,
		PublicID:      upload.PublicID,
		Description:   description,
	}
	if err := s.repo.CreatePhoto(ctx, photo, tags); err != nil {
		return nil, err
	}

	s.log.Infof("Photo %d uploaded by user %d", photo.ID, actor.ID)
	return photo, nil
}

// GetPhoto returns a photo with tags and rating aggregate
func (s *Service) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	return s.repo.FindPhotoByID(ctx, id)
}

// ListPhotos returns a page of photos with the total count
func (s *Service) ListPhotos(ctx context.Context, page, size int) ([]*models.Photo, int, error) {
	limit, offset := pageToRange(page, size)
	return s.repo.ListPhotos(ctx, limit, offset)
}

// ListUserPhotos returns a page of one user's photos
func (s *Service) ListUserPhotos(ctx context.Context, userID int64, page, size int) ([]*models.Photo, error) {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset := pageToRange(page, size)
	return s.repo.ListPhotosByUser(ctx, userID, limit, offset)
}

// UpdatePhotoDescription updates a photo's description. Owner or Admin only.
func (s *Service) UpdatePhotoDescription(ctx context.Context, actor *models.User, photoID int64, description string) (*models.Photo, error) {
	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, auth.ActionPhotoUpdate, photo.OwnerID) {
		return nil, apperrors.Forbidden("not allowed to modify this photo")
	}
	if err := s.repo.UpdatePhotoDescription(ctx, photoID, description); err != nil {
		return nil, err
	}
	photo.Description = description
	return photo, nil
}

// DeletePhoto removes a photo. Owner or Admin only. The CDN copy is
// destroyed best-effort after the row is gone.
func (s *Service) DeletePhoto(ctx context.Context, actor *models.User, photoID int64) error {
	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return err
	}
	if !auth.Can(actor, auth.ActionPhotoDelete, photo.OwnerID) {
		return apperrors.Forbidden("not allowed to delete this photo")
	}
	if err := s.repo.DeletePhoto(ctx, photoID); err != nil {
		return err
	}

	if err := s.cdn.Destroy(ctx, photo.PublicID); err != nil {
		s.log.Warnf("CDN destroy failed for %s: %v", photo.PublicID, err)
	}
	s.log.Infof("Photo %d deleted by user %d", photoID, actor.ID)
	return nil
}

// ReplacePhotoTags replaces a photo's tag set. Owner or Admin only.
func (s *Service) ReplacePhotoTags(ctx context.Context, actor *models.User, photoID int64, tagNames []string) (*models.Photo, error) {
	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, auth.ActionPhotoUpdate, photo.OwnerID) {
		return nil, apperrors.Forbidden("not allowed to modify this photo")
	}

	tags, err := normalizeTags(tagNames)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePhotoTags(ctx, photoID, tags); err != nil {
		return nil, err
	}
	photo.Tags = tags
	return photo, nil
}

// SearchPhotos filters photos conjunctively and sorts by creation date or
// average rating.
func (s *Service) SearchPhotos(ctx context.Context, params repository.SearchParams, page, size int) ([]*models.Photo, int, error) {
	if params.SortBy != "" && params.SortBy != "created_at" && params.SortBy != "rating" {
		return nil, 0, apperrors.Validation("sort_by must be created_at or rating")
	}
	if params.SortOrder != "" && params.SortOrder != "asc" && params.SortOrder != "desc" {
		return nil, 0, apperrors.Validation("sort_order must be asc or desc")
	}
	if params.MinRating < 0 || params.MinRating > 5 || params.MaxRating < 0 || params.MaxRating > 5 {
		return nil, 0, apperrors.Validation("rating filters must be between 1 and 5")
	}
	params.Limit, params.Offset = pageToRange(page, size)
	return s.repo.SearchPhotos(ctx, params)
}

// TransformOptions carries the per-transformation knobs.
type TransformOptions struct {
	Size         int `json:"size,omitempty"`
	Radius       int `json:"radius,omitempty"`
	BlurStrength int `json:"blur_strength,omitempty"`
}

// TransformPhoto builds a derived-image URL on the CDN and records it with
// a QR code pointing at the result.
func (s *Service) TransformPhoto(ctx context.Context, photoID int64, name string, opts TransformOptions) (*models.Transformation, error) {
	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	var url string
	params := map[string]interface{}{"type": name}
	switch name {
	case imagecdn.TransformCircle:
		size := opts.Size
		if size <= 0 {
			size = 200
		}
		url = s.cdn.CircleCropURL(photo.PublicID, size)
		params["size"] = size
	case imagecdn.TransformRounded:
		radius := opts.Radius
		if radius <= 0 {
			radius = 20
		}
		url = s.cdn.RoundedCornersURL(photo.PublicID, radius)
		params["radius"] = radius
	case imagecdn.TransformGrayscale:
		url = s.cdn.GrayscaleURL(photo.PublicID)
	case imagecdn.TransformSepia:
		url = s.cdn.SepiaURL(photo.PublicID)
	case imagecdn.TransformBlur:
		strength := opts.BlurStrength
		if strength <= 0 {
			strength = 500
		}
		url = s.cdn.BlurURL(photo.PublicID, strength)
		params["strength"] = strength
	default:
		return nil, apperrors.Validation("unknown transformation %q", name)
	}

	qrCode, err := qr.DataURI(url, 256)
	if err != nil {
		return nil, err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}

	transformation := &models.Transformation{
		PhotoID:  photo.ID,
		URL:      url,
		PublicID: fmt.Sprintf("%s_%s_%d", photo.PublicID, name, time.Now().UnixMilli()),
		Params:   string(paramsJSON),
		QRCode:   qrCode,
	}
	if err := s.repo.CreateTransformation(ctx, transformation); err != nil {
		return nil, err
	}
	return transformation, nil
}

// ListTransformations returns a photo's stored transformations
func (s *Service) ListTransformations(ctx context.Context, photoID int64) ([]*models.Transformation, error) {
	if _, err := s.repo.FindPhotoByID(ctx, photoID); err != nil {
		return nil, err
	}
	return s.repo.ListTransformationsByPhoto(ctx, photoID)
}

// PhotoQR renders a QR code PNG for the photo's hosted URL
func (s *Service) PhotoQR(ctx context.Context, photoID int64) ([]byte, error) {
	photo, err := s.repo.FindPhotoByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	return qr.PNG(photo.URL, 256)
}
