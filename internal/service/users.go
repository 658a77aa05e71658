package service

import (
	"context"
	"strings"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/models"
)

// Profile bundles a user with their photo count.
type Profile struct {
	User        *models.User
	PhotosCount int
}

// GetProfileByUsername returns a user's public profile
func (s *Service) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

// GetOwnProfile returns the authenticated user's full profile
func (s *Service) GetOwnProfile(ctx context.Context, actor *models.User) (*Profile, error) {
	return s.profileOf(ctx, actor)
}

func (s *Service) profileOf(ctx context.Context, user *models.User) (*Profile, error) {
	count, err := s.repo.CountUserPhotos(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, PhotosCount: count}, nil
}

// UpdateProfile lets a user change their own username and email
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, username, emailAddr string) (*models.User, error) {
	username = strings.TrimSpace(username)
	emailAddr = strings.TrimSpace(emailAddr)

	updated := *actor
	if username != "" {
		updated.Username = username
	}
	if emailAddr != "" {
		if !strings.Contains(emailAddr, "@") {
			return nil, apperrors.Validation("invalid email address")
		}
		updated.Email = emailAddr
	}
	if err := s.repo.UpdateUser(ctx, &updated); err != nil {
		return nil, err
	}

	s.log.Infof("Profile updated: %d", updated.ID)
	return &updated, nil
}

// SetUserBanned bans or unbans a user. Admin only; admins cannot change
// their own status. Accounts are never hard-deleted, banning is the soft
// disable.
func (s *Service) SetUserBanned(ctx context.Context, actor *models.User, targetID int64, banned bool) (*models.User, error) {
	if !auth.Can(actor, auth.ActionUserBan, 0) {
		return nil, apperrors.Forbidden("admin privileges required")
	}
	if actor.ID == targetID {
		return nil, apperrors.Validation("cannot change your own account status")
	}

	target, err := s.repo.FindUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetUserBanned(ctx, targetID, banned); err != nil {
		return nil, err
	}
	target.Banned = banned

	if s.mail.Enabled() {
		go func() {
			if err := s.mail.SendBanNotice(target.Email, target.Username, banned); err != nil {
				s.log.Warnf("Ban notice failed for %s: %v", target.Email, err)
			}
		}()
	}

	s.log.Infof("User %d banned=%t by admin %d", targetID, banned, actor.ID)
	return target, nil
}
