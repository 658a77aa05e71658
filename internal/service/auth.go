package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/models"
)

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, emailAddr, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	emailAddr = strings.TrimSpace(emailAddr)
	if username == "" || emailAddr == "" {
		return nil, apperrors.Validation("username and email are required")
	}
	if !strings.Contains(emailAddr, "@") {
		return nil, apperrors.Validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.mail.Enabled() {
		go func() {
			if err := s.mail.SendWelcome(user.Email, user.Username); err != nil {
				s.log.Warnf("Welcome email failed for %s: %v", user.Email, err)
			}
		}()
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and issues an access/refresh token pair.
// Banned users cannot log in.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*auth.TokenPair, error) {
	user, err := s.repo.FindUserByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperrors.Auth("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Auth("invalid credentials")
	}
	if user.Banned {
		return nil, apperrors.Forbidden("account is banned")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	s.log.Infof("User logged in: %s", user.Email)
	return pair, nil
}

// Refresh validates a refresh token and issues a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.Auth("token revoked")
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Auth("unknown user")
	}
	if user.Banned {
		return nil, apperrors.Forbidden("account is banned")
	}

	// Rotate: the used refresh token is revoked together with issuing the
	// new pair.
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(user.ID)
}

// Logout revokes the presented access token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.Auth("missing token")
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.log.Infof("User logged out: %d", claims.UserID)
	return nil
}
