package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/config"
	"github.com/dkravets/photoshare-service/internal/integrations/imagecdn"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/utils/email"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		CDNCloudName:   "testcloud",
		CDNUploadURL:   "https://api.cloudinary.com/v1_1",
		CDNDeliveryURL: "https://res.cloudinary.com",
		CDNFolder:      "photoshare",
	}
}

// memBlacklist is an in-memory Blacklist for tests.
type memBlacklist struct {
	revoked map[string]bool
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{revoked: make(map[string]bool)}
}

func (b *memBlacklist) Add(_ context.Context, jti string, _ time.Time) error {
	b.revoked[jti] = true
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	return b.revoked[jti], nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *memBlacklist) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := testConfig()
	blacklist := newMemBlacklist()
	svc := NewService(
		repository.NewRepository(db),
		logger,
		cfg,
		auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		blacklist,
		imagecdn.NewClient(cfg, logger),
		email.NewSender(cfg, logger),
	)
	return svc, mock, blacklist
}

func TestPageToRange(t *testing.T) {
	tests := []struct {
		page, size            int
		wantLimit, wantOffset int
	}{
		{1, 20, 20, 0},
		{3, 10, 10, 20},
		{0, 0, 20, 0},
		{-1, 500, 100, 0},
		{2, 100, 100, 100},
	}
	for _, tt := range tests {
		limit, offset := pageToRange(tt.page, tt.size)
		assert.Equal(t, tt.wantLimit, limit, "page=%d size=%d", tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, offset, "page=%d size=%d", tt.page, tt.size)
	}
}
