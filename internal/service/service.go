package service

import (
	"github.com/sirupsen/logrus"

	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/config"
	"github.com/dkravets/photoshare-service/internal/integrations/imagecdn"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/utils/email"
)

// Service handles business logic
type Service struct {
	repo      *repository.Repository
	log       *logrus.Logger
	config    *config.Config
	tokens    *auth.TokenManager
	blacklist auth.Blacklist
	cdn       *imagecdn.Client
	mail      *email.Sender
}

// NewService initializes a new service
func NewService(
	repo *repository.Repository,
	log *logrus.Logger,
	cfg *config.Config,
	tokens *auth.TokenManager,
	blacklist auth.Blacklist,
	cdn *imagecdn.Client,
	mail *email.Sender,
) *Service {
	return &Service{
		repo:      repo,
		log:       log,
		config:    cfg,
		tokens:    tokens,
		blacklist: blacklist,
		cdn:       cdn,
		mail:      mail,
	}
}

// pageToRange converts 1-based page/size into limit/offset, clamping size.
func pageToRange(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return size, (page - 1) * size
}
