package service

import (
	"context"
	"strings"

	"fixpoint/internal/models"
	"fixpoint/internal/repository"
)

// SiteService covers the admin dashboard and key/value site settings.
type SiteService struct {
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
	settingRepo repository.SettingRepository
}

// DashboardStats is the summary shown on the admin dashboard.
type DashboardStats struct {
	RequestsByStatus map[models.RequestStatus]int64 `json:"requests_by_status"`
	TotalRequests    int64                          `json:"total_requests"`
	TotalUsers       int64                          `json:"total_users"`
	UnreadMessages   int64                          `json:"unread_messages"`
}

func NewSiteService(requestRepo repository.RequestRepository, userRepo repository.UserRepository, contactRepo repository.ContactRepository, settingRepo repository.SettingRepository) *SiteService {
	return &SiteService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		contactRepo: contactRepo,
		settingRepo: settingRepo,
	}
}

func (s *SiteService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var totalRequests int64
	for _, n := range counts {
		totalRequests += n
	}

	_, totalUsers, err := s.userRepo.List(ctx, 1, 0)
	if err != nil {
		return nil, err
	}

	unread, err := s.contactRepo.CountUnread(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		RequestsByStatus: counts,
		TotalRequests:    totalRequests,
		TotalUsers:       totalUsers,
		UnreadMessages:   unread,
	}, nil
}

func (s *SiteService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	return s.settingRepo.Get(ctx, key)
}

func (s *SiteService) PutSetting(ctx context.Context, key, value string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, models.NewValidationError("key is required")
	}
	return s.settingRepo.Upsert(ctx, key, value)
}

func (s *SiteService) ListSettings(ctx context.Context) ([]models.Setting, error) {
	return s.settingRepo.List(ctx)
}
