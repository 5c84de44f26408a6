package services

import (
	"context"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/repository"
	"github.com/tokyoedge/portal/ws"
)

// latestPendingLimit, dashboard'da gösterilen en yeni bekleyen başvuru sayısı.
const latestPendingLimit = 5

// DashboardService, admin paneli özet ekranı.
type DashboardService interface {
	Summary(ctx context.Context, id models.Identity) (*models.DashboardSummary, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	userRepo      repository.UserRepository
	status        StatusBroadcaster
	hub           ws.Publisher
}

func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	userRepo repository.UserRepository,
	status StatusBroadcaster,
	hub ws.Publisher,
) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		userRepo:      userRepo,
		status:        status,
		hub:           hub,
	}
}

func (s *dashboardService) Summary(ctx context.Context, id models.Identity) (*models.DashboardSummary, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	counts, err := s.dashboardRepo.Counts(ctx, latestPendingLimit)
	if err != nil {
		return nil, err
	}

	pending, err := enrichApplications(ctx, s.userRepo, counts.LatestPending)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		Applications:     counts.Applications,
		LatestPending:    pending,
		NewsCount:        counts.NewsCount,
		UserCount:        counts.UserCount,
		ActiveStaffCount: counts.ActiveStaffCount,
	}

	if s.status != nil {
		stats := s.status.Latest(ctx)
		summary.ServerStatus = &stats
	}
	if s.hub != nil {
		summary.StatusSubscribers = s.hub.Count()
	}

	return summary, nil
}
