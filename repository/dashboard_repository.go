package repository

import (
	"context"
	"database/sql"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
)

// DashboardCounts, admin paneli sayaçlarının tutarlı tek bir görüntüsü.
type DashboardCounts struct {
	Applications     map[models.ApplicationStatus]int
	LatestPending    []models.Application
	NewsCount        int
	UserCount        int
	ActiveStaffCount int
}

// DashboardRepository, dashboard sayaçlarını tek okuma transaction'ında toplar.
type DashboardRepository interface {
	Counts(ctx context.Context, latestPending int) (*DashboardCounts, error)
}

type sqliteDashboardRepo struct {
	db *sql.DB
}

// NewSQLiteDashboardRepo, constructor. Transaction açabilmek için *sql.DB alır.
func NewSQLiteDashboardRepo(db *sql.DB) DashboardRepository {
	return &sqliteDashboardRepo{db: db}
}

// Counts, tüm sayımları aynı snapshot üzerinden yapar.
func (r *sqliteDashboardRepo) Counts(ctx context.Context, latestPending int) (*DashboardCounts, error) {
	out := &DashboardCounts{}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		apps := NewSQLiteApplicationRepo(tx)
		counts, err := apps.CountByStatus(ctx)
		if err != nil {
			return err
		}
		out.Applications = counts

		pending := models.StatusPending
		out.LatestPending, err = apps.List(ctx, models.ApplicationFilter{
			Status: &pending,
			Limit:  latestPending,
		})
		if err != nil {
			return err
		}

		if out.NewsCount, err = NewSQLiteNewsRepo(tx).Count(ctx, false); err != nil {
			return err
		}
		if out.UserCount, err = NewSQLiteUserRepo(tx).Count(ctx); err != nil {
			return err
		}
		out.ActiveStaffCount, err = NewSQLiteStaffRepo(tx).CountActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
