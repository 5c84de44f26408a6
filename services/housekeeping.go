package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/repository"
)

var housekeepingLog = logger.For("housekeeping")

// HousekeepingSchedule, temizlik job'ının cron ifadesi.
const HousekeepingSchedule = "@hourly"

// IdleCleaner, kullanılmayan kayıtları bellekten atan bileşen
// (ör. ratelimit.UserLimiter). Silinen kayıt sayısını döner.
type IdleCleaner interface {
	Cleanup() int
}

// Housekeeping, periyodik bakım işleri:
//   - süresi dolmuş refresh session'larını siler
//   - rate limiter'ların boşta kalan kayıtlarını temizler
type Housekeeping struct {
	sessionRepo repository.SessionRepository
	cleaners    []IdleCleaner
	cron        *cron.Cron
	now         func() time.Time
}

// NewHousekeeping, constructor. cleaners nil olabilir.
func NewHousekeeping(sessionRepo repository.SessionRepository, cleaners ...IdleCleaner) *Housekeeping {
	return &Housekeeping{
		sessionRepo: sessionRepo,
		cleaners:    cleaners,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start, job'ı schedule'a ekler ve cron scheduler'ı başlatır.
func (h *Housekeeping) Start(schedule string) error {
	if _, err := h.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		h.RunOnce(ctx)
	}); err != nil {
		return err
	}

	h.cron.Start()
	housekeepingLog.WithField("schedule", schedule).Info("housekeeping scheduled")
	return nil
}

// Stop, scheduler'ı durdurur ve çalışan job'ın bitmesini bekler.
func (h *Housekeeping) Stop() {
	<-h.cron.Stop().Done()
}

// RunOnce, tüm bakım işlerini bir kez çalıştırır.
func (h *Housekeeping) RunOnce(ctx context.Context) {
	purged, err := h.sessionRepo.DeleteExpired(ctx, h.now().UTC())
	if err != nil {
		housekeepingLog.WithError(err).Warn("failed to purge expired sessions")
	} else if purged > 0 {
		housekeepingLog.WithField("sessions", purged).Info("expired sessions purged")
	}

	for _, c := range h.cleaners {
		if c == nil {
			continue
		}
		if n := c.Cleanup(); n > 0 {
			housekeepingLog.WithField("entries", n).Debug("idle limiter entries dropped")
		}
	}
}
