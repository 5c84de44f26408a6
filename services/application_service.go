package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/ratelimit"
	"github.com/tokyoedge/portal/repository"
)

var appLog = logger.For("applications")

// ApplicationService, staff başvuru workflow'u.
//
// Her operasyon çağıranın Identity'sini alır. Yetki kontrolü her zaman
// repository'ye dokunmadan önce yapılır: reddedilen çağrı hiçbir şeyi değiştirmez.
type ApplicationService interface {
	Submit(ctx context.Context, id models.Identity, req *models.SubmitApplicationRequest) (*models.Application, error)
	ListMine(ctx context.Context, id models.Identity) ([]models.Application, error)

	ListForReview(ctx context.Context, id models.Identity, filter models.ApplicationFilter) (*models.ApplicationPage, error)
	GetByID(ctx context.Context, id models.Identity, appID int64) (*models.ApplicationWithUser, error)
	Review(ctx context.Context, id models.Identity, appID int64, req *models.ReviewApplicationRequest) (*models.ApplicationWithUser, error)
	Reopen(ctx context.Context, id models.Identity, appID int64, req *models.ReopenApplicationRequest) (*models.ApplicationWithUser, error)
}

type applicationService struct {
	appRepo         repository.ApplicationRepository
	userRepo        repository.UserRepository
	policy          TransitionPolicy
	allowDuplicates bool
	limiter         *ratelimit.UserLimiter // nil → limit yok
	notifier        ApplicationNotifier
	now             func() time.Time
}

// NewApplicationService, constructor.
//
// policy nil ise PermissivePolicy kullanılır. allowDuplicates false iken
// bir kullanıcı aynı anda tek açık (pending/in_review) başvuru tutabilir.
func NewApplicationService(
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	policy TransitionPolicy,
	allowDuplicates bool,
	limiter *ratelimit.UserLimiter,
	notifier ApplicationNotifier,
) ApplicationService {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	if notifier == nil {
		notifier = NewApplicationNotifier(nil, nil, userRepo)
	}
	return &applicationService{
		appRepo:         appRepo,
		userRepo:        userRepo,
		policy:          policy,
		allowDuplicates: allowDuplicates,
		limiter:         limiter,
		notifier:        notifier,
		now:             time.Now,
	}
}

// requireUser, çağıranın giriş yapmış olmasını şart koşar.
func requireUser(id models.Identity) error {
	if !id.IsAuthenticated {
		return fmt.Errorf("%w: authentication required", pkg.ErrUnauthorized)
	}
	return nil
}

// requireAdmin, anonim çağrıda ErrUnauthorized, admin olmayan kullanıcıda ErrForbidden döner.
func requireAdmin(id models.Identity) error {
	if err := requireUser(id); err != nil {
		return err
	}
	if !id.IsAdmin {
		return fmt.Errorf("%w: admin access required", pkg.ErrForbidden)
	}
	return nil
}

// Submit, yeni başvuru oluşturur.
//
// Client'tan gelen status/notes/reviewer yok sayılır: başvuru her zaman
// pending, notsuz ve reviewer'sız başlar; created_at == updated_at.
func (s *applicationService) Submit(ctx context.Context, id models.Identity, req *models.SubmitApplicationRequest) (*models.Application, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Açık başvuru kontrolü limiter'dan önce: 409 alan istek token harcamaz.
	if !s.allowDuplicates {
		open, err := s.appRepo.HasOpen(ctx, id.UserID)
		if err != nil {
			return nil, err
		}
		if open {
			return nil, fmt.Errorf("%w: you already have an open application", pkg.ErrAlreadyExists)
		}
	}
	if s.limiter != nil && !s.limiter.Allow(id.UserID) {
		return nil, fmt.Errorf("%w: please wait before submitting again", pkg.ErrRateLimited)
	}

	now := s.now().UTC()
	app := &models.Application{
		UserID:               id.UserID,
		Age:                  req.Age,
		Timezone:             req.Timezone,
		Languages:            req.Languages,
		Availability:         req.Availability,
		RPExperience:         req.RPExperience,
		ModerationExperience: req.ModerationExperience,
		ServerFamiliarity:    req.ServerFamiliarity,
		WhyJoin:              req.WhyJoin,
		Scenario:             req.Scenario,
		Contribution:         req.Contribution,
		AdditionalInfo:       req.AdditionalInfo,
		Status:               models.StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var err error
	if s.allowDuplicates {
		err = s.appRepo.Create(ctx, app)
	} else {
		err = s.appRepo.CreateIfNoneOpen(ctx, app)
	}
	if err != nil {
		return nil, err
	}

	appLog.WithFields(logrus.Fields{"application_id": app.ID, "user_id": app.UserID}).Info("application submitted")
	s.notifier.ApplicationSubmitted(*app)

	return app, nil
}

// ListMine, çağıranın kendi başvuruları, en yeni önce.
func (s *applicationService) ListMine(ctx context.Context, id models.Identity) ([]models.Application, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	return s.appRepo.ListByUser(ctx, id.UserID)
}

// ListForReview, admin inceleme listesi: status filtresi, en yeni önce, sayfalı.
func (s *applicationService) ListForReview(ctx context.Context, id models.Identity, filter models.ApplicationFilter) (*models.ApplicationPage, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	apps, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.appRepo.Count(ctx, filter.Status)
	if err != nil {
		return nil, err
	}

	items, err := enrichApplications(ctx, s.userRepo, apps)
	if err != nil {
		return nil, err
	}

	return &models.ApplicationPage{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (s *applicationService) GetByID(ctx context.Context, id models.Identity, appID int64) (*models.ApplicationWithUser, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, app)
}

// Review, status, notlar ve reviewer'ı birlikte üzerine yazar.
// Serialized policy'de (strict) okunduktan sonra değişmiş başvuru ErrConflict verir.
// Aynı {status, notes} ile tekrar review sonucu değiştirmez, sadece updated_at ilerler.
func (s *applicationService) Review(ctx context.Context, id models.Identity, appID int64, req *models.ReviewApplicationRequest) (*models.ApplicationWithUser, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allow(app.Status, req.Status) {
		return nil, pkg.NewValidationError("status",
			fmt.Sprintf("cannot move application from %s to %s", app.Status, req.Status))
	}

	previous := app.Status
	if err := s.applyReview(ctx, app, req.Status, req.AdminNotes, id.UserID); err != nil {
		return nil, err
	}

	appLog.WithFields(logrus.Fields{
		"application_id": app.ID,
		"reviewer":       id.UserID,
		"from":           previous,
		"to":             app.Status,
		"policy":         s.policy.Name(),
	}).Info("application reviewed")

	if app.Status.Decided() && previous != app.Status {
		s.notifier.ApplicationDecided(*app)
	}

	return s.enrichOne(ctx, app)
}

// Reopen, approved/rejected başvuruyu tekrar in_review'a alır.
// Not verilmezse mevcut admin notu korunur.
func (s *applicationService) Reopen(ctx context.Context, id models.Identity, appID int64, req *models.ReopenApplicationRequest) (*models.ApplicationWithUser, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !app.Status.Decided() {
		return nil, pkg.NewValidationError("status", "only approved or rejected applications can be reopened")
	}

	notes := app.AdminNotes
	if req != nil && req.AdminNotes != nil {
		notes = req.AdminNotes
	}

	if err := s.applyReview(ctx, app, models.StatusInReview, notes, id.UserID); err != nil {
		return nil, err
	}

	appLog.WithFields(logrus.Fields{"application_id": app.ID, "reviewer": id.UserID}).Info("application reopened")
	return s.enrichOne(ctx, app)
}

func (s *applicationService) applyReview(ctx context.Context, app *models.Application, status models.ApplicationStatus, notes *string, reviewer int64) error {
	now := s.now().UTC()

	var err error
	if s.policy.Serialized() {
		err = s.appRepo.UpdateReviewFrom(ctx, app.ID, app.Status, status, notes, reviewer, now)
	} else {
		err = s.appRepo.UpdateReview(ctx, app.ID, status, notes, reviewer, now)
	}
	if err != nil {
		return err
	}

	app.Status = status
	app.AdminNotes = notes
	app.ReviewedBy = &reviewer
	app.UpdatedAt = now
	return nil
}

func (s *applicationService) enrichOne(ctx context.Context, app *models.Application) (*models.ApplicationWithUser, error) {
	items, err := enrichApplications(ctx, s.userRepo, []models.Application{*app})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// enrichApplications, başvurulara başvuran özetini iliştirir.
// İki adımlı okuma: önce başvurular, sonra tek sorguda kullanıcılar.
// Silinmiş kullanıcının başvurusu User=nil ile döner.
func enrichApplications(ctx context.Context, userRepo repository.UserRepository, apps []models.Application) ([]models.ApplicationWithUser, error) {
	items := make([]models.ApplicationWithUser, len(apps))
	if len(apps) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(apps))
	seen := make(map[int64]bool, len(apps))
	for _, a := range apps {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}

	users, err := userRepo.GetSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load applicants: %w", err)
	}

	for i, a := range apps {
		items[i] = models.ApplicationWithUser{Application: a, User: users[a.UserID]}
	}
	return items, nil
}
