package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/cache"
	"github.com/tokyoedge/portal/repository"
)

// publicSettingsKey, cache'teki public ayar listesinin anahtarı.
const publicSettingsKey = "public"

// privateSettingCategories, public listede yer almayan kategoriler.
var privateSettingCategories = map[string]bool{
	"internal": true,
}

// SettingService, portal ayarları. Ayarlar silinmez, sadece upsert edilir.
type SettingService interface {
	ListPublic(ctx context.Context) ([]models.Setting, error)
	ListAll(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key string, req *models.UpsertSettingRequest) (*models.Setting, error)
}

type settingService struct {
	settingRepo repository.SettingRepository
	cache       *cache.TTLCache[string, []models.Setting]
}

// NewSettingService, constructor. Public liste ttl süresince cache'lenir;
// her upsert cache'i boşaltır.
func NewSettingService(settingRepo repository.SettingRepository, ttl time.Duration) SettingService {
	return &settingService{
		settingRepo: settingRepo,
		cache:       cache.New[string, []models.Setting](ttl, ttl),
	}
}

func (s *settingService) ListPublic(ctx context.Context) ([]models.Setting, error) {
	if cached, ok := s.cache.Get(publicSettingsKey); ok {
		return cached, nil
	}

	all, err := s.settingRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]models.Setting, 0, len(all))
	for _, st := range all {
		if !privateSettingCategories[st.Category] {
			public = append(public, st)
		}
	}

	s.cache.Set(publicSettingsKey, public)
	return public, nil
}

func (s *settingService) ListAll(ctx context.Context) ([]models.Setting, error) {
	return s.settingRepo.List(ctx)
}

func (s *settingService) Upsert(ctx context.Context, key string, req *models.UpsertSettingRequest) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if err := req.Validate(key); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	setting := &models.Setting{
		Key:      key,
		Value:    req.Value,
		Category: req.Category,
	}
	if err := s.settingRepo.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	s.cache.Delete(publicSettingsKey)
	return setting, nil
}
