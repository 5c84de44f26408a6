package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/repository"
)

// StaffService, public ekip sayfası ve admin kadro yönetimi.
type StaffService interface {
	// ListActive, public liste: sadece aktif üyeler, display_order'a göre.
	ListActive(ctx context.Context) ([]models.StaffMember, error)
	ListAll(ctx context.Context) ([]models.StaffMember, error)
	GetByID(ctx context.Context, id int64) (*models.StaffMember, error)
	Create(ctx context.Context, req *models.CreateStaffMemberRequest) (*models.StaffMember, error)
	Update(ctx context.Context, id int64, req *models.UpdateStaffMemberRequest) (*models.StaffMember, error)
	Delete(ctx context.Context, id int64) error
}

type staffService struct {
	staffRepo repository.StaffRepository
	now       func() time.Time
}

func NewStaffService(staffRepo repository.StaffRepository) StaffService {
	return &staffService{
		staffRepo: staffRepo,
		now:       time.Now,
	}
}

func (s *staffService) ListActive(ctx context.Context) ([]models.StaffMember, error) {
	return s.staffRepo.List(ctx, true)
}

func (s *staffService) ListAll(ctx context.Context) ([]models.StaffMember, error) {
	return s.staffRepo.List(ctx, false)
}

func (s *staffService) GetByID(ctx context.Context, id int64) (*models.StaffMember, error) {
	return s.staffRepo.GetByID(ctx, id)
}

func (s *staffService) Create(ctx context.Context, req *models.CreateStaffMemberRequest) (*models.StaffMember, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	now := s.now().UTC()
	member := req.ToMember(now)
	member.CreatedAt = now

	if err := s.staffRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *staffService) Update(ctx context.Context, id int64, req *models.UpdateStaffMemberRequest) (*models.StaffMember, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	member, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(member)
	member.UpdatedAt = s.now().UTC()

	if err := s.staffRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *staffService) Delete(ctx context.Context, id int64) error {
	return s.staffRepo.Delete(ctx, id)
}
