package clinic

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	"github.com/clinicore/intake-api/internal/service/authz"
	"github.com/clinicore/intake-api/pkg/errors"
)

// Service manages clinics. Creation is a SUPER_ADMIN action; reads are open
// to any authenticated principal so staff can resolve their own clinic.
type Service struct {
	clinics repository.ClinicRepository
	guard   *authz.Service
}

func NewService(clinics repository.ClinicRepository, guard *authz.Service) *Service {
	return &Service{clinics: clinics, guard: guard}
}

func (s *Service) CreateClinic(ctx context.Context, principal model.Principal, req *model.CreateClinicRequest) (*model.Clinic, error) {
	if err := s.guard.Authorize(principal, nil, model.RoleSuperAdmin); err != nil {
		return nil, err
	}

	clinic := &model.Clinic{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := s.clinics.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.clinics.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("clinic", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) UpdateClinic(ctx context.Context, principal model.Principal, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	if err := s.guard.Authorize(principal, &id, model.RoleClinicAdmin); err != nil {
		return nil, err
	}

	clinic, err := s.GetClinic(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		clinic.Name = *req.Name
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Phone != nil {
		clinic.Phone = *req.Phone
	}

	clinic.UpdatedAt = time.Now()
	if err := s.clinics.Update(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to update clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) ListClinics(ctx context.Context, principal model.Principal) ([]*model.Clinic, error) {
	if err := s.guard.Authorize(principal, nil, model.RoleSuperAdmin); err != nil {
		return nil, err
	}

	clinics, err := s.clinics.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}
