package patient

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	"github.com/clinicore/intake-api/pkg/errors"
)

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

// FindOrCreate resolves an intake identity to a patient within the clinic.
// The match is a heuristic, not a key lookup: name compared
// case-insensitively and the stored canonical phone must contain the
// candidate canonical phone as a substring. A matched patient is returned
// unchanged; later registrations never overwrite contact info through this
// path.
//
// Read-then-write with no transactional guard: two near-simultaneous
// registrations with identical inputs can both create a row.
func (s *Service) FindOrCreate(ctx context.Context, clinicID uuid.UUID, name, phone, email string) (*model.Patient, error) {
	name = strings.TrimSpace(name)
	canonical := model.CanonicalPhone(phone)
	if name == "" {
		return nil, errors.MissingField("name")
	}
	if canonical == "" {
		return nil, errors.MissingField("phone")
	}

	existing, err := s.repo.FindMatch(ctx, clinicID, name, canonical)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve patient: %w", err)
	}

	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		ClinicID: clinicID,
		Name:     name,
		Phone:    canonical,
		Email:    email,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		ClinicID: req.ClinicID,
		Name:     strings.TrimSpace(req.Name),
		Phone:    model.CanonicalPhone(req.Phone),
		Email:    req.Email,
	}
	if patient.Name == "" {
		return nil, errors.MissingField("name")
	}
	if patient.Phone == "" {
		return nil, errors.MissingField("phone")
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		patient.Phone = model.CanonicalPhone(*req.Phone)
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
