package user

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
	"github.com/clinicore/intake-api/pkg/security"
)

// Service manages staff accounts. Role placement rules:
// SUPER_ADMIN users carry no clinic, everyone else needs one, and only a
// SUPER_ADMIN may mint another SUPER_ADMIN.
type Service struct {
	users  repository.UserRepository
	guard  *authz.Service
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, guard *authz.Service, hasher security.PasswordHasher) *Service {
	return &Service{users: users, guard: guard, hasher: hasher}
}

func (s *Service) CreateUser(ctx context.Context, principal model.Principal, req *model.CreateUserRequest) (*model.User, error) {
	requiredRole := model.RoleClinicAdmin
	if req.Role == model.RoleSuperAdmin {
		requiredRole = model.RoleSuperAdmin
	}
	if err := s.guard.Authorize(principal, req.ClinicID, requiredRole); err != nil {
		return nil, err
	}

	if req.Role == model.RoleSuperAdmin && req.ClinicID != nil {
		return nil, errors.Validation("invalid request", errors.FieldError{
			Field:   "clinicId",
			Message: "super admin users are not bound to a clinic",
		})
	}
	if req.Role != model.RoleSuperAdmin && req.ClinicID == nil {
		return nil, errors.MissingField("clinicId")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.Validation("invalid request", errors.FieldError{
			Field:   "email",
			Message: "email already in use",
		})
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation("invalid request", errors.FieldError{
			Field:   "password",
			Message: err.Error(),
		})
	}

	user := &model.User{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		ClinicID:     req.ClinicID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, user.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update. Staff may only touch their own
// record; admins may touch any record inside their clinic scope.
func (s *Service) UpdateUser(ctx context.Context, principal model.Principal, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, user.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeSelfUpdate(principal, user.ID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, errors.Validation("invalid request", errors.FieldError{
				Field:   "password",
				Message: err.Error(),
			})
		}
		user.PasswordHash = hash
	}
	if req.Status != nil {
		// Deactivation is an admin action, not a self-service one.
		if !principal.Role.AtLeast(model.RoleClinicAdmin) {
			return nil, errors.Authorization("only admins may change user status")
		}
		user.Status = *req.Status
	}

	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, principal model.Principal, clinicID uuid.UUID) ([]*model.User, error) {
	if clinicID == uuid.Nil && principal.ClinicID != nil {
		clinicID = *principal.ClinicID
	}
	if err := s.guard.Authorize(principal, &clinicID, model.RoleClinicAdmin); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
