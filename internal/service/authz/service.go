// Package authz decides whether a principal may act on a clinic-scoped
// resource. Every endpoint funnels through the single Authorize function;
// there are no per-endpoint guard variants.
package authz

import (
	"github.com/google/uuid"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/errors"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Authorize evaluates the role/clinic policy table in order:
//  1. SUPER_ADMIN: always allowed, any clinic, any required role.
//  2. CLINIC_ADMIN: allowed for CLINIC_ADMIN/STAFF-level actions within its
//     own clinic. A clinic admin with no assigned clinic is always denied.
//  3. STAFF: allowed only for STAFF-level actions within its own clinic.
//
// requestedClinicID may be nil for actions that are not bound to a specific
// clinic yet; non-SUPER_ADMIN principals are then confined to their own.
func (s *Service) Authorize(principal model.Principal, requestedClinicID *uuid.UUID, requiredMinRole model.Role) error {
	switch principal.Role {
	case model.RoleSuperAdmin:
		return nil

	case model.RoleClinicAdmin:
		if principal.ClinicID == nil {
			return errors.Authorization("clinic admin has no assigned clinic")
		}
		if requiredMinRole == model.RoleSuperAdmin {
			return errors.Authorization("requires super admin")
		}
		if requestedClinicID != nil && *requestedClinicID != *principal.ClinicID {
			return errors.Authorization("clinic scope mismatch")
		}
		return nil

	case model.RoleStaff:
		if requiredMinRole != model.RoleStaff {
			return errors.Authorization("insufficient role")
		}
		if principal.ClinicID == nil {
			return errors.Authorization("staff has no assigned clinic")
		}
		if requestedClinicID != nil && *requestedClinicID != *principal.ClinicID {
			return errors.Authorization("clinic scope mismatch")
		}
		return nil

	default:
		return errors.Authorization("unknown role")
	}
}

// AuthorizeSelfUpdate enforces the staff self-update rule: a STAFF principal
// may only update its own user record. Admins are exempt.
func (s *Service) AuthorizeSelfUpdate(principal model.Principal, targetUserID uuid.UUID) error {
	if principal.Role == model.RoleSuperAdmin || principal.Role == model.RoleClinicAdmin {
		return nil
	}
	if principal.UserID != targetUserID {
		return errors.Authorization("staff may only update their own record")
	}
	return nil
}
