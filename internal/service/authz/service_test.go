package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	svc := NewService()
	clinicA := uuid.New()
	clinicB := uuid.New()

	superAdmin := model.Principal{UserID: uuid.New(), Role: model.RoleSuperAdmin}
	clinicAdmin := model.Principal{UserID: uuid.New(), Role: model.RoleClinicAdmin, ClinicID: &clinicA}
	unassignedAdmin := model.Principal{UserID: uuid.New(), Role: model.RoleClinicAdmin}
	staff := model.Principal{UserID: uuid.New(), Role: model.RoleStaff, ClinicID: &clinicA}

	tests := []struct {
		name      string
		principal model.Principal
		clinicID  *uuid.UUID
		minRole   model.Role
		wantAllow bool
	}{
		{"super admin any clinic", superAdmin, &clinicB, model.RoleStaff, true},
		{"super admin no clinic", superAdmin, nil, model.RoleSuperAdmin, true},
		{"clinic admin own clinic", clinicAdmin, &clinicA, model.RoleClinicAdmin, true},
		{"clinic admin staff-level action", clinicAdmin, &clinicA, model.RoleStaff, true},
		{"clinic admin absent clinic", clinicAdmin, nil, model.RoleStaff, true},
		{"clinic admin foreign clinic", clinicAdmin, &clinicB, model.RoleStaff, false},
		{"clinic admin super-admin action", clinicAdmin, &clinicA, model.RoleSuperAdmin, false},
		{"clinic admin unassigned always denied", unassignedAdmin, nil, model.RoleStaff, false},
		{"staff own clinic", staff, &clinicA, model.RoleStaff, true},
		{"staff absent clinic", staff, nil, model.RoleStaff, true},
		{"staff foreign clinic", staff, &clinicB, model.RoleStaff, false},
		{"staff admin-level action", staff, &clinicA, model.RoleClinicAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(tt.principal, tt.clinicID, tt.minRole)
			if tt.wantAllow {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, errors.KindAuthorization, errors.KindOf(err))
			}
		})
	}
}

func TestAuthorizeSelfUpdate(t *testing.T) {
	svc := NewService()
	clinicA := uuid.New()
	self := uuid.New()
	other := uuid.New()

	staff := model.Principal{UserID: self, Role: model.RoleStaff, ClinicID: &clinicA}
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleClinicAdmin, ClinicID: &clinicA}

	assert.NoError(t, svc.AuthorizeSelfUpdate(staff, self))
	assert.Error(t, svc.AuthorizeSelfUpdate(staff, other))
	assert.NoError(t, svc.AuthorizeSelfUpdate(admin, other))
}
