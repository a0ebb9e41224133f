package model

import (
	"strings"

	"github.com/google/uuid"
)

// Patient belongs to exactly one clinic. Phone is stored in digits-only
// canonical form so that "(555) 111-2222" and "555-111-2222" resolve to
// the same record.
type Patient struct {
	Base
	ClinicID uuid.UUID `db:"clinic_id" json:"clinicId"`
	Name     string    `db:"name" json:"name"`
	Phone    string    `db:"phone" json:"phone"`
	Email    string    `db:"email" json:"email,omitempty"`
}

// CanonicalPhone strips every non-digit rune from phone.
func CanonicalPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type CreatePatientRequest struct {
	ClinicID uuid.UUID `json:"clinicId" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	Phone    string    `json:"phone" binding:"required"`
	Email    string    `json:"email" binding:"omitempty,email"`
}

type UpdatePatientRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type PatientFilters struct {
	ClinicID   uuid.UUID
	SearchTerm string
}
