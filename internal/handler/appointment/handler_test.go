package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/intake-api/internal/middleware"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	appointmentService "github.com/clinicore/intake-api/internal/service/appointment"
	"github.com/clinicore/intake-api/internal/service/authz"
	patientService "github.com/clinicore/intake-api/internal/service/patient"
	apperrors "github.com/clinicore/intake-api/pkg/errors"
)

type memAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (m *memAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *memAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAppointmentRepo) UpdateEnrichment(_ context.Context, id uuid.UUID, treatments, prescriptions []string) error {
	a, ok := m.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PossibleTreatments = treatments
	a.SuggestedPrescriptions = prescriptions
	now := time.Now()
	a.EnrichedAt = &now
	return nil
}

type memPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (m *memPatientRepo) Create(_ context.Context, p *model.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }

func (m *memPatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

func (m *memPatientRepo) FindMatch(_ context.Context, clinicID uuid.UUID, name, canonicalPhone string) (*model.Patient, error) {
	for _, p := range m.patients {
		if p.ClinicID == clinicID && p.Name == name && p.Phone == canonicalPhone {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type staticValidator struct {
	principal model.Principal
}

func (s staticValidator) ValidateToken(token string) (model.Principal, error) {
	if token != "good-token" {
		return model.Principal{}, apperrors.Authentication("invalid token", nil)
	}
	return s.principal, nil
}

func newTestServer(clinicID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	patientRepo := &memPatientRepo{patients: map[uuid.UUID]*model.Patient{}}
	svc := appointmentService.NewService(
		&memAppointmentRepo{appointments: map[uuid.UUID]*model.Appointment{}},
		patientRepo,
		patientService.NewService(patientRepo),
		authz.NewService(),
		nil,
		nil,
		nil,
		zerolog.Nop(),
		nil,
	)
	h := NewHandler(svc)

	authMw := middleware.NewAuthMiddleware(staticValidator{
		principal: model.Principal{UserID: uuid.New(), Role: model.RoleStaff, ClinicID: &clinicID},
	})

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterPublicRoutes(api.Group("/public"))
	protected := api.Group("")
	protected.Use(authMw.Authenticate())
	h.RegisterRoutes(protected)
	return engine
}

func postJSON(engine *gin.Engine, path, token string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPublicIntakeEndpoint(t *testing.T) {
	clinicID := uuid.New()
	engine := newTestServer(clinicID)

	w := postJSON(engine, "/api/v1/public/appointments/patient", "", map[string]interface{}{
		"patientInfo": map[string]string{
			"name":  "Jane Doe",
			"phone": "555-111-2222",
		},
		"appointmentInfo": map[string]interface{}{
			"clinicId":       clinicID,
			"purposeOfVisit": "checkup",
			"symptoms":       "fever",
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, model.AppointmentStatusScheduled, resp.Data.Status)
	assert.Equal(t, clinicID, resp.Data.ClinicID)
	assert.NotNil(t, resp.Data.PossibleTreatments)
	assert.Empty(t, resp.Data.PossibleTreatments)

	// Key-level check of the response body, since clients match on the
	// literal names and status values.
	var raw struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "Scheduled", raw.Data["status"])
	assert.Equal(t, "Jane Doe", raw.Data["patientName"])
	assert.Contains(t, raw.Data, "clinicId")
	assert.Contains(t, raw.Data, "purposeOfVisit")
	assert.NotContains(t, raw.Data, "patient_name")
}

func TestPublicIntakeValidation(t *testing.T) {
	engine := newTestServer(uuid.New())

	w := postJSON(engine, "/api/v1/public/appointments/patient", "", map[string]interface{}{
		"patientInfo": map[string]string{"name": "Jane Doe"},
		"appointmentInfo": map[string]interface{}{
			"purposeOfVisit": "checkup",
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Len(t, resp.Errors, 3)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newTestServer(uuid.New())

	w := postJSON(engine, "/api/v1/appointments", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(engine, "/api/v1/appointments", "bad-token", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTakeInEndpoint(t *testing.T) {
	clinicID := uuid.New()
	engine := newTestServer(clinicID)

	w := postJSON(engine, "/api/v1/public/appointments/patient", "", map[string]interface{}{
		"patientInfo": map[string]string{
			"name":  "Jane Doe",
			"phone": "555-111-2222",
		},
		"appointmentInfo": map[string]interface{}{
			"clinicId":       clinicID,
			"purposeOfVisit": "checkup",
			"symptoms":       "fever",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/appointments/%s/take-in", created.Data.ID), nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var taken struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taken))
	assert.Equal(t, model.AppointmentStatusInProgress, taken.Data.Status)
	assert.NotNil(t, taken.Data.DoctorID)

	// A second take-in hits the lifecycle guard.
	rec2 := httptest.NewRecorder()
	engine.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusConflict, rec2.Code)
}
