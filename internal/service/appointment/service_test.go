package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	"github.com/clinicore/intake-api/internal/service/authz"
	"github.com/clinicore/intake-api/internal/service/patient"
	"github.com/clinicore/intake-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments []*model.Appointment
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	f.appointments = append(f.appointments, a)
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	for _, a := range f.appointments {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	for i, existing := range f.appointments {
		if existing.ID == a.ID {
			f.appointments[i] = a
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appointments {
		if filters.ClinicID != uuid.Nil && a.ClinicID != filters.ClinicID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateEnrichment(_ context.Context, id uuid.UUID, treatments, prescriptions []string) error {
	for _, a := range f.appointments {
		if a.ID == id {
			a.PossibleTreatments = treatments
			a.SuggestedPrescriptions = prescriptions
			now := time.Now()
			a.EnrichedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakePatientRepo struct {
	patients []*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients = append(f.patients, p)
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error { return nil }

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return f.patients, nil
}

func (f *fakePatientRepo) FindMatch(_ context.Context, clinicID uuid.UUID, name, canonicalPhone string) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.ClinicID == clinicID && p.Name == name && p.Phone == canonicalPhone {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubAI struct {
	resp  aidecision.RecommendationsResponse
	calls int
}

func (s *stubAI) Recommendations(_ context.Context, _, _ string, _ []model.FollowUpQA) aidecision.RecommendationsResponse {
	s.calls++
	return s.resp
}

type stubBroker struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (s *stubBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, channel)
	return nil
}

func (s *stubBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (s *stubBroker) Close() error { return nil }

func (s *stubBroker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type fixture struct {
	svc         *Service
	repo        *fakeAppointmentRepo
	patientRepo *fakePatientRepo
	ai          *stubAI
	broker      *stubBroker
}

func newFixture() *fixture {
	repo := &fakeAppointmentRepo{}
	patientRepo := &fakePatientRepo{}
	ai := &stubAI{resp: aidecision.RecommendationsResponse{
		Success:                true,
		PossibleTreatments:     []string{"rest"},
		SuggestedPrescriptions: []string{"paracetamol"},
	}}
	broker := &stubBroker{}
	svc := NewService(
		repo,
		patientRepo,
		patient.NewService(patientRepo),
		authz.NewService(),
		ai,
		broker,
		nil,
		zerolog.Nop(),
		nil,
	)
	return &fixture{svc: svc, repo: repo, patientRepo: patientRepo, ai: ai, broker: broker}
}

func staffPrincipal(clinicID uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleStaff, ClinicID: &clinicID}
}

func publicRequest(clinicID uuid.UUID) *model.PublicAppointmentRequest {
	return &model.PublicAppointmentRequest{
		PatientInfo: model.PublicPatientInfo{
			Name:  "Jane Doe",
			Phone: "555-111-2222",
			Email: "jane@example.com",
		},
		AppointmentInfo: model.PublicAppointmentInfo{
			ClinicID:       clinicID,
			PurposeOfVisit: "checkup",
			Symptoms:       "fever",
		},
	}
}

func TestCreatePublic(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, clinicID, apt.ClinicID)
	assert.NotNil(t, apt.PossibleTreatments)
	assert.Empty(t, apt.PossibleTreatments)
	assert.Nil(t, apt.DoctorID)
	assert.Equal(t, 1, f.broker.count())
	require.Len(t, f.patientRepo.patients, 1)
	assert.Equal(t, f.patientRepo.patients[0].ID, apt.PatientID)
}

func TestCreatePublicReusesMatchingPatient(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	first, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	second, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	assert.Equal(t, first.PatientID, second.PatientID)
	assert.Len(t, f.patientRepo.patients, 1)
	assert.Len(t, f.repo.appointments, 2)
}

func TestCreatePublicValidation(t *testing.T) {
	f := newFixture()

	req := publicRequest(uuid.New())
	req.PatientInfo.Name = "  "
	req.AppointmentInfo.Symptoms = ""

	_, err := f.svc.CreatePublic(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Len(t, appErr.Fields, 2)
	assert.Empty(t, f.repo.appointments)
	assert.Equal(t, 0, f.broker.count())
}

func TestCreatePublicSurvivesBrokerFailure(t *testing.T) {
	f := newFixture()
	f.broker.err = assert.AnError

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(uuid.New()))
	require.NoError(t, err)
	assert.NotNil(t, apt)
}

func TestCreateStaff(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	p := &model.Patient{Base: model.Base{ID: uuid.New()}, ClinicID: clinicID, Name: "Jane Doe"}
	f.patientRepo.patients = append(f.patientRepo.patients, p)

	apt, err := f.svc.CreateStaff(context.Background(), staffPrincipal(clinicID), &model.CreateAppointmentRequest{
		ClinicID:       clinicID,
		PatientID:      p.ID,
		PurposeOfVisit: "checkup",
		Symptoms:       "fever",
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, apt.PatientID)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
}

func TestCreateStaffRejectsUnknownPatient(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	_, err := f.svc.CreateStaff(context.Background(), staffPrincipal(clinicID), &model.CreateAppointmentRequest{
		ClinicID:       clinicID,
		PatientID:      uuid.New(),
		PurposeOfVisit: "checkup",
		Symptoms:       "fever",
	})
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestCreateStaffRejectsCrossClinicPatient(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	p := &model.Patient{Base: model.Base{ID: uuid.New()}, ClinicID: uuid.New(), Name: "Jane Doe"}
	f.patientRepo.patients = append(f.patientRepo.patients, p)

	_, err := f.svc.CreateStaff(context.Background(), staffPrincipal(clinicID), &model.CreateAppointmentRequest{
		ClinicID:       clinicID,
		PatientID:      p.ID,
		PurposeOfVisit: "checkup",
		Symptoms:       "fever",
	})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestCreateStaffRejectsForeignClinic(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateStaff(context.Background(), staffPrincipal(uuid.New()), &model.CreateAppointmentRequest{
		ClinicID:       uuid.New(),
		PatientID:      uuid.New(),
		PurposeOfVisit: "checkup",
		Symptoms:       "fever",
	})
	assert.Equal(t, errors.KindAuthorization, errors.KindOf(err))
}

func TestTakeIn(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	principal := staffPrincipal(clinicID)
	updated, err := f.svc.TakeIn(context.Background(), principal, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, updated.Status)
	require.NotNil(t, updated.DoctorID)
	assert.Equal(t, principal.UserID, *updated.DoctorID)
}

func TestTakeInRejectsNonScheduled(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	principal := staffPrincipal(clinicID)
	_, err = f.svc.TakeIn(context.Background(), principal, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.TakeIn(context.Background(), principal, apt.ID)
	assert.Equal(t, errors.KindStateTransition, errors.KindOf(err))
}

func TestSetStatusTransitions(t *testing.T) {
	clinicID := uuid.New()
	principal := staffPrincipal(clinicID)

	takeIn := func(t *testing.T, f *fixture, id uuid.UUID) {
		_, err := f.svc.TakeIn(context.Background(), principal, id)
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, id uuid.UUID)
		status  model.AppointmentStatus
		wantErr bool
	}{
		{"completed from in_progress", takeIn, model.AppointmentStatusCompleted, false},
		{"completed from scheduled", nil, model.AppointmentStatusCompleted, true},
		{"cancelled from scheduled", nil, model.AppointmentStatusCancelled, false},
		{"cancelled from in_progress", takeIn, model.AppointmentStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
			require.NoError(t, err)
			if tt.prepare != nil {
				tt.prepare(t, f, apt.ID)
			}

			_, err = f.svc.SetStatus(context.Background(), principal, apt.ID, tt.status)
			if tt.wantErr {
				assert.Equal(t, errors.KindStateTransition, errors.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetStatusTerminalIsFinal(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	principal := staffPrincipal(clinicID)

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), principal, apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), principal, apt.ID, model.AppointmentStatusCancelled)
	assert.Equal(t, errors.KindStateTransition, errors.KindOf(err))
	_, err = f.svc.TakeIn(context.Background(), principal, apt.ID)
	assert.Equal(t, errors.KindStateTransition, errors.KindOf(err))
}

func TestSetStatusRejectsNonTerminalTarget(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), staffPrincipal(clinicID), apt.ID, model.AppointmentStatusInProgress)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestGetScopedToClinic(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), staffPrincipal(uuid.New()), apt.ID)
	assert.Equal(t, errors.KindAuthorization, errors.KindOf(err))
}

func TestGetRequeuesMissingEnrichment(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	assert.Equal(t, 1, f.broker.count())

	_, err = f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.broker.count())

	require.NoError(t, f.svc.Enrich(context.Background(), apt.ID))
	_, err = f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.broker.count())
}

func TestGetSkipsRequeueAfterEmptyEnrichment(t *testing.T) {
	f := newFixture()
	f.ai.resp = aidecision.RecommendationsResponse{
		Success:                true,
		PossibleTreatments:     []string{},
		SuggestedPrescriptions: []string{},
	}
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	require.NoError(t, f.svc.Enrich(context.Background(), apt.ID))

	published := f.broker.count()
	stored, err := f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PossibleTreatments)
	assert.NotNil(t, stored.EnrichedAt)
	assert.Equal(t, published, f.broker.count())
}

func TestEnrich(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	require.NoError(t, f.svc.Enrich(context.Background(), apt.ID))

	stored, err := f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rest"}, []string(stored.PossibleTreatments))
	assert.Equal(t, []string{"paracetamol"}, []string(stored.SuggestedPrescriptions))
}

func TestEnrichAIFailureLeavesListsEmpty(t *testing.T) {
	f := newFixture()
	f.ai.resp = aidecision.RecommendationsResponse{
		Success:                false,
		ErrorMessage:           "recommendations unavailable",
		PossibleTreatments:     []string{},
		SuggestedPrescriptions: []string{},
	}
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	require.NoError(t, f.svc.Enrich(context.Background(), apt.ID))

	stored, err := f.svc.Get(context.Background(), staffPrincipal(clinicID), apt.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PossibleTreatments)
}

func TestEnrichSkipsTerminalAppointments(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), staffPrincipal(clinicID), apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	require.NoError(t, f.svc.Enrich(context.Background(), apt.ID))
	assert.Equal(t, 0, f.ai.calls)
}

func TestUpdateRepublishesEnrichment(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)

	symptoms := "fever and chills"
	updated, err := f.svc.Update(context.Background(), staffPrincipal(clinicID), apt.ID, &model.UpdateAppointmentRequest{
		Symptoms: &symptoms,
	})
	require.NoError(t, err)
	assert.Equal(t, symptoms, updated.Symptoms)
	assert.Equal(t, 2, f.broker.count())
}

func TestUpdateRejectsTerminal(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	principal := staffPrincipal(clinicID)

	apt, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), principal, apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	purpose := "changed"
	_, err = f.svc.Update(context.Background(), principal, apt.ID, &model.UpdateAppointmentRequest{
		PurposeOfVisit: &purpose,
	})
	assert.Equal(t, errors.KindStateTransition, errors.KindOf(err))
}

func TestListDefaultsToPrincipalClinic(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()

	_, err := f.svc.CreatePublic(context.Background(), publicRequest(clinicID))
	require.NoError(t, err)
	_, err = f.svc.CreatePublic(context.Background(), publicRequest(uuid.New()))
	require.NoError(t, err)

	out, err := f.svc.List(context.Background(), staffPrincipal(clinicID), &model.AppointmentFilters{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, clinicID, out[0].ClinicID)
}

func TestListSuperAdminSpansClinics(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreatePublic(context.Background(), publicRequest(uuid.New()))
	require.NoError(t, err)
	_, err = f.svc.CreatePublic(context.Background(), publicRequest(uuid.New()))
	require.NoError(t, err)

	superAdmin := model.Principal{UserID: uuid.New(), Role: model.RoleSuperAdmin}
	out, err := f.svc.List(context.Background(), superAdmin, &model.AppointmentFilters{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestListRejectsForeignClinicFilter(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), staffPrincipal(uuid.New()), &model.AppointmentFilters{
		ClinicID: uuid.New(),
	})
	assert.Equal(t, errors.KindAuthorization, errors.KindOf(err))
}
