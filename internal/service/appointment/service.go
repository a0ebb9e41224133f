package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	"github.com/clinicore/intake-api/internal/service/authz"
	"github.com/clinicore/intake-api/pkg/errors"
	"github.com/clinicore/intake-api/pkg/messaging"
	"github.com/clinicore/intake-api/pkg/metrics"
)

// EnrichmentChannel carries appointment ids awaiting AI enrichment.
const EnrichmentChannel = "appointment.created"

// EnrichmentEvent is the broker payload for the enrichment pipeline.
type EnrichmentEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

// patientResolver is the identity-resolution seam (satisfied by the patient
// service).
type patientResolver interface {
	FindOrCreate(ctx context.Context, clinicID uuid.UUID, name, phone, email string) (*model.Patient, error)
}

// decisionSupport is the slice of the AI client used for enrichment.
type decisionSupport interface {
	Recommendations(ctx context.Context, purposeOfVisit, symptoms string, pairs []model.FollowUpQA) aidecision.RecommendationsResponse
}

// Notifier delivers appointment confirmations. Failures are logged, never
// surfaced.
type Notifier interface {
	SendAppointmentConfirmation(to, patientName string, apt *model.Appointment) error
}

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	resolver    patientResolver
	guard       *authz.Service
	ai          decisionSupport
	broker      messaging.Broker
	notifier    Notifier
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	resolver patientResolver,
	guard *authz.Service,
	ai decisionSupport,
	broker messaging.Broker,
	notifier Notifier,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		resolver:    resolver,
		guard:       guard,
		ai:          ai,
		broker:      broker,
		notifier:    notifier,
		logger:      logger,
		metrics:     m,
	}
}

// CreatePublic handles unauthenticated intake. The patient is resolved
// through the identity heuristic; the appointment starts Scheduled with
// empty enrichment lists. Enrichment happens off the request path.
func (s *Service) CreatePublic(ctx context.Context, req *model.PublicAppointmentRequest) (*model.Appointment, error) {
	var fields []errors.FieldError
	if strings.TrimSpace(req.PatientInfo.Name) == "" {
		fields = append(fields, errors.FieldError{Field: "patientInfo.name", Message: "name is required"})
	}
	if model.CanonicalPhone(req.PatientInfo.Phone) == "" {
		fields = append(fields, errors.FieldError{Field: "patientInfo.phone", Message: "phone is required"})
	}
	if req.AppointmentInfo.ClinicID == uuid.Nil {
		fields = append(fields, errors.FieldError{Field: "appointmentInfo.clinicId", Message: "clinicId is required"})
	}
	if strings.TrimSpace(req.AppointmentInfo.PurposeOfVisit) == "" {
		fields = append(fields, errors.FieldError{Field: "appointmentInfo.purposeOfVisit", Message: "purposeOfVisit is required"})
	}
	if strings.TrimSpace(req.AppointmentInfo.Symptoms) == "" {
		fields = append(fields, errors.FieldError{Field: "appointmentInfo.symptoms", Message: "symptoms is required"})
	}
	if len(fields) > 0 {
		return nil, errors.Validation("invalid request", fields...)
	}

	patient, err := s.resolver.FindOrCreate(ctx,
		req.AppointmentInfo.ClinicID,
		req.PatientInfo.Name,
		req.PatientInfo.Phone,
		req.PatientInfo.Email,
	)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		PatientID:              patient.ID,
		ClinicID:               patient.ClinicID,
		Status:                 model.AppointmentStatusScheduled,
		AppointmentDate:        time.Now(),
		PurposeOfVisit:         req.AppointmentInfo.PurposeOfVisit,
		Symptoms:               req.AppointmentInfo.Symptoms,
		FollowUpQuestions:      orEmpty(req.AppointmentInfo.FollowUpQuestions),
		FollowUpAnswers:        orEmpty(req.AppointmentInfo.FollowUpAnswers),
		PossibleTreatments:     []string{},
		SuggestedPrescriptions: []string{},
		PatientName:            patient.Name,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.requestEnrichment(ctx, apt.ID)
	s.notifyConfirmation(patient, apt)

	return apt, nil
}

// CreateStaff creates an appointment for an existing patient. The caller
// must be STAFF-or-above scoped to the target clinic; there is no implicit
// identity resolution on this path.
func (s *Service) CreateStaff(ctx context.Context, principal model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.guard.Authorize(principal, &req.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}

	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.ClinicID != req.ClinicID {
		return nil, errors.Validation("invalid request", errors.FieldError{
			Field:   "patientId",
			Message: "patient belongs to a different clinic",
		})
	}

	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		PatientID:              patient.ID,
		ClinicID:               req.ClinicID,
		Status:                 model.AppointmentStatusScheduled,
		AppointmentDate:        time.Now(),
		PurposeOfVisit:         req.PurposeOfVisit,
		Symptoms:               req.Symptoms,
		FollowUpQuestions:      orEmpty(req.FollowUpQuestions),
		FollowUpAnswers:        orEmpty(req.FollowUpAnswers),
		PossibleTreatments:     []string{},
		SuggestedPrescriptions: []string{},
		PatientName:            patient.Name,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.requestEnrichment(ctx, apt.ID)

	return apt, nil
}

// Get returns an appointment within the caller's clinic scope. An
// appointment still missing its enrichment gets re-queued, not recomputed
// inline, so reads stay fast.
func (s *Service) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, &apt.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}

	// Key the retry on the enriched-at marker, not on list emptiness: an AI
	// run that genuinely produced no treatments must not re-queue forever.
	if apt.EnrichedAt == nil && !apt.Status.Terminal() {
		s.requestEnrichment(ctx, apt.ID)
	}

	return apt, nil
}

func (s *Service) List(ctx context.Context, principal model.Principal, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters.ClinicID == uuid.Nil && principal.ClinicID != nil {
		filters.ClinicID = *principal.ClinicID
	}
	if err := s.guard.Authorize(principal, &filters.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}

	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// TakeIn moves a Scheduled appointment to InProgress and assigns the acting
// staff member as its doctor.
func (s *Service) TakeIn(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, &apt.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusScheduled {
		return nil, errors.StateTransition(fmt.Sprintf("cannot take in appointment with status %q", apt.Status))
	}

	apt.Status = model.AppointmentStatusInProgress
	doctorID := principal.UserID
	apt.DoctorID = &doctorID

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

// SetStatus applies a terminal transition: Completed only from InProgress,
// Cancelled from Scheduled or InProgress. Anything else is rejected without
// mutation.
func (s *Service) SetStatus(ctx context.Context, principal model.Principal, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if status != model.AppointmentStatusCompleted && status != model.AppointmentStatusCancelled {
		return nil, errors.Validation("invalid request", errors.FieldError{
			Field:   "status",
			Message: "status must be Completed or Cancelled",
		})
	}

	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, &apt.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}

	if !apt.Status.CanTransition(status) {
		return nil, errors.StateTransition(fmt.Sprintf("cannot move appointment from %q to %q", apt.Status, status))
	}

	apt.Status = status
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

// Update applies a staff partial update to intake fields.
func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(principal, &apt.ClinicID, model.RoleStaff); err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, errors.StateTransition(fmt.Sprintf("cannot update appointment with status %q", apt.Status))
	}

	if req.PurposeOfVisit != nil {
		apt.PurposeOfVisit = *req.PurposeOfVisit
	}
	if req.Symptoms != nil {
		apt.Symptoms = *req.Symptoms
	}
	if req.FollowUpAnswers != nil {
		apt.FollowUpAnswers = req.FollowUpAnswers
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.requestEnrichment(ctx, apt.ID)

	return apt, nil
}

// Enrich populates the AI-generated lists for one appointment. A failed or
// unusable AI response leaves the lists empty; the next read re-queues the
// attempt. Never returns the AI failure to its caller.
func (s *Service) Enrich(ctx context.Context, id uuid.UUID) error {
	apt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if apt.Status.Terminal() {
		return nil
	}

	resp := s.ai.Recommendations(ctx, apt.PurposeOfVisit, apt.Symptoms, apt.FollowUpPairs())
	if !resp.Success {
		s.logger.Warn().Str("appointment_id", id.String()).Msg("enrichment skipped, AI unavailable")
		if s.metrics != nil {
			s.metrics.EnrichmentsFailed.Inc()
		}
		return nil
	}

	if err := s.repo.UpdateEnrichment(ctx, id, resp.PossibleTreatments, resp.SuggestedPrescriptions); err != nil {
		return fmt.Errorf("failed to persist enrichment: %w", err)
	}
	if s.metrics != nil {
		s.metrics.EnrichmentsProcessed.Inc()
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

// requestEnrichment queues the appointment for background enrichment.
// Publish failures are logged only; the triggering request still succeeds.
func (s *Service) requestEnrichment(ctx context.Context, id uuid.UUID) {
	if s.broker == nil {
		return
	}
	event := EnrichmentEvent{AppointmentID: id}
	if err := s.broker.Publish(ctx, EnrichmentChannel, event); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", id.String()).Msg("failed to publish enrichment event")
	}
}

func (s *Service) notifyConfirmation(patient *model.Patient, apt *model.Appointment) {
	if s.notifier == nil || patient.Email == "" {
		return
	}
	go func() {
		if err := s.notifier.SendAppointmentConfirmation(patient.Email, patient.Name, apt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send confirmation email")
		}
	}()
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
