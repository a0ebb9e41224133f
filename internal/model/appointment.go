package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "Scheduled"
	AppointmentStatusInProgress AppointmentStatus = "InProgress"
	AppointmentStatusCompleted  AppointmentStatus = "Completed"
	AppointmentStatusCancelled  AppointmentStatus = "Cancelled"
)

// legal lifecycle edges; completed and cancelled are terminal
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:  {AppointmentStatusInProgress, AppointmentStatusCancelled},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// CanTransition reports whether the lifecycle permits moving from s to next.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// Appointment persists follow-up questions and answers as parallel lists.
// DoctorID stays nil until a staff member takes the appointment in.
type Appointment struct {
	Base
	PatientID              uuid.UUID         `db:"patient_id" json:"patientId"`
	ClinicID               uuid.UUID         `db:"clinic_id" json:"clinicId"`
	DoctorID               *uuid.UUID        `db:"doctor_id" json:"doctorId,omitempty"`
	Status                 AppointmentStatus `db:"status" json:"status"`
	AppointmentDate        time.Time         `db:"appointment_date" json:"appointmentDate"`
	PurposeOfVisit         string            `db:"purpose_of_visit" json:"purposeOfVisit"`
	Symptoms               string            `db:"symptoms" json:"symptoms"`
	FollowUpQuestions      pq.StringArray    `db:"follow_up_questions" json:"followUpQuestions"`
	FollowUpAnswers        pq.StringArray    `db:"follow_up_answers" json:"followUpAnswers"`
	PossibleTreatments     pq.StringArray    `db:"possible_treatments" json:"possibleTreatments"`
	SuggestedPrescriptions pq.StringArray    `db:"suggested_prescriptions" json:"suggestedPrescriptions"`
	PatientName            string            `db:"patient_name" json:"patientName,omitempty"`
	EnrichedAt             *time.Time        `db:"enriched_at" json:"enrichedAt,omitempty"`
}

// FollowUpQA pairs one intake question with its answer. Used at the AI
// client boundary; appointments persist the parallel lists instead.
type FollowUpQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FollowUpPairs zips the persisted parallel lists. Stored mismatches are
// tolerated: missing answers pad with the empty string.
func (a *Appointment) FollowUpPairs() []FollowUpQA {
	pairs := make([]FollowUpQA, 0, len(a.FollowUpQuestions))
	for i, q := range a.FollowUpQuestions {
		answer := ""
		if i < len(a.FollowUpAnswers) {
			answer = a.FollowUpAnswers[i]
		}
		pairs = append(pairs, FollowUpQA{Question: q, Answer: answer})
	}
	return pairs
}

// PublicPatientInfo is the unauthenticated intake identity block.
type PublicPatientInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// PublicAppointmentInfo is the unauthenticated intake visit block.
type PublicAppointmentInfo struct {
	ClinicID          uuid.UUID `json:"clinicId"`
	PurposeOfVisit    string    `json:"purposeOfVisit"`
	Symptoms          string    `json:"symptoms"`
	FollowUpQuestions []string  `json:"followUpQuestions"`
	FollowUpAnswers   []string  `json:"followUpAnswers"`
}

// PublicAppointmentRequest is the body of the public intake endpoint.
type PublicAppointmentRequest struct {
	PatientInfo     PublicPatientInfo     `json:"patientInfo"`
	AppointmentInfo PublicAppointmentInfo `json:"appointmentInfo"`
}

type CreateAppointmentRequest struct {
	ClinicID          uuid.UUID `json:"clinicId" binding:"required"`
	PatientID         uuid.UUID `json:"patientId" binding:"required"`
	PurposeOfVisit    string    `json:"purposeOfVisit" binding:"required"`
	Symptoms          string    `json:"symptoms" binding:"required"`
	FollowUpQuestions []string  `json:"followUpQuestions"`
	FollowUpAnswers   []string  `json:"followUpAnswers"`
}

type UpdateAppointmentRequest struct {
	PurposeOfVisit  *string  `json:"purposeOfVisit"`
	Symptoms        *string  `json:"symptoms"`
	FollowUpAnswers []string `json:"followUpAnswers"`
}

type SetAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=Completed Cancelled"`
}

type AppointmentFilters struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
