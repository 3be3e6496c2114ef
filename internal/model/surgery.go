package model

import (
	"time"

	"github.com/google/uuid"
)

type SurgicalCaseStatus string

const (
	SurgicalCaseStatusDraft     SurgicalCaseStatus = "draft"
	SurgicalCaseStatusPlanning  SurgicalCaseStatus = "planning"
	SurgicalCaseStatusScheduled SurgicalCaseStatus = "scheduled"
	SurgicalCaseStatusInTheater SurgicalCaseStatus = "in_theater"
	SurgicalCaseStatusRecovery  SurgicalCaseStatus = "recovery"
	SurgicalCaseStatusCompleted SurgicalCaseStatus = "completed"
	SurgicalCaseStatusCancelled SurgicalCaseStatus = "cancelled"
)

// surgicalCaseTransitions is one-directional: a case never moves back to an
// earlier stage. Cancellation is reachable from every non-terminal state.
var surgicalCaseTransitions = map[SurgicalCaseStatus][]SurgicalCaseStatus{
	SurgicalCaseStatusDraft:     {SurgicalCaseStatusPlanning, SurgicalCaseStatusCancelled},
	SurgicalCaseStatusPlanning:  {SurgicalCaseStatusScheduled, SurgicalCaseStatusCancelled},
	SurgicalCaseStatusScheduled: {SurgicalCaseStatusInTheater, SurgicalCaseStatusCancelled},
	SurgicalCaseStatusInTheater: {SurgicalCaseStatusRecovery, SurgicalCaseStatusCancelled},
	SurgicalCaseStatusRecovery:  {SurgicalCaseStatusCompleted, SurgicalCaseStatusCancelled},
}

func (s SurgicalCaseStatus) CanTransitionTo(next SurgicalCaseStatus) bool {
	for _, allowed := range surgicalCaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SurgicalCaseStatus) Terminal() bool {
	return len(surgicalCaseTransitions[s]) == 0
}

type SurgicalCase struct {
	Base
	ClinicID      uuid.UUID          `json:"clinic_id" db:"clinic_id"`
	PatientID     uuid.UUID          `json:"patient_id" db:"patient_id"`
	SurgeonID     uuid.UUID          `json:"surgeon_id" db:"surgeon_id"`
	CasePlanID    *uuid.UUID         `json:"case_plan_id" db:"case_plan_id"`
	Procedure     string             `json:"procedure" db:"procedure"`
	Status        SurgicalCaseStatus `json:"status" db:"status"`
	TheaterRoom   *string            `json:"theater_room" db:"theater_room"`
	ScheduledFor  *time.Time         `json:"scheduled_for" db:"scheduled_for"`
	StartedAt     *time.Time         `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time         `json:"completed_at" db:"completed_at"`
	CancelReason  *string            `json:"cancel_reason,omitempty" db:"cancel_reason"`
	ClinicalNotes string             `json:"clinical_notes" db:"clinical_notes"`
}

// CasePlan is the operative planning record linked 1:1 to a SurgicalCase.
// A plan saved without a case gets one auto-created and linked both ways.
type CasePlan struct {
	Base
	ClinicID       uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	PatientID      uuid.UUID  `json:"patient_id" db:"patient_id"`
	SurgeonID      uuid.UUID  `json:"surgeon_id" db:"surgeon_id"`
	SurgicalCaseID *uuid.UUID `json:"surgical_case_id" db:"surgical_case_id"`
	Procedure      string     `json:"procedure" db:"procedure"`
	Anesthesia     string     `json:"anesthesia" db:"anesthesia"`
	EstDurationMin int        `json:"est_duration_min" db:"est_duration_min"`
	PreOpChecklist JSONMap    `json:"pre_op_checklist" db:"pre_op_checklist"`
	Notes          string     `json:"notes" db:"notes"`
}

type CreateCasePlanRequest struct {
	ClinicID       string  `json:"clinic_id" binding:"required,uuid"`
	PatientID      string  `json:"patient_id" binding:"required,uuid"`
	SurgeonID      string  `json:"surgeon_id" binding:"required,uuid"`
	SurgicalCaseID *string `json:"surgical_case_id" binding:"omitempty,uuid"`
	Procedure      string  `json:"procedure" binding:"required,max=500"`
	Anesthesia     string  `json:"anesthesia" binding:"required,oneof=general regional local sedation"`
	EstDurationMin int     `json:"est_duration_min" binding:"required,min=15,max=720"`
	PreOpChecklist JSONMap `json:"pre_op_checklist"`
	Notes          string  `json:"notes" binding:"max=2000"`
}

type UpdateCasePlanRequest struct {
	Procedure      *string `json:"procedure" binding:"omitempty,max=500"`
	Anesthesia     *string `json:"anesthesia" binding:"omitempty,oneof=general regional local sedation"`
	EstDurationMin *int    `json:"est_duration_min" binding:"omitempty,min=15,max=720"`
	PreOpChecklist JSONMap `json:"pre_op_checklist"`
	Notes          *string `json:"notes" binding:"omitempty,max=2000"`
}

type TransitionCaseRequest struct {
	Status SurgicalCaseStatus `json:"status" binding:"required"`
	Reason *string            `json:"reason"`
}

type ScheduleCaseRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
	TheaterRoom  string    `json:"theater_room" binding:"required"`
}

type SurgicalCaseFilter struct {
	ClinicID  uuid.UUID          `form:"clinic_id"`
	SurgeonID uuid.UUID          `form:"surgeon_id"`
	PatientID uuid.UUID          `form:"patient_id"`
	Status    SurgicalCaseStatus `form:"status"`
}
