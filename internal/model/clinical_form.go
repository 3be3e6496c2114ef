package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type FormResponseStatus string

const (
	FormResponseStatusDraft FormResponseStatus = "draft"
	FormResponseStatusFinal FormResponseStatus = "final"
)

// FormTemplate defines a clinical form: its fields and which of them make up
// the clinical gate (must be answered before a response can be finalized).
type FormTemplate struct {
	Base
	ClinicID       uuid.UUID   `json:"clinic_id" db:"clinic_id"`
	Name           string      `json:"name" db:"name"`
	Kind           string      `json:"kind" db:"kind"`
	RequiredFields StringSlice `json:"required_fields" db:"required_fields"`
	Active         bool        `json:"active" db:"active"`
}

// Form template kinds
const (
	FormKindIntake  = "intake"
	FormKindPreOp   = "pre_op"
	FormKindPostOp  = "post_op"
	FormKindNursing = "nursing_assessment"
	FormKindConsult = "consultation"
)

// ClinicalFormResponse is a filled-in form. FINAL responses are immutable.
type ClinicalFormResponse struct {
	Base
	TemplateID    uuid.UUID          `json:"template_id" db:"template_id"`
	PatientID     uuid.UUID          `json:"patient_id" db:"patient_id"`
	AppointmentID *uuid.UUID         `json:"appointment_id" db:"appointment_id"`
	AuthorID      uuid.UUID          `json:"author_id" db:"author_id"`
	Status        FormResponseStatus `json:"status" db:"status"`
	Answers       json.RawMessage    `json:"answers" db:"answers"`
	FinalizedAt   *time.Time         `json:"finalized_at" db:"finalized_at"`
	FinalizedBy   *uuid.UUID         `json:"finalized_by" db:"finalized_by"`
}

// AnswerMap decodes the raw answers payload.
func (r *ClinicalFormResponse) AnswerMap() (map[string]interface{}, error) {
	answers := make(map[string]interface{})
	if len(r.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

type CreateFormResponseRequest struct {
	TemplateID    string          `json:"template_id" binding:"required,uuid"`
	PatientID     string          `json:"patient_id" binding:"required,uuid"`
	AppointmentID *string         `json:"appointment_id" binding:"omitempty,uuid"`
	Answers       json.RawMessage `json:"answers"`
}

type UpdateFormResponseRequest struct {
	Answers json.RawMessage `json:"answers" binding:"required"`
}

type FormResponseFilter struct {
	PatientID  uuid.UUID          `form:"patient_id"`
	TemplateID uuid.UUID          `form:"template_id"`
	Status     FormResponseStatus `form:"status"`
}
