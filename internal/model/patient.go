package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient status constants
const (
	PatientStatusIntake   = "intake"
	PatientStatusActive   = "active"
	PatientStatusInactive = "inactive"
)

type Patient struct {
	Base
	ClinicID         uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	MRN              string     `json:"mrn" db:"mrn"`
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Email            *string    `json:"email" db:"email"`
	Phone            *string    `json:"phone" db:"phone"`
	DateOfBirth      time.Time  `json:"date_of_birth" db:"date_of_birth"`
	Gender           *string    `json:"gender" db:"gender"`
	Address          *string    `json:"address" db:"address"`
	Status           string     `json:"status" db:"status"`
	EmergencyContact *string    `json:"emergency_contact" db:"emergency_contact"`
	Allergies        *string    `json:"allergies" db:"allergies"`
	IntakeStartedAt  *time.Time `json:"intake_started_at" db:"intake_started_at"`
}

type PatientFilter struct {
	ClinicID   uuid.UUID `form:"clinic_id"`
	Status     string    `form:"status"`
	SearchTerm string    `form:"search"`
	Pagination
}

type StartIntakeRequest struct {
	ClinicID    string  `json:"clinic_id" binding:"required,uuid"`
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name" binding:"required"`
	DateOfBirth string  `json:"date_of_birth" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	Gender      *string `json:"gender"`
}

type UpdatePatientRequest struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
	Allergies        *string `json:"allergies"`
	Status           *string `json:"status" binding:"omitempty,oneof=intake active inactive"`
}
