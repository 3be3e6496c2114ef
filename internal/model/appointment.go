package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusCheckedIn  AppointmentStatus = "checked_in"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// appointmentTransitions is the one-directional state machine. Statuses
// absent from the map are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:  {AppointmentStatusCheckedIn, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusCheckedIn:  {AppointmentStatusInProgress, AppointmentStatusCancelled},
	AppointmentStatusInProgress: {AppointmentStatusCompleted},
}

// CanTransitionTo reports whether the status change is allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

type Appointment struct {
	Base
	ClinicID     uuid.UUID         `json:"clinic_id" db:"clinic_id"`
	ClinicianID  uuid.UUID         `json:"clinician_id" db:"clinician_id"`
	PatientID    uuid.UUID         `json:"patient_id" db:"patient_id"`
	StartTime    time.Time         `json:"start_time" db:"start_time"`
	EndTime      time.Time         `json:"end_time" db:"end_time"`
	Status       AppointmentStatus `json:"status" db:"status"`
	Reason       string            `json:"reason" db:"reason"`
	Notes        string            `json:"notes,omitempty" db:"notes"`
	CancelReason *string           `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CheckedInAt  *time.Time        `json:"checked_in_at,omitempty" db:"checked_in_at"`
}

type CreateAppointmentRequest struct {
	ClinicID    string    `json:"clinic_id" binding:"required,uuid"`
	ClinicianID string    `json:"clinician_id" binding:"required,uuid"`
	PatientID   string    `json:"patient_id" binding:"required,uuid"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Reason      string    `json:"reason" binding:"required,max=500"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     *string    `json:"notes"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type AppointmentFilter struct {
	ClinicID    uuid.UUID         `form:"clinic_id"`
	ClinicianID uuid.UUID         `form:"clinician_id"`
	PatientID   uuid.UUID         `form:"patient_id"`
	Status      AppointmentStatus `form:"status"`
	StartDate   time.Time         `form:"start_date" time_format:"2006-01-02"`
	EndDate     time.Time         `form:"end_date" time_format:"2006-01-02"`
}
