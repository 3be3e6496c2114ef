package model

import (
	"time"

	"github.com/google/uuid"
)

// DayboardEntry is one appointment row on the day-of-operations board.
type DayboardEntry struct {
	AppointmentID uuid.UUID         `json:"appointment_id" db:"appointment_id"`
	PatientName   string            `json:"patient_name" db:"patient_name"`
	ClinicianName string            `json:"clinician_name" db:"clinician_name"`
	StartTime     time.Time         `json:"start_time" db:"start_time"`
	EndTime       time.Time         `json:"end_time" db:"end_time"`
	Status        AppointmentStatus `json:"status" db:"status"`
	Reason        string            `json:"reason" db:"reason"`
}

// TheaterEntry is one surgical case row on the board.
type TheaterEntry struct {
	CaseID      uuid.UUID          `json:"case_id" db:"case_id"`
	PatientName string             `json:"patient_name" db:"patient_name"`
	SurgeonName string             `json:"surgeon_name" db:"surgeon_name"`
	Procedure   string             `json:"procedure" db:"procedure"`
	Status      SurgicalCaseStatus `json:"status" db:"status"`
	TheaterRoom *string            `json:"theater_room" db:"theater_room"`
}

// Dayboard aggregates the state of a clinic for one day.
type Dayboard struct {
	ClinicID     uuid.UUID       `json:"clinic_id"`
	Date         time.Time       `json:"date"`
	Appointments []DayboardEntry `json:"appointments"`
	Theater      []TheaterEntry  `json:"theater"`
	IntakeCount  int             `json:"intake_count"`
}

// TrendPoint is one day's appointment counts by status.
type TrendPoint struct {
	Day    time.Time         `json:"day" db:"day"`
	Status AppointmentStatus `json:"status" db:"status"`
	Count  int               `json:"count" db:"count"`
}

// IntakePoint is one day's new-patient count.
type IntakePoint struct {
	Day   time.Time `json:"day" db:"day"`
	Count int       `json:"count" db:"count"`
}
