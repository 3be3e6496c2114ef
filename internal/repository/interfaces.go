package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
)

// ErrNotFound is returned when a row does not exist. Services map it onto
// a 404 application error.
var ErrNotFound = errors.New("not found")

// ErrAlreadyLinked is returned when a case plan already has a surgical case.
var ErrAlreadyLinked = errors.New("case plan already linked")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetByMRN(ctx context.Context, clinicID uuid.UUID, mrn string) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	List(ctx context.Context, filter *model.PatientFilter) ([]*model.Patient, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, apt *model.Appointment) error
	List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error)
	CheckConflict(ctx context.Context, clinicianID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	// UpdateStatus persists a transition together with its audit event and
	// outbox event in a single transaction.
	UpdateStatus(ctx context.Context, apt *model.Appointment, audit *model.AuditEvent, outbox *model.OutboxEvent) error
}

type SurgicalCaseRepository interface {
	Create(ctx context.Context, sc *model.SurgicalCase) error
	Get(ctx context.Context, id uuid.UUID) (*model.SurgicalCase, error)
	Update(ctx context.Context, sc *model.SurgicalCase) error
	List(ctx context.Context, filter *model.SurgicalCaseFilter) ([]*model.SurgicalCase, error)
	// UpdateStatus persists a transition with its audit and outbox rows
	// atomically.
	UpdateStatus(ctx context.Context, sc *model.SurgicalCase, audit *model.AuditEvent, outbox *model.OutboxEvent) error
}

type CasePlanRepository interface {
	Create(ctx context.Context, plan *model.CasePlan) error
	Get(ctx context.Context, id uuid.UUID) (*model.CasePlan, error)
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*model.CasePlan, error)
	Update(ctx context.Context, plan *model.CasePlan) error
	// CreateWithCase inserts the plan and its auto-created surgical case and
	// links them both ways in one transaction. Returns ErrAlreadyLinked if a
	// concurrent save already attached a case to the plan.
	CreateWithCase(ctx context.Context, plan *model.CasePlan, sc *model.SurgicalCase, audit *model.AuditEvent, outbox *model.OutboxEvent) error
}

type FormTemplateRepository interface {
	Create(ctx context.Context, tpl *model.FormTemplate) error
	Get(ctx context.Context, id uuid.UUID) (*model.FormTemplate, error)
	List(ctx context.Context, clinicID uuid.UUID) ([]*model.FormTemplate, error)
}

type FormResponseRepository interface {
	Create(ctx context.Context, resp *model.ClinicalFormResponse) error
	Get(ctx context.Context, id uuid.UUID) (*model.ClinicalFormResponse, error)
	Update(ctx context.Context, resp *model.ClinicalFormResponse) error
	List(ctx context.Context, filter *model.FormResponseFilter) ([]*model.ClinicalFormResponse, error)
	// Finalize flips a DRAFT response to FINAL and writes the audit and
	// outbox rows in one transaction. The status guard lives in the UPDATE
	// itself so a concurrent finalize cannot slip through.
	Finalize(ctx context.Context, resp *model.ClinicalFormResponse, audit *model.AuditEvent, outbox *model.OutboxEvent) error
}

type AuditRepository interface {
	Create(ctx context.Context, event *model.AuditEvent) error
	List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditEvent, int64, error)
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

type OutboxRepository interface {
	ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type TokenRepository interface {
	StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
	ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
	InvalidateResetToken(ctx context.Context, token string) error
}

type ReportRepository interface {
	DayboardAppointments(ctx context.Context, clinicID uuid.UUID, day time.Time) ([]model.DayboardEntry, error)
	DayboardTheater(ctx context.Context, clinicID uuid.UUID, day time.Time) ([]model.TheaterEntry, error)
	IntakeCountForDay(ctx context.Context, clinicID uuid.UUID, day time.Time) (int, error)
	AppointmentTrends(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.TrendPoint, error)
	IntakeCounts(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.IntakePoint, error)
}
