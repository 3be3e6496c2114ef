package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/email"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

// Booking business rules
const (
	MinAppointmentDuration = 15 * time.Minute
	MaxAppointmentDuration = 4 * time.Hour
	MaxAdvanceBooking      = 90 * 24 * time.Hour
	MinAdvanceBooking      = 1 * time.Hour
)

// Role allow-lists per transition. Route-level gating rejects callers the
// middleware can see; these lists gate the specific action.
var (
	checkInRoles  = []model.Role{model.RoleReceptionist, model.RoleNurse}
	noShowRoles   = []model.Role{model.RoleReceptionist, model.RoleNurse, model.RoleAdmin}
	progressRoles = []model.Role{model.RoleDoctor, model.RoleSurgeon, model.RoleNurse}
	cancelRoles   = []model.Role{model.RoleReceptionist, model.RoleAdmin, model.RoleDoctor}
)

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	emailSvc    email.Service
	auditor     *audit.Service
}

func NewService(repo repository.AppointmentRepository, patientRepo repository.PatientRepository,
	emailSvc email.Service, auditor *audit.Service) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		emailSvc:    emailSvc,
		auditor:     auditor,
	}
}

func (s *Service) Create(ctx context.Context, actor *model.TokenClaims, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic ID", err)
	}
	clinicianID, err := uuid.Parse(req.ClinicianID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinician ID", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient ID", err)
	}

	if err := s.validateBookingTime(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	conflict, err := s.repo.CheckConflict(ctx, clinicianID, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return nil, apperrors.Conflict("appointment conflicts with existing booking", nil)
	}

	now := time.Now()
	apt := &model.Appointment{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:    clinicID,
		ClinicianID: clinicianID,
		PatientID:   patientID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.AppointmentStatusScheduled,
		Reason:      req.Reason,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.sendConfirmation(ctx, apt)

	s.auditor.Log(ctx, actor, apt.ClinicID, model.AuditActionCreate, model.AuditEntityAppointment, apt.ID, &audit.LogOptions{
		Changes: apt,
	})

	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) Update(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.BadRequest("only scheduled appointments can be rescheduled", nil)
	}

	if req.StartTime != nil {
		apt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		apt.EndTime = *req.EndTime
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if req.StartTime != nil || req.EndTime != nil {
		if err := s.validateBookingTime(apt.StartTime, apt.EndTime); err != nil {
			return nil, err
		}
		conflict, err := s.repo.CheckConflict(ctx, apt.ClinicianID, apt.StartTime, apt.EndTime, &apt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflict {
			return nil, apperrors.Conflict("appointment conflicts with existing booking", nil)
		}
	}

	apt.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.auditor.Log(ctx, actor, apt.ClinicID, model.AuditActionUpdate, model.AuditEntityAppointment, id, &audit.LogOptions{
		Changes: req,
	})

	return apt, nil
}

// CheckIn moves SCHEDULED to CHECKED_IN and stamps the arrival time.
func (s *Service) CheckIn(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Appointment, error) {
	if !actor.Role.In(checkInRoles...) {
		return nil, apperrors.Forbidden("role not permitted to check in patients")
	}

	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	apt.CheckedInAt = &now
	return s.transition(ctx, actor, apt, model.AppointmentStatusCheckedIn, model.AuditActionCheckIn)
}

// Start moves CHECKED_IN to IN_PROGRESS.
func (s *Service) Start(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Appointment, error) {
	if !actor.Role.In(progressRoles...) {
		return nil, apperrors.Forbidden("role not permitted to start appointments")
	}

	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, apt, model.AppointmentStatusInProgress, model.AuditActionTransition)
}

// Complete moves IN_PROGRESS to COMPLETED.
func (s *Service) Complete(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Appointment, error) {
	if !actor.Role.In(progressRoles...) {
		return nil, apperrors.Forbidden("role not permitted to complete appointments")
	}

	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, apt, model.AppointmentStatusCompleted, model.AuditActionTransition)
}

func (s *Service) Cancel(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, reason string) (*model.Appointment, error) {
	if !actor.Role.In(cancelRoles...) {
		return nil, apperrors.Forbidden("role not permitted to cancel appointments")
	}

	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	apt.CancelReason = &reason
	return s.transition(ctx, actor, apt, model.AppointmentStatusCancelled, model.AuditActionTransition)
}

// MarkNoShow moves SCHEDULED to NO_SHOW.
func (s *Service) MarkNoShow(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Appointment, error) {
	if !actor.Role.In(noShowRoles...) {
		return nil, apperrors.Forbidden("role not permitted to mark no-shows")
	}

	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, apt, model.AppointmentStatusNoShow, model.AuditActionTransition)
}

func (s *Service) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// transition applies a guarded status change and persists it together with
// its audit and outbox events in one transaction.
func (s *Service) transition(ctx context.Context, actor *model.TokenClaims, apt *model.Appointment, next model.AppointmentStatus, action string) (*model.Appointment, error) {
	if !apt.Status.CanTransitionTo(next) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, next), nil)
	}

	prev := apt.Status
	apt.Status = next
	apt.UpdatedAt = time.Now()

	auditEv := audit.Event(actor, apt.ClinicID, action, model.AuditEntityAppointment, apt.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"from": prev, "to": next},
	})
	outboxEv := model.NewOutboxEvent("appointment."+string(next), apt)

	if err := s.repo.UpdateStatus(ctx, apt, auditEv, outboxEv); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return apt, nil
}

func (s *Service) validateBookingTime(start, end time.Time) error {
	duration := end.Sub(start)
	if duration < MinAppointmentDuration || duration > MaxAppointmentDuration {
		return apperrors.BadRequest(
			fmt.Sprintf("appointment duration must be between %v and %v", MinAppointmentDuration, MaxAppointmentDuration), nil)
	}

	advance := time.Until(start)
	if advance < MinAdvanceBooking || advance > MaxAdvanceBooking {
		return apperrors.BadRequest(
			fmt.Sprintf("appointments must be booked between %v and %v in advance", MinAdvanceBooking, MaxAdvanceBooking), nil)
	}
	return nil
}

// sendConfirmation emails the patient if an address is on file. Failures
// never block the booking.
func (s *Service) sendConfirmation(ctx context.Context, apt *model.Appointment) {
	patient, err := s.patientRepo.Get(ctx, apt.PatientID)
	if err != nil || patient.Email == nil {
		return
	}
	if err := s.emailSvc.SendAppointmentConfirmation(ctx, *patient.Email, apt.StartTime); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send confirmation email")
	}
}
