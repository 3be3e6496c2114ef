package surgery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

// Role allow-lists per transition target. Scheduling and cancelling are
// administrative; clinical progression belongs to the surgeon.
var transitionRoles = map[model.SurgicalCaseStatus][]model.Role{
	model.SurgicalCaseStatusPlanning:  {model.RoleSurgeon},
	model.SurgicalCaseStatusScheduled: {model.RoleSurgeon, model.RoleAdmin},
	model.SurgicalCaseStatusInTheater: {model.RoleSurgeon},
	model.SurgicalCaseStatusRecovery:  {model.RoleSurgeon, model.RoleNurse},
	model.SurgicalCaseStatusCompleted: {model.RoleSurgeon},
	model.SurgicalCaseStatusCancelled: {model.RoleSurgeon, model.RoleAdmin},
}

type Service struct {
	caseRepo repository.SurgicalCaseRepository
	planRepo repository.CasePlanRepository
	auditor  *audit.Service
}

func NewService(caseRepo repository.SurgicalCaseRepository, planRepo repository.CasePlanRepository,
	auditor *audit.Service) *Service {
	return &Service{
		caseRepo: caseRepo,
		planRepo: planRepo,
		auditor:  auditor,
	}
}

// CreateCasePlan saves an operative plan. When the request names no
// surgical case, exactly one DRAFT case is auto-created and linked in both
// directions inside the same transaction; when it names one, the plan is
// attached to it and a DRAFT case advances to PLANNING.
func (s *Service) CreateCasePlan(ctx context.Context, actor *model.TokenClaims, req *model.CreateCasePlanRequest) (*model.CasePlan, error) {
	if !actor.Role.In(model.RoleSurgeon, model.RoleAdmin) {
		return nil, apperrors.Forbidden("role not permitted to create case plans")
	}

	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic ID", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient ID", err)
	}
	surgeonID, err := uuid.Parse(req.SurgeonID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid surgeon ID", err)
	}

	now := time.Now()
	plan := &model.CasePlan{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:       clinicID,
		PatientID:      patientID,
		SurgeonID:      surgeonID,
		Procedure:      req.Procedure,
		Anesthesia:     req.Anesthesia,
		EstDurationMin: req.EstDurationMin,
		PreOpChecklist: req.PreOpChecklist,
		Notes:          req.Notes,
	}

	if req.SurgicalCaseID != nil {
		return s.attachPlanToCase(ctx, actor, plan, *req.SurgicalCaseID)
	}

	sc := &model.SurgicalCase{
		Base:       model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:   clinicID,
		PatientID:  patientID,
		SurgeonID:  surgeonID,
		CasePlanID: &plan.ID,
		Procedure:  req.Procedure,
		Status:     model.SurgicalCaseStatusDraft,
	}

	auditEv := audit.Event(actor, clinicID, model.AuditActionCreate, model.AuditEntityCasePlan, plan.ID, &audit.LogOptions{
		Changes:  plan,
		Metadata: map[string]interface{}{"auto_created_case": sc.ID},
	})
	outboxEv := model.NewOutboxEvent("surgical_case.created", sc)

	if err := s.planRepo.CreateWithCase(ctx, plan, sc, auditEv, outboxEv); err != nil {
		if err == repository.ErrAlreadyLinked {
			// A concurrent save already attached a case; the plan save is
			// idempotent with respect to case creation.
			return s.planRepo.Get(ctx, plan.ID)
		}
		return nil, fmt.Errorf("failed to create case plan: %w", err)
	}

	plan.SurgicalCaseID = &sc.ID
	return plan, nil
}

func (s *Service) attachPlanToCase(ctx context.Context, actor *model.TokenClaims, plan *model.CasePlan, caseID string) (*model.CasePlan, error) {
	scID, err := uuid.Parse(caseID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid surgical case ID", err)
	}

	sc, err := s.caseRepo.Get(ctx, scID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("surgical case", err)
		}
		return nil, fmt.Errorf("failed to get surgical case: %w", err)
	}
	if sc.CasePlanID != nil {
		return nil, apperrors.Conflict("surgical case already has a plan", nil)
	}

	plan.SurgicalCaseID = &sc.ID
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create case plan: %w", err)
	}

	// Saving a plan moves a DRAFT case into PLANNING.
	sc.CasePlanID = &plan.ID
	if sc.Status == model.SurgicalCaseStatusDraft {
		sc.Status = model.SurgicalCaseStatusPlanning
	}
	sc.UpdatedAt = time.Now()

	auditEv := audit.Event(actor, sc.ClinicID, model.AuditActionUpdate, model.AuditEntitySurgicalCase, sc.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"case_plan_id": plan.ID, "status": sc.Status},
	})
	outboxEv := model.NewOutboxEvent("surgical_case.planned", sc)

	if err := s.caseRepo.UpdateStatus(ctx, sc, auditEv, outboxEv); err != nil {
		return nil, fmt.Errorf("failed to link surgical case: %w", err)
	}

	return plan, nil
}

func (s *Service) GetCasePlan(ctx context.Context, id uuid.UUID) (*model.CasePlan, error) {
	plan, err := s.planRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("case plan", err)
		}
		return nil, fmt.Errorf("failed to get case plan: %w", err)
	}
	return plan, nil
}

func (s *Service) UpdateCasePlan(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdateCasePlanRequest) (*model.CasePlan, error) {
	if !actor.Role.In(model.RoleSurgeon, model.RoleAdmin) {
		return nil, apperrors.Forbidden("role not permitted to update case plans")
	}

	plan, err := s.GetCasePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if plan.SurgicalCaseID != nil {
		sc, err := s.caseRepo.Get(ctx, *plan.SurgicalCaseID)
		if err == nil && sc.Status != model.SurgicalCaseStatusDraft && sc.Status != model.SurgicalCaseStatusPlanning {
			return nil, apperrors.BadRequest("case plan is locked once the case is scheduled", nil)
		}
	}

	if req.Procedure != nil {
		plan.Procedure = *req.Procedure
	}
	if req.Anesthesia != nil {
		plan.Anesthesia = *req.Anesthesia
	}
	if req.EstDurationMin != nil {
		plan.EstDurationMin = *req.EstDurationMin
	}
	if req.PreOpChecklist != nil {
		plan.PreOpChecklist = req.PreOpChecklist
	}
	if req.Notes != nil {
		plan.Notes = *req.Notes
	}
	plan.UpdatedAt = time.Now()

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update case plan: %w", err)
	}

	s.auditor.Log(ctx, actor, plan.ClinicID, model.AuditActionUpdate, model.AuditEntityCasePlan, id, &audit.LogOptions{
		Changes: req,
	})

	return plan, nil
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*model.SurgicalCase, error) {
	sc, err := s.caseRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("surgical case", err)
		}
		return nil, fmt.Errorf("failed to get surgical case: %w", err)
	}
	return sc, nil
}

func (s *Service) ListCases(ctx context.Context, filter *model.SurgicalCaseFilter) ([]*model.SurgicalCase, error) {
	cases, err := s.caseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list surgical cases: %w", err)
	}
	return cases, nil
}

// Schedule books the case into a theater slot and moves it to SCHEDULED.
func (s *Service) Schedule(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.ScheduleCaseRequest) (*model.SurgicalCase, error) {
	sc, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ScheduledFor.Before(time.Now()) {
		return nil, apperrors.BadRequest("cannot schedule a case in the past", nil)
	}

	sc.ScheduledFor = &req.ScheduledFor
	sc.TheaterRoom = &req.TheaterRoom
	return s.transition(ctx, actor, sc, model.SurgicalCaseStatusScheduled, nil)
}

// Transition applies a requested status change to a surgical case.
func (s *Service) Transition(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.TransitionCaseRequest) (*model.SurgicalCase, error) {
	sc, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, sc, req.Status, req.Reason)
}

func (s *Service) transition(ctx context.Context, actor *model.TokenClaims, sc *model.SurgicalCase, next model.SurgicalCaseStatus, reason *string) (*model.SurgicalCase, error) {
	allowed, ok := transitionRoles[next]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown target status %q", next), nil)
	}
	if !actor.Role.In(allowed...) {
		return nil, apperrors.Forbidden(fmt.Sprintf("role not permitted to move case to %s", next))
	}

	if !sc.Status.CanTransitionTo(next) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("cannot move surgical case from %s to %s", sc.Status, next), nil)
	}

	prev := sc.Status
	now := time.Now()
	sc.Status = next
	sc.UpdatedAt = now

	switch next {
	case model.SurgicalCaseStatusInTheater:
		sc.StartedAt = &now
	case model.SurgicalCaseStatusCompleted:
		sc.CompletedAt = &now
	case model.SurgicalCaseStatusCancelled:
		sc.CancelReason = reason
	}

	auditEv := audit.Event(actor, sc.ClinicID, model.AuditActionTransition, model.AuditEntitySurgicalCase, sc.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"from": prev, "to": next},
	})
	outboxEv := model.NewOutboxEvent("surgical_case."+string(next), sc)

	if err := s.caseRepo.UpdateStatus(ctx, sc, auditEv, outboxEv); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("surgical case", err)
		}
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}
	return sc, nil
}
