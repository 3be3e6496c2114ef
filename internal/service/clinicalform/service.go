package clinicalform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

// Roles allowed to finalize a clinical form.
var finalizeRoles = []model.Role{model.RoleNurse, model.RoleDoctor, model.RoleSurgeon}

type Service struct {
	templateRepo repository.FormTemplateRepository
	responseRepo repository.FormResponseRepository
	auditor      *audit.Service
}

func NewService(templateRepo repository.FormTemplateRepository,
	responseRepo repository.FormResponseRepository, auditor *audit.Service) *Service {
	return &Service{
		templateRepo: templateRepo,
		responseRepo: responseRepo,
		auditor:      auditor,
	}
}

func (s *Service) CreateResponse(ctx context.Context, actor *model.TokenClaims, req *model.CreateFormResponseRequest) (*model.ClinicalFormResponse, error) {
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid template ID", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient ID", err)
	}

	tpl, err := s.templateRepo.Get(ctx, templateID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("form template", err)
		}
		return nil, fmt.Errorf("failed to get form template: %w", err)
	}
	if !tpl.Active {
		return nil, apperrors.BadRequest("form template is inactive", nil)
	}

	var appointmentID *uuid.UUID
	if req.AppointmentID != nil {
		id, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid appointment ID", err)
		}
		appointmentID = &id
	}

	now := time.Now()
	resp := &model.ClinicalFormResponse{
		Base:          model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TemplateID:    tpl.ID,
		PatientID:     patientID,
		AppointmentID: appointmentID,
		AuthorID:      actor.UserID,
		Status:        model.FormResponseStatusDraft,
		Answers:       req.Answers,
	}

	if err := s.responseRepo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to create form response: %w", err)
	}

	s.auditor.Log(ctx, actor, tpl.ClinicID, model.AuditActionCreate, model.AuditEntityFormResponse, resp.ID, nil)
	return resp, nil
}

func (s *Service) GetResponse(ctx context.Context, id uuid.UUID) (*model.ClinicalFormResponse, error) {
	resp, err := s.responseRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("form response", err)
		}
		return nil, fmt.Errorf("failed to get form response: %w", err)
	}
	return resp, nil
}

// UpdateAnswers replaces the draft's answers. FINAL responses are immutable.
func (s *Service) UpdateAnswers(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, answers json.RawMessage) (*model.ClinicalFormResponse, error) {
	resp, err := s.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Status == model.FormResponseStatusFinal {
		return nil, apperrors.BadRequest("form response is final and cannot be modified", nil)
	}

	resp.Answers = answers
	resp.UpdatedAt = time.Now()
	if err := s.responseRepo.Update(ctx, resp); err != nil {
		if err == repository.ErrNotFound {
			// The draft guard in the UPDATE caught a concurrent finalize.
			return nil, apperrors.BadRequest("form response is final and cannot be modified", nil)
		}
		return nil, fmt.Errorf("failed to update form response: %w", err)
	}

	s.auditor.Log(ctx, actor, uuid.Nil, model.AuditActionUpdate, model.AuditEntityFormResponse, id, nil)
	return resp, nil
}

// Finalize flips a DRAFT response to FINAL after the clinical gate passes.
// The status change and its audit event commit in one transaction.
func (s *Service) Finalize(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.ClinicalFormResponse, error) {
	if !actor.Role.In(finalizeRoles...) {
		return nil, apperrors.Forbidden("role not permitted to finalize clinical forms")
	}

	resp, err := s.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Status == model.FormResponseStatusFinal {
		return nil, apperrors.BadRequest("form response is already final", nil)
	}

	tpl, err := s.templateRepo.Get(ctx, resp.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get form template: %w", err)
	}

	if err := s.checkClinicalGate(resp, tpl); err != nil {
		return nil, err
	}

	now := time.Now()
	resp.Status = model.FormResponseStatusFinal
	resp.FinalizedAt = &now
	resp.FinalizedBy = &actor.UserID
	resp.UpdatedAt = now

	auditEv := audit.Event(actor, tpl.ClinicID, model.AuditActionFinalize, model.AuditEntityFormResponse, resp.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"template_id": tpl.ID, "kind": tpl.Kind},
	})
	outboxEv := model.NewOutboxEvent("form_response.finalized", resp)

	if err := s.responseRepo.Finalize(ctx, resp, auditEv, outboxEv); err != nil {
		if err == repository.ErrNotFound {
			// Lost the race to another finalize.
			return nil, apperrors.BadRequest("form response is already final", nil)
		}
		return nil, fmt.Errorf("failed to finalize form response: %w", err)
	}
	return resp, nil
}

func (s *Service) ListResponses(ctx context.Context, filter *model.FormResponseFilter) ([]*model.ClinicalFormResponse, error) {
	responses, err := s.responseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list form responses: %w", err)
	}
	return responses, nil
}

// checkClinicalGate verifies every required field of the template has a
// non-empty answer.
func (s *Service) checkClinicalGate(resp *model.ClinicalFormResponse, tpl *model.FormTemplate) error {
	answers, err := resp.AnswerMap()
	if err != nil {
		return apperrors.BadRequest("form answers are not valid JSON", err)
	}

	var missing []string
	for _, field := range tpl.RequiredFields {
		value, ok := answers[field]
		if !ok || isEmptyAnswer(value) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperrors.BadRequest(
			fmt.Sprintf("clinical gate failed, missing required fields: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

func isEmptyAnswer(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
