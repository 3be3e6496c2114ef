package patient

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

// Roles allowed to start an intake.
var intakeRoles = []model.Role{model.RoleAdmin, model.RoleReceptionist, model.RoleNurse}

// Roles allowed to change demographics. Clinical roles read the record
// but never edit it.
var updateRoles = []model.Role{model.RoleAdmin, model.RoleReceptionist}

type Service struct {
	repo         repository.PatientRepository
	templateRepo repository.FormTemplateRepository
	responseRepo repository.FormResponseRepository
	auditor      *audit.Service
}

func NewService(repo repository.PatientRepository, templateRepo repository.FormTemplateRepository,
	responseRepo repository.FormResponseRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:         repo,
		templateRepo: templateRepo,
		responseRepo: responseRepo,
		auditor:      auditor,
	}
}

// StartIntake creates the patient in INTAKE status and opens a DRAFT intake
// form response for the front desk to fill in.
func (s *Service) StartIntake(ctx context.Context, actor *model.TokenClaims, req *model.StartIntakeRequest) (*model.Patient, error) {
	if !actor.Role.In(intakeRoles...) {
		return nil, apperrors.Forbidden("role not permitted to start intake")
	}

	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic ID", err)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date of birth, expected YYYY-MM-DD", err)
	}
	if dob.After(time.Now()) {
		return nil, apperrors.BadRequest("date of birth cannot be in the future", nil)
	}

	now := time.Now()
	patient := &model.Patient{
		Base:            model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:        clinicID,
		MRN:             generateMRN(now),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Gender:          req.Gender,
		DateOfBirth:     dob,
		Status:          model.PatientStatusIntake,
		IntakeStartedAt: &now,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	if err := s.openIntakeForm(ctx, actor, patient); err != nil {
		// The patient record is the primary artifact; a missing intake form
		// can be opened later by hand.
		s.auditor.Log(ctx, actor, clinicID, model.AuditActionCreate, model.AuditEntityFormResponse, patient.ID, &audit.LogOptions{
			Metadata: map[string]interface{}{"error": err.Error()},
		})
	}

	s.auditor.Log(ctx, actor, clinicID, model.AuditActionCreate, model.AuditEntityPatient, patient.ID, &audit.LogOptions{
		Changes: patient,
	})

	return patient, nil
}

func (s *Service) Get(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	s.auditor.Log(ctx, actor, patient.ClinicID, model.AuditActionRead, model.AuditEntityPatient, id, nil)
	return patient, nil
}

func (s *Service) Update(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if !actor.Role.In(updateRoles...) {
		return nil, apperrors.Forbidden("role not permitted to update patients")
	}

	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Email != nil {
		patient.Email = req.Email
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.Allergies != nil {
		patient.Allergies = req.Allergies
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.auditor.Log(ctx, actor, patient.ClinicID, model.AuditActionUpdate, model.AuditEntityPatient, id, &audit.LogOptions{
		Changes: req,
	})

	return patient, nil
}

func (s *Service) List(ctx context.Context, filter *model.PatientFilter) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// openIntakeForm finds the clinic's active intake template and opens a
// DRAFT response for the new patient.
func (s *Service) openIntakeForm(ctx context.Context, actor *model.TokenClaims, patient *model.Patient) error {
	templates, err := s.templateRepo.List(ctx, patient.ClinicID)
	if err != nil {
		return fmt.Errorf("failed to list form templates: %w", err)
	}

	var intakeTpl *model.FormTemplate
	for _, tpl := range templates {
		if tpl.Kind == model.FormKindIntake {
			intakeTpl = tpl
			break
		}
	}
	if intakeTpl == nil {
		return fmt.Errorf("no active intake template for clinic %s", patient.ClinicID)
	}

	now := time.Now()
	resp := &model.ClinicalFormResponse{
		Base:       model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TemplateID: intakeTpl.ID,
		PatientID:  patient.ID,
		AuthorID:   actor.UserID,
		Status:     model.FormResponseStatusDraft,
	}
	return s.responseRepo.Create(ctx, resp)
}

// generateMRN derives a readable medical record number from the creation
// instant. Collisions within the same nanosecond are not a practical
// concern at clinic scale.
func generateMRN(t time.Time) string {
	return fmt.Sprintf("MRN-%s-%06d", t.Format("20060102"), t.UnixNano()%1000000)
}
