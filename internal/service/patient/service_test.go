package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) GetByMRN(_ context.Context, clinicID uuid.UUID, mrn string) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.ClinicID == clinicID && p.MRN == mrn {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := f.patients[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilter) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

type fakeTemplateRepo struct {
	templates []*model.FormTemplate
}

func (f *fakeTemplateRepo) Create(_ context.Context, tpl *model.FormTemplate) error {
	f.templates = append(f.templates, tpl)
	return nil
}

func (f *fakeTemplateRepo) Get(_ context.Context, id uuid.UUID) (*model.FormTemplate, error) {
	for _, tpl := range f.templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTemplateRepo) List(_ context.Context, clinicID uuid.UUID) ([]*model.FormTemplate, error) {
	var out []*model.FormTemplate
	for _, tpl := range f.templates {
		if tpl.ClinicID == clinicID {
			out = append(out, tpl)
		}
	}
	return out, nil
}

type fakeResponseRepo struct {
	responses []*model.ClinicalFormResponse
}

func (f *fakeResponseRepo) Create(_ context.Context, resp *model.ClinicalFormResponse) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponseRepo) Get(_ context.Context, _ uuid.UUID) (*model.ClinicalFormResponse, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeResponseRepo) Update(_ context.Context, _ *model.ClinicalFormResponse) error {
	return nil
}

func (f *fakeResponseRepo) List(_ context.Context, _ *model.FormResponseFilter) ([]*model.ClinicalFormResponse, error) {
	return f.responses, nil
}

func (f *fakeResponseRepo) Finalize(_ context.Context, _ *model.ClinicalFormResponse, _ *model.AuditEvent, _ *model.OutboxEvent) error {
	return nil
}

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditEvent) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	return nil, 0, nil
}
func (f *fakeAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func setupService() (*Service, *fakePatientRepo, *fakeTemplateRepo, *fakeResponseRepo) {
	patients := &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	templates := &fakeTemplateRepo{}
	responses := &fakeResponseRepo{}
	svc := NewService(patients, templates, responses, audit.NewService(&fakeAuditRepo{}))
	return svc, patients, templates, responses
}

func receptionistActor() *model.TokenClaims {
	return &model.TokenClaims{
		UserID:   uuid.New(),
		ClinicID: uuid.New(),
		Email:    "frontdesk@clinic.test",
		Role:     model.RoleReceptionist,
	}
}

func intakeRequest(clinicID uuid.UUID) *model.StartIntakeRequest {
	return &model.StartIntakeRequest{
		ClinicID:    clinicID.String(),
		FirstName:   "Maria",
		LastName:    "Jensen",
		DateOfBirth: "1984-03-12",
	}
}

func TestStartIntakeCreatesPatientAndDraftForm(t *testing.T) {
	svc, patients, templates, responses := setupService()
	actor := receptionistActor()
	clinicID := uuid.New()

	now := time.Now()
	templates.templates = append(templates.templates, &model.FormTemplate{
		Base:     model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID: clinicID,
		Name:     "New Patient Intake",
		Kind:     model.FormKindIntake,
		Active:   true,
	})

	patient, err := svc.StartIntake(context.Background(), actor, intakeRequest(clinicID))
	require.NoError(t, err)

	assert.Equal(t, model.PatientStatusIntake, patient.Status)
	assert.NotNil(t, patient.IntakeStartedAt)
	assert.True(t, strings.HasPrefix(patient.MRN, "MRN-"))
	assert.Len(t, patients.patients, 1)

	require.Len(t, responses.responses, 1)
	form := responses.responses[0]
	assert.Equal(t, patient.ID, form.PatientID)
	assert.Equal(t, actor.UserID, form.AuthorID)
	assert.Equal(t, model.FormResponseStatusDraft, form.Status)
}

func TestStartIntakeSurvivesMissingIntakeTemplate(t *testing.T) {
	svc, patients, _, responses := setupService()

	patient, err := svc.StartIntake(context.Background(), receptionistActor(), intakeRequest(uuid.New()))
	require.NoError(t, err)

	// The patient record is created even when no intake form opens.
	assert.Len(t, patients.patients, 1)
	assert.Empty(t, responses.responses)
	assert.Equal(t, model.PatientStatusIntake, patient.Status)
}

func TestStartIntakeForbiddenForDoctor(t *testing.T) {
	svc, _, _, _ := setupService()
	actor := receptionistActor()
	actor.Role = model.RoleDoctor

	_, err := svc.StartIntake(context.Background(), actor, intakeRequest(uuid.New()))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestStartIntakeRejectsFutureBirthDate(t *testing.T) {
	svc, _, _, _ := setupService()

	req := intakeRequest(uuid.New())
	req.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	_, err := svc.StartIntake(context.Background(), receptionistActor(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
}

func TestStartIntakeRejectsMalformedBirthDate(t *testing.T) {
	svc, _, _, _ := setupService()

	req := intakeRequest(uuid.New())
	req.DateOfBirth = "12/03/1984"

	_, err := svc.StartIntake(context.Background(), receptionistActor(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
}

func TestUpdatePatientAppliesPartialFields(t *testing.T) {
	svc, patients, _, _ := setupService()
	now := time.Now()
	p := &model.Patient{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:    uuid.New(),
		MRN:         "MRN-20250101-000001",
		FirstName:   "Maria",
		LastName:    "Jensen",
		DateOfBirth: time.Date(1984, 3, 12, 0, 0, 0, 0, time.UTC),
		Status:      model.PatientStatusIntake,
	}
	patients.patients[p.ID] = p

	allergies := "penicillin"
	status := model.PatientStatusActive
	updated, err := svc.Update(context.Background(), receptionistActor(), p.ID, &model.UpdatePatientRequest{
		Allergies: &allergies,
		Status:    &status,
	})
	require.NoError(t, err)

	assert.Equal(t, "Maria", updated.FirstName)
	require.NotNil(t, updated.Allergies)
	assert.Equal(t, "penicillin", *updated.Allergies)
	assert.Equal(t, model.PatientStatusActive, updated.Status)
}

func TestUpdatePatientForbiddenForClinicalRoles(t *testing.T) {
	svc, patients, _, _ := setupService()
	now := time.Now()
	p := &model.Patient{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:    uuid.New(),
		MRN:         "MRN-20250101-000002",
		FirstName:   "Maria",
		LastName:    "Jensen",
		DateOfBirth: time.Date(1984, 3, 12, 0, 0, 0, 0, time.UTC),
		Status:      model.PatientStatusActive,
	}
	patients.patients[p.ID] = p

	phone := "555-0100"
	for _, role := range []model.Role{model.RoleDoctor, model.RoleSurgeon, model.RoleNurse} {
		actor := receptionistActor()
		actor.Role = role

		_, err := svc.Update(context.Background(), actor, p.ID, &model.UpdatePatientRequest{Phone: &phone})
		require.Error(t, err, "role %s", role)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden), "role %s", role)
	}

	// The record is untouched after the rejected attempts.
	assert.Nil(t, patients.patients[p.ID].Phone)
}

func TestGetUnknownPatientIsNotFound(t *testing.T) {
	svc, _, _, _ := setupService()

	_, err := svc.Get(context.Background(), receptionistActor(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
