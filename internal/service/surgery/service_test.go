package surgery

import (
	"context"
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

type fakeCaseRepo struct {
	cases      map[uuid.UUID]*model.SurgicalCase
	lastAudit  *model.AuditEvent
	lastOutbox *model.OutboxEvent
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: make(map[uuid.UUID]*model.SurgicalCase)}
}

func (f *fakeCaseRepo) Create(_ context.Context, sc *model.SurgicalCase) error {
	f.cases[sc.ID] = sc
	return nil
}

func (f *fakeCaseRepo) Get(_ context.Context, id uuid.UUID) (*model.SurgicalCase, error) {
	sc, ok := f.cases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *sc
	return &copied, nil
}

func (f *fakeCaseRepo) Update(_ context.Context, sc *model.SurgicalCase) error {
	if _, ok := f.cases[sc.ID]; !ok {
		return repository.ErrNotFound
	}
	f.cases[sc.ID] = sc
	return nil
}

func (f *fakeCaseRepo) List(_ context.Context, _ *model.SurgicalCaseFilter) ([]*model.SurgicalCase, error) {
	var out []*model.SurgicalCase
	for _, sc := range f.cases {
		out = append(out, sc)
	}
	return out, nil
}

func (f *fakeCaseRepo) UpdateStatus(_ context.Context, sc *model.SurgicalCase, auditEv *model.AuditEvent, outboxEv *model.OutboxEvent) error {
	if _, ok := f.cases[sc.ID]; !ok {
		return repository.ErrNotFound
	}
	f.cases[sc.ID] = sc
	f.lastAudit = auditEv
	f.lastOutbox = outboxEv
	return nil
}

type fakePlanRepo struct {
	plans         map[uuid.UUID]*model.CasePlan
	caseRepo      *fakeCaseRepo
	alreadyLinked bool
	withCaseCalls int
}

func newFakePlanRepo(caseRepo *fakeCaseRepo) *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uuid.UUID]*model.CasePlan), caseRepo: caseRepo}
}

func (f *fakePlanRepo) Create(_ context.Context, plan *model.CasePlan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) Get(_ context.Context, id uuid.UUID) (*model.CasePlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *plan
	return &copied, nil
}

func (f *fakePlanRepo) GetByCaseID(_ context.Context, caseID uuid.UUID) (*model.CasePlan, error) {
	for _, plan := range f.plans {
		if plan.SurgicalCaseID != nil && *plan.SurgicalCaseID == caseID {
			return plan, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePlanRepo) Update(_ context.Context, plan *model.CasePlan) error {
	if _, ok := f.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) CreateWithCase(_ context.Context, plan *model.CasePlan, sc *model.SurgicalCase, _ *model.AuditEvent, _ *model.OutboxEvent) error {
	f.withCaseCalls++
	if f.alreadyLinked {
		stored := *plan
		stored.SurgicalCaseID = &sc.ID
		f.plans[plan.ID] = &stored
		return repository.ErrAlreadyLinked
	}
	f.plans[plan.ID] = plan
	f.caseRepo.cases[sc.ID] = sc
	return nil
}

func setupService() (*Service, *fakeCaseRepo, *fakePlanRepo) {
	caseRepo := newFakeCaseRepo()
	planRepo := newFakePlanRepo(caseRepo)
	svc := NewService(caseRepo, planRepo, audit.NewService(&fakeAuditRepo{}))
	return svc, caseRepo, planRepo
}

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditEvent) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	return nil, 0, nil
}
func (f *fakeAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func surgeonActor() *model.TokenClaims {
	return &model.TokenClaims{
		UserID:   uuid.New(),
		ClinicID: uuid.New(),
		Email:    "surgeon@clinic.test",
		Role:     model.RoleSurgeon,
	}
}

func planRequest() *model.CreateCasePlanRequest {
	return &model.CreateCasePlanRequest{
		ClinicID:       uuid.New().String(),
		PatientID:      uuid.New().String(),
		SurgeonID:      uuid.New().String(),
		Procedure:      "laparoscopic cholecystectomy",
		Anesthesia:     "general",
		EstDurationMin: 90,
	}
}

func seedCase(caseRepo *fakeCaseRepo, status model.SurgicalCaseStatus) *model.SurgicalCase {
	now := time.Now()
	sc := &model.SurgicalCase{
		Base:      model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:  uuid.New(),
		PatientID: uuid.New(),
		SurgeonID: uuid.New(),
		Procedure: "appendectomy",
		Status:    status,
	}
	caseRepo.cases[sc.ID] = sc
	return sc
}

func TestCreateCasePlanAutoCreatesDraftCase(t *testing.T) {
	svc, caseRepo, planRepo := setupService()

	plan, err := svc.CreateCasePlan(context.Background(), surgeonActor(), planRequest())
	require.NoError(t, err)

	require.NotNil(t, plan.SurgicalCaseID)
	require.Len(t, caseRepo.cases, 1)
	sc := caseRepo.cases[*plan.SurgicalCaseID]
	require.NotNil(t, sc)

	// Linked in both directions.
	assert.Equal(t, model.SurgicalCaseStatusDraft, sc.Status)
	require.NotNil(t, sc.CasePlanID)
	assert.Equal(t, plan.ID, *sc.CasePlanID)
	assert.Equal(t, plan.Procedure, sc.Procedure)
	assert.Equal(t, 1, planRepo.withCaseCalls)
}

func TestCreateCasePlanIdempotentOnLinkedCase(t *testing.T) {
	svc, caseRepo, planRepo := setupService()
	planRepo.alreadyLinked = true

	plan, err := svc.CreateCasePlan(context.Background(), surgeonActor(), planRequest())
	require.NoError(t, err)

	assert.NotNil(t, plan.SurgicalCaseID)
	assert.Empty(t, caseRepo.cases, "no second case may be created")
}

func TestCreateCasePlanCarriesPreOpChecklist(t *testing.T) {
	svc, _, planRepo := setupService()

	req := planRequest()
	req.PreOpChecklist = model.JSONMap{"fasting_confirmed": true, "site_marked": "left"}

	plan, err := svc.CreateCasePlan(context.Background(), surgeonActor(), req)
	require.NoError(t, err)

	stored := planRepo.plans[plan.ID]
	require.NotNil(t, stored)
	assert.Equal(t, true, stored.PreOpChecklist["fasting_confirmed"])
	assert.Equal(t, "left", stored.PreOpChecklist["site_marked"])
}

func TestUpdateCasePlanReplacesPreOpChecklist(t *testing.T) {
	svc, caseRepo, planRepo := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusPlanning)

	now := time.Now()
	plan := &model.CasePlan{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:       sc.ClinicID,
		PatientID:      sc.PatientID,
		SurgeonID:      sc.SurgeonID,
		SurgicalCaseID: &sc.ID,
		Procedure:      "appendectomy",
		Anesthesia:     "general",
		EstDurationMin: 60,
		PreOpChecklist: model.JSONMap{"fasting_confirmed": false},
	}
	planRepo.plans[plan.ID] = plan

	updated, err := svc.UpdateCasePlan(context.Background(), surgeonActor(), plan.ID, &model.UpdateCasePlanRequest{
		PreOpChecklist: model.JSONMap{"fasting_confirmed": true, "consent_on_file": true},
	})
	require.NoError(t, err)

	assert.Equal(t, true, updated.PreOpChecklist["fasting_confirmed"])
	assert.Equal(t, true, updated.PreOpChecklist["consent_on_file"])
	assert.Equal(t, updated.PreOpChecklist, planRepo.plans[plan.ID].PreOpChecklist)
}

func TestCreateCasePlanForbiddenForNonSurgeon(t *testing.T) {
	svc, _, _ := setupService()
	actor := surgeonActor()
	actor.Role = model.RoleNurse

	_, err := svc.CreateCasePlan(context.Background(), actor, planRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestAttachPlanToCaseWithExistingPlanConflicts(t *testing.T) {
	svc, caseRepo, _ := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusDraft)
	existing := uuid.New()
	sc.CasePlanID = &existing

	req := planRequest()
	caseID := sc.ID.String()
	req.SurgicalCaseID = &caseID

	_, err := svc.CreateCasePlan(context.Background(), surgeonActor(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestAttachPlanAdvancesDraftToPlanning(t *testing.T) {
	svc, caseRepo, _ := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusDraft)

	req := planRequest()
	caseID := sc.ID.String()
	req.SurgicalCaseID = &caseID

	plan, err := svc.CreateCasePlan(context.Background(), surgeonActor(), req)
	require.NoError(t, err)

	stored := caseRepo.cases[sc.ID]
	assert.Equal(t, model.SurgicalCaseStatusPlanning, stored.Status)
	require.NotNil(t, stored.CasePlanID)
	assert.Equal(t, plan.ID, *stored.CasePlanID)
	require.NotNil(t, plan.SurgicalCaseID)
	assert.Equal(t, sc.ID, *plan.SurgicalCaseID)
}

func TestScheduleMovesPlanningToScheduled(t *testing.T) {
	svc, caseRepo, _ := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusPlanning)

	sc2, err := svc.Schedule(context.Background(), surgeonActor(), sc.ID, &model.ScheduleCaseRequest{
		ScheduledFor: time.Now().Add(48 * time.Hour),
		TheaterRoom:  "OR-2",
	})
	require.NoError(t, err)

	assert.Equal(t, model.SurgicalCaseStatusScheduled, sc2.Status)
	require.NotNil(t, sc2.ScheduledFor)
	require.NotNil(t, sc2.TheaterRoom)
	assert.Equal(t, "OR-2", *sc2.TheaterRoom)
	require.NotNil(t, caseRepo.lastOutbox)
	assert.Equal(t, "surgical_case.scheduled", caseRepo.lastOutbox.EventType)
}

func TestSchedulePastTimeRejected(t *testing.T) {
	svc, caseRepo, _ := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusPlanning)

	_, err := svc.Schedule(context.Background(), surgeonActor(), sc.ID, &model.ScheduleCaseRequest{
		ScheduledFor: time.Now().Add(-time.Hour),
		TheaterRoom:  "OR-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
}

func TestTransitionSkippingStagesRejected(t *testing.T) {
	svc, caseRepo, _ := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusDraft)

	_, err := svc.Transition(context.Background(), surgeonActor(), sc.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusInTheater,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
	assert.Equal(t, model.SurgicalCaseStatusDraft, caseRepo.cases[sc.ID].Status)
}

func TestTransitionRoleGating(t *testing.T) {
	svc, caseRepo, _ := setupService()

	nurse := surgeonActor()
	nurse.Role = model.RoleNurse

	// A nurse moves a case into recovery but never into theater.
	sc := seedCase(caseRepo, model.SurgicalCaseStatusInTheater)
	_, err := svc.Transition(context.Background(), nurse, sc.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusRecovery,
	})
	require.NoError(t, err)

	sc2 := seedCase(caseRepo, model.SurgicalCaseStatusScheduled)
	_, err = svc.Transition(context.Background(), nurse, sc2.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusInTheater,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestTransitionStampsLifecycleTimes(t *testing.T) {
	svc, caseRepo, _ := setupService()
	actor := surgeonActor()

	sc := seedCase(caseRepo, model.SurgicalCaseStatusScheduled)
	got, err := svc.Transition(context.Background(), actor, sc.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusInTheater,
	})
	require.NoError(t, err)
	assert.NotNil(t, got.StartedAt)

	sc2 := seedCase(caseRepo, model.SurgicalCaseStatusRecovery)
	got, err = svc.Transition(context.Background(), actor, sc2.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusCompleted,
	})
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)

	reason := "patient unfit for anesthesia"
	sc3 := seedCase(caseRepo, model.SurgicalCaseStatusPlanning)
	got, err = svc.Transition(context.Background(), actor, sc3.ID, &model.TransitionCaseRequest{
		Status: model.SurgicalCaseStatusCancelled,
		Reason: &reason,
	})
	require.NoError(t, err)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, reason, *got.CancelReason)
}

func TestUpdateCasePlanLockedOnceScheduled(t *testing.T) {
	svc, caseRepo, planRepo := setupService()
	sc := seedCase(caseRepo, model.SurgicalCaseStatusScheduled)

	now := time.Now()
	plan := &model.CasePlan{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:       sc.ClinicID,
		PatientID:      sc.PatientID,
		SurgeonID:      sc.SurgeonID,
		SurgicalCaseID: &sc.ID,
		Procedure:      "appendectomy",
		Anesthesia:     "general",
		EstDurationMin: 60,
	}
	planRepo.plans[plan.ID] = plan

	notes := "revised approach"
	_, err := svc.UpdateCasePlan(context.Background(), surgeonActor(), plan.ID, &model.UpdateCasePlanRequest{
		Notes: &notes,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
	assert.Contains(t, err.Error(), "locked")
}
