package user

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
	"github.com/clinicore/clinic-ops-api/internal/service/authz"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, filter *model.UserFilter) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditEvent) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	return nil, 0, nil
}
func (f *fakeAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func setup() (*Service, *fakeUserRepo, *authz.Service) {
	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	authzSvc := authz.NewService(users)
	svc := NewService(users, authzSvc, audit.NewService(&fakeAuditRepo{}))
	return svc, users, authzSvc
}

func adminActor() *model.TokenClaims {
	return &model.TokenClaims{
		UserID:   uuid.New(),
		ClinicID: uuid.New(),
		Email:    "admin@clinic.test",
		Role:     model.RoleAdmin,
	}
}

func seedUser(users *fakeUserRepo, role model.Role) *model.User {
	now := time.Now()
	u := &model.User{
		Base:     model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID: uuid.New(),
		Email:    "staff@clinic.test",
		Name:     "Staff Member",
		Role:     role,
		Status:   model.UserStatusActive,
	}
	users.users[u.ID] = u
	return u
}

func TestCreateUserActiveWithHashedPassword(t *testing.T) {
	svc, users, _ := setup()

	created, err := svc.Create(context.Background(), adminActor(), &model.CreateUserRequest{
		ClinicID: uuid.New().String(),
		Email:    "nurse@clinic.test",
		Name:     "New Nurse",
		Password: "a decent password",
		Role:     model.RoleNurse,
	})
	require.NoError(t, err)

	assert.Equal(t, model.UserStatusActive, created.Status)
	assert.Equal(t, model.RoleNurse, created.Role)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "a decent password", created.PasswordHash)
	assert.Len(t, users.users, 1)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, users, _ := setup()
	seedUser(users, model.RoleNurse)

	_, err := svc.Create(context.Background(), adminActor(), &model.CreateUserRequest{
		ClinicID: uuid.New().String(),
		Email:    "staff@clinic.test",
		Name:     "Duplicate",
		Password: "a decent password",
		Role:     model.RoleNurse,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestUpdateRoleChangeInvalidatesCachedAuthz(t *testing.T) {
	svc, users, authzSvc := setup()
	u := seedUser(users, model.RoleNurse)
	ctx := context.Background()

	// Warm the authorization cache with the current role.
	claims := &model.TokenClaims{UserID: u.ID, Email: u.Email, Role: model.RoleNurse}
	require.NoError(t, authzSvc.CheckActor(ctx, claims))

	role := model.RoleDoctor
	_, err := svc.Update(ctx, adminActor(), u.ID, &model.UpdateUserRequest{Role: &role})
	require.NoError(t, err)

	// The old-role token must stop working right away, not after TTL.
	err = authzSvc.CheckActor(ctx, claims)
	assert.Error(t, err)
}

func TestUpdateWithNoFieldsIsNoop(t *testing.T) {
	svc, users, _ := setup()
	u := seedUser(users, model.RoleNurse)
	before := users.users[u.ID].UpdatedAt

	got, err := svc.Update(context.Background(), adminActor(), u.ID, &model.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, before, got.UpdatedAt)
}

func TestDeactivateSetsInactive(t *testing.T) {
	svc, users, _ := setup()
	u := seedUser(users, model.RoleReceptionist)

	got, err := svc.Deactivate(context.Background(), adminActor(), u.ID)
	require.NoError(t, err)

	assert.Equal(t, model.UserStatusInactive, got.Status)
	assert.Equal(t, model.UserStatusInactive, users.users[u.ID].Status)
}

func TestGetUnknownUserNotFound(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListFiltersByRole(t *testing.T) {
	svc, users, _ := setup()
	seedUser(users, model.RoleNurse)
	doctor := seedUser(users, model.RoleDoctor)
	doctor.Email = "doctor@clinic.test"

	got, err := svc.List(context.Background(), &model.UserFilter{Role: model.RoleDoctor})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.RoleDoctor, got[0].Role)
}
