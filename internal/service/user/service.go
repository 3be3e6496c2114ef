package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	"github.com/clinicore/clinic-ops-api/internal/service/authz"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
	"github.com/clinicore/clinic-ops-api/pkg/security"
)

// Service manages staff and patient accounts. Only admins reach these
// operations; the routes enforce that.
type Service struct {
	userRepo repository.UserRepository
	authzSvc *authz.Service
	hasher   security.PasswordHasher
	auditor  *audit.Service
}

func NewService(userRepo repository.UserRepository, authzSvc *authz.Service, auditor *audit.Service) *Service {
	return &Service{
		userRepo: userRepo,
		authzSvc: authzSvc,
		hasher:   security.NewBcryptHasher(security.DefaultCost),
		auditor:  auditor,
	}
}

func (s *Service) Create(ctx context.Context, actor *model.TokenClaims, req *model.CreateUserRequest) (*model.User, error) {
	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic ID", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	now := time.Now()
	user := &model.User{
		Base:         model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:     clinicID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, actor, user.ClinicID, model.AuditActionCreate, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"role": user.Role},
	})
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies partial changes. Role and status changes invalidate the
// cached authorization state so they take effect on the next request.
func (s *Service) Update(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		user.Name = *req.Name
		changes["name"] = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
		changes["email"] = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
		changes["phone"] = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
		changes["role"] = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
		changes["status"] = *req.Status
	}
	if len(changes) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if req.Role != nil || req.Status != nil {
		s.authzSvc.Invalidate(user.ID)
	}

	s.auditor.Log(ctx, actor, user.ClinicID, model.AuditActionUpdate, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Changes: changes,
	})
	return user, nil
}

// Deactivate blocks the account without deleting it.
func (s *Service) Deactivate(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.User, error) {
	status := model.UserStatusInactive
	return s.Update(ctx, actor, id, &model.UpdateUserRequest{Status: &status})
}
