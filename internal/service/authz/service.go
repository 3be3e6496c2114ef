package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
)

const (
	cacheTTL        = 5 * time.Minute
	cleanupInterval = 15 * time.Minute
)

// Service answers "may this user act right now". Role allow-lists per
// operation live on the routes; this service verifies the account behind a
// token is still active and its role unchanged, with a short TTL cache so
// the check does not hit the database on every request.
type Service struct {
	userRepo repository.UserRepository
	cache    *gocache.Cache
}

func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		cache:    gocache.New(cacheTTL, cleanupInterval),
	}
}

type accountState struct {
	Role   model.Role
	Status string
}

// CheckActor verifies the user is active and that the role in the token
// still matches the stored role (a demoted user keeps an old token until
// the cache and token expire, bounded by cacheTTL).
func (s *Service) CheckActor(ctx context.Context, claims *model.TokenClaims) error {
	state, err := s.lookup(ctx, claims.UserID)
	if err != nil {
		return err
	}

	if state.Status != model.UserStatusActive {
		return fmt.Errorf("account is not active")
	}
	if state.Role != claims.Role {
		return fmt.Errorf("role has changed, re-authentication required")
	}
	return nil
}

// Invalidate drops a user's cached state, for role or status changes.
func (s *Service) Invalidate(userID uuid.UUID) {
	s.cache.Delete(userID.String())
}

func (s *Service) lookup(ctx context.Context, userID uuid.UUID) (*accountState, error) {
	key := userID.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(*accountState), nil
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	state := &accountState{Role: user.Role, Status: user.Status}
	s.cache.Set(key, state, gocache.DefaultExpiration)
	return state, nil
}
