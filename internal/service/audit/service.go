package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
)

// Service writes the append-only audit trail. Log never returns an error:
// an audit failure outside a workflow transaction must not block the
// primary operation, so failures are logged and swallowed here. Audit
// writes that must be atomic with a mutation go through the repository
// transaction helpers instead, via Event.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Changes   interface{}
	Metadata  interface{}
	IPAddress string
	UserAgent string
}

// Event builds an audit row without persisting it, for callers that write
// it inside their own transaction.
func Event(actor *model.TokenClaims, clinicID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) *model.AuditEvent {
	ev := &model.AuditEvent{
		ID:         uuid.New(),
		ClinicID:   clinicID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}
	if actor != nil {
		ev.ActorID = actor.UserID
		ev.ActorRole = actor.Role
	}
	if opts == nil {
		return ev
	}

	if opts.Changes != nil {
		if raw, err := json.Marshal(opts.Changes); err == nil {
			ev.Changes = raw
		}
	}
	if opts.Metadata != nil {
		if raw, err := json.Marshal(opts.Metadata); err == nil {
			ev.Metadata = raw
		}
	}
	ev.IPAddress = opts.IPAddress
	ev.UserAgent = opts.UserAgent
	return ev
}

// Log appends an audit event, swallowing any write failure.
func (s *Service) Log(ctx context.Context, actor *model.TokenClaims, clinicID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	ev := Event(actor, clinicID, action, entityType, entityID, opts)
	if err := s.repo.Create(ctx, ev); err != nil {
		log.Warn().
			Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("audit write failed")
	}
}

func (s *Service) List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
