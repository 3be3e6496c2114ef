package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-ops-api/internal/model"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

const insertAuditEvent = `
	INSERT INTO audit_events (
		id, actor_id, actor_role, clinic_id, action, entity_type, entity_id,
		changes, metadata, ip_address, user_agent, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// insertAuditTx writes an audit event inside an existing transaction.
func insertAuditTx(ctx context.Context, tx *sqlx.Tx, ev *model.AuditEvent) error {
	_, err := tx.ExecContext(ctx, insertAuditEvent,
		ev.ID,
		ev.ActorID,
		ev.ActorRole,
		ev.ClinicID,
		ev.Action,
		ev.EntityType,
		ev.EntityID,
		ev.Changes,
		ev.Metadata,
		ev.IPAddress,
		ev.UserAgent,
		ev.CreatedAt,
	)
	return err
}

const insertOutboxEvent = `
	INSERT INTO outbox_events (id, event_type, payload, status, retries, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// insertOutboxTx enqueues an outbox event inside an existing transaction.
func insertOutboxTx(ctx context.Context, tx *sqlx.Tx, ev *model.OutboxEvent) error {
	if ev == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx, insertOutboxEvent,
		ev.ID,
		ev.EventType,
		ev.Payload,
		ev.Status,
		ev.Retries,
		ev.CreatedAt,
	)
	return err
}
