package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

// Create appends a single audit event. There is no update or delete on this
// table outside the retention cleanup worker.
func (r *auditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, insertAuditEvent,
		event.ID,
		event.ActorID,
		event.ActorRole,
		event.ClinicID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.Changes,
		event.Metadata,
		event.IPAddress,
		event.UserAgent,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.ClinicID != uuid.Nil {
		where += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, filter.ClinicID)
		argCount++
	}
	if filter.ActorID != uuid.Nil {
		where += fmt.Sprintf(" AND actor_id = $%d", argCount)
		args = append(args, filter.ActorID)
		argCount++
	}
	if filter.EntityType != "" {
		where += fmt.Sprintf(" AND entity_type = $%d", argCount)
		args = append(args, filter.EntityType)
		argCount++
	}
	if filter.EntityID != uuid.Nil {
		where += fmt.Sprintf(" AND entity_id = $%d", argCount)
		args = append(args, filter.EntityID)
		argCount++
	}
	if filter.Action != "" {
		where += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, filter.Action)
		argCount++
	}
	if !filter.From.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, filter.From)
		argCount++
	}
	if !filter.To.IsZero() {
		where += fmt.Sprintf(" AND created_at < $%d", argCount)
		args = append(args, filter.To)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_events"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	query := "SELECT * FROM audit_events" + where + " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filter.PageSize, offset)
	}

	var events []*model.AuditEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, total, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit events: %w", err)
	}
	return result.RowsAffected()
}
