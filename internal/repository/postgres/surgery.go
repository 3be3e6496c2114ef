package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
)

type surgicalCaseRepository struct {
	BaseRepository
}

func NewSurgicalCaseRepository(base BaseRepository) repository.SurgicalCaseRepository {
	return &surgicalCaseRepository{base}
}

const insertSurgicalCase = `
	INSERT INTO surgical_cases (
		id, clinic_id, patient_id, surgeon_id, case_plan_id, procedure,
		status, theater_room, scheduled_for, clinical_notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (r *surgicalCaseRepository) Create(ctx context.Context, sc *model.SurgicalCase) error {
	_, err := r.db.ExecContext(ctx, insertSurgicalCase,
		sc.ID,
		sc.ClinicID,
		sc.PatientID,
		sc.SurgeonID,
		sc.CasePlanID,
		sc.Procedure,
		sc.Status,
		sc.TheaterRoom,
		sc.ScheduledFor,
		sc.ClinicalNotes,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create surgical case: %w", err)
	}
	return nil
}

func (r *surgicalCaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.SurgicalCase, error) {
	query := `SELECT * FROM surgical_cases WHERE id = $1 AND deleted_at IS NULL`

	var sc model.SurgicalCase
	if err := r.db.GetContext(ctx, &sc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get surgical case: %w", err)
	}
	return &sc, nil
}

func (r *surgicalCaseRepository) Update(ctx context.Context, sc *model.SurgicalCase) error {
	query := `
		UPDATE surgical_cases
		SET procedure = $1, theater_room = $2, scheduled_for = $3,
			clinical_notes = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		sc.Procedure,
		sc.TheaterRoom,
		sc.ScheduledFor,
		sc.ClinicalNotes,
		sc.UpdatedAt,
		sc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update surgical case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *surgicalCaseRepository) UpdateStatus(ctx context.Context, sc *model.SurgicalCase, audit *model.AuditEvent, outbox *model.OutboxEvent) error {
	query := `
		UPDATE surgical_cases
		SET status = $1, theater_room = $2, scheduled_for = $3, started_at = $4,
			completed_at = $5, cancel_reason = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			sc.Status,
			sc.TheaterRoom,
			sc.ScheduledFor,
			sc.StartedAt,
			sc.CompletedAt,
			sc.CancelReason,
			sc.UpdatedAt,
			sc.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update case status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		if err := insertAuditTx(ctx, tx, audit); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
		return insertOutboxTx(ctx, tx, outbox)
	})
}

func (r *surgicalCaseRepository) List(ctx context.Context, filter *model.SurgicalCaseFilter) ([]*model.SurgicalCase, error) {
	query := `SELECT * FROM surgical_cases WHERE deleted_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filter.ClinicID != uuid.Nil {
		query += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, filter.ClinicID)
		argCount++
	}
	if filter.SurgeonID != uuid.Nil {
		query += fmt.Sprintf(" AND surgeon_id = $%d", argCount)
		args = append(args, filter.SurgeonID)
		argCount++
	}
	if filter.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filter.PatientID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var cases []*model.SurgicalCase
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list surgical cases: %w", err)
	}
	return cases, nil
}

type casePlanRepository struct {
	BaseRepository
}

func NewCasePlanRepository(base BaseRepository) repository.CasePlanRepository {
	return &casePlanRepository{base}
}

const insertCasePlan = `
	INSERT INTO case_plans (
		id, clinic_id, patient_id, surgeon_id, surgical_case_id, procedure,
		anesthesia, est_duration_min, pre_op_checklist, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (r *casePlanRepository) Create(ctx context.Context, plan *model.CasePlan) error {
	_, err := r.db.ExecContext(ctx, insertCasePlan,
		plan.ID,
		plan.ClinicID,
		plan.PatientID,
		plan.SurgeonID,
		plan.SurgicalCaseID,
		plan.Procedure,
		plan.Anesthesia,
		plan.EstDurationMin,
		plan.PreOpChecklist,
		plan.Notes,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case plan: %w", err)
	}
	return nil
}

// CreateWithCase inserts the plan and its auto-created case together and
// links them in both directions. The WHERE surgical_case_id IS NULL guard
// keeps the side effect idempotent under concurrent saves.
func (r *casePlanRepository) CreateWithCase(ctx context.Context, plan *model.CasePlan, sc *model.SurgicalCase, audit *model.AuditEvent, outbox *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insertCasePlan,
			plan.ID,
			plan.ClinicID,
			plan.PatientID,
			plan.SurgeonID,
			nil,
			plan.Procedure,
			plan.Anesthesia,
			plan.EstDurationMin,
			plan.PreOpChecklist,
			plan.Notes,
			plan.CreatedAt,
			plan.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create case plan: %w", err)
		}

		_, err = tx.ExecContext(ctx, insertSurgicalCase,
			sc.ID,
			sc.ClinicID,
			sc.PatientID,
			sc.SurgeonID,
			sc.CasePlanID,
			sc.Procedure,
			sc.Status,
			sc.TheaterRoom,
			sc.ScheduledFor,
			sc.ClinicalNotes,
			sc.CreatedAt,
			sc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create surgical case: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE case_plans SET surgical_case_id = $1, updated_at = $2
			 WHERE id = $3 AND surgical_case_id IS NULL`,
			sc.ID, plan.UpdatedAt, plan.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to link case plan: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrAlreadyLinked
		}

		if err := insertAuditTx(ctx, tx, audit); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
		return insertOutboxTx(ctx, tx, outbox)
	})
}

func (r *casePlanRepository) Get(ctx context.Context, id uuid.UUID) (*model.CasePlan, error) {
	query := `SELECT * FROM case_plans WHERE id = $1 AND deleted_at IS NULL`

	var plan model.CasePlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get case plan: %w", err)
	}
	return &plan, nil
}

func (r *casePlanRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*model.CasePlan, error) {
	query := `SELECT * FROM case_plans WHERE surgical_case_id = $1 AND deleted_at IS NULL`

	var plan model.CasePlan
	if err := r.db.GetContext(ctx, &plan, query, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get case plan by case: %w", err)
	}
	return &plan, nil
}

func (r *casePlanRepository) Update(ctx context.Context, plan *model.CasePlan) error {
	query := `
		UPDATE case_plans
		SET procedure = $1, anesthesia = $2, est_duration_min = $3,
			pre_op_checklist = $4, notes = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		plan.Procedure,
		plan.Anesthesia,
		plan.EstDurationMin,
		plan.PreOpChecklist,
		plan.Notes,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
