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

type formTemplateRepository struct {
	BaseRepository
}

func NewFormTemplateRepository(base BaseRepository) repository.FormTemplateRepository {
	return &formTemplateRepository{base}
}

func (r *formTemplateRepository) Create(ctx context.Context, tpl *model.FormTemplate) error {
	query := `
		INSERT INTO form_templates (
			id, clinic_id, name, kind, required_fields, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		tpl.ID,
		tpl.ClinicID,
		tpl.Name,
		tpl.Kind,
		tpl.RequiredFields,
		tpl.Active,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create form template: %w", err)
	}
	return nil
}

func (r *formTemplateRepository) Get(ctx context.Context, id uuid.UUID) (*model.FormTemplate, error) {
	query := `SELECT * FROM form_templates WHERE id = $1 AND deleted_at IS NULL`

	var tpl model.FormTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get form template: %w", err)
	}
	return &tpl, nil
}

func (r *formTemplateRepository) List(ctx context.Context, clinicID uuid.UUID) ([]*model.FormTemplate, error) {
	query := `
		SELECT * FROM form_templates
		WHERE clinic_id = $1 AND active = true AND deleted_at IS NULL
		ORDER BY name ASC
	`
	var templates []*model.FormTemplate
	if err := r.db.SelectContext(ctx, &templates, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list form templates: %w", err)
	}
	return templates, nil
}

type formResponseRepository struct {
	BaseRepository
}

func NewFormResponseRepository(base BaseRepository) repository.FormResponseRepository {
	return &formResponseRepository{base}
}

func (r *formResponseRepository) Create(ctx context.Context, resp *model.ClinicalFormResponse) error {
	query := `
		INSERT INTO form_responses (
			id, template_id, patient_id, appointment_id, author_id, status,
			answers, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		resp.ID,
		resp.TemplateID,
		resp.PatientID,
		resp.AppointmentID,
		resp.AuthorID,
		resp.Status,
		resp.Answers,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create form response: %w", err)
	}
	return nil
}

func (r *formResponseRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicalFormResponse, error) {
	query := `SELECT * FROM form_responses WHERE id = $1 AND deleted_at IS NULL`

	var resp model.ClinicalFormResponse
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get form response: %w", err)
	}
	return &resp, nil
}

// Update only touches DRAFT rows; FINAL responses are immutable.
func (r *formResponseRepository) Update(ctx context.Context, resp *model.ClinicalFormResponse) error {
	query := `
		UPDATE form_responses
		SET answers = $1, updated_at = $2
		WHERE id = $3 AND status = 'draft' AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, resp.Answers, resp.UpdatedAt, resp.ID)
	if err != nil {
		return fmt.Errorf("failed to update form response: %w", err)
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

// Finalize guards the DRAFT precondition inside the UPDATE itself and writes
// the audit and outbox rows in the same transaction.
func (r *formResponseRepository) Finalize(ctx context.Context, resp *model.ClinicalFormResponse, audit *model.AuditEvent, outbox *model.OutboxEvent) error {
	query := `
		UPDATE form_responses
		SET status = 'final', finalized_at = $1, finalized_by = $2, updated_at = $3
		WHERE id = $4 AND status = 'draft' AND deleted_at IS NULL
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			resp.FinalizedAt,
			resp.FinalizedBy,
			resp.UpdatedAt,
			resp.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to finalize form response: %w", err)
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

func (r *formResponseRepository) List(ctx context.Context, filter *model.FormResponseFilter) ([]*model.ClinicalFormResponse, error) {
	query := `SELECT * FROM form_responses WHERE deleted_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filter.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filter.PatientID)
		argCount++
	}
	if filter.TemplateID != uuid.Nil {
		query += fmt.Sprintf(" AND template_id = $%d", argCount)
		args = append(args, filter.TemplateID)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var responses []*model.ClinicalFormResponse
	if err := r.db.SelectContext(ctx, &responses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list form responses: %w", err)
	}
	return responses, nil
}
