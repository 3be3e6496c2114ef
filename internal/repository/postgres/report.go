package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(base BaseRepository) repository.ReportRepository {
	return &reportRepository{base}
}

func (r *reportRepository) DayboardAppointments(ctx context.Context, clinicID uuid.UUID, day time.Time) ([]model.DayboardEntry, error) {
	query := `
		SELECT a.id AS appointment_id,
			   p.first_name || ' ' || p.last_name AS patient_name,
			   u.name AS clinician_name,
			   a.start_time, a.end_time, a.status, a.reason
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN users u ON u.id = a.clinician_id
		WHERE a.clinic_id = $1
		AND a.deleted_at IS NULL
		AND a.start_time >= $2
		AND a.start_time < $3
		ORDER BY a.start_time ASC
	`
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var entries []model.DayboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, clinicID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("failed to load dayboard appointments: %w", err)
	}
	return entries, nil
}

func (r *reportRepository) DayboardTheater(ctx context.Context, clinicID uuid.UUID, day time.Time) ([]model.TheaterEntry, error) {
	query := `
		SELECT c.id AS case_id,
			   p.first_name || ' ' || p.last_name AS patient_name,
			   u.name AS surgeon_name,
			   c.procedure, c.status, c.theater_room
		FROM surgical_cases c
		JOIN patients p ON p.id = c.patient_id
		JOIN users u ON u.id = c.surgeon_id
		WHERE c.clinic_id = $1
		AND c.deleted_at IS NULL
		AND (
			c.status IN ('in_theater', 'recovery')
			OR (c.scheduled_for >= $2 AND c.scheduled_for < $3)
		)
		ORDER BY c.scheduled_for ASC NULLS LAST
	`
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var entries []model.TheaterEntry
	if err := r.db.SelectContext(ctx, &entries, query, clinicID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("failed to load theater board: %w", err)
	}
	return entries, nil
}

func (r *reportRepository) IntakeCountForDay(ctx context.Context, clinicID uuid.UUID, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM patients
		WHERE clinic_id = $1
		AND deleted_at IS NULL
		AND intake_started_at >= $2
		AND intake_started_at < $3
	`
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int
	if err := r.db.GetContext(ctx, &count, query, clinicID, dayStart, dayEnd); err != nil {
		return 0, fmt.Errorf("failed to count intakes: %w", err)
	}
	return count, nil
}

func (r *reportRepository) AppointmentTrends(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.TrendPoint, error) {
	query := `
		SELECT date_trunc('day', start_time) AS day, status, COUNT(*) AS count
		FROM appointments
		WHERE clinic_id = $1
		AND deleted_at IS NULL
		AND start_time >= $2
		AND start_time < $3
		GROUP BY day, status
		ORDER BY day ASC
	`
	var points []model.TrendPoint
	if err := r.db.SelectContext(ctx, &points, query, clinicID, from, to); err != nil {
		return nil, fmt.Errorf("failed to load appointment trends: %w", err)
	}
	return points, nil
}

func (r *reportRepository) IntakeCounts(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.IntakePoint, error) {
	query := `
		SELECT date_trunc('day', intake_started_at) AS day, COUNT(*) AS count
		FROM patients
		WHERE clinic_id = $1
		AND deleted_at IS NULL
		AND intake_started_at >= $2
		AND intake_started_at < $3
		GROUP BY day
		ORDER BY day ASC
	`
	var points []model.IntakePoint
	if err := r.db.SelectContext(ctx, &points, query, clinicID, from, to); err != nil {
		return nil, fmt.Errorf("failed to load intake counts: %w", err)
	}
	return points, nil
}
