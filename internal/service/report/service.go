package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

const maxTrendRange = 366 * 24 * time.Hour

type Service struct {
	repo repository.ReportRepository
}

func NewService(repo repository.ReportRepository) *Service {
	return &Service{repo: repo}
}

// Dayboard assembles the day-of-operations board for one clinic.
func (s *Service) Dayboard(ctx context.Context, clinicID uuid.UUID, day time.Time) (*model.Dayboard, error) {
	appointments, err := s.repo.DayboardAppointments(ctx, clinicID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load dayboard appointments: %w", err)
	}

	theater, err := s.repo.DayboardTheater(ctx, clinicID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load theater board: %w", err)
	}

	intakeCount, err := s.repo.IntakeCountForDay(ctx, clinicID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to count intakes: %w", err)
	}

	return &model.Dayboard{
		ClinicID:     clinicID,
		Date:         day.Truncate(24 * time.Hour),
		Appointments: appointments,
		Theater:      theater,
		IntakeCount:  intakeCount,
	}, nil
}

func (s *Service) AppointmentTrends(ctx context.Context, clinicID uuid.UUID, r model.DateRange) ([]model.TrendPoint, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	points, err := s.repo.AppointmentTrends(ctx, clinicID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment trends: %w", err)
	}
	return points, nil
}

func (s *Service) IntakeCounts(ctx context.Context, clinicID uuid.UUID, r model.DateRange) ([]model.IntakePoint, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	points, err := s.repo.IntakeCounts(ctx, clinicID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load intake counts: %w", err)
	}
	return points, nil
}

func validateRange(r model.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return apperrors.BadRequest("from and to are required", nil)
	}
	if !r.To.After(r.From) {
		return apperrors.BadRequest("to must be after from", nil)
	}
	if r.To.Sub(r.From) > maxTrendRange {
		return apperrors.BadRequest("date range cannot exceed one year", nil)
	}
	return nil
}
