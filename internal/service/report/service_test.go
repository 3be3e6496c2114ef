package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/model"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

type fakeReportRepo struct {
	appointments []model.DayboardEntry
	theater      []model.TheaterEntry
	intakeCount  int
	trends       []model.TrendPoint
	intakes      []model.IntakePoint
}

func (f *fakeReportRepo) DayboardAppointments(_ context.Context, _ uuid.UUID, _ time.Time) ([]model.DayboardEntry, error) {
	return f.appointments, nil
}

func (f *fakeReportRepo) DayboardTheater(_ context.Context, _ uuid.UUID, _ time.Time) ([]model.TheaterEntry, error) {
	return f.theater, nil
}

func (f *fakeReportRepo) IntakeCountForDay(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return f.intakeCount, nil
}

func (f *fakeReportRepo) AppointmentTrends(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]model.TrendPoint, error) {
	return f.trends, nil
}

func (f *fakeReportRepo) IntakeCounts(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]model.IntakePoint, error) {
	return f.intakes, nil
}

func TestDayboardAssemblesAllSections(t *testing.T) {
	room := "OR-1"
	repo := &fakeReportRepo{
		appointments: []model.DayboardEntry{
			{AppointmentID: uuid.New(), PatientName: "Maria Jensen", Status: model.AppointmentStatusCheckedIn},
		},
		theater: []model.TheaterEntry{
			{CaseID: uuid.New(), PatientName: "Ola Berg", Procedure: "appendectomy", Status: model.SurgicalCaseStatusInTheater, TheaterRoom: &room},
		},
		intakeCount: 3,
	}
	svc := NewService(repo)

	clinicID := uuid.New()
	day := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	board, err := svc.Dayboard(context.Background(), clinicID, day)
	require.NoError(t, err)

	assert.Equal(t, clinicID, board.ClinicID)
	assert.Len(t, board.Appointments, 1)
	assert.Len(t, board.Theater, 1)
	assert.Equal(t, 3, board.IntakeCount)
	// The board date is normalized to the day, not the query instant.
	assert.Equal(t, board.Date, board.Date.Truncate(24*time.Hour))
}

func TestTrendRangeValidation(t *testing.T) {
	svc := NewService(&fakeReportRepo{})
	clinicID := uuid.New()
	now := time.Now()

	cases := []struct {
		name string
		r    model.DateRange
	}{
		{"missing from", model.DateRange{To: now}},
		{"missing to", model.DateRange{From: now}},
		{"inverted", model.DateRange{From: now, To: now.Add(-24 * time.Hour)}},
		{"equal bounds", model.DateRange{From: now, To: now}},
		{"over a year", model.DateRange{From: now, To: now.Add(400 * 24 * time.Hour)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppointmentTrends(context.Background(), clinicID, tc.r)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))

			_, err = svc.IntakeCounts(context.Background(), clinicID, tc.r)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
		})
	}
}

func TestTrendsReturnRepositoryPoints(t *testing.T) {
	repo := &fakeReportRepo{
		trends: []model.TrendPoint{
			{Day: time.Now().Truncate(24 * time.Hour), Status: model.AppointmentStatusCompleted, Count: 12},
		},
		intakes: []model.IntakePoint{
			{Day: time.Now().Truncate(24 * time.Hour), Count: 4},
		},
	}
	svc := NewService(repo)
	clinicID := uuid.New()
	r := model.DateRange{From: time.Now().AddDate(0, -1, 0), To: time.Now()}

	trends, err := svc.AppointmentTrends(context.Background(), clinicID, r)
	require.NoError(t, err)
	assert.Len(t, trends, 1)
	assert.Equal(t, 12, trends[0].Count)

	intakes, err := svc.IntakeCounts(context.Background(), clinicID, r)
	require.NoError(t, err)
	assert.Len(t, intakes, 1)
	assert.Equal(t, 4, intakes[0].Count)
}
