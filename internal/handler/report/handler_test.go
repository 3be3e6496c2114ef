package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/report"
)

type fakeReportRepo struct {
	lastClinicID uuid.UUID
}

func (f *fakeReportRepo) DayboardAppointments(_ context.Context, clinicID uuid.UUID, _ time.Time) ([]model.DayboardEntry, error) {
	f.lastClinicID = clinicID
	return nil, nil
}

func (f *fakeReportRepo) DayboardTheater(_ context.Context, _ uuid.UUID, _ time.Time) ([]model.TheaterEntry, error) {
	return nil, nil
}

func (f *fakeReportRepo) IntakeCountForDay(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeReportRepo) AppointmentTrends(_ context.Context, clinicID uuid.UUID, _, _ time.Time) ([]model.TrendPoint, error) {
	f.lastClinicID = clinicID
	return nil, nil
}

func (f *fakeReportRepo) IntakeCounts(_ context.Context, clinicID uuid.UUID, _, _ time.Time) ([]model.IntakePoint, error) {
	f.lastClinicID = clinicID
	return nil, nil
}

func setupRouter(actorClinic uuid.UUID) (*gin.Engine, *fakeReportRepo) {
	gin.SetMode(gin.TestMode)

	repo := &fakeReportRepo{}
	h := NewHandler(report.NewService(repo))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(handler.ContextActor, &model.TokenClaims{
			UserID:   uuid.New(),
			ClinicID: actorClinic,
			Role:     model.RoleAdmin,
		})
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func doRequest(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestDayboardMalformedClinicIDIsBadRequest(t *testing.T) {
	r, repo := setupRouter(uuid.New())

	w := doRequest(r, "/api/v1/reports/dayboard?clinic_id=not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "clinic ID")
	assert.Equal(t, uuid.Nil, repo.lastClinicID, "no query may run for a malformed clinic")
}

func TestDayboardDefaultsToActorClinic(t *testing.T) {
	actorClinic := uuid.New()
	r, repo := setupRouter(actorClinic)

	w := doRequest(r, "/api/v1/reports/dayboard")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, actorClinic, repo.lastClinicID)
}

func TestDayboardExplicitClinicIDWins(t *testing.T) {
	r, repo := setupRouter(uuid.New())
	other := uuid.New()

	w := doRequest(r, "/api/v1/reports/dayboard?clinic_id="+other.String())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, other, repo.lastClinicID)
}

func TestTrendsMalformedClinicIDIsBadRequest(t *testing.T) {
	r, _ := setupRouter(uuid.New())

	w := doRequest(r, "/api/v1/reports/trends/appointments?from=2026-01-01&to=2026-02-01&clinic_id=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "/api/v1/reports/trends/intakes?from=2026-01-01&to=2026-02-01&clinic_id=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
