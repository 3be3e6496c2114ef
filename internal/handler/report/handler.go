package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/report"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/dayboard", h.Dayboard)
		reports.GET("/trends/appointments", h.AppointmentTrends)
		reports.GET("/trends/intakes", h.IntakeCounts)
	}
}

// Dayboard returns today's board unless a date query parameter is given.
func (h *Handler) Dayboard(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	clinicID, ok := h.clinicID(c)
	if !ok {
		return
	}

	board, err := h.service.Dayboard(c.Request.Context(), clinicID, day)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(board))
}

func (h *Handler) AppointmentTrends(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	clinicID, ok := h.clinicID(c)
	if !ok {
		return
	}

	points, err := h.service.AppointmentTrends(c.Request.Context(), clinicID, r)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(points))
}

func (h *Handler) IntakeCounts(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	clinicID, ok := h.clinicID(c)
	if !ok {
		return
	}

	points, err := h.service.IntakeCounts(c.Request.Context(), clinicID, r)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(points))
}

// clinicID resolves the clinic scope: an explicit clinic_id query value
// must parse, otherwise the actor's own clinic is used.
func (h *Handler) clinicID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("clinic_id")
	if raw == "" {
		return handler.Actor(c).ClinicID, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) dateRange(c *gin.Context) (model.DateRange, bool) {
	var r model.DateRange
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date, expected YYYY-MM-DD"))
		return r, false
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date, expected YYYY-MM-DD"))
		return r, false
	}
	r.From, r.To = from, to
	return r, true
}
