package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-events", h.ListEvents)
}

func (h *Handler) ListEvents(c *gin.Context) {
	var filter model.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if filter.ClinicID == uuid.Nil {
		filter.ClinicID = handler.Actor(c).ClinicID
	}

	events, total, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"events": events,
		"total":  total,
	}))
}
