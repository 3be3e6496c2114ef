package surgery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/surgery"
)

type Handler struct {
	service *surgery.Service
}

func NewHandler(service *surgery.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/case-plans")
	{
		plans.POST("", h.CreateCasePlan)
		plans.GET("/:id", h.GetCasePlan)
		plans.PUT("/:id", h.UpdateCasePlan)
	}

	cases := r.Group("/surgical-cases")
	{
		cases.GET("", h.ListCases)
		cases.GET("/:id", h.GetCase)
		cases.POST("/:id/schedule", h.ScheduleCase)
		cases.POST("/:id/transition", h.TransitionCase)
	}
}

// CreateCasePlan creates a plan and, when no case is supplied, a linked
// surgical case along with it.
func (h *Handler) CreateCasePlan(c *gin.Context) {
	var req model.CreateCasePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	plan, err := h.service.CreateCasePlan(c.Request.Context(), handler.Actor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(plan))
}

func (h *Handler) GetCasePlan(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	plan, err := h.service.GetCasePlan(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(plan))
}

func (h *Handler) UpdateCasePlan(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCasePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	plan, err := h.service.UpdateCasePlan(c.Request.Context(), handler.Actor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(plan))
}

func (h *Handler) GetCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	sc, err := h.service.GetCase(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sc))
}

func (h *Handler) ListCases(c *gin.Context) {
	var filter model.SurgicalCaseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if filter.ClinicID == uuid.Nil {
		filter.ClinicID = handler.Actor(c).ClinicID
	}

	cases, err := h.service.ListCases(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cases))
}

func (h *Handler) ScheduleCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.ScheduleCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sc, err := h.service.Schedule(c.Request.Context(), handler.Actor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sc))
}

func (h *Handler) TransitionCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.TransitionCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sc, err := h.service.Transition(c.Request.Context(), handler.Actor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sc))
}
