package clinicalform

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/clinicalform"
)

type Handler struct {
	service *clinicalform.Service
}

func NewHandler(service *clinicalform.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	forms := r.Group("/form-responses")
	{
		forms.POST("", h.CreateResponse)
		forms.GET("", h.ListResponses)
		forms.GET("/:id", h.GetResponse)
		forms.PUT("/:id/answers", h.UpdateAnswers)
		forms.POST("/:id/finalize", h.Finalize)
	}
}

func (h *Handler) CreateResponse(c *gin.Context) {
	var req model.CreateFormResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.CreateResponse(c.Request.Context(), handler.Actor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) GetResponse(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetResponse(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) UpdateAnswers(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateFormResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.UpdateAnswers(c.Request.Context(), handler.Actor(c), id, req.Answers)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

// Finalize locks a draft response after the required fields check.
func (h *Handler) Finalize(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Finalize(c.Request.Context(), handler.Actor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) ListResponses(c *gin.Context) {
	var filter model.FormResponseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	responses, err := h.service.ListResponses(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(responses))
}
