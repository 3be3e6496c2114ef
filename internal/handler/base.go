package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
)

// ContextActor is the gin context key under which the auth middleware
// stores the verified token claims.
const ContextActor = "actor"

// Actor returns the authenticated caller's claims. Routes behind the auth
// middleware always have them; a missing actor is a wiring bug.
func Actor(c *gin.Context) *model.TokenClaims {
	v, exists := c.Get(ContextActor)
	if !exists {
		return nil
	}
	return v.(*model.TokenClaims)
}

// ParseID parses a UUID path parameter, responding 400 when malformed.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// RespondError maps a service error onto the response envelope. Unknown
// errors become a generic 500; the detail goes to the log, not the client.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse("resource not found"))
		return
	}

	log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Str("request_id", c.GetString("request_id")).
		Msg("request failed")

	msg := "internal server error"
	if gin.Mode() != gin.ReleaseMode {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(msg))
}
