package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/service/auth"
	"github.com/clinicore/clinic-ops-api/internal/service/authz"
)

type AuthMiddleware struct {
	authSvc  *auth.Service
	authzSvc *authz.Service
}

func NewAuthMiddleware(authSvc *auth.Service, authzSvc *authz.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authSvc:  authSvc,
		authzSvc: authzSvc,
	}
}

// Authenticate verifies the bearer token and stores the actor claims in
// the request context. The account behind the token must still be active.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		claims, err := m.authSvc.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			return
		}

		if err := m.authzSvc.CheckActor(c.Request.Context(), claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("account is no longer authorized"))
			return
		}

		c.Set(handler.ContextActor, claims)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not on the allow-list.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := handler.Actor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			return
		}
		if !actor.Role.In(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("insufficient permissions"))
			return
		}
		c.Next()
	}
}
