package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-ops-api/internal/handler"
	"github.com/clinicore/clinic-ops-api/internal/middleware"
	"github.com/clinicore/clinic-ops-api/internal/model"
)

// Handler is anything that can mount its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Development    bool
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	health *handler.HealthHandler

	authH         Handler
	userH         Handler
	patientH      Handler
	appointmentH  Handler
	surgeryH      Handler
	clinicalFormH Handler
	reportH       Handler
	auditH        Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	health *handler.HealthHandler,
	authH, userH, patientH, appointmentH, surgeryH, clinicalFormH, reportH, auditH Handler,
	cfg Config,
) *Router {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(),
		middleware.Timeout(cfg.Timeout),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit(),
	)

	return &Router{
		engine:        engine,
		auth:          auth,
		health:        health,
		authH:         authH,
		userH:         userH,
		patientH:      patientH,
		appointmentH:  appointmentH,
		surgeryH:      surgeryH,
		clinicalFormH: clinicalFormH,
		reportH:       reportH,
		auditH:        auditH,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.health.LivenessCheck)
		health.GET("/ready", r.health.ReadinessCheck)
		health.GET("/metrics", r.health.MetricsHandler)
	}

	// Public routes
	r.authH.RegisterRoutes(api)

	// Everything below requires a valid token for an active account.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	staff := protected.Group("")
	staff.Use(r.auth.RequireRole(
		model.RoleAdmin, model.RoleDoctor, model.RoleSurgeon,
		model.RoleNurse, model.RoleReceptionist,
	))
	r.patientH.RegisterRoutes(staff)
	r.appointmentH.RegisterRoutes(staff)
	r.reportH.RegisterRoutes(staff)

	clinical := protected.Group("")
	clinical.Use(r.auth.RequireRole(
		model.RoleAdmin, model.RoleDoctor, model.RoleSurgeon, model.RoleNurse,
	))
	r.surgeryH.RegisterRoutes(clinical)
	r.clinicalFormH.RegisterRoutes(clinical)

	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.userH.RegisterRoutes(admin)
	r.auditH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
