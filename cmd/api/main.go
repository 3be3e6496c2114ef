package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/config"
	"github.com/clinicore/clinic-ops-api/internal/email"
	"github.com/clinicore/clinic-ops-api/internal/handler"
	appointmentHandler "github.com/clinicore/clinic-ops-api/internal/handler/appointment"
	auditHandler "github.com/clinicore/clinic-ops-api/internal/handler/audit"
	authHandler "github.com/clinicore/clinic-ops-api/internal/handler/auth"
	clinicalFormHandler "github.com/clinicore/clinic-ops-api/internal/handler/clinicalform"
	patientHandler "github.com/clinicore/clinic-ops-api/internal/handler/patient"
	reportHandler "github.com/clinicore/clinic-ops-api/internal/handler/report"
	surgeryHandler "github.com/clinicore/clinic-ops-api/internal/handler/surgery"
	userHandler "github.com/clinicore/clinic-ops-api/internal/handler/user"
	"github.com/clinicore/clinic-ops-api/internal/middleware"
	"github.com/clinicore/clinic-ops-api/internal/repository/postgres"
	"github.com/clinicore/clinic-ops-api/internal/router"
	appointmentService "github.com/clinicore/clinic-ops-api/internal/service/appointment"
	auditService "github.com/clinicore/clinic-ops-api/internal/service/audit"
	authService "github.com/clinicore/clinic-ops-api/internal/service/auth"
	authzService "github.com/clinicore/clinic-ops-api/internal/service/authz"
	clinicalFormService "github.com/clinicore/clinic-ops-api/internal/service/clinicalform"
	patientService "github.com/clinicore/clinic-ops-api/internal/service/patient"
	reportService "github.com/clinicore/clinic-ops-api/internal/service/report"
	surgeryService "github.com/clinicore/clinic-ops-api/internal/service/surgery"
	userService "github.com/clinicore/clinic-ops-api/internal/service/user"
	"github.com/clinicore/clinic-ops-api/pkg/auth"
	"github.com/clinicore/clinic-ops-api/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level := zerolog.InfoLevel
	if cfg.Server.Development {
		level = zerolog.DebugLevel
	}
	logger.Setup(&logger.Config{Level: level, Pretty: cfg.Server.Development})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	tokenRepo := postgres.NewTokenRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	caseRepo := postgres.NewSurgicalCaseRepository(base)
	planRepo := postgres.NewCasePlanRepository(base)
	templateRepo := postgres.NewFormTemplateRepository(base)
	responseRepo := postgres.NewFormResponseRepository(base)
	auditRepo := postgres.NewAuditRepository(base)
	reportRepo := postgres.NewReportRepository(base)

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry(),
		RefreshExpiry: cfg.JWT.RefreshExpiry(),
	})

	var emailSvc email.Service
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(cfg.SMTP, log.Logger)
	} else {
		emailSvc = &email.NoopService{Logger: log.Logger}
	}

	auditSvc := auditService.NewService(auditRepo)
	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, emailSvc, auditSvc)
	authzSvc := authzService.NewService(userRepo)
	userSvc := userService.NewService(userRepo, authzSvc, auditSvc)
	patientSvc := patientService.NewService(patientRepo, templateRepo, responseRepo, auditSvc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, emailSvc, auditSvc)
	surgerySvc := surgeryService.NewService(caseRepo, planRepo, auditSvc)
	clinicalFormSvc := clinicalFormService.NewService(templateRepo, responseRepo, auditSvc)
	reportSvc := reportService.NewService(reportRepo)

	// HTTP layer
	authMW := middleware.NewAuthMiddleware(authSvc, authzSvc)
	r := router.NewRouter(
		authMW,
		handler.NewHealthHandler(db),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		surgeryHandler.NewHandler(surgerySvc),
		clinicalFormHandler.NewHandler(clinicalFormSvc),
		reportHandler.NewHandler(reportSvc),
		auditHandler.NewHandler(auditSvc),
		router.Config{
			Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			Development:    cfg.Server.Development,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
