package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-console/internal/config"
	adminHandler "github.com/jwalitptl/clinic-console/internal/handler/admin"
	authHandler "github.com/jwalitptl/clinic-console/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/clinic-console/internal/handler/doctor"
	healthHandler "github.com/jwalitptl/clinic-console/internal/handler/health"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/internal/repository/memory"
	redisRepo "github.com/jwalitptl/clinic-console/internal/repository/redis"
	"github.com/jwalitptl/clinic-console/internal/repository/rest"
	"github.com/jwalitptl/clinic-console/internal/router"
	adminService "github.com/jwalitptl/clinic-console/internal/service/admin"
	authService "github.com/jwalitptl/clinic-console/internal/service/auth"
	calendarService "github.com/jwalitptl/clinic-console/internal/service/calendar"
	doctorService "github.com/jwalitptl/clinic-console/internal/service/doctor"
	historyService "github.com/jwalitptl/clinic-console/internal/service/history"
	shellService "github.com/jwalitptl/clinic-console/internal/service/shell"
	pkgauth "github.com/jwalitptl/clinic-console/pkg/auth"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid report timezone")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, "clinic_console")

	if err := validator.RegisterBinding(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Remote data service
	client := rest.NewClient(rest.Config{
		BaseURL:         cfg.Datastore.URL,
		Timeout:         cfg.Datastore.Timeout,
		BreakerFailures: cfg.Datastore.BreakerFailures,
		BreakerTimeout:  cfg.Datastore.BreakerTimeout,
	}, m)
	adminRepo := rest.NewAdminRepository(client)
	doctorRepo := rest.NewDoctorRepository(client)
	appointmentRepo := rest.NewAppointmentRepository(client)
	prescriptionRepo := rest.NewPrescriptionRepository(client)
	reviewRepo := rest.NewReviewRepository(client)
	patientRepo := rest.NewPatientRepository(client)

	checks := map[string]healthHandler.Pinger{
		"datastore": client,
	}

	// Revocation store
	var tokenRepo repository.TokenRepository
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := redisRepo.NewClient(ctx, redisRepo.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()

		tokenRepo = redisRepo.NewTokenRepository(redisClient)
		checks["redis"] = redisRepo.NewHealth(redisClient)
	} else {
		log.Warn().Msg("redis not configured, session revocations are kept in memory")
		tokenRepo = memory.NewTokenRepository(time.Minute)
	}

	// Initialize services
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	}, nil)
	authSvc := authService.NewService(adminRepo, doctorRepo, tokenRepo, jwtSvc, m)

	adminSvc := adminService.NewService(doctorRepo, appointmentRepo, cfg.Session.TTL)
	doctorSvc := doctorService.NewService(doctorRepo, appointmentRepo, prescriptionRepo, reviewRepo, doctorService.Config{
		SessionTTL: cfg.Session.TTL,
		Location:   loc,
	})
	authSvc.RegisterHook(model.RoleAdmin, adminSvc)
	authSvc.RegisterHook(model.RoleDoctor, doctorSvc)

	calendarSvc := calendarService.NewService(doctorSvc, m)
	historySvc := historyService.NewService(patientRepo, appointmentRepo, loc)
	shellSvc := shellService.NewService(authSvc)

	// Initialize handlers
	loginLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.LoginRPS),
		Burst: cfg.RateLimit.LoginBurst,
		Idle:  cfg.RateLimit.Idle,
	})
	handlers := router.Handlers{
		Auth: authHandler.NewHandler(authSvc, shellSvc, authHandler.CookieConfig{
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTL,
		}, loginLimiter.PerClientIP()),
		Admin:  adminHandler.NewHandler(adminSvc),
		Doctor: doctorHandler.NewHandler(doctorSvc, calendarSvc, historySvc),
		Health: healthHandler.NewHandler(registry, checks),
	}

	// Setup router
	security := middleware.DefaultSecurityConfig()
	security.HSTS = cfg.Session.CookieSecure
	r, err := router.NewRouter(middleware.NewAuthMiddleware(authSvc), handlers, m, appLogger, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    cfg.Server.MaxBodyBytes,
		CORSConfig:     middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...),
		Security:       security,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Str("datastore", cfg.Datastore.URL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited properly")
}
