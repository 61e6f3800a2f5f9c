package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/threebee1/hrms-sub001/internal/auth/handler"
	"github.com/threebee1/hrms-sub001/internal/auth/jwt"
	authmw "github.com/threebee1/hrms-sub001/internal/auth/middleware"
	authrepo "github.com/threebee1/hrms-sub001/internal/auth/repository"
	authservice "github.com/threebee1/hrms-sub001/internal/auth/service"
	"github.com/threebee1/hrms-sub001/internal/timesheet/events"
	"github.com/threebee1/hrms-sub001/internal/timesheet/handler"
	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/internal/timesheet/service"
	"github.com/threebee1/hrms-sub001/pkg/config"
	"github.com/threebee1/hrms-sub001/pkg/database"
	"github.com/threebee1/hrms-sub001/pkg/httputil"
	"github.com/threebee1/hrms-sub001/pkg/logger"
	"github.com/threebee1/hrms-sub001/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("hrms-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("hrms-server", cfg.Server.Environment)
	log.Info().Msg("starting HRMS server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ when audit events are enabled. The publisher is
	// nil-safe, so a disabled broker just drops events.
	var publisher *events.TimesheetEventPublisher
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewTimesheetEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	// Initialize repositories
	employeeRepo := authrepo.NewEmployeeRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	// Initialize services
	jwtManager := jwt.NewManager(&cfg.JWT)
	authSvc := authservice.NewAuthService(employeeRepo, jwtManager, cfg, log)
	timesheetSvc := service.NewTimesheetService(shiftRepo, publisher, log)
	reportSvc := service.NewReportService(shiftRepo, log)
	exportSvc := service.NewExportService(reportSvc, log)

	// Initialize handlers
	authHandler := authhandler.NewAuthHandler(authSvc, log)
	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc, log)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc, timesheetSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "hrms-server",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	requireAuth := authmw.RequireAuth(jwtManager, log)
	csrfProtect := authmw.CSRFProtect(cfg.JWT.Secret)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/auth/me", authHandler.Me)
		})

		// Self-service timesheet
		r.Route("/timesheet", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(csrfProtect)
			r.Post("/clock-in", timesheetHandler.ClockIn)
			r.Post("/clock-out", timesheetHandler.ClockOut)
			r.Get("/me", timesheetHandler.History)
		})

		// HR reports
		r.Route("/reports", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(authmw.RequireRole(authrepo.RoleHR))
			r.Use(csrfProtect)
			r.Get("/timesheet", reportHandler.Report)
			r.Post("/timesheet/entries", reportHandler.ManualEntry)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
