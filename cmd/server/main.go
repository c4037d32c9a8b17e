package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"calport/config"
	"calport/internal/adapters/auth"
	"calport/internal/adapters/email"
	delivery "calport/internal/delivery/http"
	"calport/internal/delivery/http/controllers"
	"calport/internal/delivery/http/middleware"
	"calport/internal/repository/postgres"
	"calport/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title Calport API
// @version 1.0
// @description Calendar event recurrence and visibility resolution API.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	configRepo := postgres.NewRecurrenceConfigRepository(db)
	interactionRepo := postgres.NewEventInteractionRepository(db)
	calendarRepo := postgres.NewCalendarMembershipRepository(db)
	blockRepo := postgres.NewUserBlockRepository(db)
	userRepo := postgres.NewUserRepository(db)
	cancellationRepo := postgres.NewEventCancellationRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretKey,
			InsecureSkipVerify: cfg.SESInsecureSkip,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "error", err)
		os.Exit(1)
	}

	_, verifier := auth.NewJWTTokens(cfg.JWTSecret)

	eventService := services.NewEventService(eventRepo, configRepo, userRepo, mailer, logger, serviceTimeout)
	interactionService := services.NewInteractionService(interactionRepo, eventRepo, blockRepo, serviceTimeout)
	feedService := services.NewFeedService(eventRepo, interactionRepo, calendarRepo, blockRepo, userRepo, cancellationRepo, serviceTimeout)

	eventController := controllers.NewEventController(logger, eventService)
	interactionController := controllers.NewInteractionController(logger, interactionService)
	feedController := controllers.NewFeedController(logger, feedService)

	requireAuth := middleware.RequireAuth(verifier, logger)
	mux := delivery.NewRouter(eventController, interactionController, feedController, requireAuth)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
