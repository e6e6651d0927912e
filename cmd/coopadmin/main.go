package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/taxicoop/coopadmin/migrations"
	"github.com/taxicoop/coopadmin/pkg/config"
	"github.com/taxicoop/coopadmin/pkg/fleet"
	fleetapi "github.com/taxicoop/coopadmin/pkg/fleet/api"
	"github.com/taxicoop/coopadmin/pkg/iam"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/notice"
	"github.com/taxicoop/coopadmin/pkg/passwordreset"
	passwordresetapi "github.com/taxicoop/coopadmin/pkg/passwordreset/api"
	"github.com/taxicoop/coopadmin/pkg/signup"
	signupapi "github.com/taxicoop/coopadmin/pkg/signup/api"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Unable to load .env file", "err", err)
	}

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	databaseURL := cfg.DatabaseConfig.ToDatabaseURL()
	if err := migrations.Run(databaseURL); err != nil {
		slog.Error("Failed to migrate database", "err", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		slog.Error("Failed to create database pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	notificationManager, err := notice.NewNotificationManager(cfg.EmailConfig.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed to create notification manager", "err", err)
		os.Exit(1)
	}
	if cfg.SMSConfig.IsConfigured() {
		slog.Info("SMS gateway configured but SMS delivery is not enabled")
	}

	verifier := verification.NewVerificationService(
		verification.NewPostgresCodeRepository(pool),
		verification.NewPostgresSendLedgerRepository(pool),
		verification.NewPostgresAttemptLogRepository(pool),
	)
	iamService := iam.NewIamService(iam.NewPostgresAccountRepository(pool))
	hasher := &login.BcryptHasher{}

	signupService := signup.NewSignupService(iamService, hasher, verifier, notificationManager)
	resetService := passwordreset.NewResetService(iamService, hasher, verifier, notificationManager,
		[]byte(cfg.AuthConfig.ResetSessionSecret))
	fleetService := fleet.NewFleetService(
		fleet.NewPostgresDriverRepository(pool),
		fleet.NewPostgresVehicleRepository(pool),
	)

	signupHandler := signupapi.NewHandler(signupService)
	resetHandler := passwordresetapi.NewHandler(resetService)
	fleetHandler := fleetapi.NewHandler(fleetService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitConfig.Enabled {
			r.Use(httprate.LimitByIP(
				cfg.RateLimitConfig.RequestLimit,
				time.Duration(cfg.RateLimitConfig.WindowSeconds)*time.Second,
			))
		}
		r.Mount("/signup", signupHandler.Routes())
		r.Mount("/password-reset", resetHandler.Routes())
	})
	r.Mount("/drivers", fleetHandler.DriverRoutes())
	r.Mount("/vehicles", fleetHandler.VehicleRoutes())

	server := &http.Server{
		Addr:              cfg.ServerConfig.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down cleanly", "err", err)
	}
}
