package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clinicore/intake-api/internal/config"
	"github.com/clinicore/intake-api/internal/email"
	"github.com/clinicore/intake-api/internal/handler"
	appointmentHandler "github.com/clinicore/intake-api/internal/handler/appointment"
	authHandler "github.com/clinicore/intake-api/internal/handler/auth"
	clinicHandler "github.com/clinicore/intake-api/internal/handler/clinic"
	"github.com/clinicore/intake-api/internal/handler/medicalai"
	patientHandler "github.com/clinicore/intake-api/internal/handler/patient"
	userHandler "github.com/clinicore/intake-api/internal/handler/user"
	"github.com/clinicore/intake-api/internal/middleware"
	"github.com/clinicore/intake-api/internal/repository/postgres"
	"github.com/clinicore/intake-api/internal/router"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	appointmentService "github.com/clinicore/intake-api/internal/service/appointment"
	authService "github.com/clinicore/intake-api/internal/service/auth"
	"github.com/clinicore/intake-api/internal/service/authz"
	clinicService "github.com/clinicore/intake-api/internal/service/clinic"
	patientService "github.com/clinicore/intake-api/internal/service/patient"
	userService "github.com/clinicore/intake-api/internal/service/user"
	"github.com/clinicore/intake-api/pkg/auth"
	"github.com/clinicore/intake-api/pkg/logger"
	"github.com/clinicore/intake-api/pkg/messaging/redis"
	"github.com/clinicore/intake-api/pkg/metrics"
	"github.com/clinicore/intake-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Logging)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics(cfg.Metrics.Namespace)

	userRepo := postgres.NewUserRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)
	guard := authz.NewService()

	aiClient := aidecision.NewClient(cfg.AI, log.With().Str("component", "aidecision").Logger(), m)
	emailSvc := email.NewService(cfg.SMTP)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher, log.With().Str("component", "auth").Logger())
	patientSvc := patientService.NewService(patientRepo)
	clinicSvc := clinicService.NewService(clinicRepo, guard)
	userSvc := userService.NewService(userRepo, guard, hasher)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		patientRepo,
		patientSvc,
		guard,
		aiClient,
		broker,
		emailSvc,
		log.With().Str("component", "appointment").Logger(),
		m,
	)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		authMiddleware,
		handler.NewHandler(),
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		patientHandler.NewHandler(patientSvc, guard),
		clinicHandler.NewHandler(clinicSvc),
		userHandler.NewHandler(userSvc),
		medicalai.NewHandler(aiClient),
		m,
		router.Config{
			PublicRateLimit: rate.Limit(cfg.RateLimit.PublicRequestsPerSecond),
			PublicRateBurst: cfg.RateLimit.PublicBurst,
			CORSConfig:      middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
