package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/clinicore/intake-api/internal/config"
	"github.com/clinicore/intake-api/internal/repository/postgres"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	appointmentService "github.com/clinicore/intake-api/internal/service/appointment"
	"github.com/clinicore/intake-api/internal/service/authz"
	patientService "github.com/clinicore/intake-api/internal/service/patient"
	"github.com/clinicore/intake-api/internal/worker"
	"github.com/clinicore/intake-api/pkg/logger"
	"github.com/clinicore/intake-api/pkg/messaging/redis"
	"github.com/clinicore/intake-api/pkg/metrics"
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

	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	aiClient := aidecision.NewClient(cfg.AI, log.With().Str("component", "aidecision").Logger(), m)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		patientRepo,
		patientService.NewService(patientRepo),
		authz.NewService(),
		aiClient,
		broker,
		nil,
		log.With().Str("component", "appointment").Logger(),
		m,
	)

	enrichmentWorker := worker.NewEnrichmentWorker(
		broker,
		appointmentSvc,
		log.With().Str("component", "enrichment_worker").Logger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := enrichmentWorker.Start(ctx); err != nil {
			log.Error().Err(err).Msg("enrichment worker stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()
	<-done
	log.Info().Msg("worker exited properly")
}
