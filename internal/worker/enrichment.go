// Package worker runs the background consumers that live outside the
// request path.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/intake-api/internal/service/appointment"
	"github.com/clinicore/intake-api/pkg/messaging"
)

// enricher is the slice of the appointment service the worker needs.
type enricher interface {
	Enrich(ctx context.Context, id uuid.UUID) error
}

// EnrichmentWorker consumes enrichment events and drives the AI pipeline.
// Every event is handled independently; a failed enrichment is retried the
// next time the appointment is read, not here.
type EnrichmentWorker struct {
	broker       messaging.Broker
	appointments enricher
	logger       zerolog.Logger
	timeout      time.Duration
}

func NewEnrichmentWorker(broker messaging.Broker, appointments enricher, logger zerolog.Logger) *EnrichmentWorker {
	return &EnrichmentWorker{
		broker:       broker,
		appointments: appointments,
		logger:       logger,
		// Leaves room for the AI client's own 30s budget plus persistence.
		timeout: 45 * time.Second,
	}
}

func (w *EnrichmentWorker) Start(ctx context.Context) error {
	messages, err := w.broker.Subscribe(ctx, appointment.EnrichmentChannel)
	if err != nil {
		return err
	}

	w.logger.Info().Str("channel", appointment.EnrichmentChannel).Msg("enrichment worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("enrichment worker shutting down")
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			w.handle(ctx, payload)
		}
	}
}

func (w *EnrichmentWorker) handle(ctx context.Context, payload []byte) {
	var event appointment.EnrichmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		w.logger.Error().Err(err).Msg("dropping malformed enrichment event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.appointments.Enrich(ctx, event.AppointmentID); err != nil {
		w.logger.Error().Err(err).
			Str("appointment_id", event.AppointmentID.String()).
			Msg("enrichment failed")
	}
}
