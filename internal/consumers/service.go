package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"koel/internal/config"
	"koel/internal/database"
	"koel/internal/messaging"
	"koel/internal/models"

	stan "github.com/nats-io/stan.go"
)

const queueGroup = "koel-consumers"

// ConsumerService subscribes to the booking lifecycle subjects and
// dispatches to the event handlers.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		handlers: NewHandlers(),
	}, nil
}

// Start attaches the durable queue subscriptions.
func (s *ConsumerService) Start() error {
	subjects := []struct {
		subject string
		handler func(data []byte)
	}{
		{models.EventBookingCreated, s.handlers.HandleBookingCreated},
		{models.EventPaymentCompleted, s.handlers.HandlePaymentCompleted},
		{models.EventPaymentFailed, s.handlers.HandlePaymentFailed},
		{models.EventBookingCancelled, s.handlers.HandleBookingCancelled},
		{models.EventBookingChartPrepared, s.handlers.HandleChartPrepared},
	}

	for _, sub := range subjects {
		subscription, err := s.nats.SubscribeQueue(sub.subject, queueGroup, sub.handler)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, subscription)
	}

	slog.Info("All consumers started", "subjects", len(subjects))
	return nil
}

// Shutdown closes the subscriptions and connections.
func (s *ConsumerService) Shutdown(ctx context.Context) error {
	for _, sub := range s.subs {
		if err := sub.Close(); err != nil {
			slog.Error("Failed to close subscription", "error", err)
		}
	}

	if err := s.nats.Close(); err != nil {
		slog.Error("Failed to close NATS connection", "error", err)
	}

	return s.db.Close()
}
