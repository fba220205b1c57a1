// Package messaging publishes booking lifecycle events to NATS
// Streaming. Publishing is best effort: a broker outage is logged and
// never fails the request that triggered the event.
package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stan "github.com/nats-io/stan.go"
)

type Config struct {
	URL       string
	ClusterID string
	ClientID  string
}

type NATSClient struct {
	conn stan.Conn
}

func NewNATSClient(cfg Config) (*NATSClient, error) {
	conn, err := stan.Connect(cfg.ClusterID, cfg.ClientID,
		stan.NatsURL(cfg.URL),
		stan.ConnectWait(10*time.Second),
		stan.Pings(10, 5),
		stan.SetConnectionLostHandler(func(_ stan.Conn, err error) {
			slog.Error("NATS connection lost", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS streaming: %w", err)
	}

	slog.Info("Connected to NATS streaming",
		"url", cfg.URL, "cluster_id", cfg.ClusterID, "client_id", cfg.ClientID)

	return &NATSClient{conn: conn}, nil
}

// Publish marshals the event and sends it on the subject. Errors are
// returned so callers can log them, but callers should not fail the
// originating request on a publish error.
func (c *NATSClient) Publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// SubscribeQueue attaches a durable queue subscriber so consumers can
// restart without losing their position or double-handling events
// across instances.
func (c *NATSClient) SubscribeQueue(subject, queueGroup string, handler func(data []byte)) (stan.Subscription, error) {
	sub, err := c.conn.QueueSubscribe(subject, queueGroup,
		func(msg *stan.Msg) {
			handler(msg.Data)
			if err := msg.Ack(); err != nil {
				slog.Error("Failed to ack message", "subject", subject, "error", err)
			}
		},
		stan.DurableName(queueGroup),
		stan.SetManualAckMode(),
		stan.AckWait(30*time.Second),
		stan.MaxInflight(64),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	slog.Info("Subscribed to subject", "subject", subject, "queue_group", queueGroup)
	return sub, nil
}

func (c *NATSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
