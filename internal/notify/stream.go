package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/swellwatch/swellwatch/internal/alert"
)

// StreamConfig holds the Kafka alert-stream configuration.
type StreamConfig struct {
	// Brokers is the Kafka bootstrap address list.
	Brokers []string

	// Topic receives alert events. Keyed by station id so per-station
	// ordering is preserved across partitions.
	Topic string

	// WriteTimeout caps each publish.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns the default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Topic:        "swellwatch.alerts",
		WriteTimeout: 10 * time.Second,
	}
}

// Stream publishes alert events to Kafka for downstream consumers
// (archival, paging, dashboards). Unlike the webhook, the stream carries
// every evaluated event, alerted or not, so consumers see all-clear
// transitions too.
type Stream struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewStream creates a Kafka alert stream.
func NewStream(cfg StreamConfig, logger zerolog.Logger) *Stream {
	return &Stream{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger.With().Str("component", "alert_stream").Logger(),
	}
}

// Publish writes one event to the stream.
func (s *Stream) Publish(ctx context.Context, event alert.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.StationID),
		Value: value,
		Time:  event.GeneratedAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing alert for %s: %w", event.StationID, err)
	}

	s.logger.Debug().
		Str("station_id", event.StationID).
		Bool("alerted", event.Alerted).
		Msg("alert event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (s *Stream) Close() error {
	return s.writer.Close()
}
