package ingest

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the detection pipeline consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// TLS is nil for plaintext brokers.
	TLS *tls.Config
}

// NewKafkaReader builds a consumer group reader starting from the oldest
// uncommitted offset.
func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	if cfg.TLS != nil {
		rc.Dialer = &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
			TLS:       cfg.TLS,
		}
	}
	return kafka.NewReader(rc)
}

// KafkaConsumer feeds pipeline detections into an Ingestor. The message key,
// when present, names the station.
type KafkaConsumer struct {
	reader MessageReader
	ingest *Ingestor
	logger zerolog.Logger
	poll   time.Duration
}

func NewKafkaConsumer(reader MessageReader, ingest *Ingestor, logger zerolog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: reader,
		ingest: ingest,
		logger: logger.With().Str("component", "kafka").Logger(),
		poll:   5 * time.Second,
	}
}

// Run consumes until ctx is cancelled or the reader is closed. Messages are
// committed after handling, including malformed ones, so a bad payload never
// blocks the partition.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info().Msg("kafka consumer started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, context.Canceled):
				if ctx.Err() != nil {
					return nil
				}
				continue
			case errors.Is(err, io.EOF), errors.Is(err, kafka.ErrGroupClosed):
				return nil
			}
			c.logger.Error().Err(err).Msg("kafka fetch failed")
			continue
		}

		if err := c.ingest.Handle(ctx, msg.Value, string(msg.Key)); err != nil {
			c.logger.Warn().Err(err).Int64("offset", msg.Offset).Int("partition", msg.Partition).Msg("detection not stored")
		}

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("kafka commit failed")
		}
		commitCancel()
	}
}
