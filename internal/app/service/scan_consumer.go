package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codetag-io/codetag/internal/app/model"
	apprepository "github.com/codetag-io/codetag/internal/app/repository"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ScanConsumer drains scan events from JetStream into Postgres: one
// ScanEvent row plus an atomic bump of the owning code's scan counter.
type ScanConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	scans  apprepository.ScanEventRepository
	codes  apprepository.QRCodeRepository
}

// NewScanConsumer creates a new scan event consumer.
func NewScanConsumer(js nats.JetStreamContext, logger *zap.Logger, scans apprepository.ScanEventRepository, codes apprepository.QRCodeRepository) *ScanConsumer {
	return &ScanConsumer{js: js, logger: logger, scans: scans, codes: codes}
}

// Start ensures the stream and durable consumer exist, then begins pulling.
func (c *ScanConsumer) Start() error {
	_, err := c.js.StreamInfo(model.ScanStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ScanStreamName,
			Subjects: []string{model.ScanStreamSubject},
			MaxBytes: model.ScanStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.ScanStreamName, model.ScanConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ScanStreamName, &nats.ConsumerConfig{
			Durable:   model.ScanConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ScanStreamSubject, model.ScanConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ScanConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch scan events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ScanEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal scan event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.scans.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store scan event",
					zap.String("id", event.ID),
					zap.String("qr_code_id", event.QRCodeID),
					zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.codes.IncrementScanCount(ctx, event.QRCodeID); err != nil {
				// The event row is already written; losing the counter bump
				// here is recoverable from the events table.
				c.logger.Error("failed to increment scan count",
					zap.String("qr_code_id", event.QRCodeID),
					zap.Error(err))
			}

			c.logger.Debug("scan event stored",
				zap.String("id", event.ID),
				zap.String("qr_code_id", event.QRCodeID),
				zap.String("browser", event.Browser),
				zap.Time("scanned_at", event.ScannedAt),
			)

			msg.Ack()
		}
	}
}
