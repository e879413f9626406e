package service

import (
	"encoding/json"
	"time"

	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// ScanPublisher publishes scan events to NATS JetStream. The redirect path
// fires it in a goroutine: analytics is best-effort and never delays the
// redirect response.
type ScanPublisher struct {
	js nats.JetStreamContext
}

// NewScanPublisher creates a new scan event publisher.
func NewScanPublisher(js nats.JetStreamContext) *ScanPublisher {
	return &ScanPublisher{js: js}
}

// Publish classifies the client and enqueues one scan event.
func (p *ScanPublisher) Publish(qrCodeID, ip, userAgent string) error {
	client := ClassifyUserAgent(userAgent)
	event := model.ScanEvent{
		ID:         uuid.New().String(),
		QRCodeID:   qrCodeID,
		IP:         ip,
		UserAgent:  userAgent,
		DeviceType: client.DeviceType,
		Browser:    client.Browser,
		OS:         client.OS,
		ScannedAt:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ScanStreamSubject, data)
	return err
}
