package model

import "time"

// ScanEvent is one recorded resolution of a dynamic code's redirect.
// Insert-only; never mutated or deleted.
type ScanEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	QRCodeID   string    `json:"qr_code_id" gorm:"size:36;not null;index"`
	IP         string    `json:"ip" gorm:"size:45"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`
	DeviceType string    `json:"device_type" gorm:"size:16"`
	Browser    string    `json:"browser" gorm:"size:32"`
	OS         string    `json:"os" gorm:"size:32"`
	ScannedAt  time.Time `json:"scanned_at" gorm:"index"`
}

const (
	ScanStreamName     = "SCANS"
	ScanStreamSubject  = "scans.events"
	ScanConsumerName   = "scan-logger"
	ScanStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
