package model

import "time"

// QR code kinds. A static code embeds its final content; a dynamic code
// embeds a short-code redirect URL so the destination can change after
// printing.
const (
	KindStatic  = "static"
	KindDynamic = "dynamic"
)

// QRCode is the persisted QR code entity.
type QRCode struct {
	ID        string `db:"id" gorm:"primaryKey;size:36"`
	AccountID string `db:"account_id" gorm:"size:36;not null;index"`
	Title     string `db:"title" gorm:"size:200;not null"`
	Kind      string `db:"kind" gorm:"size:16;not null;default:static"`
	QRType    string `db:"qr_type" gorm:"size:32;not null"`
	ShortCode string `db:"short_code" gorm:"size:32;uniqueIndex"`

	// Content is the encoded content string; for dynamic codes it is the
	// redirect destination the short code resolves to.
	Content string `db:"content" gorm:"type:text;not null"`

	// Rendering customization.
	Foreground string `db:"foreground" gorm:"size:7;not null;default:#000000"`
	Background string `db:"background" gorm:"size:7;not null;default:#ffffff"`
	ECLevel    string `db:"ec_level" gorm:"size:1;not null;default:M"`
	Size       int    `db:"size" gorm:"not null;default:400"`
	Margin     int    `db:"margin" gorm:"not null;default:4"`

	IsActive  bool      `db:"is_active" gorm:"not null;default:true"`
	ScanCount int64     `db:"scan_count" gorm:"not null;default:0"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}
