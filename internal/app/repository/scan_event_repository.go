package repository

import (
	"context"

	"github.com/codetag-io/codetag/internal/app/model"
	"gorm.io/gorm"
)

// ScanEventRepository defines the data access contract for scan events.
type ScanEventRepository interface {
	Create(ctx context.Context, event *model.ScanEvent) error
	ListByQRCode(ctx context.Context, qrCodeID string, limit int) ([]model.ScanEvent, error)
	CountByQRCode(ctx context.Context, qrCodeID string) (int64, error)
}

type scanEventRepository struct {
	db *gorm.DB
}

// NewScanEventRepository returns a GORM-backed ScanEventRepository.
func NewScanEventRepository(db *gorm.DB) ScanEventRepository {
	return &scanEventRepository{db: db}
}

func (r *scanEventRepository) Create(ctx context.Context, event *model.ScanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *scanEventRepository) ListByQRCode(ctx context.Context, qrCodeID string, limit int) ([]model.ScanEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []model.ScanEvent
	err := r.db.WithContext(ctx).
		Where("qr_code_id = ?", qrCodeID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&result).Error
	return result, err
}

func (r *scanEventRepository) CountByQRCode(ctx context.Context, qrCodeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScanEvent{}).
		Where("qr_code_id = ?", qrCodeID).
		Count(&count).Error
	return count, err
}
