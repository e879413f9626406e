package repository

import (
	"context"
	"errors"

	"github.com/codetag-io/codetag/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrQRCodeNotFound signals that the requested QR code does not exist.
	ErrQRCodeNotFound = errors.New("qr code not found")
)

// QRCodeRepository defines the data access contract for QR code entities.
type QRCodeRepository interface {
	Create(ctx context.Context, code *model.QRCode) error
	GetByID(ctx context.Context, id string) (*model.QRCode, error)
	GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.QRCode, error)
	CountDynamicByAccount(ctx context.Context, accountID string) (int64, error)
	Update(ctx context.Context, code *model.QRCode) error
	Delete(ctx context.Context, id string) error
	IncrementScanCount(ctx context.Context, id string) error
	AllShortCodes(ctx context.Context) ([]string, error)
}

type qrCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository returns a GORM-backed QRCodeRepository.
func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) Create(ctx context.Context, code *model.QRCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *qrCodeRepository) GetByID(ctx context.Context, id string) (*model.QRCode, error) {
	var code model.QRCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *qrCodeRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error) {
	var code model.QRCode
	if err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *qrCodeRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.QRCode, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.QRCode
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *qrCodeRepository) CountDynamicByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("account_id = ? AND kind = ?", accountID, model.KindDynamic).
		Count(&count).Error
	return count, err
}

func (r *qrCodeRepository) Update(ctx context.Context, code *model.QRCode) error {
	result := r.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", code.ID).
		Updates(map[string]interface{}{
			"title":      code.Title,
			"content":    code.Content,
			"foreground": code.Foreground,
			"background": code.Background,
			"ec_level":   code.ECLevel,
			"size":       code.Size,
			"margin":     code.Margin,
			"is_active":  code.IsActive,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQRCodeNotFound
	}

	return r.db.WithContext(ctx).Where("id = ?", code.ID).First(code).Error
}

func (r *qrCodeRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.QRCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

// IncrementScanCount bumps the counter with an atomic SQL add so concurrent
// scans never lose updates.
func (r *qrCodeRepository) IncrementScanCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", id).
		UpdateColumn("scan_count", gorm.Expr("scan_count + ?", 1)).Error
}

// AllShortCodes loads every assigned short code, used to seed the redirect
// bloom filter at startup.
func (r *qrCodeRepository) AllShortCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("short_code <> ''").
		Pluck("short_code", &codes).Error
	return codes, err
}
