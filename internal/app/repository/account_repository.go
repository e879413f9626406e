package repository

import (
	"context"
	"errors"
	"time"

	"github.com/codetag-io/codetag/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrAccountNotFound signals that the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error)
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
	UpdateSubscription(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error
	UpdateSubscriptionStatus(ctx context.Context, id, status string) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a GORM-backed AccountRepository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Update("stripe_customer_id", customerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateSubscriptionStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Update("subscription_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateSubscription(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_tier":   tier,
			"subscription_status": status,
			"trial_ends_at":       trialEndsAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
