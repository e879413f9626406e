package model

import "time"

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Account is the owning profile for QR codes and billing state. Identity
// itself lives with the external auth provider; this row carries the
// subscription fields the billing webhook keeps in sync.
type Account struct {
	ID                 string     `db:"id" gorm:"primaryKey;size:36"`
	Email              string     `db:"email" gorm:"size:255;not null;uniqueIndex"`
	FullName           string     `db:"full_name" gorm:"size:200"`
	SubscriptionTier   string     `db:"subscription_tier" gorm:"size:16;not null;default:free"`
	SubscriptionStatus string     `db:"subscription_status" gorm:"size:32"`
	StripeCustomerID   string     `db:"stripe_customer_id" gorm:"size:64;index"`
	TrialEndsAt        *time.Time `db:"trial_ends_at"`
	CreatedAt          time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}

// IsPro reports whether the account is entitled to pro features.
func (a *Account) IsPro() bool {
	return a.SubscriptionTier == TierPro
}
