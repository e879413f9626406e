package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codetag-io/codetag/config"
	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"go.uber.org/zap"
)

// Checkout metadata key carrying our account id through Stripe and back.
const accountMetadataKey = "account_id"

// BillingService creates checkout sessions and applies subscription webhook
// events to the owning account's tier/status/trial fields.
type BillingService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	cfg      config.StripeConfig
}

// NewBillingService creates a billing service. stripe.Key must already be
// set by the caller.
func NewBillingService(logger *zap.Logger, accounts repository.AccountRepository, cfg config.StripeConfig) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{logger: logger, accounts: accounts, cfg: cfg}
}

// CreateCheckoutSession starts a subscription checkout for the account,
// creating the Stripe customer on first use.
func (b *BillingService) CreateCheckoutSession(ctx context.Context, account *model.Account) (string, error) {
	customerID := account.StripeCustomerID
	if customerID == "" {
		params := &stripe.CustomerParams{
			Email: stripe.String(account.Email),
		}
		params.AddMetadata(accountMetadataKey, account.ID)

		cust, err := customer.New(params)
		if err != nil {
			return "", fmt.Errorf("create stripe customer: %w", err)
		}
		customerID = cust.ID

		if err := b.accounts.SetStripeCustomerID(ctx, account.ID, customerID); err != nil {
			return "", fmt.Errorf("persist stripe customer id: %w", err)
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(b.cfg.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(b.cfg.SuccessURL),
		CancelURL:           stripe.String(b.cfg.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(b.cfg.TrialDays),
			Metadata:        map[string]string{accountMetadataKey: account.ID},
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, nil
}

// HandleEvent applies one verified webhook event. Events for subscriptions
// without our metadata are acknowledged and skipped.
func (b *BillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return b.applySubscriptionChange(ctx, event, false)
	case "customer.subscription.deleted":
		return b.applySubscriptionChange(ctx, event, true)
	case "invoice.payment_succeeded":
		return b.applyInvoice(ctx, event, "active")
	case "invoice.payment_failed":
		return b.applyInvoice(ctx, event, "past_due")
	default:
		b.logger.Debug("ignoring billing event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (b *BillingService) applySubscriptionChange(ctx context.Context, event stripe.Event, cancelled bool) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription event: %w", err)
	}

	accountID := sub.Metadata[accountMetadataKey]
	if accountID == "" {
		b.logger.Warn("subscription event without account metadata",
			zap.String("subscription", sub.ID))
		return nil
	}

	tier := model.TierFree
	status := "cancelled"
	var trialEnd *time.Time

	if !cancelled {
		if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil && sub.Items.Data[0].Price.ID == b.cfg.ProPriceID {
			tier = model.TierPro
		}
		status = string(sub.Status)
		if sub.TrialEnd > 0 {
			t := time.Unix(sub.TrialEnd, 0).UTC()
			trialEnd = &t
		}
	}

	if err := b.accounts.UpdateSubscription(ctx, accountID, tier, status, trialEnd); err != nil {
		return fmt.Errorf("update subscription for account %s: %w", accountID, err)
	}

	b.logger.Info("subscription state synced",
		zap.String("account_id", accountID),
		zap.String("tier", tier),
		zap.String("status", status))
	return nil
}

func (b *BillingService) applyInvoice(ctx context.Context, event stripe.Event, status string) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice event: %w", err)
	}
	if invoice.Customer == nil || invoice.Customer.ID == "" {
		return nil
	}

	account, err := b.accounts.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			b.logger.Warn("invoice event for unknown customer",
				zap.String("customer", invoice.Customer.ID))
			return nil
		}
		return fmt.Errorf("resolve invoice customer: %w", err)
	}

	if err := b.accounts.UpdateSubscriptionStatus(ctx, account.ID, status); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}

	b.logger.Info("invoice event applied",
		zap.String("account_id", account.ID),
		zap.String("invoice", invoice.ID),
		zap.String("status", status))
	return nil
}
