package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/codetag-io/codetag/config"
	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	stripe "github.com/stripe/stripe-go/v78"
)

type mockAccountRepository struct {
	getByIDFn       func(ctx context.Context, id string) (*model.Account, error)
	getByCustomerFn func(ctx context.Context, customerID string) (*model.Account, error)
	setCustomerFn   func(ctx context.Context, id, customerID string) error
	updateSubFn     func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error
	updateSubStatFn func(ctx context.Context, id, status string) error
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAccountRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error) {
	if m.getByCustomerFn != nil {
		return m.getByCustomerFn(ctx, customerID)
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAccountRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	if m.setCustomerFn != nil {
		return m.setCustomerFn(ctx, id, customerID)
	}
	return nil
}

func (m *mockAccountRepository) UpdateSubscription(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
	if m.updateSubFn != nil {
		return m.updateSubFn(ctx, id, tier, status, trialEndsAt)
	}
	return nil
}

func (m *mockAccountRepository) UpdateSubscriptionStatus(ctx context.Context, id, status string) error {
	if m.updateSubStatFn != nil {
		return m.updateSubStatFn(ctx, id, status)
	}
	return nil
}

func billingTestConfig() config.StripeConfig {
	return config.StripeConfig{
		ProPriceID: "price_pro_monthly",
		TrialDays:  14,
	}
}

func subscriptionEvent(t *testing.T, eventType string, payload map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestBillingService_SubscriptionUpdated_UpgradesToPro(t *testing.T) {
	trialEnd := time.Now().Add(7 * 24 * time.Hour).Unix()
	var gotTier, gotStatus string
	var gotTrial *time.Time

	accounts := &mockAccountRepository{
		updateSubFn: func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
			if id != "acct-1" {
				t.Errorf("expected account acct-1, got %q", id)
			}
			gotTier, gotStatus, gotTrial = tier, status, trialEndsAt
			return nil
		},
	}

	svc := NewBillingService(nil, accounts, billingTestConfig())
	event := subscriptionEvent(t, "customer.subscription.updated", map[string]any{
		"id":        "sub_1",
		"status":    "trialing",
		"trial_end": trialEnd,
		"metadata":  map[string]string{"account_id": "acct-1"},
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "price_pro_monthly"}},
			},
		},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if gotTier != model.TierPro {
		t.Errorf("expected tier pro, got %q", gotTier)
	}
	if gotStatus != "trialing" {
		t.Errorf("expected status trialing, got %q", gotStatus)
	}
	if gotTrial == nil || gotTrial.Unix() != trialEnd {
		t.Errorf("expected trial end %d, got %v", trialEnd, gotTrial)
	}
}

func TestBillingService_SubscriptionDeleted_DowngradesToFree(t *testing.T) {
	var gotTier, gotStatus string
	accounts := &mockAccountRepository{
		updateSubFn: func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
			gotTier, gotStatus = tier, status
			if trialEndsAt != nil {
				t.Error("expected trial end cleared on cancellation")
			}
			return nil
		},
	}

	svc := NewBillingService(nil, accounts, billingTestConfig())
	event := subscriptionEvent(t, "customer.subscription.deleted", map[string]any{
		"id":       "sub_1",
		"status":   "canceled",
		"metadata": map[string]string{"account_id": "acct-1"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if gotTier != model.TierFree {
		t.Errorf("expected tier free after deletion, got %q", gotTier)
	}
	if gotStatus != "cancelled" {
		t.Errorf("expected status cancelled, got %q", gotStatus)
	}
}

func TestBillingService_SubscriptionWithoutMetadata_Skipped(t *testing.T) {
	called := false
	accounts := &mockAccountRepository{
		updateSubFn: func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
			called = true
			return nil
		},
	}

	svc := NewBillingService(nil, accounts, billingTestConfig())
	event := subscriptionEvent(t, "customer.subscription.created", map[string]any{
		"id":     "sub_foreign",
		"status": "active",
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected foreign subscription to be acknowledged, got %v", err)
	}
	if called {
		t.Error("expected no account update for a subscription without metadata")
	}
}

func TestBillingService_InvoicePaymentFailed_MarksPastDue(t *testing.T) {
	var gotStatus string
	accounts := &mockAccountRepository{
		getByCustomerFn: func(ctx context.Context, customerID string) (*model.Account, error) {
			if customerID != "cus_1" {
				t.Errorf("expected lookup for cus_1, got %q", customerID)
			}
			return &model.Account{ID: "acct-1", StripeCustomerID: customerID}, nil
		},
		updateSubStatFn: func(ctx context.Context, id, status string) error {
			gotStatus = status
			return nil
		},
	}

	svc := NewBillingService(nil, accounts, billingTestConfig())
	event := subscriptionEvent(t, "invoice.payment_failed", map[string]any{
		"id":       "in_1",
		"customer": map[string]any{"id": "cus_1"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if gotStatus != "past_due" {
		t.Errorf("expected status past_due, got %q", gotStatus)
	}
}

func TestBillingService_InvoiceForUnknownCustomer_Skipped(t *testing.T) {
	svc := NewBillingService(nil, &mockAccountRepository{}, billingTestConfig())
	event := subscriptionEvent(t, "invoice.payment_succeeded", map[string]any{
		"id":       "in_2",
		"customer": map[string]any{"id": "cus_unknown"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unknown customer invoice to be acknowledged, got %v", err)
	}
}

func TestBillingService_UnhandledEventIgnored(t *testing.T) {
	svc := NewBillingService(nil, &mockAccountRepository{}, billingTestConfig())
	event := subscriptionEvent(t, "charge.refunded", map[string]any{"id": "ch_1"})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unhandled event to be ignored, got %v", err)
	}
}
