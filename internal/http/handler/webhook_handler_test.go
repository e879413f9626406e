package handler

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codetag-io/codetag/config"
	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/codetag-io/codetag/internal/app/service"
	"github.com/gofiber/fiber/v2"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testSigningSecret = "whsec_test_secret"

type stubAccountRepository struct {
	updateSubFn func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error
}

func (s *stubAccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return nil, repository.ErrAccountNotFound
}
func (s *stubAccountRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error) {
	return nil, repository.ErrAccountNotFound
}
func (s *stubAccountRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	return nil
}
func (s *stubAccountRepository) UpdateSubscription(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
	if s.updateSubFn != nil {
		return s.updateSubFn(ctx, id, tier, status, trialEndsAt)
	}
	return nil
}
func (s *stubAccountRepository) UpdateSubscriptionStatus(ctx context.Context, id, status string) error {
	return nil
}

func webhookApp(accounts repository.AccountRepository) *fiber.App {
	billing := service.NewBillingService(nil, accounts, config.StripeConfig{
		ProPriceID: "price_pro_monthly",
	})
	app := fiber.New()
	NewWebhookHandler(WebhookDeps{
		Billing:       billing,
		SigningSecret: testSigningSecret,
	}).Register(app)
	return app
}

func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testSigningSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestHandleStripe_ValidSignature(t *testing.T) {
	updated := false
	accounts := &stubAccountRepository{
		updateSubFn: func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
			if id != "acct-1" {
				t.Errorf("expected account acct-1, got %q", id)
			}
			if tier != model.TierPro {
				t.Errorf("expected tier pro, got %q", tier)
			}
			updated = true
			return nil
		},
	}
	app := webhookApp(accounts)

	payload := []byte(`{
		"id": "evt_1",
		"api_version": "` + stripe.APIVersion + `",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_1",
				"status": "active",
				"metadata": {"account_id": "acct-1"},
				"items": {"data": [{"price": {"id": "price_pro_monthly"}}]}
			}
		}
	}`)

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signPayload(payload))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !updated {
		t.Error("expected the subscription change to reach the account repository")
	}
}

func TestHandleStripe_InvalidSignatureRejected(t *testing.T) {
	updated := false
	accounts := &stubAccountRepository{
		updateSubFn: func(ctx context.Context, id, tier, status string, trialEndsAt *time.Time) error {
			updated = true
			return nil
		},
	}
	app := webhookApp(accounts)

	payload := []byte(`{"id": "evt_1", "type": "customer.subscription.updated", "data": {"object": {}}}`)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=12345,v1=deadbeef")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", resp.StatusCode)
	}
	if updated {
		t.Error("expected no processing for an unverified payload")
	}
}

func TestHandleStripe_MissingSignatureRejected(t *testing.T) {
	app := webhookApp(&stubAccountRepository{})

	payload := []byte(`{"id": "evt_1", "type": "invoice.payment_succeeded"}`)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without signature, got %d", resp.StatusCode)
	}
}
