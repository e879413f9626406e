package handler

import (
	"github.com/codetag-io/codetag/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

// WebhookDeps groups dependencies for the Stripe webhook endpoint.
type WebhookDeps struct {
	Logger        *zap.Logger
	Billing       *service.BillingService
	SigningSecret string
}

// WebhookHandler receives Stripe events and feeds them to the billing
// service. It sits outside the authenticated API group since Stripe
// authenticates via request signatures.
type WebhookHandler struct {
	logger        *zap.Logger
	billing       *service.BillingService
	signingSecret string
}

// NewWebhookHandler creates a webhook handler with the provided dependencies.
func NewWebhookHandler(deps WebhookDeps) *WebhookHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		logger:        logger,
		billing:       deps.Billing,
		signingSecret: deps.SigningSecret,
	}
}

// Register wires webhook routes onto the router.
func (h *WebhookHandler) Register(router fiber.Router) {
	router.Post("/webhooks/stripe", h.HandleStripe)
}

// HandleStripe verifies the event signature against the raw body and
// dispatches the event. Signature failures are logged with the source IP
// since they usually mean misconfiguration or someone probing the endpoint.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEvent(payload, sigHeader, h.signingSecret)
	if err != nil {
		h.logger.Warn("rejected stripe webhook with invalid signature",
			zap.Error(err),
			zap.String("ip", c.IP()))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid signature",
		})
	}

	if err := h.billing.HandleEvent(reqCtx(c), event); err != nil {
		h.logger.Error("failed to process stripe event",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to process event",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
