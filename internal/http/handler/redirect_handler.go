package handler

import (
	"context"
	"errors"
	"time"

	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/codetag-io/codetag/internal/app/service"
	"github.com/codetag-io/codetag/internal/http/view"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const notFoundPath = "/404"

// RedirectDeps groups dependencies required by the public redirect handlers.
type RedirectDeps struct {
	Logger        *zap.Logger
	Codes         repository.QRCodeRepository
	Filter        *service.ShortCodeFilter
	ScanPublisher *service.ScanPublisher
}

// RedirectHandler resolves short codes on the public internet: look up,
// track, redirect.
type RedirectHandler struct {
	logger        *zap.Logger
	codes         repository.QRCodeRepository
	filter        *service.ShortCodeFilter
	scanPublisher *service.ScanPublisher
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:        logger,
		codes:         deps.Codes,
		filter:        deps.Filter,
		scanPublisher: deps.ScanPublisher,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get(notFoundPath, h.NotFoundPage)
	router.Get("/r/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "codetag",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFoundPage serves the generic landing page for unknown or retired codes.
// It deliberately gives no hint whether a code ever existed.
func (h *RedirectHandler) NotFoundPage(c *fiber.Ctx) error {
	html, err := view.RenderNotFoundPage()
	if err != nil {
		h.logger.Error("failed to render not-found page", zap.Error(err))
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.Status(fiber.StatusNotFound).
		Type("html", "utf-8").
		SendString(html)
}

// Resolve handles GET /r/:code: resolve the short code, record the scan and
// redirect. Scan recording is fire-and-forget; the redirect never waits on
// analytics.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if !service.ValidShortCode(code) {
		return c.Redirect(notFoundPath, fiber.StatusFound)
	}

	// The bloom filter answers "definitely never issued" without a DB trip.
	if h.filter != nil && !h.filter.MayExist(code) {
		return c.Redirect(notFoundPath, fiber.StatusFound)
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	qr, err := h.codes.GetByShortCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrQRCodeNotFound) {
			h.logger.Error("failed to load qr code", zap.Error(err), zap.String("code", code))
		}
		// Unknown and upstream failure look identical from outside.
		return c.Redirect(notFoundPath, fiber.StatusFound)
	}

	if !qr.IsActive {
		return c.Redirect(notFoundPath, fiber.StatusFound)
	}

	if h.scanPublisher != nil {
		go h.publishScan(qr.ID, code, c.IP(), c.Get("User-Agent"))
	}

	h.logger.Debug("redirecting qr scan",
		zap.String("code", code),
		zap.String("target", qr.Content))
	return c.Redirect(qr.Content, fiber.StatusFound)
}

func (h *RedirectHandler) publishScan(qrCodeID, code, ip, userAgent string) {
	if err := h.scanPublisher.Publish(qrCodeID, ip, userAgent); err != nil {
		h.logger.Error("failed to publish scan event",
			zap.Error(err),
			zap.String("code", code))
	}
}
