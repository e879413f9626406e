package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/codetag-io/codetag/internal/app/service"
	"github.com/codetag-io/codetag/internal/http/middleware"
	"github.com/codetag-io/codetag/internal/qrcontent"
	"github.com/codetag-io/codetag/internal/render"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by the management API handlers.
type APIDeps struct {
	Logger    *zap.Logger
	QRCodes   service.QRCodeService
	Billing   *service.BillingService
	PublicURL string
	MaxSize   int
}

// APIHandler implements the authenticated management API.
type APIHandler struct {
	logger    *zap.Logger
	qrCodes   service.QRCodeService
	billing   *service.BillingService
	publicURL string
	maxSize   int
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSize := deps.MaxSize
	if maxSize <= 0 {
		maxSize = 2048
	}
	return &APIHandler{
		logger:    logger,
		qrCodes:   deps.QRCodes,
		billing:   deps.Billing,
		publicURL: deps.PublicURL,
		maxSize:   maxSize,
	}
}

// Register wires API routes onto the provided (already authenticated) router.
func (h *APIHandler) Register(api fiber.Router) {
	types := api.Group("/types")
	{
		types.Get("/", h.ListTypes)
		types.Get("/:id/fields", h.TypeFields)
	}

	qr := api.Group("/qr")
	{
		qr.Post("/", h.CreateQRCode)
		qr.Get("/", h.ListQRCodes)
		qr.Post("/preview", h.Preview)
		qr.Get("/:id", h.GetQRCode)
		qr.Patch("/:id", h.UpdateQRCode)
		qr.Delete("/:id", h.DeleteQRCode)
		qr.Get("/:id/image", h.Image)
		qr.Get("/:id/export", h.Export)
		qr.Get("/:id/scans", h.Scans)
	}

	billing := api.Group("/billing")
	{
		billing.Post("/checkout", h.CreateCheckout)
	}
}

// TypeResponse is the catalog metadata exposed to the type picker.
type TypeResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	IsPro       bool     `json:"is_pro"`
	IsPopular   bool     `json:"is_popular"`
	Features    []string `json:"features,omitempty"`
}

// ListTypes handles GET /api/types with optional category/popular/pro filters.
func (h *APIHandler) ListTypes(c *fiber.Ctx) error {
	var defs []qrcontent.TypeDefinition
	switch {
	case c.Query("category") != "":
		defs = qrcontent.ByCategory(qrcontent.Category(c.Query("category")))
	case c.QueryBool("popular"):
		defs = qrcontent.Popular()
	case c.QueryBool("pro"):
		defs = qrcontent.Pro()
	default:
		defs = qrcontent.All()
	}

	out := make([]TypeResponse, len(defs))
	for i, def := range defs {
		out[i] = TypeResponse{
			ID:          def.ID,
			Name:        def.Name,
			Icon:        def.Icon,
			Description: def.Description,
			Category:    string(def.Category),
			IsPro:       def.IsPro,
			IsPopular:   def.IsPopular,
			Features:    def.Features,
		}
	}
	return c.JSON(fiber.Map{"types": out, "count": len(out)})
}

// TypeFields handles GET /api/types/:id/fields.
func (h *APIHandler) TypeFields(c *fiber.Ctx) error {
	fields, err := qrcontent.DeriveFields(c.Params("id"))
	if err != nil {
		return h.fail(c, err, "derive fields")
	}
	return c.JSON(fiber.Map{"fields": fields})
}

// CustomizationRequest carries the visual options for a render.
type CustomizationRequest struct {
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
	ECLevel    string `json:"ec_level,omitempty"`
	Size       int    `json:"size,omitempty"`
	Margin     *int   `json:"margin,omitempty"`
}

func (r CustomizationRequest) margin() int {
	if r.Margin == nil {
		return 4
	}
	return *r.Margin
}

// CreateQRCodeRequest represents the request body for creating a QR code.
type CreateQRCodeRequest struct {
	Title         string               `json:"title"`
	Kind          string               `json:"kind,omitempty"`
	Type          string               `json:"type"`
	Data          map[string]any       `json:"data"`
	Customization CustomizationRequest `json:"customization"`
}

// QRCodeResponse represents a QR code entity in API responses.
type QRCodeResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	Type       string    `json:"type"`
	ShortCode  string    `json:"short_code"`
	ShortURL   string    `json:"short_url"`
	Content    string    `json:"content"`
	Foreground string    `json:"foreground"`
	Background string    `json:"background"`
	ECLevel    string    `json:"ec_level"`
	Size       int       `json:"size"`
	Margin     int       `json:"margin"`
	IsActive   bool      `json:"is_active"`
	ScanCount  int64     `json:"scan_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (h *APIHandler) toResponse(qr *model.QRCode) QRCodeResponse {
	return QRCodeResponse{
		ID:         qr.ID,
		Title:      qr.Title,
		Kind:       qr.Kind,
		Type:       qr.QRType,
		ShortCode:  qr.ShortCode,
		ShortURL:   fmt.Sprintf("%s/r/%s", h.publicURL, qr.ShortCode),
		Content:    qr.Content,
		Foreground: qr.Foreground,
		Background: qr.Background,
		ECLevel:    qr.ECLevel,
		Size:       qr.Size,
		Margin:     qr.Margin,
		IsActive:   qr.IsActive,
		ScanCount:  qr.ScanCount,
		CreatedAt:  qr.CreatedAt,
		UpdatedAt:  qr.UpdatedAt,
	}
}

// CreateQRCode handles POST /api/qr.
func (h *APIHandler) CreateQRCode(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	var req CreateQRCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type is required",
		})
	}

	qr, err := h.qrCodes.Create(reqCtx(c), account, service.CreateQRCodeInput{
		Title:      req.Title,
		Kind:       req.Kind,
		QRType:     req.Type,
		Data:       req.Data,
		Foreground: req.Customization.Foreground,
		Background: req.Customization.Background,
		ECLevel:    req.Customization.ECLevel,
		Size:       req.Customization.Size,
		Margin:     req.Customization.margin(),
	})
	if err != nil {
		return h.fail(c, err, "create qr code")
	}

	return c.Status(fiber.StatusCreated).JSON(h.toResponse(qr))
}

// ListQRCodes handles GET /api/qr.
func (h *APIHandler) ListQRCodes(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	limit := 20
	offset := 0
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	codes, err := h.qrCodes.List(reqCtx(c), account.ID, limit, offset)
	if err != nil {
		return h.fail(c, err, "list qr codes")
	}

	out := make([]QRCodeResponse, len(codes))
	for i := range codes {
		out[i] = h.toResponse(&codes[i])
	}
	return c.JSON(fiber.Map{
		"qr_codes": out,
		"limit":    limit,
		"offset":   offset,
		"count":    len(out),
	})
}

// GetQRCode handles GET /api/qr/:id.
func (h *APIHandler) GetQRCode(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)
	qr, err := h.qrCodes.Get(reqCtx(c), account.ID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "get qr code")
	}
	return c.JSON(h.toResponse(qr))
}

// UpdateQRCodeRequest represents the request body for updating a QR code.
type UpdateQRCodeRequest struct {
	Title         *string               `json:"title,omitempty"`
	Data          map[string]any        `json:"data,omitempty"`
	Customization *CustomizationRequest `json:"customization,omitempty"`
	IsActive      *bool                 `json:"is_active,omitempty"`
}

// UpdateQRCode handles PATCH /api/qr/:id.
func (h *APIHandler) UpdateQRCode(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	var req UpdateQRCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	input := service.UpdateQRCodeInput{
		Title:    req.Title,
		Data:     req.Data,
		IsActive: req.IsActive,
	}
	if req.Customization != nil {
		if req.Customization.Foreground != "" {
			input.Foreground = &req.Customization.Foreground
		}
		if req.Customization.Background != "" {
			input.Background = &req.Customization.Background
		}
		if req.Customization.ECLevel != "" {
			input.ECLevel = &req.Customization.ECLevel
		}
		if req.Customization.Size != 0 {
			input.Size = &req.Customization.Size
		}
		input.Margin = req.Customization.Margin
	}

	qr, err := h.qrCodes.Update(reqCtx(c), account.ID, c.Params("id"), input)
	if err != nil {
		return h.fail(c, err, "update qr code")
	}
	return c.JSON(h.toResponse(qr))
}

// DeleteQRCode handles DELETE /api/qr/:id. Hard delete, no tombstone.
func (h *APIHandler) DeleteQRCode(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)
	if err := h.qrCodes.Delete(reqCtx(c), account.ID, c.Params("id")); err != nil {
		return h.fail(c, err, "delete qr code")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PreviewRequest represents the request body for a live preview render.
type PreviewRequest struct {
	Type          string               `json:"type"`
	Data          map[string]any       `json:"data"`
	Customization CustomizationRequest `json:"customization"`
}

// Preview handles POST /api/qr/preview: validate, encode and rasterize
// without persisting anything.
func (h *APIHandler) Preview(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	content, err := h.qrCodes.EncodeContent(account, req.Type, req.Data)
	if err != nil {
		return h.fail(c, err, "encode preview content")
	}

	png, err := render.PNG(content, h.renderOptions(req.Customization))
	if err != nil {
		return h.fail(c, err, "render preview")
	}

	c.Type("png")
	return c.Send(png)
}

// Image handles GET /api/qr/:id/image. Dynamic codes embed their short
// redirect URL; static codes embed the content itself.
func (h *APIHandler) Image(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)
	qr, err := h.qrCodes.Get(reqCtx(c), account.ID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "get qr code")
	}

	png, err := render.PNG(h.embeddedContent(qr), h.storedOptions(qr))
	if err != nil {
		return h.fail(c, err, "render image")
	}

	c.Type("png")
	return c.Send(png)
}

// Export handles GET /api/qr/:id/export?format=png|jpg|jpeg|svg|eps.
// Vector formats are pro-gated here at the service boundary, not just in
// the UI.
func (h *APIHandler) Export(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	format := c.Query("format", render.FormatPNG)
	if render.ContentType(format) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported format",
		})
	}
	if render.ProFormat(format) && !account.IsPro() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "svg and eps downloads require a pro subscription",
		})
	}

	qr, err := h.qrCodes.Get(reqCtx(c), account.ID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "get qr code")
	}

	payload, err := render.Export(h.embeddedContent(qr), format, h.storedOptions(qr))
	if err != nil {
		return h.fail(c, err, "export qr code")
	}

	c.Set(fiber.HeaderContentType, render.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="qr-code.%s"`, format))
	return c.Send(payload)
}

// Scans handles GET /api/qr/:id/scans.
func (h *APIHandler) Scans(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	limit := 50
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 500 {
		limit = parsed
	}

	events, err := h.qrCodes.Scans(reqCtx(c), account.ID, c.Params("id"), limit)
	if err != nil {
		return h.fail(c, err, "list scans")
	}
	return c.JSON(fiber.Map{"scans": events, "count": len(events)})
}

// CreateCheckout handles POST /api/billing/checkout.
func (h *APIHandler) CreateCheckout(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)

	sessionID, err := h.billing.CreateCheckoutSession(reqCtx(c), account)
	if err != nil {
		h.logger.Error("failed to create checkout session",
			zap.Error(err),
			zap.String("account_id", account.ID))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to create checkout session",
		})
	}
	return c.JSON(fiber.Map{"session_id": sessionID})
}

func (h *APIHandler) embeddedContent(qr *model.QRCode) string {
	if qr.Kind == model.KindDynamic {
		return fmt.Sprintf("%s/r/%s", h.publicURL, qr.ShortCode)
	}
	return qr.Content
}

func (h *APIHandler) storedOptions(qr *model.QRCode) render.Options {
	return render.Options{
		Foreground: qr.Foreground,
		Background: qr.Background,
		Level:      qr.ECLevel,
		Size:       qr.Size,
		Margin:     qr.Margin,
	}
}

func (h *APIHandler) renderOptions(req CustomizationRequest) render.Options {
	opts := render.DefaultOptions()
	if req.Foreground != "" {
		opts.Foreground = req.Foreground
	}
	if req.Background != "" {
		opts.Background = req.Background
	}
	if req.ECLevel != "" {
		opts.Level = req.ECLevel
	}
	if req.Size > 0 && req.Size <= h.maxSize {
		opts.Size = req.Size
	}
	opts.Margin = req.margin()
	return opts
}

// fail maps domain errors onto the uniform response taxonomy. Validation
// problems come back field by field; everything not-found-ish collapses to
// a single 404 shape that leaks nothing about ownership.
func (h *APIHandler) fail(c *fiber.Ctx, err error, op string) error {
	var verr *qrcontent.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": verr.Errors,
		})
	case errors.Is(err, qrcontent.ErrUnknownType):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown qr content type",
		})
	case errors.Is(err, service.ErrProRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "pro subscription required",
		})
	case errors.Is(err, service.ErrDynamicLimit):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "dynamic qr code limit reached, upgrade to create more",
		})
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, repository.ErrQRCodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "qr code not found",
		})
	case errors.Is(err, render.ErrInvalidColor), errors.Is(err, render.ErrInvalidLevel):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("op", op))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
