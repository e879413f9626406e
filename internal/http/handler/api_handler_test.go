package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/service"
	"github.com/gofiber/fiber/v2"
)

type stubScanEventRepository struct{}

func (s *stubScanEventRepository) Create(ctx context.Context, event *model.ScanEvent) error {
	return nil
}
func (s *stubScanEventRepository) ListByQRCode(ctx context.Context, qrCodeID string, limit int) ([]model.ScanEvent, error) {
	return nil, nil
}
func (s *stubScanEventRepository) CountByQRCode(ctx context.Context, qrCodeID string) (int64, error) {
	return 0, nil
}

// apiApp builds a Fiber app with the API handler mounted behind a middleware
// that injects the given account, standing in for the real auth layer.
func apiApp(account *model.Account, repo *stubQRCodeRepository) *fiber.App {
	svc := service.NewQRCodeService(repo, &stubScanEventRepository{}, nil)

	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals("account", account)
		return c.Next()
	})
	NewAPIHandler(APIDeps{
		QRCodes:   svc,
		PublicURL: "https://codetag.io",
	}).Register(api)
	return app
}

func testAccount(tier string) *model.Account {
	return &model.Account{ID: "acct-1", SubscriptionTier: tier}
}

func decodeJSON(t *testing.T, body io.Reader, out any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestListTypes(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/types", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Types []TypeResponse `json:"types"`
		Count int            `json:"count"`
	}
	decodeJSON(t, resp.Body, &body)
	if body.Count != 12 {
		t.Errorf("expected 12 types, got %d", body.Count)
	}
	if len(body.Types) == 0 || body.Types[0].ID != "url" {
		t.Errorf("expected url first in the catalog")
	}
}

func TestListTypes_PopularFilter(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/types?popular=true", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body struct {
		Types []TypeResponse `json:"types"`
	}
	decodeJSON(t, resp.Body, &body)
	for _, tr := range body.Types {
		if !tr.IsPopular {
			t.Errorf("type %q is not popular but passed the filter", tr.ID)
		}
	}
	if len(body.Types) == 0 {
		t.Fatal("expected at least one popular type")
	}
}

func TestTypeFields_Unknown(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/types/hologram/fields", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown type, got %d", resp.StatusCode)
	}
}

func TestCreateQRCode(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	body := bytes.NewBufferString(`{
		"title": "My site",
		"type": "url",
		"data": {"url": "example.com"}
	}`)
	req := httptest.NewRequest("POST", "/api/qr", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var got QRCodeResponse
	decodeJSON(t, resp.Body, &got)
	if got.Content != "https://example.com" {
		t.Errorf("expected normalized content, got %q", got.Content)
	}
	if got.ShortURL != "https://codetag.io/r/"+got.ShortCode {
		t.Errorf("expected short url derived from public url, got %q", got.ShortURL)
	}
}

func TestCreateQRCode_ValidationErrors(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	body := bytes.NewBufferString(`{
		"title": "broken wifi",
		"type": "wifi",
		"data": {"encryption": "WPA"}
	}`)
	req := httptest.NewRequest("POST", "/api/qr", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var got struct {
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	decodeJSON(t, resp.Body, &got)
	if len(got.Fields) == 0 {
		t.Fatal("expected per-field validation errors")
	}
}

func TestCreateQRCode_ProTypeForbidden(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	body := bytes.NewBufferString(`{
		"title": "my card",
		"type": "vcard",
		"data": {"firstName": "Jane"}
	}`)
	req := httptest.NewRequest("POST", "/api/qr", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for pro type on free tier, got %d", resp.StatusCode)
	}
}

func TestPreview_ReturnsPNG(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	body := bytes.NewBufferString(`{
		"type": "text",
		"data": {"text": "hello"}
	}`)
	req := httptest.NewRequest("POST", "/api/qr/preview", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(img) < 8 || !bytes.Equal(img[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		t.Error("expected a PNG payload")
	}
}

func TestExport_VectorGatedForFree(t *testing.T) {
	repo := &stubQRCodeRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			return &model.QRCode{
				ID:        id,
				AccountID: "acct-1",
				Kind:      model.KindStatic,
				Content:   "https://example.com",
				Size:      256,
			}, nil
		},
	}

	app := apiApp(testAccount(model.TierFree), repo)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/qr/qr-1/export?format=svg", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for svg on free tier, got %d", resp.StatusCode)
	}

	app = apiApp(testAccount(model.TierPro), repo)
	resp, err = app.Test(httptest.NewRequest("GET", "/api/qr/qr-1/export?format=svg", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for svg on pro tier, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="qr-code.svg"` {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	app := apiApp(testAccount(model.TierFree), &stubQRCodeRepository{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/qr/qr-1/export?format=tiff", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", resp.StatusCode)
	}
}

func TestGetQRCode_ForeignLooksLikeMissing(t *testing.T) {
	repo := &stubQRCodeRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			return &model.QRCode{ID: id, AccountID: "someone-else"}, nil
		},
	}
	app := apiApp(testAccount(model.TierFree), repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/qr/qr-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected foreign code to read as 404, got %d", resp.StatusCode)
	}
}
