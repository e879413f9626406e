package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/codetag-io/codetag/internal/qrcontent"
	"github.com/google/uuid"
)

var (
	// ErrProRequired signals that the account's tier does not cover the
	// requested type or format.
	ErrProRequired = errors.New("pro subscription required")
	// ErrDynamicLimit signals the free-tier dynamic code quota is used up.
	ErrDynamicLimit = errors.New("dynamic qr code limit reached")
	// ErrNotOwner signals the code belongs to a different account.
	ErrNotOwner = errors.New("qr code belongs to another account")
)

// Free accounts get a fixed number of dynamic codes; pro is unlimited.
const freeDynamicCodeLimit = 2

// QRCodeService defines behaviour-level operations on QR codes.
type QRCodeService interface {
	Create(ctx context.Context, account *model.Account, input CreateQRCodeInput) (*model.QRCode, error)
	Get(ctx context.Context, accountID, id string) (*model.QRCode, error)
	List(ctx context.Context, accountID string, limit, offset int) ([]model.QRCode, error)
	Update(ctx context.Context, accountID, id string, input UpdateQRCodeInput) (*model.QRCode, error)
	Delete(ctx context.Context, accountID, id string) error
	Scans(ctx context.Context, accountID, id string, limit int) ([]model.ScanEvent, error)
	EncodeContent(account *model.Account, typeID string, data map[string]any) (string, error)
}

type qrCodeService struct {
	codes  repository.QRCodeRepository
	scans  repository.ScanEventRepository
	filter *ShortCodeFilter
}

// NewQRCodeService returns a service implementation backed by the given
// repositories. filter may be nil when the redirect fast path is not wired.
func NewQRCodeService(codes repository.QRCodeRepository, scans repository.ScanEventRepository, filter *ShortCodeFilter) QRCodeService {
	return &qrCodeService{codes: codes, scans: scans, filter: filter}
}

// CreateQRCodeInput captures data required to create a QR code.
type CreateQRCodeInput struct {
	Title  string
	Kind   string
	QRType string
	Data   map[string]any

	Foreground string
	Background string
	ECLevel    string
	Size       int
	Margin     int
}

// UpdateQRCodeInput captures fields that can be changed on an existing code.
// For dynamic codes, changing Data re-encodes the destination without
// changing the printed short code.
type UpdateQRCodeInput struct {
	Title      *string
	Data       map[string]any
	Foreground *string
	Background *string
	ECLevel    *string
	Size       *int
	Margin     *int
	IsActive   *bool
}

// EncodeContent validates raw form data against the type's schema and
// produces the wire-format content string, enforcing pro gating first.
func (s *qrCodeService) EncodeContent(account *model.Account, typeID string, data map[string]any) (string, error) {
	def, err := qrcontent.Lookup(typeID)
	if err != nil {
		return "", err
	}
	if def.IsPro && !account.IsPro() {
		return "", fmt.Errorf("%w: type %q", ErrProRequired, typeID)
	}

	values, err := qrcontent.Validate(typeID, data)
	if err != nil {
		return "", err
	}
	content, err := qrcontent.Encode(typeID, values)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *qrCodeService) Create(ctx context.Context, account *model.Account, input CreateQRCodeInput) (*model.QRCode, error) {
	kind := input.Kind
	if kind == "" {
		kind = model.KindStatic
	}
	if kind != model.KindStatic && kind != model.KindDynamic {
		return nil, fmt.Errorf("invalid qr code kind %q", kind)
	}

	if kind == model.KindDynamic && !account.IsPro() {
		count, err := s.codes.CountDynamicByAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("count dynamic codes: %w", err)
		}
		if count >= freeDynamicCodeLimit {
			return nil, ErrDynamicLimit
		}
	}

	content, err := s.EncodeContent(account, input.QRType, input.Data)
	if err != nil {
		return nil, err
	}

	code := &model.QRCode{
		ID:         uuid.New().String(),
		AccountID:  account.ID,
		Title:      input.Title,
		Kind:       kind,
		QRType:     input.QRType,
		Content:    content,
		Foreground: defaultStr(input.Foreground, "#000000"),
		Background: defaultStr(input.Background, "#ffffff"),
		ECLevel:    defaultStr(input.ECLevel, "M"),
		Size:       defaultInt(input.Size, 400),
		Margin:     defaultInt(input.Margin, 4),
		IsActive:   true,
	}

	// The unique index on short_code is the arbiter; regenerate and retry
	// on the (rare) collision.
	var createErr error
	for attempt := 0; attempt < 3; attempt++ {
		code.ShortCode, err = GenerateShortCode()
		if err != nil {
			return nil, err
		}
		if createErr = s.codes.Create(ctx, code); createErr == nil {
			break
		}
	}
	if createErr != nil {
		return nil, fmt.Errorf("create qr code: %w", createErr)
	}

	if s.filter != nil {
		s.filter.Add(code.ShortCode)
	}
	return code, nil
}

func (s *qrCodeService) Get(ctx context.Context, accountID, id string) (*model.QRCode, error) {
	code, err := s.codes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get qr code: %w", err)
	}
	if code.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return code, nil
}

func (s *qrCodeService) List(ctx context.Context, accountID string, limit, offset int) ([]model.QRCode, error) {
	codes, err := s.codes.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	return codes, nil
}

func (s *qrCodeService) Update(ctx context.Context, accountID, id string, input UpdateQRCodeInput) (*model.QRCode, error) {
	code, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		code.Title = *input.Title
	}
	if input.Data != nil {
		values, err := qrcontent.Validate(code.QRType, input.Data)
		if err != nil {
			return nil, err
		}
		content, err := qrcontent.Encode(code.QRType, values)
		if err != nil {
			return nil, err
		}
		code.Content = content
	}
	if input.Foreground != nil {
		code.Foreground = *input.Foreground
	}
	if input.Background != nil {
		code.Background = *input.Background
	}
	if input.ECLevel != nil {
		code.ECLevel = *input.ECLevel
	}
	if input.Size != nil {
		code.Size = *input.Size
	}
	if input.Margin != nil {
		code.Margin = *input.Margin
	}
	if input.IsActive != nil {
		code.IsActive = *input.IsActive
	}

	if err := s.codes.Update(ctx, code); err != nil {
		return nil, fmt.Errorf("update qr code: %w", err)
	}
	return code, nil
}

func (s *qrCodeService) Delete(ctx context.Context, accountID, id string) error {
	if _, err := s.Get(ctx, accountID, id); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}
	return nil
}

func (s *qrCodeService) Scans(ctx context.Context, accountID, id string, limit int) ([]model.ScanEvent, error) {
	if _, err := s.Get(ctx, accountID, id); err != nil {
		return nil, err
	}
	events, err := s.scans.ListByQRCode(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return events, nil
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
