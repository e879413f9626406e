package qrcontent

import (
	"fmt"
	"regexp"
)

// Category groups content types for the type-picker UI.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryContact  Category = "contact"
	CategorySocial   Category = "social"
	CategoryBusiness Category = "business"
	CategoryCreative Category = "creative"
	CategoryAdvanced Category = "advanced"
)

// TypeDefinition describes one supported QR content type: its catalog
// metadata plus the ordered field schema raw input is validated against.
type TypeDefinition struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Category    Category
	IsPro       bool
	IsPopular   bool
	Features    []string
	Fields      []Field
}

var (
	rePhone      = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	reEmail      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reURL        = regexp.MustCompile(`^(?:https?://)?[^\s]+\.[^\s]+$`)
	reWebsite    = regexp.MustCompile(`^https?://\S+$`)
	reLinkedIn   = regexp.MustCompile(`^https?://\S*linkedin\.com\S*$`)
	reTwitter    = regexp.MustCompile(`^@?[A-Za-z0-9_]+$`)
	reInstagram  = regexp.MustCompile(`^@?[A-Za-z0-9_.]+$`)
	reBitcoin    = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$|^bc1[a-z0-9]{39,59}$`)
	reBTCAmount  = regexp.MustCompile(`^\d*\.?\d*$`)
	reFiatAmount = regexp.MustCompile(`^\d*\.?\d{0,2}$`)
	reCurrency   = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// registry is the full ordered catalog. Declaration order is the display
// order and is stable across Lookup/filter calls.
var registry = []TypeDefinition{
	{
		ID:          "url",
		Name:        "Website URL",
		Icon:        "🌐",
		Description: "Direct link to any website or landing page",
		Category:    CategoryBasic,
		IsPopular:   true,
		Features:    []string{"Instant redirect", "Analytics tracking", "Mobile optimized"},
		Fields: []Field{
			{Name: "url", Label: "URL", Placeholder: "example.com", Widget: "url",
				Rule: StringField{Required: true, MaxLen: 2048, Pattern: reURL, PatternHint: "Please enter a valid URL"}},
		},
	},
	{
		ID:          "text",
		Name:        "Plain Text",
		Icon:        "📝",
		Description: "Share simple text messages and notes",
		Category:    CategoryBasic,
		Features:    []string{"Rich text support", "Multi-language", "Offline viewing"},
		Fields: []Field{
			{Name: "text", Label: "Text content", Placeholder: "Your message",
				Rule: StringField{Required: true, MaxLen: 4000}},
		},
	},
	{
		ID:          "wifi",
		Name:        "Wi-Fi Network",
		Icon:        "📶",
		Description: "One-tap Wi-Fi connection for guests",
		Category:    CategoryBasic,
		IsPopular:   true,
		Features:    []string{"Auto-connect", "Password encryption", "Guest access"},
		Fields: []Field{
			{Name: "ssid", Label: "Network name (SSID)", Placeholder: "MyNetwork",
				Rule: StringField{Required: true, MaxLen: 32}},
			{Name: "password", Label: "Password", Widget: "password",
				Rule: StringField{MaxLen: 63}},
			{Name: "encryption", Label: "Encryption",
				Rule: EnumField{Values: []string{"WPA", "WPA2", "WEP", "nopass"}, Default: "WPA2"}},
			{Name: "hidden", Label: "Hidden network",
				Rule: BoolField{Default: false}},
		},
	},
	{
		ID:          "email",
		Name:        "Email",
		Icon:        "📧",
		Description: "Pre-filled email with subject and message",
		Category:    CategoryContact,
		Features:    []string{"Auto-compose", "Template support", "Attachment ready"},
		Fields: []Field{
			{Name: "email", Label: "Email address", Placeholder: "hello@example.com", Widget: "email",
				Rule: StringField{Required: true, Pattern: reEmail, PatternHint: "Please enter a valid email address"}},
			{Name: "subject", Label: "Subject",
				Rule: StringField{MaxLen: 200}},
			{Name: "body", Label: "Message",
				Rule: StringField{MaxLen: 2000}},
		},
	},
	{
		ID:          "sms",
		Name:        "Text Message",
		Icon:        "💬",
		Description: "Send SMS with pre-written message",
		Category:    CategoryContact,
		Features:    []string{"Cross-platform", "Character counter", "Emoji support"},
		Fields: []Field{
			{Name: "phone", Label: "Phone number", Placeholder: "+15551234567", Widget: "tel",
				Rule: StringField{Required: true, Pattern: rePhone, PatternHint: "Please enter a valid phone number"}},
			{Name: "message", Label: "Message",
				Rule: StringField{MaxLen: 160}},
		},
	},
	{
		ID:          "phone",
		Name:        "Phone Call",
		Icon:        "📞",
		Description: "Direct dial with single scan",
		Category:    CategoryContact,
		Features:    []string{"International format", "Quick dial", "Contact save"},
		Fields: []Field{
			{Name: "phone", Label: "Phone number", Placeholder: "+15551234567", Widget: "tel",
				Rule: StringField{Required: true, Pattern: rePhone, PatternHint: "Please enter a valid phone number"}},
		},
	},
	{
		ID:          "vcard",
		Name:        "Digital Business Card",
		Icon:        "👤",
		Description: "Complete contact information package",
		Category:    CategoryContact,
		IsPopular:   true,
		Features:    []string{"Full contact details", "Photo support", "Auto-save to contacts"},
		Fields: []Field{
			{Name: "firstName", Label: "First name",
				Rule: StringField{Required: true, MaxLen: 50}},
			{Name: "lastName", Label: "Last name",
				Rule: StringField{MaxLen: 50}},
			{Name: "organization", Label: "Organization",
				Rule: StringField{MaxLen: 100}},
			{Name: "title", Label: "Job title",
				Rule: StringField{MaxLen: 100}},
			{Name: "phone", Label: "Phone number", Widget: "tel",
				Rule: StringField{Pattern: rePhone, PatternHint: "Invalid phone number"}},
			{Name: "email", Label: "Email address", Widget: "email",
				Rule: StringField{Pattern: reEmail, PatternHint: "Invalid email address"}},
			{Name: "website", Label: "Website", Widget: "url",
				Rule: StringField{Pattern: reWebsite, PatternHint: "Invalid website URL"}},
			{Name: "address", Label: "Address",
				Rule: StringField{MaxLen: 200}},
			{Name: "note", Label: "Note",
				Rule: StringField{MaxLen: 500}},
		},
	},
	{
		ID:          "twitter",
		Name:        "Twitter Profile",
		Icon:        "🐦",
		Description: "Link to Twitter profile or specific tweet",
		Category:    CategorySocial,
		Features:    []string{"Profile linking", "Tweet sharing", "Follow prompts"},
		Fields: []Field{
			{Name: "username", Label: "Twitter username", Placeholder: "@username",
				Rule: StringField{Required: true, MaxLen: 15, Pattern: reTwitter, PatternHint: "Invalid Twitter username format", StripPrefix: "@"}},
		},
	},
	{
		ID:          "instagram",
		Name:        "Instagram",
		Icon:        "📷",
		Description: "Share Instagram profile or content",
		Category:    CategorySocial,
		IsPro:       true,
		Features:    []string{"Story integration", "Post sharing", "Bio linking"},
		Fields: []Field{
			{Name: "username", Label: "Instagram username", Placeholder: "@username",
				Rule: StringField{Required: true, MaxLen: 30, Pattern: reInstagram, PatternHint: "Invalid Instagram username format", StripPrefix: "@"}},
		},
	},
	{
		ID:          "linkedin",
		Name:        "LinkedIn",
		Icon:        "💼",
		Description: "Professional networking profile",
		Category:    CategorySocial,
		IsPro:       true,
		Features:    []string{"Professional networking", "Resume sharing", "Connection requests"},
		Fields: []Field{
			{Name: "profile", Label: "LinkedIn profile URL", Placeholder: "https://linkedin.com/in/you", Widget: "url",
				Rule: StringField{Required: true, Pattern: reLinkedIn, PatternHint: "Must be a LinkedIn URL"}},
		},
	},
	{
		ID:          "bitcoin",
		Name:        "Bitcoin Payment",
		Icon:        "₿",
		Description: "Cryptocurrency payment address",
		Category:    CategoryBusiness,
		Features:    []string{"Secure payments", "Amount specification", "Transaction tracking"},
		Fields: []Field{
			{Name: "address", Label: "Bitcoin address",
				Rule: StringField{Required: true, MinLen: 26, MaxLen: 62, Pattern: reBitcoin, PatternHint: "Invalid Bitcoin address format"}},
			{Name: "amount", Label: "Amount (BTC)",
				Rule: StringField{Pattern: reBTCAmount, PatternHint: "Invalid amount format"}},
			{Name: "label", Label: "Label",
				Rule: StringField{MaxLen: 100}},
			{Name: "message", Label: "Message",
				Rule: StringField{MaxLen: 200}},
		},
	},
	{
		ID:          "paypal",
		Name:        "PayPal Payment",
		Icon:        "💰",
		Description: "Quick PayPal payment link",
		Category:    CategoryBusiness,
		IsPro:       true,
		Features:    []string{"Instant payments", "Currency conversion", "Receipt generation"},
		Fields: []Field{
			{Name: "username", Label: "PayPal username", Placeholder: "yourname",
				Rule: StringField{Required: true}},
			{Name: "amount", Label: "Amount",
				Rule: StringField{Pattern: reFiatAmount, PatternHint: "Invalid amount format"}},
			// Carried for account display only; paypal.me handles currency itself.
			{Name: "currency", Label: "Currency",
				Rule: StringField{Pattern: reCurrency, PatternHint: "Currency code must be 3 letters", Default: "USD"}},
			{Name: "item", Label: "Item description",
				Rule: StringField{MaxLen: 100}},
		},
	},
}

var registryByID = func() map[string]*TypeDefinition {
	m := make(map[string]*TypeDefinition, len(registry))
	for i := range registry {
		def := &registry[i]
		if _, dup := m[def.ID]; dup {
			panic("qrcontent: duplicate type id " + def.ID)
		}
		m[def.ID] = def
	}
	return m
}()

// Lookup resolves a type definition by id. Unknown ids are a hard error,
// never a fallback to another type's schema.
func Lookup(id string) (*TypeDefinition, error) {
	def, ok := registryByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return def, nil
}

// All returns the catalog in declaration order.
func All() []TypeDefinition {
	out := make([]TypeDefinition, len(registry))
	copy(out, registry)
	return out
}

// ByCategory filters the catalog, preserving declaration order.
func ByCategory(c Category) []TypeDefinition {
	var out []TypeDefinition
	for _, def := range registry {
		if def.Category == c {
			out = append(out, def)
		}
	}
	return out
}

// Popular returns the types highlighted on the type picker.
func Popular() []TypeDefinition {
	var out []TypeDefinition
	for _, def := range registry {
		if def.IsPopular {
			out = append(out, def)
		}
	}
	return out
}

// Pro returns the types gated to paying accounts.
func Pro() []TypeDefinition {
	var out []TypeDefinition
	for _, def := range registry {
		if def.IsPro {
			out = append(out, def)
		}
	}
	return out
}
