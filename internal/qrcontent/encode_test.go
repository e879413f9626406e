package qrcontent

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func mustValidate(t *testing.T, typeID string, raw map[string]any) Values {
	t.Helper()
	values, err := Validate(typeID, raw)
	if err != nil {
		t.Fatalf("Validate(%q) error: %v", typeID, err)
	}
	return values
}

func mustEncode(t *testing.T, typeID string, raw map[string]any) string {
	t.Helper()
	content, err := Encode(typeID, mustValidate(t, typeID, raw))
	if err != nil {
		t.Fatalf("Encode(%q) error: %v", typeID, err)
	}
	return content
}

func TestEncodeURL(t *testing.T) {
	if got := mustEncode(t, "url", map[string]any{"url": "example.com"}); got != "https://example.com" {
		t.Fatalf("expected https prefix added, got %q", got)
	}
	if got := mustEncode(t, "url", map[string]any{"url": "https://example.com"}); got != "https://example.com" {
		t.Fatalf("expected unchanged URL, got %q", got)
	}
	if got := mustEncode(t, "url", map[string]any{"url": "http://example.com"}); got != "http://example.com" {
		t.Fatalf("http scheme must be preserved, got %q", got)
	}
}

func TestEncodeText(t *testing.T) {
	if got := mustEncode(t, "text", map[string]any{"text": "hello world"}); got != "hello world" {
		t.Fatalf("text must pass through verbatim, got %q", got)
	}
}

func TestEncodeEmail(t *testing.T) {
	if got := mustEncode(t, "email", map[string]any{"email": "a@b.com"}); got != "mailto:a@b.com" {
		t.Fatalf("bare address must have no trailing ?, got %q", got)
	}
	if got := mustEncode(t, "email", map[string]any{"email": "a@b.com", "subject": "Hi"}); got != "mailto:a@b.com?subject=Hi" {
		t.Fatalf("unexpected subject encoding: %q", got)
	}
	got := mustEncode(t, "email", map[string]any{"email": "a@b.com", "subject": "Hi there", "body": "Line one"})
	if got != "mailto:a@b.com?subject=Hi+there&body=Line+one" {
		t.Fatalf("unexpected subject+body encoding: %q", got)
	}
}

func TestEncodeSMS(t *testing.T) {
	// The encoder strips anything a dialer will not accept, even if a
	// caller hands it pre-validated values with formatting left in.
	got, err := Encode("sms", Values{"phone": "+1 (555) 123-4567"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if got != "sms:+15551234567" {
		t.Fatalf("expected punctuation stripped, got %q", got)
	}
	got = mustEncode(t, "sms", map[string]any{"phone": "+15551234567", "message": "see you soon"})
	if got != "sms:+15551234567?body=see+you+soon" {
		t.Fatalf("unexpected sms body: %q", got)
	}
}

func TestEncodePhone(t *testing.T) {
	if got := mustEncode(t, "phone", map[string]any{"phone": "+4915112345678"}); got != "tel:+4915112345678" {
		t.Fatalf("unexpected tel URI: %q", got)
	}
}

var wifiGrammar = regexp.MustCompile(`^WIFI:T:(WPA|WPA2|WEP|nopass);S:[^;]*;P:[^;]*;H:(true|false);;$`)

func TestEncodeWifi(t *testing.T) {
	got := mustEncode(t, "wifi", map[string]any{
		"ssid":       "MyNetwork",
		"password":   "secret123",
		"encryption": "WPA",
		"hidden":     true,
	})
	if got != "WIFI:T:WPA;S:MyNetwork;P:secret123;H:true;;" {
		t.Fatalf("unexpected wifi string: %q", got)
	}

	// Defaults: WPA2 encryption, visible network, empty password.
	got = mustEncode(t, "wifi", map[string]any{"ssid": "Cafe"})
	if got != "WIFI:T:WPA2;S:Cafe;P:;H:false;;" {
		t.Fatalf("unexpected wifi defaults: %q", got)
	}

	if !wifiGrammar.MatchString(got) {
		t.Fatalf("wifi output does not satisfy grammar: %q", got)
	}
}

func TestEncodeVCardMinimal(t *testing.T) {
	got := mustEncode(t, "vcard", map[string]any{"firstName": "Jane"})
	want := []string{"BEGIN:VCARD", "VERSION:3.0", "FN:Jane", "N:Jane;;;;", "END:VCARD"}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), got)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("line %d: expected %q, got %q", i, line, lines[i])
		}
	}
}

func TestEncodeVCardFull(t *testing.T) {
	got := mustEncode(t, "vcard", map[string]any{
		"firstName":    "Jane",
		"lastName":     "Doe",
		"organization": "Acme",
		"title":        "CTO",
		"phone":        "+15551234567",
		"email":        "jane@acme.com",
		"website":      "https://acme.com",
		"address":      "1 Main St",
		"note":         "Call first",
	})
	lines := strings.Split(got, "\n")

	if lines[2] != "FN:Jane Doe" {
		t.Fatalf("unexpected FN line: %q", lines[2])
	}
	// With a last name present, N leads with the family name.
	if lines[3] != "N:Doe;Jane;;;" {
		t.Fatalf("unexpected N line: %q", lines[3])
	}
	for _, want := range []string{"ORG:Acme", "TITLE:CTO", "TEL:+15551234567", "EMAIL:jane@acme.com", "URL:https://acme.com", "ADR:;;1 Main St;;;;", "NOTE:Call first"} {
		found := false
		for _, line := range lines {
			if line == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing line %q in %q", want, got)
		}
	}
	if lines[len(lines)-1] != "END:VCARD" {
		t.Fatalf("missing END line: %q", got)
	}
}

func TestEncodeSocialProfiles(t *testing.T) {
	if got := mustEncode(t, "twitter", map[string]any{"username": "@jack"}); got != "https://twitter.com/jack" {
		t.Fatalf("unexpected twitter URL: %q", got)
	}
	if got := mustEncode(t, "instagram", map[string]any{"username": "nasa"}); got != "https://instagram.com/nasa" {
		t.Fatalf("unexpected instagram URL: %q", got)
	}
	profile := "https://www.linkedin.com/in/someone"
	if got := mustEncode(t, "linkedin", map[string]any{"profile": profile}); got != profile {
		t.Fatalf("linkedin must pass through verbatim, got %q", got)
	}
}

func TestEncodeBitcoin(t *testing.T) {
	addr := "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
	if got := mustEncode(t, "bitcoin", map[string]any{"address": addr}); got != "bitcoin:"+addr {
		t.Fatalf("bare address must have no query, got %q", got)
	}
	got := mustEncode(t, "bitcoin", map[string]any{
		"address": addr,
		"amount":  "0.01",
		"label":   "Donation",
		"message": "thanks",
	})
	if got != "bitcoin:"+addr+"?amount=0.01&label=Donation&message=thanks" {
		t.Fatalf("unexpected bitcoin URI: %q", got)
	}
}

func TestEncodePayPal(t *testing.T) {
	if got := mustEncode(t, "paypal", map[string]any{"username": "someone"}); got != "https://paypal.me/someone" {
		t.Fatalf("unexpected paypal URL: %q", got)
	}
	if got := mustEncode(t, "paypal", map[string]any{"username": "someone", "amount": "25.00"}); got != "https://paypal.me/someone/25.00" {
		t.Fatalf("unexpected paypal amount segment: %q", got)
	}
}

func TestEncodeUnknownType(t *testing.T) {
	_, err := Encode("fax", Values{})
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
