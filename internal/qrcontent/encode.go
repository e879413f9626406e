package qrcontent

import (
	"fmt"
	"net/url"
	"strings"
)

// Encode maps validated field values to the type-specific wire format the
// scanning apps expect. It is total over every registered type: each type
// has an explicit branch, and an id the registry does not know is
// ErrUnknownType rather than a guessed pass-through.
func Encode(typeID string, values Values) (string, error) {
	if _, err := Lookup(typeID); err != nil {
		return "", err
	}

	switch typeID {
	case "url":
		return ensureScheme(values.Str("url")), nil
	case "text":
		return values.Str("text"), nil
	case "email":
		return encodeEmail(values), nil
	case "sms":
		return encodeSMS(values), nil
	case "phone":
		return "tel:" + dialDigits(values.Str("phone")), nil
	case "wifi":
		return encodeWifi(values), nil
	case "vcard":
		return encodeVCard(values), nil
	case "twitter":
		return "https://twitter.com/" + values.Str("username"), nil
	case "instagram":
		return "https://instagram.com/" + values.Str("username"), nil
	case "linkedin":
		return values.Str("profile"), nil
	case "bitcoin":
		return encodeBitcoin(values), nil
	case "paypal":
		return encodePayPal(values), nil
	default:
		// Registered but without an encoder branch: a registration bug,
		// caught by TestEncoderCoversRegistry.
		return "", fmt.Errorf("%w: no encoder for %q", ErrUnknownType, typeID)
	}
}

func ensureScheme(raw string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + raw
}

func encodeEmail(v Values) string {
	// Query parameters keep submission order (subject before body), present
	// only when non-empty.
	var params []string
	if s := v.Str("subject"); s != "" {
		params = append(params, "subject="+url.QueryEscape(s))
	}
	if b := v.Str("body"); b != "" {
		params = append(params, "body="+url.QueryEscape(b))
	}

	uri := "mailto:" + v.Str("email")
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri
}

func encodeSMS(v Values) string {
	uri := "sms:" + dialDigits(v.Str("phone"))
	if msg := v.Str("message"); msg != "" {
		uri += "?body=" + url.QueryEscape(msg)
	}
	return uri
}

// dialDigits keeps only digits and a leading plus, the characters dialers
// accept in tel:/sms: URIs.
func dialDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func encodeWifi(v Values) string {
	hidden := "false"
	if v.Bool("hidden") {
		hidden = "true"
	}
	// Field order and the trailing double-semicolon are significant for
	// scanner compatibility.
	return fmt.Sprintf("WIFI:T:%s;S:%s;P:%s;H:%s;;",
		v.Str("encryption"), v.Str("ssid"), v.Str("password"), hidden)
}

func encodeVCard(v Values) string {
	first := v.Str("firstName")
	last := v.Str("lastName")

	fn := first
	nLine := "N:" + first + ";;;;"
	if last != "" {
		fn = first + " " + last
		nLine = "N:" + last + ";" + first + ";;;"
	}

	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + fn,
		nLine,
	}

	// Optional lines are omitted entirely when empty, never emitted blank.
	if org := v.Str("organization"); org != "" {
		lines = append(lines, "ORG:"+org)
	}
	if title := v.Str("title"); title != "" {
		lines = append(lines, "TITLE:"+title)
	}
	if phone := v.Str("phone"); phone != "" {
		lines = append(lines, "TEL:"+phone)
	}
	if email := v.Str("email"); email != "" {
		lines = append(lines, "EMAIL:"+email)
	}
	if site := v.Str("website"); site != "" {
		lines = append(lines, "URL:"+site)
	}
	if addr := v.Str("address"); addr != "" {
		lines = append(lines, "ADR:;;"+addr+";;;;")
	}
	if note := v.Str("note"); note != "" {
		lines = append(lines, "NOTE:"+note)
	}

	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\n")
}

func encodeBitcoin(v Values) string {
	var params []string
	if amt := v.Str("amount"); amt != "" {
		params = append(params, "amount="+url.QueryEscape(amt))
	}
	if label := v.Str("label"); label != "" {
		params = append(params, "label="+url.QueryEscape(label))
	}
	if msg := v.Str("message"); msg != "" {
		params = append(params, "message="+url.QueryEscape(msg))
	}

	uri := "bitcoin:" + v.Str("address")
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri
}

// encodePayPal builds a paypal.me link from the explicit username. The
// username is never derived from an email address.
func encodePayPal(v Values) string {
	uri := "https://paypal.me/" + v.Str("username")
	if amt := v.Str("amount"); amt != "" {
		uri += "/" + amt
	}
	return uri
}
