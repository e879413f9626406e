package service

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	base62Chars     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	shortCodeLength = 8
)

var shortCodeRx = regexp.MustCompile(`^[0-9A-Za-z]{1,32}$`)

// GenerateShortCode mints a random base62 short code. Collisions are left
// to the unique index on short_code; callers retry on conflict.
func GenerateShortCode() (string, error) {
	buf := make([]byte, shortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	for i, b := range buf {
		buf[i] = base62Chars[int(b)%len(base62Chars)]
	}
	return string(buf), nil
}

// ValidShortCode reports whether a path parameter even looks like a code we
// could have issued, so the redirect handler can reject junk before any
// lookup.
func ValidShortCode(code string) bool {
	return shortCodeRx.MatchString(code)
}
