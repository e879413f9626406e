// Package render turns encoded content strings into QR images. Symbol
// encoding itself is delegated to go-qrcode; this package owns option
// mapping, color parsing and output formats.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrInvalidColor signals a malformed hex color string.
	ErrInvalidColor = errors.New("invalid hex color")
	// ErrInvalidLevel signals an error correction level outside L/M/Q/H.
	ErrInvalidLevel = errors.New("invalid error correction level")
)

// Options are the visual customization knobs for one render.
type Options struct {
	// Foreground and Background are "#rrggbb" hex strings.
	Foreground string
	Background string
	// Level is one of L, M, Q, H.
	Level string
	// Size is the output edge length in pixels.
	Size int
	// Margin 0 drops the quiet zone; any other value keeps the standard
	// 4-module border the symbol spec asks for.
	Margin int
}

// DefaultOptions match the free-tier preview defaults.
func DefaultOptions() Options {
	return Options{
		Foreground: "#000000",
		Background: "#ffffff",
		Level:      "M",
		Size:       400,
		Margin:     4,
	}
}

// PNG rasterizes content into a PNG image with the given options.
func PNG(content string, opts Options) ([]byte, error) {
	q, err := build(content, opts)
	if err != nil {
		return nil, err
	}
	png, err := q.PNG(opts.Size)
	if err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return png, nil
}

// Modules returns the symbol's module bitmap (quiet zone included unless
// Margin is 0), used by the vector exporters.
func Modules(content string, opts Options) ([][]bool, error) {
	q, err := build(content, opts)
	if err != nil {
		return nil, err
	}
	return q.Bitmap(), nil
}

func build(content string, opts Options) (*qrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is empty")
	}

	level, err := RecoveryLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("encode qr symbol: %w", err)
	}

	if opts.Foreground != "" {
		fg, err := ParseHexColor(opts.Foreground)
		if err != nil {
			return nil, err
		}
		q.ForegroundColor = fg
	}
	if opts.Background != "" {
		bg, err := ParseHexColor(opts.Background)
		if err != nil {
			return nil, err
		}
		q.BackgroundColor = bg
	}
	if opts.Margin == 0 {
		q.DisableBorder = true
	}
	return q, nil
}

// RecoveryLevel maps the L/M/Q/H letters onto go-qrcode's levels.
func RecoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "M":
		return qrcode.Medium, nil
	case "L":
		return qrcode.Low, nil
	case "Q":
		return qrcode.High, nil
	case "H":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// ParseHexColor parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = hex[i]
			expanded[2*i+1] = hex[i]
		}
		hex = string(expanded)
	case 6:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
