package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"
)

// Export formats.
const (
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
	FormatSVG  = "svg"
	FormatEPS  = "eps"
)

// ProFormat reports whether a download format is gated to paying accounts.
// The check lives here so the export endpoint enforces it, not just the UI.
func ProFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatSVG, FormatEPS:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type for a supported export format, or ""
// for an unsupported one.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatPNG:
		return "image/png"
	case FormatJPG, FormatJPEG:
		return "image/jpeg"
	case FormatSVG:
		return "image/svg+xml"
	case FormatEPS:
		return "application/postscript"
	default:
		return ""
	}
}

// Export renders content in the requested format.
func Export(content, format string, opts Options) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatPNG:
		return PNG(content, opts)
	case FormatJPG, FormatJPEG:
		return jpegBytes(content, opts)
	case FormatSVG:
		return svgBytes(content, opts)
	case FormatEPS:
		return epsBytes(content, opts)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func jpegBytes(content string, opts Options) ([]byte, error) {
	raw, err := PNG(content, opts)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// svgBytes emits one rect per dark module on a solid background. Vector
// output scales losslessly for print use.
func svgBytes(content string, opts Options) ([]byte, error) {
	modules, err := Modules(content, opts)
	if err != nil {
		return nil, err
	}
	n := len(modules)
	if n == 0 {
		return nil, fmt.Errorf("empty symbol")
	}

	fg := defaultHex(opts.Foreground, "#000000")
	bg := defaultHex(opts.Background, "#ffffff")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`+"\n", n, n)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="%s"/>`+"\n", n, n, bg)
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="1" height="1" fill="%s"/>`+"\n", x, y, fg)
			}
		}
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// epsBytes emits a minimal EPS document, one rectfill per dark module.
func epsBytes(content string, opts Options) ([]byte, error) {
	modules, err := Modules(content, opts)
	if err != nil {
		return nil, err
	}
	n := len(modules)
	if n == 0 {
		return nil, fmt.Errorf("empty symbol")
	}

	fr, fg, fb, err := rgbFractions(defaultHex(opts.Foreground, "#000000"))
	if err != nil {
		return nil, err
	}
	br, bgc, bb, err := rgbFractions(defaultHex(opts.Background, "#ffffff"))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("%!PS-Adobe-3.0 EPSF-3.0\n")
	fmt.Fprintf(&buf, "%%%%BoundingBox: 0 0 %d %d\n", n, n)
	fmt.Fprintf(&buf, "%.4f %.4f %.4f setrgbcolor 0 0 %d %d rectfill\n", br, bgc, bb, n, n)
	fmt.Fprintf(&buf, "%.4f %.4f %.4f setrgbcolor\n", fr, fg, fb)
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				// EPS origin is bottom-left; flip the row index.
				fmt.Fprintf(&buf, "%d %d 1 1 rectfill\n", x, n-1-y)
			}
		}
	}
	buf.WriteString("showpage\n%%EOF\n")
	return buf.Bytes(), nil
}

func defaultHex(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func rgbFractions(hex string) (r, g, b float64, err error) {
	c, err := ParseHexColor(hex)
	if err != nil {
		return 0, 0, 0, err
	}
	cr, cg, cb, _ := c.RGBA()
	return float64(cr) / 0xffff, float64(cg) / 0xffff, float64(cb) / 0xffff, nil
}
