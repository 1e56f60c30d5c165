// Package qr renders URLs as QR code images.
package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	colorful "github.com/lucasb-eyer/go-colorful"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// ModuleSize is the width in pixels of one QR module.
	ModuleSize = 8
	// Border is the quiet zone in modules. go-qrcode always draws four.
	Border = 4

	DefaultFill = "#000000"
	DefaultBack = "#ffffff"
)

// Level is the error correction level used for every code (H, ~30%).
const Level = qrcode.Highest

var (
	Black = color.RGBA{A: 0xff}
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Encode renders url using the smallest symbol version that holds it.
func Encode(url string, fill, back color.Color) (*image.RGBA, error) {
	code, err := qrcode.New(url, Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.ForegroundColor = fill
	code.BackgroundColor = back

	// A negative size asks for ModuleSize pixels per module.
	src := code.Image(-ModuleSize)
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst, nil
}

// EncodePNG is Encode followed by PNG encoding.
func EncodePNG(url string, fill, back color.Color) ([]byte, error) {
	img, err := Encode(url, fill, back)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultPNG encodes url black on white, as registry cards are drawn.
func DefaultPNG(url string) ([]byte, error) {
	return EncodePNG(url, Black, White)
}

// ParseColor parses a color picker value such as "#1a2b3c" or "#abc".
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// NormalizeColor returns hex in lowercase "#rrggbb" form, or fallback when
// hex is empty.
func NormalizeColor(hex, fallback string) (string, error) {
	if hex == "" {
		return fallback, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c.Hex(), nil
}
