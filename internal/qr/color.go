package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor interpreta #rgb, #rrggbb ou #rrggbbaa (o # é opcional)
func ParseColor(raw string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(raw), "#")

	switch len(hex) {
	case 3:
		hex = fmt.Sprintf("%c%c%c%c%c%cff", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", raw)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", raw, err)
	}

	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// hexString formata a cor para atributos SVG
func hexString(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
