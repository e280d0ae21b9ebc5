package qr

import (
	"fmt"
	"strings"

	"qr-service/internal/domain"
)

// SVGEncoder desenha a matriz de módulos da go-qrcode como SVG
type SVGEncoder struct {
	logger domain.Logger
}

// NewSVGEncoder cria o encoder SVG
func NewSVGEncoder(logger domain.Logger) *SVGEncoder {
	return &SVGEncoder{logger: logger}
}

// Encode gera o SVG com largura e altura Size
func (e *SVGEncoder) Encode(req domain.QRRequest) (*domain.Image, error) {
	code, err := newQRCode(req, e.logger)
	if err != nil {
		return nil, err
	}

	dark := hexString(colorOrDefault(req.DarkColor, defaultDark, "dark", nil))
	light := hexString(colorOrDefault(req.LightColor, defaultLight, "light", nil))

	bitmap := code.Bitmap()
	modules := len(bitmap)

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		req.Size, req.Size, modules, modules)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, modules, modules, light)
	fmt.Fprintf(&b, `<path fill="%s" d="`, dark)

	// uma linha horizontal por sequência de módulos escuros
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}

	b.WriteString(`"/></svg>`)

	return &domain.Image{Bytes: []byte(b.String()), ContentType: domain.ContentTypeSVG}, nil
}

// ContentType retorna image/svg+xml
func (e *SVGEncoder) ContentType() string {
	return domain.ContentTypeSVG
}
