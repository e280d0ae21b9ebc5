package qr

import (
	"fmt"
	"image/color"

	"github.com/skip2/go-qrcode"

	"qr-service/internal/domain"
)

var defaultDark = color.RGBA{A: 0xff}
var defaultLight = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// PNGEncoder gera QR codes PNG com github.com/skip2/go-qrcode
type PNGEncoder struct {
	logger domain.Logger
}

// NewPNGEncoder cria o encoder PNG
func NewPNGEncoder(logger domain.Logger) *PNGEncoder {
	return &PNGEncoder{logger: logger}
}

// Encode gera o PNG com lado Size px. Uma única tentativa, sem retry.
func (e *PNGEncoder) Encode(req domain.QRRequest) (*domain.Image, error) {
	code, err := newQRCode(req, e.logger)
	if err != nil {
		return nil, err
	}

	png, err := code.PNG(req.Size)
	if err != nil {
		return nil, domain.NewEncodingFailure(err)
	}

	return &domain.Image{Bytes: png, ContentType: domain.ContentTypePNG}, nil
}

// ContentType retorna image/png
func (e *PNGEncoder) ContentType() string {
	return domain.ContentTypePNG
}

func newQRCode(req domain.QRRequest, logger domain.Logger) (*qrcode.QRCode, error) {
	level, err := recoveryLevel(req.ErrorCorrectionLevel)
	if err != nil {
		return nil, domain.NewEncodingFailure(err)
	}

	code, err := qrcode.New(req.Content, level)
	if err != nil {
		return nil, domain.NewEncodingFailure(err)
	}

	code.ForegroundColor = colorOrDefault(req.DarkColor, defaultDark, "dark", logger)
	code.BackgroundColor = colorOrDefault(req.LightColor, defaultLight, "light", logger)
	return code, nil
}

// recoveryLevel mapeia L/M/Q/H para os níveis da go-qrcode
func recoveryLevel(level domain.ErrorCorrectionLevel) (qrcode.RecoveryLevel, error) {
	switch level {
	case domain.ECLLow:
		return qrcode.Low, nil
	case domain.ECLMedium:
		return qrcode.Medium, nil
	case domain.ECLQuartile:
		return qrcode.High, nil
	case domain.ECLHigh:
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unsupported error correction level %q", level)
	}
}

// colorOrDefault degrada cores malformadas para o padrão
func colorOrDefault(raw string, fallback color.RGBA, which string, logger domain.Logger) color.RGBA {
	c, err := ParseColor(raw)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid color, using default", map[string]interface{}{
				"color": which,
				"value": raw,
			})
		}
		return fallback
	}
	return c
}
