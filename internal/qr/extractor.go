package qr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"qr-service/internal/domain"
)

// Mensagens devolvidas ao cliente nos erros de parâmetro
const (
	MsgMissingData = "Missing required parameter: data"
	MsgEmptyData   = "Parameter data must not be empty"
	MsgInvalidECL  = "Invalid error correction level. Must be one of L, M, Q, H."
)

// MsgInvalidSize é a mensagem de tamanho fora da faixa aceita
var MsgInvalidSize = fmt.Sprintf("Invalid size. Must be between %d and %d.", domain.MinSize, domain.MaxSize)

// GenerateBody é o corpo JSON de POST /generate-qr
type GenerateBody struct {
	Data                 *string `json:"data"`
	Token                string  `json:"token"`
	ErrorCorrectionLevel string  `json:"errorCorrectionLevel"`
	DarkColor            string  `json:"darkColor"`
	LightColor           string  `json:"lightColor"`
	Width                *int    `json:"width"`
}

// FromBody converte o corpo JSON no QRRequest canônico, aplicando os padrões
func FromBody(body GenerateBody) (domain.QRRequest, error) {
	if body.Data == nil {
		return domain.QRRequest{}, domain.NewInvalidInput(domain.ReasonMissingField, MsgMissingData)
	}

	req := newRequest(*body.Data, body.ErrorCorrectionLevel, body.DarkColor, body.LightColor)
	req.Credential = body.Token
	if body.Width != nil {
		req.Size = *body.Width
	}
	return req, nil
}

// FromQuery converte a query string de GET /qr no QRRequest canônico
func FromQuery(values url.Values) (domain.QRRequest, error) {
	if !values.Has("data") {
		return domain.QRRequest{}, domain.NewInvalidInput(domain.ReasonMissingField, MsgMissingData)
	}

	req := newRequest(values.Get("data"), values.Get("ecl"), values.Get("dark"), values.Get("light"))

	if raw := strings.TrimSpace(values.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return domain.QRRequest{}, domain.NewInvalidInput(domain.ReasonSizeOutOfRange, MsgInvalidSize)
		}
		req.Size = size
	}
	return req, nil
}

func newRequest(content, ecl, dark, light string) domain.QRRequest {
	req := domain.QRRequest{
		Content:              content,
		ErrorCorrectionLevel: domain.ParseErrorCorrectionLevel(ecl),
		Size:                 domain.DefaultSize,
		DarkColor:            strings.TrimSpace(dark),
		LightColor:           strings.TrimSpace(light),
	}
	if req.DarkColor == "" {
		req.DarkColor = domain.DefaultDarkColor
	}
	if req.LightColor == "" {
		req.LightColor = domain.DefaultLightColor
	}
	return req
}
