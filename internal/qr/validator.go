package qr

import (
	"qr-service/internal/domain"
)

// Validate checa o QRRequest na ordem conteúdo, nível de correção, tamanho.
// Cores não são validadas aqui; ver ParseColor.
func Validate(req domain.QRRequest) error {
	if req.Content == "" {
		return domain.NewInvalidInput(domain.ReasonEmptyContent, MsgEmptyData)
	}
	if !req.ErrorCorrectionLevel.IsValid() {
		return domain.NewInvalidInput(domain.ReasonInvalidECL, MsgInvalidECL)
	}
	if req.Size < domain.MinSize || req.Size > domain.MaxSize {
		return domain.NewInvalidInput(domain.ReasonSizeOutOfRange, MsgInvalidSize)
	}
	return nil
}
