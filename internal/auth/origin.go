package auth

import (
	"strings"

	"qr-service/internal/domain"
)

// MsgForbidden é o corpo de erro devolvido para origens fora da allow-list
const MsgForbidden = "Access denied. This API can only be accessed from authorized domains."

// OriginAllowList admite requisições cujo Referer contém um dos domínios configurados
type OriginAllowList struct {
	domains []string
	logger  domain.Logger
}

// NewOriginAllowList cria o autenticador por origem; entradas vazias são descartadas
func NewOriginAllowList(domains []string, logger domain.Logger) *OriginAllowList {
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	return &OriginAllowList{domains: cleaned, logger: logger}
}

// Authenticate faz match por substring. Lista vazia admite tudo e avisa a cada requisição.
func (a *OriginAllowList) Authenticate(creds domain.Credentials) error {
	if len(a.domains) == 0 {
		if a.logger != nil {
			a.logger.Warn("Origin allow-list is empty, admitting request from any origin", map[string]interface{}{
				"referer": creds.Referer,
			})
		}
		return nil
	}

	if creds.Referer == "" {
		return domain.NewForbidden(MsgForbidden)
	}

	for _, d := range a.domains {
		if strings.Contains(creds.Referer, d) {
			return nil
		}
	}
	return domain.NewForbidden(MsgForbidden)
}

// Strategy identifica o autenticador nos logs
func (a *OriginAllowList) Strategy() string {
	return "origin_allow_list"
}

// Domains retorna a allow-list efetiva
func (a *OriginAllowList) Domains() []string {
	return append([]string(nil), a.domains...)
}
