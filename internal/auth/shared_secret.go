package auth

import (
	"crypto/subtle"

	"qr-service/internal/domain"
)

// MsgUnauthorized é o corpo de erro devolvido para credenciais ausentes ou inválidas
const MsgUnauthorized = "Unauthorized. Invalid or missing authentication token."

// SharedSecret admite requisições que apresentam o token configurado
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret cria o autenticador por segredo compartilhado
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

// Authenticate compara o token em tempo constante. Token vazio ou segredo vazio nunca passam.
func (a *SharedSecret) Authenticate(creds domain.Credentials) error {
	if len(a.secret) == 0 || creds.Token == "" {
		return domain.NewUnauthenticated(MsgUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(creds.Token), a.secret) != 1 {
		return domain.NewUnauthenticated(MsgUnauthorized)
	}
	return nil
}

// Strategy identifica o autenticador nos logs
func (a *SharedSecret) Strategy() string {
	return "shared_secret"
}
