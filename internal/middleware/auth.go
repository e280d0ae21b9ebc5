package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"qr-service/internal/domain"
	"qr-service/internal/handler"
	"qr-service/internal/logger"
)

// tokenBody lê só o campo token do corpo JSON
type tokenBody struct {
	Token string `json:"token"`
}

// NewAuthMiddleware aplica o Authenticator; em caso de rejeição nenhum estágio seguinte roda
func NewAuthMiddleware(authenticator domain.Authenticator, responder *handler.ErrorResponder, log domain.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := ExtractCredentials(c)
		if err != nil {
			responder.Respond(c, err)
			return
		}

		if err := authenticator.Authenticate(creds); err != nil {
			log.WithContext(c.Request.Context()).Info("Authentication failed", map[string]interface{}{
				"strategy": authenticator.Strategy(),
				"token":    logger.MaskToken(creds.Token),
				"referer":  creds.Referer,
			})
			responder.Respond(c, err)
			return
		}

		c.Next()
	}
}

// ExtractCredentials reúne token e referer da requisição.
// Token: campo "token" do corpo JSON, depois Authorization: Bearer, depois X-API-Token.
// Só um corpo grande demais gera erro; JSON malformado apenas não fornece token.
func ExtractCredentials(c *gin.Context) (domain.Credentials, error) {
	creds := domain.Credentials{
		Referer: strings.TrimSpace(c.GetHeader("Referer")),
	}
	if creds.Referer == "" {
		creds.Referer = strings.TrimSpace(c.GetHeader("Origin"))
	}

	if hasBody(c.Request) {
		var body tokenBody
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return creds, err
			}
		}
		creds.Token = body.Token
	}

	if creds.Token == "" {
		creds.Token = headerToken(c)
	}

	return creds, nil
}

// headerToken lê Authorization: Bearer e, na falta dele, X-API-Token
func headerToken(c *gin.Context) string {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.GetHeader("X-API-Token"))
}

func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
