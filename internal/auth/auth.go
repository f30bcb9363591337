package auth

import (
	"context"
	"net/http"

	"github.com/recruitly/screening-engine/internal/config"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	JWTAuthentication  string = "jwt"
	NoneAuthentication string = "none"
)

func NewAuthenticator(authConfig *config.AuthConfig) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.Type)

	switch authConfig.Type {
	case JWTAuthentication:
		return NewJWTAuthenticator(context.Background(), authConfig.JwkCertURL)
	default:
		return NewNoneAuthenticator()
	}
}

// isPublic lists the routes served without credentials.
func isPublic(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == "/health"
}
