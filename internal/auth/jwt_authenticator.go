package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTAuthenticator validates RS256 bearer tokens against a JWK set.
type JWTAuthenticator struct {
	keyFn func(t *jwt.Token) (any, error)
}

func NewJWTAuthenticatorWithKeyFn(keyFn func(t *jwt.Token) (any, error)) (*JWTAuthenticator, error) {
	return &JWTAuthenticator{keyFn: keyFn}, nil
}

func NewJWTAuthenticator(ctx context.Context, jwkCertURL string) (*JWTAuthenticator, error) {
	if jwkCertURL == "" {
		return nil, errors.New("jwk certificate url is required for jwt authentication")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwkCertURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get public keys: %w", err)
	}

	return &JWTAuthenticator{keyFn: k.Keyfunc}, nil
}

func (a *JWTAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}), jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	t, err := parser.Parse(token, a.keyFn)
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}

	if !t.Valid {
		return User{}, errors.New("failed to parse or validate token")
	}

	return parseClaims(t)
}

// parseClaims reads the user name from preferred_username, then sub.
func parseClaims(t *jwt.Token) (User, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse jwt token claims")
	}

	username, _ := claims["preferred_username"].(string)
	if username == "" {
		username, _ = claims["sub"].(string)
	}
	if username == "" {
		return User{}, errors.New("token carries no user name")
	}
	org, _ := claims["org_id"].(string)

	return User{Username: username, Organization: org}, nil
}

func (a *JWTAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		accessToken, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || accessToken == "" {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := a.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Debugw("rejected token", "path", r.URL.Path, "error", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
