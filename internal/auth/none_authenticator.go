package auth

import (
	"net/http"
)

// NoneAuthenticator attaches a fixed local user to every request.
type NoneAuthenticator struct {
	user User
}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{user: User{Username: "local", Organization: "internal"}}, nil
}

func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewUserContext(r.Context(), n.user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
