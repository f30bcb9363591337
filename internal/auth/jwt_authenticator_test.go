package auth_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/auth"
)

var _ = Describe("jwt authentication", func() {
	Context("token validation", func() {
		It("successfully validates the token", func() {
			sToken, keyFn := signToken(jwt.MapClaims{"preferred_username": "batman", "org_id": "GothamCity"})
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.Username).To(Equal("batman"))
			Expect(user.Organization).To(Equal("GothamCity"))
		})

		It("falls back to the subject", func() {
			sToken, keyFn := signToken(jwt.MapClaims{"sub": "robin"})
			authenticator, _ := auth.NewJWTAuthenticatorWithKeyFn(keyFn)

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.Username).To(Equal("robin"))
			Expect(user.Organization).To(BeEmpty())
		})

		It("fails without a user name", func() {
			sToken, keyFn := signToken(jwt.MapClaims{"org_id": "GothamCity"})
			authenticator, _ := auth.NewJWTAuthenticatorWithKeyFn(keyFn)

			_, err := authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails with the wrong signing method", func() {
			sToken, keyFn := signECToken()
			authenticator, _ := auth.NewJWTAuthenticatorWithKeyFn(keyFn)

			_, err := authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails when the token is expired", func() {
			sToken, keyFn := signToken(jwt.MapClaims{
				"preferred_username": "batman",
				"exp":                jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			})
			authenticator, _ := auth.NewJWTAuthenticatorWithKeyFn(keyFn)

			_, err := authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("middleware", func() {
		var ts *httptest.Server

		BeforeEach(func() {
			sToken, keyFn := signToken(jwt.MapClaims{"preferred_username": "batman"})
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			ts = httptest.NewServer(authenticator.Authenticator(&echoUser{}))
			validToken = sToken
		})

		AfterEach(func() {
			ts.Close()
		})

		It("successfully authenticates", func() {
			resp := get(ts.URL+"/api/v1/jobs", fmt.Sprintf("Bearer %s", validToken))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("X-User")).To(Equal("batman"))
		})

		It("rejects a request without a token", func() {
			resp := get(ts.URL+"/api/v1/jobs", "")
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a token without the bearer prefix", func() {
			resp := get(ts.URL+"/api/v1/jobs", validToken)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("lets health checks through", func() {
			resp := get(ts.URL+"/health", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("none authenticator", func() {
		It("attaches the local user", func() {
			authenticator, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			ts := httptest.NewServer(authenticator.Authenticator(&echoUser{}))
			defer ts.Close()

			resp := get(ts.URL, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("X-User")).To(Equal("local"))
		})
	})
})

var validToken string

type echoUser struct{}

func (h *echoUser) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		w.Header().Set("X-User", u.Username)
	}
	w.WriteHeader(http.StatusOK)
}

func get(url, authorization string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	Expect(err).To(BeNil())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).To(BeNil())
	DeferCleanup(resp.Body.Close)
	return resp
}

func signToken(claims jwt.MapClaims) (string, func(t *jwt.Token) (any, error)) {
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = jwt.NewNumericDate(time.Now().Add(24 * time.Hour))
	}
	claims["iat"] = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	Expect(err).To(BeNil())

	ss, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	Expect(err).To(BeNil())

	return ss, func(t *jwt.Token) (any, error) {
		return privateKey.Public(), nil
	}
}

func signECToken() (string, func(t *jwt.Token) (any, error)) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).To(BeNil())

	claims := jwt.MapClaims{
		"preferred_username": "batman",
		"exp":                jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(privateKey)
	Expect(err).To(BeNil())

	return ss, func(t *jwt.Token) (any, error) {
		return privateKey.Public(), nil
	}
}
