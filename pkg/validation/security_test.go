package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/golang-jwt/jwt/v5"
)

func authInput(scheme *openapi3.SecurityScheme, req *http.Request) *openapi3filter.AuthenticationInput {
	return &openapi3filter.AuthenticationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{Request: req},
		SecurityScheme:         scheme,
	}
}

func TestCredentialsPresent(t *testing.T) {
	apiKeyHeader := &openapi3.SecurityScheme{Type: "apiKey", In: "header", Name: "X-API-Key"}
	apiKeyQuery := &openapi3.SecurityScheme{Type: "apiKey", In: "query", Name: "key"}
	apiKeyCookie := &openapi3.SecurityScheme{Type: "apiKey", In: "cookie", Name: "session"}
	httpBearer := &openapi3.SecurityScheme{Type: "http", Scheme: "bearer"}
	httpBasic := &openapi3.SecurityScheme{Type: "http", Scheme: "basic"}

	tests := []struct {
		name      string
		scheme    *openapi3.SecurityScheme
		prepare   func(*http.Request)
		expectErr bool
	}{
		{
			name:      "api key header present",
			scheme:    apiKeyHeader,
			prepare:   func(r *http.Request) { r.Header.Set("X-API-Key", "abc") },
			expectErr: false,
		},
		{
			name:      "api key header missing",
			scheme:    apiKeyHeader,
			prepare:   func(r *http.Request) {},
			expectErr: true,
		},
		{
			name:      "api key query present",
			scheme:    apiKeyQuery,
			prepare:   func(r *http.Request) { r.URL.RawQuery = "key=abc" },
			expectErr: false,
		},
		{
			name:      "api key query missing",
			scheme:    apiKeyQuery,
			prepare:   func(r *http.Request) {},
			expectErr: true,
		},
		{
			name:      "api key cookie present",
			scheme:    apiKeyCookie,
			prepare:   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "abc"}) },
			expectErr: false,
		},
		{
			name:      "api key cookie missing",
			scheme:    apiKeyCookie,
			prepare:   func(r *http.Request) {},
			expectErr: true,
		},
		{
			name:      "bearer token present",
			scheme:    httpBearer,
			prepare:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") },
			expectErr: false,
		},
		{
			name:      "bearer token missing",
			scheme:    httpBearer,
			prepare:   func(r *http.Request) {},
			expectErr: true,
		},
		{
			name:      "bearer header with wrong scheme",
			scheme:    httpBearer,
			prepare:   func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			expectErr: true,
		},
		{
			name:      "basic credentials present",
			scheme:    httpBasic,
			prepare:   func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)

			err := CredentialsPresent(context.Background(), authInput(tt.scheme, req))
			if (err != nil) != tt.expectErr {
				t.Errorf("err = %v, expectErr = %v", err, tt.expectErr)
			}
		})
	}
}

func TestBearerJWT(t *testing.T) {
	key := []byte("test-signing-key")
	keyfunc := func(*jwt.Token) (any, error) { return key, nil }
	auth := BearerJWT(keyfunc)
	bearer := &openapi3.SecurityScheme{Type: "http", Scheme: "bearer"}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "widget-admin"}).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		if err := auth(context.Background(), authInput(bearer, req)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		if err := auth(context.Background(), authInput(bearer, req)); err == nil {
			t.Error("expected error for a malformed token")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		otherSigned, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other-key"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+otherSigned)
		if err := auth(context.Background(), authInput(bearer, req)); err == nil {
			t.Error("expected error for a token signed with the wrong key")
		}
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if err := auth(context.Background(), authInput(bearer, req)); err == nil {
			t.Error("expected error for a missing token")
		}
	})

	t.Run("non-bearer scheme falls back to presence check", func(t *testing.T) {
		apiKey := &openapi3.SecurityScheme{Type: "apiKey", In: "header", Name: "X-API-Key"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "abc")
		if err := auth(context.Background(), authInput(apiKey, req)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
