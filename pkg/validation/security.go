package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/golang-jwt/jwt/v5"
)

// CredentialsPresent is the default authentication function. It checks
// that the credentials a security scheme calls for are present on the
// request; it does not verify them. A failure surfaces as a security
// error, which the gate maps to 401.
func CredentialsPresent(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	scheme := input.SecurityScheme
	if scheme == nil {
		return nil
	}
	req := input.RequestValidationInput.Request

	switch scheme.Type {
	case "apiKey":
		switch scheme.In {
		case "header":
			if req.Header.Get(scheme.Name) == "" {
				return fmt.Errorf("missing required header %q", scheme.Name)
			}
		case "query":
			if req.URL.Query().Get(scheme.Name) == "" {
				return fmt.Errorf("missing required query parameter %q", scheme.Name)
			}
		case "cookie":
			if _, err := req.Cookie(scheme.Name); err != nil {
				return fmt.Errorf("missing required cookie %q", scheme.Name)
			}
		}

	case "http":
		auth := req.Header.Get("Authorization")
		if auth == "" {
			return fmt.Errorf("missing Authorization header")
		}
		switch strings.ToLower(scheme.Scheme) {
		case "bearer":
			if !strings.HasPrefix(auth, "Bearer ") {
				return fmt.Errorf("Authorization header is not a bearer token")
			}
		case "basic":
			if !strings.HasPrefix(auth, "Basic ") {
				return fmt.Errorf("Authorization header is not basic credentials")
			}
		}
	}
	return nil
}

// BearerJWT returns an authentication function that verifies bearer
// tokens as JWTs using keyfunc. Schemes other than http bearer fall back
// to CredentialsPresent.
func BearerJWT(keyfunc jwt.Keyfunc) openapi3filter.AuthenticationFunc {
	return func(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
		scheme := input.SecurityScheme
		if scheme == nil || scheme.Type != "http" || !strings.EqualFold(scheme.Scheme, "bearer") {
			return CredentialsPresent(ctx, input)
		}

		auth := input.RequestValidationInput.Request.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token == auth {
			return fmt.Errorf("missing bearer token")
		}
		if _, err := jwt.Parse(token, keyfunc); err != nil {
			return fmt.Errorf("invalid bearer token: %w", err)
		}
		return nil
	}
}
