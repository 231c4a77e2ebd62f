package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Machine-readable error codes.
const (
	CodeSchema     = "schema"
	CodeSecurity   = "security"
	CodeNoRoute    = "no_route"
	CodeFormat     = "format"
	CodeReadError  = "read_error"
	CodeTooLarge   = "body_too_large"
	CodeValidation = "openapi_validation"
)

// Error locations.
const (
	LocationPath     = "path"
	LocationQuery    = "query"
	LocationHeader   = "header"
	LocationCookie   = "cookie"
	LocationBody     = "body"
	LocationSecurity = "security"
	LocationResponse = "response"
)

// FieldError is one structured validation error.
type FieldError struct {
	// Field is the parameter name or body path that failed.
	Field string `json:"field,omitempty"`

	// Location indicates where the failure is: path, query, header,
	// cookie, body, security or response.
	Location string `json:"location"`

	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Location, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// IsSecurity reports whether the error is a security scheme failure.
func (e *FieldError) IsSecurity() bool {
	return e.Code == CodeSecurity
}

// Result is the outcome of validating one request or response. On success
// it carries the matched operation's parsed inputs for the handler.
type Result struct {
	// Valid is true when validation passed.
	Valid bool

	// Errors holds the validation errors when Valid is false.
	Errors []*FieldError

	// PathParams holds the raw path parameter values keyed by name.
	PathParams map[string]string

	// Query holds the parsed query string.
	Query url.Values

	// Body holds the decoded JSON request body, when one was sent.
	Body any
}

// AddError records a validation error on the result.
func (r *Result) AddError(err *FieldError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// HasErrors reports whether any validation error was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// RequestValidationError reports that an incoming request violated the
// spec. The handler never ran.
type RequestValidationError struct {
	Errors []*FieldError
}

func (e *RequestValidationError) Error() string {
	return "request validation failed: " + summarize(e.Errors)
}

// Status returns 401 when any of the failures is a security failure,
// 413 when the request body was too large, otherwise 400.
func (e *RequestValidationError) Status() int {
	for _, fe := range e.Errors {
		if fe.IsSecurity() {
			return http.StatusUnauthorized
		}
	}
	for _, fe := range e.Errors {
		if fe.Code == CodeTooLarge {
			return http.StatusRequestEntityTooLarge
		}
	}
	return http.StatusBadRequest
}

// ResponseValidationError reports that the application produced a
// response violating its own contract. Always a server fault.
type ResponseValidationError struct {
	Errors []*FieldError
}

func (e *ResponseValidationError) Error() string {
	return "response validation failed: " + summarize(e.Errors)
}

// Status returns 500 unconditionally.
func (e *ResponseValidationError) Status() int {
	return http.StatusInternalServerError
}

// ErrorRecord is one entry of the JSON error payload sent to clients.
type ErrorRecord struct {
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Location string `json:"location,omitempty"`
}

// ExtractErrors translates FieldErrors into the default payload shape,
// one record per error.
func ExtractErrors(errs []*FieldError) []ErrorRecord {
	records := make([]ErrorRecord, 0, len(errs))
	for _, fe := range errs {
		records = append(records, ErrorRecord{
			Message:  fe.Message,
			Field:    fe.Field,
			Location: fe.Location,
		})
	}
	return records
}

func summarize(errs []*FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}
