package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/oasgate/oasgate/pkg/spec"
)

// maxBodySize is the largest request body the validator will buffer.
// Bigger bodies are rejected outright rather than truncated.
const maxBodySize = 10 << 20

// Validator validates requests and responses against a registered spec.
// It keeps no per-request state: everything derived from the incoming
// request, including its base URL, is scoped to the call, so a single
// Validator is safe for concurrent use.
type Validator struct {
	doc        *openapi3.T
	router     routers.Router
	formatters map[string]spec.FormatFunc
	auth       openapi3filter.AuthenticationFunc
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithAuthentication overrides how security schemes are checked. The
// default is CredentialsPresent.
func WithAuthentication(fn openapi3filter.AuthenticationFunc) ValidatorOption {
	return func(v *Validator) { v.auth = fn }
}

// NewValidator creates a Validator over the registry's spec.
func NewValidator(reg *spec.Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{
		doc:        reg.Doc(),
		router:     reg.Router(),
		formatters: reg.Formatters(),
		auth:       CredentialsPresent,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) options() *openapi3filter.Options {
	return &openapi3filter.Options{
		MultiError:            true,
		IncludeResponseStatus: true,
		AuthenticationFunc:    v.auth,
	}
}

// ValidateRequest validates an incoming request against the spec. The
// request body is buffered and restored so the handler can read it again.
func (v *Validator) ValidateRequest(r *http.Request) *Result {
	result := &Result{Valid: true}
	if v.doc == nil || v.router == nil {
		return result
	}

	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		result.AddError(&FieldError{
			Location: LocationPath,
			Code:     CodeNoRoute,
			Message:  fmt.Sprintf("no matching operation in spec: %s", err),
		})
		return result
	}

	var bodyBytes []byte
	if r.Body != nil && r.Body != http.NoBody {
		bodyBytes, err = io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
		if err != nil {
			result.AddError(&FieldError{
				Location: LocationBody,
				Code:     CodeReadError,
				Message:  fmt.Sprintf("read request body: %s", err),
			})
			return result
		}
		if len(bodyBytes) > maxBodySize {
			result.AddError(&FieldError{
				Location: LocationBody,
				Code:     CodeTooLarge,
				Message:  fmt.Sprintf("request body exceeds %d bytes", maxBodySize),
			})
			return result
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options:    v.options(),
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		collectErrors(err, result)
	}
	v.checkFormats(route, pathParams, r, result)

	// Restore the body for the handler.
	if len(bodyBytes) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	result.PathParams = pathParams
	result.Query = r.URL.Query()
	if len(bodyBytes) > 0 && isJSON(r.Header.Get("Content-Type")) {
		var body any
		if err := json.Unmarshal(bodyBytes, &body); err == nil {
			v.checkBodyFormats(requestBodySchema(route), body, nil, LocationBody, result)
			if result.Valid {
				result.Body = body
			}
		}
	}
	return result
}

// ValidateResponse validates an outgoing response against the spec.
func (v *Validator) ValidateResponse(r *http.Request, status int, header http.Header, body []byte) *Result {
	result := &Result{Valid: true}
	if v.doc == nil || v.router == nil {
		return result
	}

	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		result.AddError(&FieldError{
			Location: LocationResponse,
			Code:     CodeNoRoute,
			Message:  fmt.Sprintf("no matching operation in spec: %s", err),
		})
		return result
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options:    v.options(),
		},
		Status:  status,
		Header:  header,
		Options: v.options(),
	}
	if len(body) > 0 {
		input.SetBodyBytes(body)
	}

	if err := openapi3filter.ValidateResponse(r.Context(), input); err != nil {
		collectErrors(err, result)
		for _, fe := range result.Errors {
			if fe.Location == "" {
				fe.Location = LocationResponse
			}
		}
	}

	if len(body) > 0 && isJSON(header.Get("Content-Type")) {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			v.checkBodyFormats(responseBodySchema(route, status), decoded, nil, LocationResponse, result)
		}
	}
	return result
}

// checkFormats runs the registered string-format validators over the
// operation's parameters. kin-openapi handles structural validation; this
// pass covers custom formats the spec declares by name.
func (v *Validator) checkFormats(route *routers.Route, pathParams map[string]string, r *http.Request, result *Result) {
	if len(v.formatters) == 0 || route == nil || route.Operation == nil {
		return
	}

	params := make(openapi3.Parameters, 0, len(route.PathItem.Parameters)+len(route.Operation.Parameters))
	params = append(params, route.PathItem.Parameters...)
	params = append(params, route.Operation.Parameters...)

	for _, ref := range params {
		p := ref.Value
		if p == nil || p.Schema == nil || p.Schema.Value == nil {
			continue
		}
		format := p.Schema.Value.Format
		fn := v.formatters[format]
		if format == "" || fn == nil {
			continue
		}
		raw := paramValue(p, pathParams, r)
		if raw == "" {
			continue
		}
		if err := fn(raw); err != nil {
			result.AddError(&FieldError{
				Field:    p.Name,
				Location: locationOf(p.In),
				Code:     CodeFormat,
				Message:  fmt.Sprintf("%s: %s", p.Name, err),
			})
		}
	}
}

// checkBodyFormats walks a decoded JSON value alongside its schema and
// runs the registered format validators over every string field whose
// schema declares a registered format.
func (v *Validator) checkBodyFormats(ref *openapi3.SchemaRef, data any, parts []string, location string, result *Result) {
	if len(v.formatters) == 0 || ref == nil || ref.Value == nil {
		return
	}
	s := ref.Value

	switch value := data.(type) {
	case string:
		fn := v.formatters[s.Format]
		if s.Format == "" || fn == nil {
			return
		}
		if err := fn(value); err != nil {
			field := jsonPath(parts)
			msg := err.Error()
			if field != "" {
				msg = field + ": " + msg
			}
			result.AddError(&FieldError{
				Field:    field,
				Location: location,
				Code:     CodeFormat,
				Message:  msg,
			})
		}

	case map[string]any:
		for name, prop := range s.Properties {
			if nested, ok := value[name]; ok {
				v.checkBodyFormats(prop, nested, append(parts, name), location, result)
			}
		}

	case []any:
		if s.Items == nil {
			return
		}
		for i, item := range value {
			v.checkBodyFormats(s.Items, item, append(parts, strconv.Itoa(i)), location, result)
		}
	}
}

func requestBodySchema(route *routers.Route) *openapi3.SchemaRef {
	if route.Operation == nil || route.Operation.RequestBody == nil || route.Operation.RequestBody.Value == nil {
		return nil
	}
	mt := route.Operation.RequestBody.Value.Content.Get("application/json")
	if mt == nil {
		return nil
	}
	return mt.Schema
}

func responseBodySchema(route *routers.Route, status int) *openapi3.SchemaRef {
	if route.Operation == nil || route.Operation.Responses == nil {
		return nil
	}
	ref := route.Operation.Responses.Status(status)
	if ref == nil || ref.Value == nil {
		return nil
	}
	mt := ref.Value.Content.Get("application/json")
	if mt == nil {
		return nil
	}
	return mt.Schema
}

func paramValue(p *openapi3.Parameter, pathParams map[string]string, r *http.Request) string {
	switch p.In {
	case openapi3.ParameterInPath:
		return pathParams[p.Name]
	case openapi3.ParameterInQuery:
		return r.URL.Query().Get(p.Name)
	case openapi3.ParameterInHeader:
		return r.Header.Get(p.Name)
	case openapi3.ParameterInCookie:
		if c, err := r.Cookie(p.Name); err == nil {
			return c.Value
		}
	}
	return ""
}

func locationOf(in string) string {
	switch in {
	case openapi3.ParameterInPath:
		return LocationPath
	case openapi3.ParameterInQuery:
		return LocationQuery
	case openapi3.ParameterInHeader:
		return LocationHeader
	case openapi3.ParameterInCookie:
		return LocationCookie
	default:
		return in
	}
}

// collectErrors converts kin-openapi errors into FieldErrors.
func collectErrors(err error, result *Result) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case openapi3.MultiError:
		for _, sub := range e {
			collectErrors(sub, result)
		}

	case *openapi3filter.RequestError:
		base := FieldError{Code: CodeValidation, Message: e.Error()}
		switch {
		case e.Parameter != nil:
			base.Field = e.Parameter.Name
			base.Location = locationOf(e.Parameter.In)
		case e.RequestBody != nil:
			base.Location = LocationBody
		default:
			base.Location = "request"
		}
		addEach(e.Err, base, result)

	case *openapi3filter.ResponseError:
		addEach(e.Err, FieldError{Location: LocationResponse, Code: CodeValidation, Message: e.Error()}, result)

	case *openapi3filter.SecurityRequirementsError:
		if len(e.Errors) == 0 {
			result.AddError(&FieldError{Location: LocationSecurity, Code: CodeSecurity, Message: e.Error()})
			return
		}
		for _, sub := range e.Errors {
			result.AddError(&FieldError{Location: LocationSecurity, Code: CodeSecurity, Message: sub.Error()})
		}

	case *openapi3.SchemaError:
		fe := &FieldError{Location: LocationBody, Code: CodeSchema, Message: e.Reason}
		if field := jsonPath(e.JSONPointer()); field != "" {
			fe.Field = field
		}
		result.AddError(fe)

	default:
		result.AddError(&FieldError{Location: LocationBody, Code: CodeValidation, Message: err.Error()})
	}
}

// addEach records one FieldError per underlying failure, so a body with
// several schema violations yields several error records.
func addEach(err error, base FieldError, result *Result) {
	if err == nil {
		fe := base
		result.AddError(&fe)
		return
	}
	if multi, ok := err.(openapi3.MultiError); ok {
		for _, sub := range multi {
			addEach(sub, base, result)
		}
		return
	}

	fe := base
	applySchemaError(err, &fe)
	result.AddError(&fe)
}

// applySchemaError refines a request/response error with the underlying
// schema failure, when there is one.
func applySchemaError(err error, fe *FieldError) {
	if err == nil {
		return
	}
	fe.Message = err.Error()

	schemaErr, ok := err.(*openapi3.SchemaError)
	if !ok {
		return
	}

	fe.Code = CodeSchema
	fe.Message = schemaErr.Reason
	if field := jsonPath(schemaErr.JSONPointer()); field != "" {
		fe.Field = field
	}
}

// jsonPath converts a JSON pointer parts slice to a $.foo.bar[0] path.
func jsonPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("$")
	for _, part := range parts {
		if part == "" {
			continue
		}
		if isNumeric(part) {
			sb.WriteString("[")
			sb.WriteString(part)
			sb.WriteString("]")
		} else {
			sb.WriteString(".")
			sb.WriteString(part)
		}
	}
	if sb.String() == "$" {
		return ""
	}
	return sb.String()
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "json")
}
