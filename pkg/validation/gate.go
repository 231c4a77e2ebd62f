package validation

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/oasgate/oasgate/pkg/httputil"
	"github.com/oasgate/oasgate/pkg/spec"
)

type ctxKey int

const (
	resultKey ctxKey = iota
	responseFlagKey
)

// responseFlag carries the per-request response-validation decision from
// the request stage out to the response stage, which wraps it.
type responseFlag struct {
	enabled bool
}

// ErrorWriter renders a validation failure as an HTTP response. err is a
// *RequestValidationError or a *ResponseValidationError.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorWriter writes the JSON array of error records with the
// status code the failure maps to: 400 or 401 for requests, 500 for
// responses.
func DefaultErrorWriter(w http.ResponseWriter, r *http.Request, err error) {
	switch verr := err.(type) {
	case *RequestValidationError:
		httputil.WriteJSON(w, verr.Status(), ExtractErrors(verr.Errors))
	case *ResponseValidationError:
		httputil.WriteJSON(w, verr.Status(), ExtractErrors(verr.Errors))
	default:
		httputil.WriteInternalError(w, "validation_error", err.Error())
	}
}

// Gate wires request and response validation into a handler chain.
// Validation is composed explicitly per route: wrap individual handlers
// with Requests, and mount Responses once, outermost, so it observes the
// final response after all other middleware.
type Gate struct {
	reg        *spec.Registry
	validator  *Validator
	log        *slog.Logger
	writeError ErrorWriter
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger overrides the registry's logger for gate logging.
func WithLogger(log *slog.Logger) GateOption {
	return func(g *Gate) { g.log = log }
}

// WithErrorWriter replaces how validation failures are rendered.
func WithErrorWriter(fn ErrorWriter) GateOption {
	return func(g *Gate) { g.writeError = fn }
}

// WithValidator replaces the validator, e.g. to plug in a different
// authentication function.
func WithValidator(v *Validator) GateOption {
	return func(g *Gate) { g.validator = v }
}

// NewGate creates a Gate over the registry's spec.
func NewGate(reg *spec.Registry, opts ...GateOption) *Gate {
	g := &Gate{
		reg:        reg,
		validator:  NewValidator(reg),
		log:        reg.Logger(),
		writeError: DefaultErrorWriter,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Requests wraps a handler with request validation. On failure the
// handler does not run and the client receives the JSON error payload.
// On success the validation result is attached to the request context;
// see Validated.
func (g *Gate) Requests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settings := g.reg.Settings()

		// Tell the response stage, if mounted, whether to validate.
		flag, _ := r.Context().Value(responseFlagKey).(*responseFlag)
		if flag != nil {
			flag.enabled = settings.ValidateResponse
		}

		if !settings.ValidateRequest {
			next.ServeHTTP(w, r)
			return
		}

		result := g.validator.ValidateRequest(r)
		if result.HasErrors() {
			// The gate's own error payload is not part of the contract
			// and must not be validated on the way out.
			if flag != nil {
				flag.enabled = false
			}
			verr := &RequestValidationError{Errors: result.Errors}
			for _, fe := range result.Errors {
				g.log.Warn("request validation failed",
					"path", r.URL.Path,
					"location", fe.Location,
					"field", fe.Field,
					"code", fe.Code,
					"message", fe.Message)
			}
			g.writeError(w, r, verr)
			return
		}

		ctx := context.WithValue(r.Context(), resultKey, result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Responses validates the final response against the spec. Mount it
// outermost so other response-transforming middleware run first. Only
// requests that passed through Requests with response validation enabled
// are checked; on failure the buffered response is discarded and replaced
// with a 500 JSON payload.
func (g *Gate) Responses(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flag := &responseFlag{}
		ctx := context.WithValue(r.Context(), responseFlagKey, flag)

		rec := newRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		if !flag.enabled {
			rec.flush()
			return
		}

		result := g.validator.ValidateResponse(r, rec.status, w.Header(), rec.body.Bytes())
		if result.HasErrors() {
			verr := &ResponseValidationError{Errors: result.Errors}
			for _, fe := range result.Errors {
				g.log.Error("response validation failed",
					"path", r.URL.Path,
					"status", rec.status,
					"field", fe.Field,
					"code", fe.Code,
					"message", fe.Message)
			}
			w.Header().Del("Content-Length")
			g.writeError(w, r, verr)
			return
		}
		rec.flush()
	})
}

// Validated returns the request validation result attached by Requests,
// or nil when the request was not validated.
func Validated(r *http.Request) *Result {
	res, _ := r.Context().Value(resultKey).(*Result)
	return res
}

// recorder buffers the response so the response stage can validate it
// before anything reaches the client. Headers pass through to the
// underlying writer; status and body are held back until flush.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	wrote  bool
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *recorder) WriteHeader(code int) {
	if !rec.wrote {
		rec.status = code
		rec.wrote = true
	}
}

func (rec *recorder) Write(b []byte) (int, error) {
	return rec.body.Write(b)
}

func (rec *recorder) flush() {
	rec.ResponseWriter.WriteHeader(rec.status)
	if rec.body.Len() > 0 {
		_, _ = rec.ResponseWriter.Write(rec.body.Bytes())
	}
}
