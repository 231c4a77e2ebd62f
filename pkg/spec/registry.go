package spec

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/oasgate/oasgate/pkg/logging"
)

// Configuration errors. All of them are fatal at startup time.
var (
	ErrSpecAlreadyRegistered = errors.New("spec has already been registered; RegisterSpec and RegisterSpecDirectory may only be called once")
	ErrSpecFrozen            = errors.New("formatters must be registered before the spec")
	ErrNoSpec                = errors.New("no spec registered; call RegisterSpec or RegisterSpecDirectory first")
	ErrRouteIsFilename       = errors.New("route must not be a filename when registering a spec directory")
)

// Registry is the application-wide OpenAPI configuration bag. It is
// constructed once at startup and never mutated afterwards.
type Registry struct {
	settings   Settings
	log        *slog.Logger
	formatters map[string]FormatFunc

	doc           *openapi3.T
	router        routers.Router
	filepath      string
	specRoute     string
	dirRoute      string // non-empty when a spec directory is registered
	serveResolved bool

	explorer *explorerConfig
}

type explorerConfig struct {
	route     string
	uiVersion string
	tmpl      *template.Template
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithSettings sets the validation settings.
func WithSettings(s Settings) Option {
	return func(r *Registry) { r.settings = s }
}

// WithLogger sets the logger used by the registry and the startup checks.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// New creates an empty Registry with default settings and the built-in
// formatters. Register a spec before mounting routes.
func New(opts ...Option) *Registry {
	r := &Registry{
		settings:   DefaultSettings(),
		log:        logging.Nop(),
		formatters: builtinFormatters(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddFormatter registers a named string-format validator, used for
// parameters whose schema declares that format. Formatters are frozen
// once a spec is registered.
func (r *Registry) AddFormatter(name string, fn FormatFunc) error {
	if r.doc != nil {
		return ErrSpecFrozen
	}
	r.formatters[name] = fn
	return nil
}

// SpecOption configures how a spec is registered and served.
type SpecOption func(*specConfig)

type specConfig struct {
	route         string
	serveResolved bool
}

// WithRoute sets the URL path the spec document is served at.
func WithRoute(route string) SpecOption {
	return func(c *specConfig) { c.route = route }
}

// ServeResolved serves the parsed, reference-resolved document instead of
// the raw file. Useful for multi-file specs whose consumers cannot follow
// relative references.
func ServeResolved() SpecOption {
	return func(c *specConfig) { c.serveResolved = true }
}

// RegisterSpec loads, validates and registers a single OpenAPI 3.0 file.
// The document is served at the configured route (default /openapi.yaml).
// A second registration fails with ErrSpecAlreadyRegistered and leaves the
// first one untouched.
func (r *Registry) RegisterSpec(path string, opts ...SpecOption) error {
	if r.doc != nil {
		return ErrSpecAlreadyRegistered
	}

	cfg := specConfig{route: "/openapi.yaml"}
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, router, err := load(path)
	if err != nil {
		return err
	}

	r.doc = doc
	r.router = router
	r.filepath = path
	r.specRoute = cfg.route
	r.serveResolved = cfg.serveResolved
	r.log.Info("openapi spec registered", "path", path, "route", cfg.route)
	return nil
}

// RegisterSpecDirectory registers a multi-file spec rooted at path. The
// root document is served at <route>/<filename> and its sibling files as
// static files under <route>, so relative references keep working. The
// route itself may not look like a filename.
func (r *Registry) RegisterSpecDirectory(path string, opts ...SpecOption) error {
	if r.doc != nil {
		return ErrSpecAlreadyRegistered
	}

	cfg := specConfig{route: "/spec"}
	for _, opt := range opts {
		opt(&cfg)
	}

	route := strings.TrimSuffix(cfg.route, "/")
	switch filepath.Ext(route) {
	case ".yaml", ".yml", ".json":
		return ErrRouteIsFilename
	}

	doc, router, err := load(path)
	if err != nil {
		return err
	}

	r.doc = doc
	r.router = router
	r.filepath = path
	r.dirRoute = route
	r.specRoute = route + "/" + filepath.Base(path)
	r.serveResolved = cfg.serveResolved
	r.log.Info("openapi spec directory registered", "path", path, "route", route)
	return nil
}

func load(path string) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load spec %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("invalid spec %s: %w", path, err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("build spec router: %w", err)
	}
	return doc, router, nil
}

// ExplorerOption configures the explorer page.
type ExplorerOption func(*explorerConfig) error

// WithExplorerRoute sets the URL path the explorer page is served at.
func WithExplorerRoute(route string) ExplorerOption {
	return func(e *explorerConfig) error {
		e.route = route
		return nil
	}
}

// WithUIVersion pins the Swagger UI asset version used by the explorer.
func WithUIVersion(version string) ExplorerOption {
	return func(e *explorerConfig) error {
		e.uiVersion = version
		return nil
	}
}

// WithExplorerTemplate replaces the explorer HTML template. The template
// receives UIVersion and SpecURL fields.
func WithExplorerTemplate(tmpl string) ExplorerOption {
	return func(e *explorerConfig) error {
		parsed, err := template.New("explorer").Parse(tmpl)
		if err != nil {
			return fmt.Errorf("parse explorer template: %w", err)
		}
		e.tmpl = parsed
		return nil
	}
}

// AddExplorer registers the HTML explorer page for the spec (default
// route /docs/). It requires a registered spec.
func (r *Registry) AddExplorer(opts ...ExplorerOption) error {
	if r.doc == nil {
		return ErrNoSpec
	}

	e := &explorerConfig{
		route:     "/docs/",
		uiVersion: DefaultUIVersion,
		tmpl:      defaultExplorerTemplate,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}
	r.explorer = e
	return nil
}

// Doc returns the parsed spec document, or nil if none is registered.
func (r *Registry) Doc() *openapi3.T {
	return r.doc
}

// Router returns the spec router used to match requests to operations.
func (r *Registry) Router() routers.Router {
	return r.router
}

// Settings returns the validation settings.
func (r *Registry) Settings() Settings {
	return r.settings
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *slog.Logger {
	return r.log
}

// Formatters returns the registered string-format validators. The map is
// frozen once a spec is registered and must not be mutated by callers.
func (r *Registry) Formatters() map[string]FormatFunc {
	return r.formatters
}

// SpecRoute returns the URL path the spec document is served at.
func (r *Registry) SpecRoute() string {
	return r.specRoute
}
