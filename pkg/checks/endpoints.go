package checks

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/oasgate/oasgate/pkg/spec"
)

// MissingEndpointsError reports spec paths that have no registered route.
type MissingEndpointsError struct {
	Missing []string
}

func (e *MissingEndpointsError) Error() string {
	return fmt.Sprintf("unable to find routes for spec paths: %s", strings.Join(e.Missing, ", "))
}

// Endpoints asserts that every path in the registered spec corresponds to
// a registered route, after stripping any path prefixes declared by the
// spec's server entries. All missing paths are reported in one error.
func Endpoints(reg *spec.Registry, routes chi.Routes) error {
	if reg == nil || reg.Doc() == nil {
		if reg != nil {
			reg.Logger().Warn("no spec registered, skipping endpoint check")
		}
		return nil
	}
	if !reg.Settings().ValidateEndpoints {
		reg.Logger().Info("endpoint validation is disabled")
		return nil
	}

	prefixes := serverPrefixes(reg.Doc().Servers)

	registered := make(map[string]struct{})
	_ = chi.Walk(routes, func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		registered[normalizePath(stripPrefixes(route, prefixes))] = struct{}{}
		return nil
	})

	var missing []string
	for path := range reg.Doc().Paths.Map() {
		if _, ok := registered[normalizePath(path)]; !ok {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingEndpointsError{Missing: missing}
	}
	return nil
}

// serverPrefixes collects the path components of the spec's server URLs.
// A bare root does not count as a prefix.
func serverPrefixes(servers openapi3.Servers) []string {
	var prefixes []string
	for _, s := range servers {
		if s == nil {
			continue
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			continue
		}
		if p := strings.TrimSuffix(u.Path, "/"); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// stripPrefixes removes a leading server prefix from a route path. The
// match is anchored at the start of the path, so a prefix string that
// happens to occur mid-path is left alone.
func stripPrefixes(path string, prefixes []string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			path = path[len(prefix):]
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// normalizePath makes spec paths and chi route patterns comparable: one
// leading slash, no trailing slash, no chi mount wildcard.
func normalizePath(path string) string {
	path = strings.TrimSuffix(path, "/*")
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}
