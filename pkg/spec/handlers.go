package spec

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/oasgate/oasgate/pkg/httputil"
)

// DefaultUIVersion is the Swagger UI version the explorer pins when none
// is configured.
const DefaultUIVersion = "5.17.14"

var defaultExplorerTemplate = template.Must(template.New("explorer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>API Explorer</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@{{.UIVersion}}/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@{{.UIVersion}}/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: {{.SpecURL}},
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>
`))

// Mount registers the spec serving routes (and the explorer, if
// configured) on the given router. It is a no-op without a spec.
func (r *Registry) Mount(mux chi.Router) {
	if r.doc == nil {
		return
	}

	mux.Get(r.specRoute, r.specHandler)
	if r.dirRoute != "" {
		fs := http.StripPrefix(r.dirRoute+"/", http.FileServer(http.Dir(filepath.Dir(r.filepath))))
		mux.Handle(r.dirRoute+"/*", fs)
	}
	if r.explorer != nil {
		mux.Get(r.explorer.route, r.explorerHandler)
	}
}

func (r *Registry) specHandler(w http.ResponseWriter, req *http.Request) {
	ctype := contentTypeFor(r.filepath)

	if r.serveResolved {
		data, err := r.renderResolved()
		if err != nil {
			r.log.Error("render spec document", "error", err)
			httputil.WriteInternalError(w, "spec_render_failed", "unable to render spec document")
			return
		}
		w.Header().Set("Content-Type", ctype)
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Type", ctype)
	http.ServeFile(w, req, r.filepath)
}

func (r *Registry) explorerHandler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := r.explorer.tmpl.Execute(w, struct {
		UIVersion string
		SpecURL   string
	}{
		UIVersion: r.explorer.uiVersion,
		SpecURL:   r.specRoute,
	})
	if err != nil {
		r.log.Error("render explorer page", "error", err)
	}
}

// renderResolved marshals the parsed document in the registered file's
// native format, with all references already resolved by the loader.
func (r *Registry) renderResolved() ([]byte, error) {
	raw, err := r.doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if contentTypeFor(r.filepath) == "application/json" {
		return raw, nil
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

func contentTypeFor(path string) string {
	if filepath.Ext(path) == ".json" {
		return "application/json"
	}
	return "text/yaml"
}
