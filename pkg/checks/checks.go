package checks

import (
	"errors"

	"github.com/go-chi/chi/v5"

	"github.com/oasgate/oasgate/pkg/spec"
)

// Startup runs every startup consistency check against the registered
// spec and routes. Failures from both checks are joined so a single run
// reports everything.
func Startup(reg *spec.Registry, routes chi.Routes) error {
	return errors.Join(
		Endpoints(reg, routes),
		MinimalResponses(reg),
	)
}
