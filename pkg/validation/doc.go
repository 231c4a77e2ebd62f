// Package validation wires OpenAPI request and response validation into a
// chi handler chain.
//
// The actual schema and parameter validation is delegated to kin-openapi;
// this package adapts requests and responses into its shape, decides when
// to validate, and translates structured failures into JSON error
// responses.
//
// # Usage
//
// Build a Gate from a spec.Registry and compose it explicitly per route:
//
//	g := validation.NewGate(reg)
//
//	r := chi.NewRouter()
//	r.Use(g.Responses) // outermost, observes the final response
//	r.Method("GET", "/widgets/{id}", g.Requests(http.HandlerFunc(getWidget)))
//
// Request validation runs before the handler; on failure the handler never
// runs and the client receives a JSON array of error records with status
// 400 (or 401 for security failures). Response validation runs after the
// whole chain and replaces contract-violating responses with a 500.
//
// Handlers read the validated inputs from the request context:
//
//	res := validation.Validated(r)
//	id := res.PathParams["id"]
//
// # Error payload
//
// Failures are rendered as a JSON array of {message, field, location}
// records. Deployments can replace the rendering with WithErrorWriter
// without touching the detection logic.
package validation
