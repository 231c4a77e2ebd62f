package spec

import (
	"os"
	"strconv"
	"strings"
)

// Settings holds the per-application validation switches and the minimal
// response codes enforced by the startup checks. The zero value disables
// everything; use DefaultSettings as a starting point.
type Settings struct {
	// ValidateRequest enables request validation in the gate.
	ValidateRequest bool

	// ValidateResponse enables validation of final responses.
	ValidateResponse bool

	// ValidateEndpoints enables the startup endpoint coverage check.
	ValidateEndpoints bool

	// MinimalResponses are the response codes every operation must declare.
	MinimalResponses []int

	// MinimalResponsesWithParams are additionally required for operations
	// that declare any parameters.
	MinimalResponsesWithParams []int

	// ResponseOverrides replaces MinimalResponses (and the parameter
	// additions) for specific operations. Keyed by spec path, then
	// lowercase HTTP method.
	ResponseOverrides map[string]map[string][]int
}

// DefaultSettings returns the default configuration: all validation on,
// operations must declare 200, 400 and 500, plus 404 when parameterized.
func DefaultSettings() Settings {
	return Settings{
		ValidateRequest:            true,
		ValidateResponse:           true,
		ValidateEndpoints:          true,
		MinimalResponses:           []int{200, 400, 500},
		MinimalResponsesWithParams: []int{404},
	}
}

// SettingsFromEnv builds Settings from environment variables, starting
// from the defaults:
//
//	OASGATE_VALIDATE_REQUEST=false    disable request validation
//	OASGATE_VALIDATE_RESPONSE=false   disable response validation
//	OASGATE_VALIDATE_ENDPOINTS=false  disable the endpoint coverage check
//	OASGATE_MINIMAL_RESPONSES=200,400,500
//	OASGATE_MINIMAL_RESPONSES_WITH_PARAMS=404
//
// Per-operation overrides have no environment form; set
// Settings.ResponseOverrides directly.
func SettingsFromEnv() Settings {
	s := DefaultSettings()

	s.ValidateRequest = envBool("OASGATE_VALIDATE_REQUEST", s.ValidateRequest)
	s.ValidateResponse = envBool("OASGATE_VALIDATE_RESPONSE", s.ValidateResponse)
	s.ValidateEndpoints = envBool("OASGATE_VALIDATE_ENDPOINTS", s.ValidateEndpoints)

	if v := os.Getenv("OASGATE_MINIMAL_RESPONSES"); v != "" {
		s.MinimalResponses = ParseCodes(v)
	}
	if v := os.Getenv("OASGATE_MINIMAL_RESPONSES_WITH_PARAMS"); v != "" {
		s.MinimalResponsesWithParams = ParseCodes(v)
	}

	return s
}

// ParseCodes parses a comma-separated list of status codes, ignoring
// anything that is not a number.
func ParseCodes(s string) []int {
	var codes []int
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			codes = append(codes, n)
		}
	}
	return codes
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
