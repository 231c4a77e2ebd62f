package checks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oasgate/oasgate/pkg/spec"
)

// OperationViolation is one operation whose declared responses fall short
// of the required minimal set.
type OperationViolation struct {
	Path    string
	Method  string
	Missing []int
}

func (v OperationViolation) String() string {
	codes := make([]string, 0, len(v.Missing))
	for _, c := range v.Missing {
		codes = append(codes, strconv.Itoa(c))
	}
	return fmt.Sprintf("%s %s is missing responses %s", v.Method, v.Path, strings.Join(codes, ", "))
}

// MinimalResponsesError reports every operation missing required response
// codes. Violations are gathered across the whole spec before failing.
type MinimalResponsesError struct {
	Violations []OperationViolation
}

func (e *MinimalResponsesError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "minimal response validation failed: " + strings.Join(parts, "; ")
}

// MinimalResponses asserts every operation in the spec declares at least
// the minimal response codes from the settings. Operations with
// parameters additionally require the with-parameters set, unless an
// override exists for that exact (path, method) pair, in which case the
// override fully replaces both.
func MinimalResponses(reg *spec.Registry) error {
	if reg == nil || reg.Doc() == nil {
		if reg != nil {
			reg.Logger().Warn("no spec registered, skipping minimal response check")
		}
		return nil
	}
	settings := reg.Settings()

	paths := reg.Doc().Paths.Map()
	sortedPaths := make([]string, 0, len(paths))
	for path := range paths {
		sortedPaths = append(sortedPaths, path)
	}
	sort.Strings(sortedPaths)

	var violations []OperationViolation
	for _, path := range sortedPaths {
		item := paths[path]
		if item == nil {
			continue
		}
		operations := item.Operations()
		methods := make([]string, 0, len(operations))
		for method := range operations {
			methods = append(methods, method)
		}
		sort.Strings(methods)

		for _, method := range methods {
			op := operations[method]
			required := requiredCodes(settings, path, method, item, op)
			declared := declaredCodes(op)

			var missing []int
			for _, code := range required {
				if _, ok := declared[code]; !ok {
					missing = append(missing, code)
				}
			}
			if len(missing) > 0 {
				sort.Ints(missing)
				violations = append(violations, OperationViolation{
					Path:    path,
					Method:  method,
					Missing: missing,
				})
			}
		}
	}

	if len(violations) > 0 {
		return &MinimalResponsesError{Violations: violations}
	}
	return nil
}

// requiredCodes resolves the minimal set for one operation. An override
// replaces everything; otherwise parameterized operations get the
// with-parameters additions.
func requiredCodes(settings spec.Settings, path, method string, item *openapi3.PathItem, op *openapi3.Operation) []int {
	if byMethod, ok := settings.ResponseOverrides[path]; ok {
		if codes, ok := byMethod[strings.ToLower(method)]; ok {
			return codes
		}
	}

	required := append([]int(nil), settings.MinimalResponses...)
	if len(op.Parameters) > 0 || len(item.Parameters) > 0 {
		required = append(required, settings.MinimalResponsesWithParams...)
	}
	return required
}

func declaredCodes(op *openapi3.Operation) map[int]struct{} {
	declared := make(map[int]struct{})
	if op.Responses == nil {
		return declared
	}
	for code := range op.Responses.Map() {
		if n, err := strconv.Atoi(code); err == nil {
			declared[n] = struct{}{}
		}
	}
	return declared
}
