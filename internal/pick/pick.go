// Package pick evaluates the `pick` path expression embedded in a request
// against the upstream API's JSON response body, producing the scalar (or
// structure) the orchestrator reports on chain.
//
// The dialect is PaesslerAG/jsonpath: a bare dotted path (`data.value`) is
// normalised to a `$.`-prefixed JSONPath expression before evaluation. The
// literal `.` (and the empty expression) short-circuit to the whole document.
package pick

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Apply evaluates expr against the JSON document body and serialises the
// result to a string. The empty expression and "." are equivalent and always
// succeed, returning the document unchanged (re-serialised).
func Apply(body string, expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "." {
		return normalise(body)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "", fmt.Errorf("pick: response body is not valid JSON: %w", err)
	}

	value, err := jsonpath.Get(toJSONPath(expr), doc)
	if err != nil {
		return "", fmt.Errorf("pick: path %q did not resolve: %w", expr, err)
	}

	return serialise(value)
}

// toJSONPath normalises a bare dotted path into a `$.`-prefixed JSONPath
// expression. Expressions already starting with `$` are passed through.
func toJSONPath(expr string) string {
	if strings.HasPrefix(expr, "$") {
		return expr
	}
	if strings.HasPrefix(expr, ".") {
		return "$" + expr
	}
	return "$." + expr
}

// normalise re-serialises body through the standard encoder so callers get
// deterministic formatting for the whole-document case.
func normalise(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		// Not JSON at all: pass the raw body through verbatim.
		return body, nil
	}
	return serialise(doc)
}

func serialise(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("pick: could not serialise result: %w", err)
	}
	return string(encoded), nil
}
