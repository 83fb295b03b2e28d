package http

import (
	"net/http"
	"strings"
)

// sanitizeInput removes control characters other than tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseBody reads the request body, writing a 422 and returning false on
// failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		FromError(r, err).Write(w)
		return nil, false
	}
	return p, true
}

// boundedInt clamps a query-supplied count to [1, max].
func boundedInt(n, def, max int) int {
	if n <= 0 {
		return def
	}
	return min(n, max)
}

// pathID returns the {id} wildcard of the route.
func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
