package http

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"finsight/internal/core"
)

// templateFuncs exposes the shared display formatters to the templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rand":    core.FormatRand,
		"compact": core.FormatCompact,
		"months":  core.FormatMonths,
		"pct":     core.FormatPercent,
		"lower":   strings.ToLower,
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formField returns a sanitized form value.
func formField(r *http.Request, key string) string {
	return sanitizeInput(r.FormValue(key))
}

// formFloat parses a non-negative amount field. Returns ok=false for
// missing or malformed values so handlers can render a field error.
func formFloat(r *http.Request, key string) (float64, bool) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// formFloatDefault parses an optional amount field, falling back to def.
func formFloatDefault(r *http.Request, key string, def float64) float64 {
	if f, ok := formFloat(r, key); ok {
		return f
	}
	return def
}

// pathID parses the {id} path segment of a CRUD route.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// barWidth scales a value against a maximum into a 0-100 percent width for
// chart bars, keeping tiny non-zero values visible.
func barWidth(value, max float64) int {
	if max <= 0 || value <= 0 {
		return 0
	}
	w := int(value/max*100 + 0.5)
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}
