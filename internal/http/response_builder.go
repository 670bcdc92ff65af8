// Package http provides the server-rendered web surface: login, the tab
// shell, HTMX partials per tab and the session-scoped CRUD routes.
//
// This file implements a small builder for HTMX responses, covering the
// HX-Trigger headers the partials listen on and consistent inline error
// formatting.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerAnalysisReady fires after a successful upload so every tab
// refetches its partial against the new analysis.
func (b *HTMXResponseBuilder) TriggerAnalysisReady() *HTMXResponseBuilder {
	return b.Trigger("analysis:ready", struct{}{})
}

// TriggerDebtsChanged fires after any debt edit so the summary re-renders.
func (b *HTMXResponseBuilder) TriggerDebtsChanged() *HTMXResponseBuilder {
	return b.Trigger("debts:changed", struct{}{})
}

// TriggerPortfolioChanged fires after investment or goal edits.
func (b *HTMXResponseBuilder) TriggerPortfolioChanged() *HTMXResponseBuilder {
	return b.Trigger("portfolio:changed", struct{}{})
}

// Redirect sets the HX-Redirect header for client-side navigation.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	b.headers["HX-Redirect"] = url
	return b
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// SetHeaders applies the built headers and triggers without committing a
// status or body. Handlers that render a template afterwards use this.
func (b *HTMXResponseBuilder) SetHeaders(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	b.SetHeaders(w)

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard inline error response. The message is
// HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// SessionExpiredResponse sends the user back to the login screen. HTMX
// follows the HX-Redirect header; plain requests get the 401 body.
func SessionExpiredResponse() *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "Session expired, please log in again").
		Redirect("/")
}
