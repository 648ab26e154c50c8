// Package http serves the lifedash JSON API.
//
// This file holds the response side: the JSON envelope every handler
// writes and the mapping from domain errors to status codes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifedash/internal/core"
	applog "lifedash/internal/log"
	"lifedash/internal/middleware/trace"
)

// Envelope wraps every successful response. Notices carries the non-fatal
// problems met while building Data.
type Envelope struct {
	Data    any           `json:"data"`
	Notices []core.Notice `json:"notices,omitempty"`
}

// ErrorBody is written for failed requests.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps the domain error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrExternalUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, notices []core.Notice) {
	writeJSON(w, status, Envelope{Data: data, Notices: notices})
}

// writeError answers with the mapped status. Server-side failures are
// logged with the error; their message is replaced for the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := StatusFor(err)
	msg := err.Error()
	logger := applog.FromContext(ctx)
	fields := applog.NewFields().
		WithErrorType(errorType(err)).
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")

	switch {
	case status == http.StatusInternalServerError:
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err,
			logger.Component(), operationFor(r), fields)
		msg = "internal error"
	case status == http.StatusServiceUnavailable:
		logger.WarnContext(ctx, "Dependency unavailable",
			fields.WithError(err).WithOperation(operationFor(r)).ToSlice()...)
	default:
		logger.DebugContext(ctx, "Request rejected",
			fields.WithError(err).WithOperation(operationFor(r)).ToSlice()...)
	}
	writeJSON(w, status, ErrorBody{Error: msg, RequestID: trace.GetRequestID(ctx)})
}

// errorType names the log category of err, following StatusFor.
func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return applog.ErrorTypeValidation
	case errors.Is(err, core.ErrInvalidState):
		return applog.ErrorTypeConflict
	case errors.Is(err, core.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.Is(err, core.ErrExternalUnavailable):
		return applog.ErrorTypeNetwork
	default:
		return applog.ErrorTypeInternal
	}
}

// operationFor derives the log operation from the request method. A GET
// naming a document by id is a read, any other GET a list.
func operationFor(r *http.Request) string {
	switch r.Method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	}
	if chi.URLParam(r, "id") != "" {
		return applog.OpRead
	}
	return applog.OpList
}

// created answers 201 with the new document's id and logs the document.
// attrs are extra key/value pairs for the log line.
func (s *Server) created(w http.ResponseWriter, r *http.Request, component, collection, id string, attrs ...any) {
	s.events.LogDocumentCreated(r.Context(), component, collection, id, attrs...)
	writeData(w, http.StatusCreated, map[string]string{"id": id}, nil)
}
