// Package apierrors provides structured API error codes and responses.
// All codes are namespaced (e.g., "core:unauthorized", "report:export_failed").
package apierrors

import "net/http"

// Core error codes - registered automatically at init
const (
	// Authentication & Authorization
	CodeUnauthorized = "core:unauthorized"
	CodeForbidden    = "core:forbidden"
	CodeInvalidToken = "core:invalid_token"

	// Request errors
	CodeInvalidRequest   = "core:invalid_request"
	CodeValidationFailed = "core:validation_failed"
	CodeInvalidID        = "core:invalid_id"

	// Resource errors
	CodeNotFound = "core:not_found"

	// Server errors
	CodeInternalError      = "core:internal_error"
	CodeServiceUnavailable = "core:service_unavailable"
)

// Tracking and reporting error codes
const (
	CodeUnknownEventKind = "track:unknown_kind"
	CodeInvalidDateRange = "report:invalid_date_range"
	CodeExportFailed     = "report:export_failed"
)

var coreErrors = []ErrorCode{
	{Code: CodeUnauthorized, Message: "Authentication required", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeInvalidToken, Message: "Invalid or malformed token", HTTPStatus: http.StatusUnauthorized},

	{Code: CodeInvalidRequest, Message: "Invalid request body", HTTPStatus: http.StatusBadRequest},
	{Code: CodeValidationFailed, Message: "Request validation failed", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidID, Message: "Invalid ID format", HTTPStatus: http.StatusBadRequest},

	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},

	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
	{Code: CodeServiceUnavailable, Message: "Service temporarily unavailable", HTTPStatus: http.StatusServiceUnavailable},

	{Code: CodeUnknownEventKind, Message: "Unknown interaction kind", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidDateRange, Message: "Invalid date filter", HTTPStatus: http.StatusBadRequest},
	{Code: CodeExportFailed, Message: "Export generation failed", HTTPStatus: http.StatusInternalServerError},
}

func init() {
	for _, e := range coreErrors {
		Registry.Register(e)
	}
}
