package dto

import (
	"net/http"
	"strings"
)

// Codes produced by the HTTP layer itself. Domain errors keep their own code.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	"INVALID_INPUT":           http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	"ALREADY_EXISTS":          http.StatusConflict,
	"CONCURRENT_MODIFICATION": http.StatusConflict,
	"INVALID_STATE":           http.StatusUnprocessableEntity,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeTooLarge:           http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:        http.StatusServiceUnavailable,
	"PRINTING_UNAVAILABLE":    http.StatusServiceUnavailable,
	"ARCHIVE_UNAVAILABLE":     http.StatusServiceUnavailable,
}

// HTTPStatus maps an error code to its status. Unlisted *_NOT_FOUND codes
// are 404, other INVALID_* field codes are 400, and every remaining domain
// code is a business rule violation answered with 422.
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case code == "":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
