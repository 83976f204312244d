package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool              `json:"success"`
	Code    usecase.ErrorCode `json:"code"`
	Message string            `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.CodeInvalidInput:
		return http.StatusBadRequest
	case usecase.CodeRateLimited:
		return http.StatusTooManyRequests
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeConflictingWrite:
		return http.StatusConflict
	case usecase.CodeDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse never exposes wrapped internals; technical errors
// carry a caller-safe message of their own.
func writeErrorResponse(w http.ResponseWriter, err error) {
	code := usecase.CodeOf(err)
	writeJSON(w, statusFor(code), errorResponse{
		Success: false,
		Code:    code,
		Message: usecase.PublicMessage(err),
	})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Success: false,
		Code:    usecase.CodeInvalidInput,
		Message: msg,
	})
}
