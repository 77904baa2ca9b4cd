package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/isnippet/internal/apperr"
	"github.com/starford/isnippet/internal/vault"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// malformedBody is the Result sent when the request body is not valid JSON.
func malformedBody() vault.Result {
	return vault.Result{Code: apperr.CodeUnknown, Error: apperr.CodeUnknown.Message()}
}

// writeResult renders a Result with the status matching its code.
func writeResult(w http.ResponseWriter, okStatus int, res vault.Result) {
	status := okStatus
	if !res.Success {
		status = statusFor(res.Code)
	}
	writeJSON(w, status, res)
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeVaultAlreadyExists:
		return http.StatusConflict
	case apperr.CodeVaultPathNotExist:
		return http.StatusNotFound
	case apperr.CodeInvalidVault:
		return http.StatusUnprocessableEntity
	case apperr.CodeVaultNameEmpty, apperr.CodeInvalidVaultName, apperr.CodeNoVaultSelected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
