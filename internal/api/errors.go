package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/catt-bridge/internal/value"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeDevice         = "device_error"
	ErrCodeInvalidValue   = "invalid_value"
	ErrCodeTooLarge       = "payload_too_large"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeItemError reports a failed item read or write. A value that cannot be
// converted to the item's native type is the caller's fault (422); anything
// else came from the mesh (502).
func writeItemError(w http.ResponseWriter, err error) {
	if errors.Is(err, value.ErrInvalidConversion) || errors.Is(err, value.ErrParseNumber) {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeInvalidValue, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, ErrCodeDevice, err.Error())
}
