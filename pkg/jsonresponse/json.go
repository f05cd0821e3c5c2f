package jsonresponse

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

var (
	ErrNotFound      = errors.New("requested resource not found")
	ErrInvalidInput  = errors.New("invalid input provided")
	ErrInternalError = errors.New("internal server error")
)

// AppError pairs a client-facing message with the HTTP status to send
// and the internal error kept for logging only.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func WrapError(err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WriteResponse encodes data as the JSON body of a response with the
// given status code.
func WriteResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error": "failed to encode JSON response"}`, http.StatusInternalServerError)
	}
}

// WriteError sends an AppError with its own status code; anything else
// becomes a generic 500 so internal detail never leaks to the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError

	if errors.As(err, &appErr) {
		slog.Error("error handling request", "error", appErr.Err, "message", appErr.Message)
		WriteResponse(w, appErr.Code, map[string]string{"error": appErr.Message})
	} else {
		slog.Error("unknown error handling request", "error", err)
		WriteResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
}
