// internal/app/features/errors/errorlogger.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs structured logging with a user-facing response so
// handlers report failures in one call instead of logging and rendering
// separately.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger builds an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogBadRequest logs a malformed-input failure and answers 400 with a
// friendly page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.log.Warn(msg, zap.Error(err), zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "Dados inválidos na requisição."
	}
	renderPage(w, r, http.StatusBadRequest, "Requisição inválida", userMsg, backURL)
}

// LogServerError logs an internal failure and answers 500 with a friendly
// page. The error detail never reaches the response.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "Algo deu errado. Tente novamente em instantes."
	}
	renderPage(w, r, http.StatusInternalServerError, "Erro interno", userMsg, backURL)
}

// LogAPIError logs a failure on a JSON endpoint and answers with a JSON
// error body instead of an HTML page.
func (e *ErrorLogger) LogAPIError(w http.ResponseWriter, r *http.Request, status int, msg string, err error, userMsg string) {
	if status >= 500 {
		e.log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
	} else {
		e.log.Warn(msg, zap.Error(err), zap.String("path", r.URL.Path))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": userMsg})
}
