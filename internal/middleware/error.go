package middleware

import (
	"encoding/json"
	"net/http"

	"storefront-api/internal/domain"

	"go.uber.org/zap"
)

// Envelope is the uniform response body: {status, payload} on success,
// {status, message} on failure.
type Envelope struct {
	Status  string      `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RespondWithJSON sends a raw JSON response.
func RespondWithJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// RespondWithPayload sends a success envelope.
func RespondWithPayload(w http.ResponseWriter, statusCode int, payload interface{}) {
	RespondWithJSON(w, statusCode, Envelope{Status: "success", Payload: payload})
}

// RespondWithError sends an error envelope.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, Envelope{Status: "error", Message: message})
}

// StatusForError maps the repository error taxonomy to HTTP status
// codes.
func StatusForError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithRepoError maps a repository failure to its status code and
// surfaces the message verbatim.
func RespondWithRepoError(w http.ResponseWriter, err error) {
	RespondWithError(w, StatusForError(err), err.Error())
}

// ErrorHandlingMiddleware catches panics and converts them to 500
// responses.
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
