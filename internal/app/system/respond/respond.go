// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorBody is the JSON envelope for every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code, the human message and any
// field-scoped validation messages.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Ref     string            `json:"ref,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err through apperr and writes the error envelope.
// Internal errors are logged with a reference id that is returned to the
// caller in place of the cause.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	ae := apperr.From(err)
	detail := ErrorDetail{Code: ae.Code, Message: ae.Message, Fields: ae.Fields}
	if ae.Kind == apperr.KindInternal {
		detail.Ref = uuid.NewString()
		if log != nil {
			log.Error("request failed", zap.String("ref", detail.Ref), zap.Error(ae.Err))
		}
	}
	JSON(w, ae.Status(), ErrorBody{Error: detail})
}

// Decode reads a JSON request body into v. A malformed body is reported
// as a validation error.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("Request body is required.", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body is too large.", nil)
		}
		return apperr.Validation("Request body must be valid JSON.", nil)
	}
	return nil
}
