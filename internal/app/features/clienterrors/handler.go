// internal/app/features/clienterrors/handler.go
package clienterrors

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Field caps, in bytes. Longer values are cut before logging.
const (
	maxMessage = 1000
	maxStack   = 8000
	maxShort   = 500
	maxContext = 20
)

// Report is what the browser posts when a page throws.
type Report struct {
	Message   string            `json:"message"`
	Stack     string            `json:"stack"`
	URL       string            `json:"url"`
	UserAgent string            `json:"userAgent"`
	Timestamp string            `json:"timestamp"`
	Context   map[string]string `json:"context"`
}

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleReport handles POST /api/client-errors. The report is logged at
// warn level and nothing is stored.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var rep Report
	if err := respond.Decode(r, &rep); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	msg := clip(strings.TrimSpace(rep.Message), maxMessage)
	if msg == "" {
		respond.Error(w, h.Log, apperr.Validation("Message is required.", map[string]string{"message": "Message is required."}))
		return
	}

	fields := []zap.Field{
		zap.String("message", msg),
		zap.String("stack", clip(rep.Stack, maxStack)),
		zap.String("url", clip(rep.URL, maxShort)),
		zap.String("user_agent", clip(rep.UserAgent, maxShort)),
		zap.String("client_timestamp", clip(rep.Timestamp, 64)),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	if len(rep.Context) > 0 {
		extra := make(map[string]string, len(rep.Context))
		for k, v := range rep.Context {
			if len(extra) == maxContext {
				break
			}
			extra[clip(k, 64)] = clip(v, maxShort)
		}
		fields = append(fields, zap.Any("context", extra))
	}
	h.Log.Warn("client error reported", fields...)
	w.WriteHeader(http.StatusNoContent)
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
