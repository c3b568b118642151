// internal/app/system/limits/limits.go
package limits

import "net/http"

// Request body size limits for the JSON API.
const (
	// MaxJSONBodySize caps every API request body.
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxPostBodySize caps community post bodies, which carry HTML content.
	MaxPostBodySize = 256 << 10 // 256 KB
)

// Body returns middleware that limits request bodies to n bytes. Reads past
// the limit fail with *http.MaxBytesError.
func Body(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
