package middleware

import "net/http"

// NewMaxBodySizeHandler caps request bodies at limit bytes. A declared
// Content-Length above the limit is answered with 413 and the API error
// envelope before the handler runs. Bodies of unknown length are wrapped in
// http.MaxBytesReader, so decoding fails once the limit is crossed and the
// handler reports it.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeAuthError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
