package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/room-reservation/internal/domain"
)

// requestLog is filled in while a request is served and read back by the
// access log once it completes.
type requestLog struct {
	caller domain.Caller
	authed bool
}

type requestLogKey struct{}

// noteCaller records who a request was served for. It is a no-op outside
// NewSlogLogger.
func noteCaller(ctx context.Context, c domain.Caller) {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.caller = c
		rl.authed = true
	}
}

// NewSlogLogger returns a middleware that writes one structured access log
// line per request: method, path, status, duration and chi's request ID.
// Requests that passed NewAuthenticator also carry user_email and role.
// 5xx responses log at error level and 4xx at warn.
//
// Wire it after chimiddleware.RequestID and before the authenticator.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rl := &requestLog{}
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, rl)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			}
			if rl.authed {
				attrs = append(attrs,
					slog.String("user_email", rl.caller.Email),
					slog.String("role", string(rl.caller.Role)))
			}
			log.LogAttrs(r.Context(), levelFor(status), "request", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
