package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/credauth"
)

type contextKey string

const accountIDKey contextKey = "accountID"

func accountIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// requireSession extracts the Bearer token, authenticates it against the
// engine and stores the subject in the request context. Missing or malformed
// headers fail exactly like invalid tokens.
func (a *API) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		accountID, err := a.engine.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests emits one structured line per request and stamps the client IP
// into the context for the engine's audit trail.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		ctx := credauth.WithClientIP(r.Context(), ip)
		ctx = credauth.WithUserAgent(ctx, r.UserAgent())

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		a.logger.InfoContext(ctx, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.String("ip", ip),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
