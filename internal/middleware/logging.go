package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseMeta wraps http.ResponseWriter to capture the status code and
// response size for the access log.
type responseMeta struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseMeta) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseMeta) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// RequestLogger logs one line per request. Server errors log at error
// level, client errors at warn, everything else at info.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meta := &responseMeta{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(meta, r)

			level := slog.LevelInfo
			switch {
			case meta.status >= 500:
				level = slog.LevelError
			case meta.status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", meta.status,
				"bytes", meta.bytes,
				"duration", time.Since(start),
				"remote", RealIP(r),
			)
		})
	}
}
