package api

import (
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/framesource/internal/logging"
)

// quietPaths are polled by dashboards and previews.
var quietPaths = map[string]bool{
	"/api/health":    true,
	"/api/status":    true,
	"/api/frame.png": true,
}

// requestLevel picks the log level for a finished request.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case method == "OPTIONS", quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs each request once it completes. Server errors
// log at error, client errors at warn, and successful polls at debug.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	method := ctx.Method()
	path := ctx.URL().Path
	status := ctx.Status()

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if q := ctx.URL().RawQuery; q != "" {
		attrs = append(attrs, slog.String("query", q))
	}
	if ua := ctx.Header("User-Agent"); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	logging.GetLogger("api").LogAttrs(ctx.Context(), requestLevel(method, path, status), "HTTP request completed", attrs...)
}
