package mcpzephyr

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// HTTPTokenMiddleware extracts a bearer token from the incoming request and
// stores it in the request context, so every outbound Zephyr call made while
// serving this request authenticates as the caller instead of the server.
func HTTPTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token != "" {
			r = r.WithContext(zephyr.WithToken(r.Context(), token))
			slog.Debug("extracted API token from request",
				"method", r.Method,
				"path", r.URL.Path)
		} else {
			slog.Debug("no API token in request headers",
				"method", r.Method,
				"path", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken reads an Authorization Bearer credential from the
// request headers. Any other scheme is ignored.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
