package mcpzephyr

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

// NewHTTPHandler wraps an assembled MCP server for HTTP mode: the streamable
// transport is mounted at the root behind the token middleware, with a
// health endpoint beside it for load balancers.
func NewHTTPHandler(mcpServer *server.MCPServer, version string) http.Handler {
	streamable := server.NewStreamableHTTPServer(mcpServer)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.RealIP)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": "zephyr-mcp-server",
			"version": version,
		})
	})

	router.Mount("/", HTTPTokenMiddleware(streamable))
	return router
}
