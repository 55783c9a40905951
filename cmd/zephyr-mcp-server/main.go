package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"

	mcpzephyr "github.com/atlassian-community/zephyr-mcp-server/internal/zephyr"
	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

var (
	version = "version" // Application version
	commit  = "commit"  // Git commit hash
	date    = "date"    // Build date
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Version:        fmt.Sprintf("%s (%s) %s", version, commit, date),
		Description:    `Zephyr MCP Server`,
		DefaultCommand: "stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "base-url",
				Required: true,
				Sources:  cli.EnvVars("ZEPHYR_BASE_URL"),
				Usage:    "Jira base URL hosting the Zephyr Scale API",
			},
			&cli.StringFlag{
				Name:    "token",
				Sources: cli.EnvVars("ZEPHYR_API_TOKEN"),
				Usage:   "API token for authentication (required in stdio mode)",
			},
			&cli.IntFlag{
				Name:    "timeout",
				Sources: cli.EnvVars("ZEPHYR_TIMEOUT"),
				Value:   int(zephyr.DefaultTimeout.Seconds()),
				Usage:   "Request timeout in seconds",
			},
			&cli.IntFlag{
				Name:    "max-retries",
				Sources: cli.EnvVars("ZEPHYR_MAX_RETRIES"),
				Value:   zephyr.DefaultMaxRetries,
				Usage:   "Retry attempts on transient failures (0 disables retries)",
			},
			&cli.BoolFlag{
				Name:    "ssl-verify",
				Sources: cli.EnvVars("ZEPHYR_SSL_VERIFY"),
				Value:   true,
				Usage:   "Verify TLS certificates of the Zephyr host",
			},
			&cli.StringFlag{
				Name:    "custom-headers",
				Sources: cli.EnvVars("ZEPHYR_CUSTOM_HEADERS"),
				Usage:   "JSON object of extra headers to send on every request",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   slog.LevelInfo.String(),
				Usage:   "Logging level (DEBUG, INFO, WARN, ERROR)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:        "stdio",
				Description: "Start Zephyr MCP Server in stdio mode",
				Action:      runStdioServer,
				Before:      initLogger(),
			},
			{
				Name:        "http",
				Description: "Start Zephyr MCP Server in streamable HTTP mode",
				Action:      runHTTPServer,
				Before:      initLogger(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Sources: cli.EnvVars("ADDR"),
						Value:   ":8080",
						Usage:   "Address to bind the HTTP server",
					},
				},
			},
			{
				Name:        "verify",
				Description: "Probe the Zephyr API with the configured credentials",
				Action:      runVerify,
				Before:      initLogger(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Required: true,
						Sources:  cli.EnvVars("ZEPHYR_PROJECT"),
						Usage:    "Project key to probe (e.g., JQA)",
					},
				},
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func initLogger() func(ctx context.Context, command *cli.Command) (context.Context, error) {
	return func(ctx context.Context, command *cli.Command) (context.Context, error) {
		var logLevel slog.Level
		if err := logLevel.UnmarshalText([]byte(command.String("log-level"))); err != nil {
			return nil, err
		}
		slog.SetDefault(
			slog.New(
				slog.NewTextHandler(
					os.Stderr,
					&slog.HandlerOptions{Level: logLevel},
				),
			),
		)

		return ctx, nil
	}
}

// buildConfig assembles the client configuration from CLI flags, layered
// over any ZEPHYR_* environment settings the flags do not cover (proxies).
func buildConfig(cmd *cli.Command) *zephyr.Config {
	cfg := zephyr.ConfigFromEnv()
	cfg.BaseURL = cmd.String("base-url")
	cfg.APIToken = cmd.String("token")
	cfg.Timeout = time.Duration(cmd.Int("timeout")) * time.Second
	cfg.MaxRetries = cmd.Int("max-retries")
	cfg.SSLVerify = cmd.Bool("ssl-verify")
	if raw := cmd.String("custom-headers"); raw != "" {
		cfg.CustomHeaders = zephyr.ParseCustomHeaders(raw)
	}
	return cfg
}

func newMCPServer(cmd *cli.Command) (*server.MCPServer, *zephyr.Client, error) {
	client, err := zephyr.NewClient(buildConfig(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Zephyr client: %w", err)
	}
	mcpServer, err := mcpzephyr.NewServer(version, client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Zephyr MCP server: %w", err)
	}
	return mcpServer, client, nil
}

// runStdioServer starts the Zephyr MCP server in stdio mode. The configured
// token is the only credential, so it is required here.
func runStdioServer(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("token") == "" {
		return fmt.Errorf(
			"ZEPHYR_API_TOKEN is required for stdio mode (set the environment variable or pass --token)",
		)
	}

	mcpServer, client, err := newMCPServer(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	stdioServer := server.NewStdioServer(mcpServer)

	errC := make(chan error, 1)
	go func() {
		in, out := io.Reader(os.Stdin), io.Writer(os.Stdout)
		errC <- stdioServer.Listen(ctx, in, out)
	}()

	slog.Info("Zephyr MCP Server running on stdio")

	select {
	case <-ctx.Done():
		slog.Info("shutting down server...")
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("error running server: %w", err)
		}
	}

	return nil
}

// runHTTPServer starts the Zephyr MCP server in streamable HTTP mode. The
// configured token is the fallback credential; a per-request Authorization
// Bearer header overrides it.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	mcpServer, client, err := newMCPServer(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	addr := cmd.String("addr")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mcpzephyr.NewHTTPHandler(mcpServer, version),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		errC <- httpServer.ListenAndServe()
	}()

	slog.Info("Zephyr MCP Server running in streamable HTTP mode", "addr", addr)

	select {
	case <-ctx.Done():
		slog.Info("shutting down server...")
		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(sCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
		}
	case err := <-errC:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("error running server: %w", err)
		}
	}

	return nil
}

// runVerify probes the API with the configured credentials and reports the
// outcome on the terminal.
func runVerify(ctx context.Context, cmd *cli.Command) error {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	project := cmd.String("project")
	cyan.Printf("Probing Zephyr API at %s (project %s)\n", cmd.String("base-url"), project)

	client, err := zephyr.NewClient(buildConfig(cmd))
	if err != nil {
		red.Printf("configuration rejected: %v\n", err)
		return err
	}
	defer func() { _ = client.Close() }()

	environments, err := client.Environments.List(ctx, project)
	if err != nil {
		red.Printf("probe failed: %v\n", err)
		return err
	}

	green.Printf("OK: credentials accepted, %d environment(s) visible\n", len(environments))
	return nil
}
