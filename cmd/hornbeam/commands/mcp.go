package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/mcp"
	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
)

// Metrics server timeouts.
const (
	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 30 * time.Second
	metricsIdleTimeout  = 120 * time.Second
)

// metricsPath is where the Prometheus scrape endpoint is mounted.
const metricsPath = "/metrics"

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(deps Deps) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes hornbeam as tools that AI agents can discover and invoke:
  - hornbeam_rewrite: infer a rule from a before/after pair and apply it
  - hornbeam_tree: print the syntax tree outline of code
  - hornbeam_find: find nodes by kind or by the shape of an example

When observability.metrics_addr is set, Prometheus metrics are served there.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&debug, flagDebug, false, "Enable debug logging to stderr")

	return cmd
}

func runMCP(cmd *cobra.Command, deps Deps) error {
	sess, err := openSession(cmd, deps, observability.ModeMCP)
	if err != nil {
		return err
	}
	defer sess.close(cmd.Context())

	red, err := observability.NewREDMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if sess.cfg.Observability.MetricsAddr != "" && sess.providers.MetricsHandler != nil {
		srv := newMetricsServer(sess.cfg.Observability.MetricsAddr, sess.providers, red)

		go func() {
			serveErr := srv.ListenAndServe()
			if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				sess.providers.Logger.Error("metrics server failed", "error", serveErr)
			}
		}()

		defer func() {
			_ = srv.Shutdown(context.WithoutCancel(ctx))
		}()

		sess.providers.Logger.Info("serving metrics", "addr", srv.Addr, "path", metricsPath)
	}

	srv := mcp.NewServer(mcp.ServerDeps{
		Logger:           sess.providers.Logger,
		Metrics:          red,
		Tracer:           sess.providers.Tracer,
		TransformOptions: sess.transformOptions(),
	})

	err = srv.Run(ctx)
	if err != nil {
		return fmt.Errorf("run mcp: %w", err)
	}

	return nil
}

// newMetricsServer mounts the Prometheus handler behind the HTTP middleware.
func newMetricsServer(addr string, providers observability.Providers, red *observability.REDMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, providers.MetricsHandler)

	return &http.Server{
		Addr:         addr,
		Handler:      observability.HTTPMiddleware(providers.Tracer, red, mux),
		ReadTimeout:  metricsReadTimeout,
		WriteTimeout: metricsWriteTimeout,
		IdleTimeout:  metricsIdleTimeout,
	}
}
