// Package mcp implements a Model Context Protocol server exposing hornbeam
// rewriting and tree inspection as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/hornbeam/pkg/cache"
	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
	"github.com/Sumatoshi-tech/hornbeam/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "hornbeam"

	// toolCount is the expected number of registered tools.
	toolCount = 3

	// defaultProgramCacheSize bounds the compiled rules kept by the rewrite tool.
	defaultProgramCacheSize = 64
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// TransformOptions are applied to every program the rewrite tool compiles.
	TransformOptions []transform.Option

	// ProgramCacheSize bounds the compiled rules kept between rewrite calls.
	// Zero uses a default of 64.
	ProgramCacheSize int
}

// Server wraps the MCP SDK server with hornbeam tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	handler *toolHandler
}

// NewServer creates a new MCP server with all hornbeam tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	cacheSize := deps.ProgramCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultProgramCacheSize
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		handler: &toolHandler{
			transformOpts: deps.TransformOptions,
			programs:      cache.NewLRU[string, *transform.Program](cacheSize),
		},
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all hornbeam MCP tools to the server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRewrite,
		Description: rewriteToolDescription,
	}, withMetrics(s.metrics, ToolNameRewrite, withTracing(s.tracer, ToolNameRewrite, s.handler.rewrite)))
	s.trackTool(ToolNameRewrite)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameTree,
		Description: treeToolDescription,
	}, withMetrics(s.metrics, ToolNameTree, withTracing(s.tracer, ToolNameTree, s.handler.tree)))
	s.trackTool(ToolNameTree)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFind,
		Description: findToolDescription,
	}, withMetrics(s.metrics, ToolNameFind, withTracing(s.tracer, ToolNameFind, s.handler.find)))
	s.trackTool(ToolNameFind)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, "mcp."+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, "mcp."+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	rewriteToolDescription = "Infer a rewrite rule from one before/after example pair and apply it to code. " +
		"Placeholders name the part of the examples that varies. " +
		"Mode \"root\" rewrites only when the whole input matches; \"all\" (default) rewrites every occurrence."

	treeToolDescription = "Parse code and return its syntax tree as a Begin/Text/End outline " +
		"of named nodes and the literal text between them."

	findToolDescription = "Find nodes in code by kind, or by the shape of an example snippet " +
		"optionally embedded in a context containing @@."
)
