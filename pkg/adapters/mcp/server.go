package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource under which the graph topology is published.
const GraphURI = "agentloop://graph"

// Engine defines the interface required by the MCP server to run the graph.
type Engine interface {
	Invoke(ctx context.Context, prompt string, opts ...agentloop.RunOption) (*domain.State, error)
	Describe() domain.GraphInfo
}

// InvokeArgs are the arguments of the invoke tool.
type InvokeArgs struct {
	Prompt    string `json:"prompt"`
	StepLimit int    `json:"step_limit,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
}

// InvokeResult is the structured output of the invoke tool.
type InvokeResult struct {
	RunID    string           `json:"run_id" jsonschema_description:"Identifier of the run"`
	Answer   string           `json:"answer" jsonschema_description:"Content of the final assistant message"`
	Steps    int              `json:"steps" jsonschema_description:"Number of node executions"`
	Messages []domain.Message `json:"messages" jsonschema_description:"Full transcript of the run"`
}

// Server wraps an agentloop Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("agentloop-mcp", strings.TrimSpace(agentloop.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: invoke
	invokeTool := mcp.NewTool("invoke",
		mcp.WithDescription("Run the agent graph for a prompt and return the final answer with the full transcript."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("User prompt that seeds the run")),
		mcp.WithNumber("step_limit", mcp.Description("Maximum number of node executions (optional)")),
		mcp.WithString("timeout", mcp.Description("Wall-clock budget of the run, e.g. \"30s\" (optional)")),
		mcp.WithOutputSchema[InvokeResult](),
	)
	s.mcpServer.AddTool(invokeTool, mcp.NewStructuredToolHandler(s.handleInvoke))

	// TOOL: describe_graph
	s.mcpServer.AddTool(mcp.NewTool("describe_graph",
		mcp.WithDescription("Get the nodes, edges and routing tables of the graph."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Describe())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleInvoke(ctx context.Context, request mcp.CallToolRequest, args InvokeArgs) (InvokeResult, error) {
	if strings.TrimSpace(args.Prompt) == "" {
		return InvokeResult{}, errors.New("prompt is required")
	}

	var opts []agentloop.RunOption
	if args.StepLimit > 0 {
		opts = append(opts, agentloop.WithStepLimit(args.StepLimit))
	}
	if args.Timeout != "" {
		d, err := time.ParseDuration(args.Timeout)
		if err != nil || d <= 0 {
			return InvokeResult{}, fmt.Errorf("invalid timeout %q", args.Timeout)
		}
		opts = append(opts, agentloop.WithRunTimeout(d))
	}

	state, err := s.engine.Invoke(ctx, args.Prompt, opts...)
	if err != nil {
		s.logger.Warn("MCP Invoke: run failed", "err", err)
		return InvokeResult{}, fmt.Errorf("run failed: %w", err)
	}

	answer, _ := agentloop.Answer(state)
	return InvokeResult{
		RunID:    state.RunID,
		Answer:   answer,
		Steps:    state.Step,
		Messages: state.Messages(),
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: agentloop://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Graph Topology",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe graph: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
