package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/parser"
)

// DefaultSessionID is used when a tool call names no session.
const DefaultSessionID = "mcp"

// SessionsURI is the resource listing stored sessions.
const SessionsURI = "scribe://sessions"

// ChatResponse aligns with the HTTP adapter and provides a unified structure across adapters.
type ChatResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"Session the turn ran in"`
	Content   string           `json:"content" jsonschema_description:"The assistant's reply"`
	Phase     domain.Phase     `json:"phase" jsonschema_description:"Conversation phase after the turn"`
	Pending   []domain.Command `json:"pending,omitempty" jsonschema_description:"Commands waiting for a yes/no reply"`
	Errors    []string         `json:"errors,omitempty" jsonschema_description:"Per-command failures, in execution order"`
}

// ParseResponse is the reading of an instruction without executing it.
type ParseResponse struct {
	Tier     domain.Source    `json:"tier" jsonschema_description:"Parser tier that produced the commands"`
	Split    bool             `json:"split" jsonschema_description:"Whether the splitter added commands"`
	Commands []domain.Command `json:"commands" jsonschema_description:"Commands in execution order"`
}

// Assistant defines what the MCP server needs from scribe.
type Assistant interface {
	Chat(ctx context.Context, sessionID, input string) (scribe.Reply, error)
	Parse(ctx context.Context, input string) (parser.Interpretation, error)
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server wraps the Assistant and exposes it as an MCP Server.
type Server struct {
	assistant Assistant
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(a Assistant, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		assistant: a,
		mcpServer: server.NewMCPServer("scribe-mcp", strings.TrimSpace(scribe.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
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
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send an instruction such as \"add milk to Shopping List\". Destructive instructions return a confirmation prompt; answer with \"yes\" or \"no\" in the same session."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The instruction or a yes/no reply")),
		mcp.WithString("session_id", mcp.Description("Conversation ID (optional, defaults to \"mcp\")")),
		mcp.WithOutputSchema[ChatResponse](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	parseTool := mcp.NewTool("parse",
		mcp.WithDescription("Show how an instruction would be split into commands, without executing anything."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The instruction")),
		mcp.WithOutputSchema[ParseResponse](),
	)
	s.mcpServer.AddTool(parseTool, mcp.NewStructuredToolHandler(s.handleParse))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Read a session setting: require_confirm, default_target, phase, pending_action or remaining_commands."),
		mcp.WithString("key", mcp.Required(), mcp.Description("State key")),
		mcp.WithString("session_id", mcp.Description("Conversation ID (optional)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		key, _ := args["key"].(string)
		v, err := s.assistant.Get(ctx, sessionArg(args), key)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get_state failed: %v", err)), nil
		}
		return mcp.NewToolResultText(v), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("set_state",
		mcp.WithDescription("Change a session setting: require_confirm (true/false) or default_target (page name)."),
		mcp.WithString("key", mcp.Required(), mcp.Description("State key")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithString("session_id", mcp.Description("Conversation ID (optional)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		key, _ := args["key"].(string)
		value, _ := args["value"].(string)
		if err := s.assistant.Set(ctx, sessionArg(args), key, value); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("set_state failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s = %s", key, value)), nil
	})
}

func sessionArg(args map[string]interface{}) string {
	if id, ok := args["session_id"].(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	return DefaultSessionID
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChatResponse, error) {
	input, _ := args["input"].(string)
	sessionID := sessionArg(args)

	reply, err := s.assistant.Chat(ctx, sessionID, input)
	if err != nil {
		s.logger.Warn("MCP Chat: turn rejected", "session_id", sessionID, "err", err)
		return ChatResponse{}, fmt.Errorf("chat failed: %w", err)
	}

	resp := ChatResponse{
		SessionID: sessionID,
		Content:   reply.Content,
		Phase:     reply.Phase,
		Pending:   reply.Pending,
	}
	for _, r := range reply.Results {
		if r.Err != nil {
			resp.Errors = append(resp.Errors, r.Err.Error())
		}
	}
	return resp, nil
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ParseResponse, error) {
	input, _ := args["input"].(string)
	it, err := s.assistant.Parse(ctx, input)
	if err != nil {
		return ParseResponse{}, fmt.Errorf("parse failed: %w", err)
	}
	return ParseResponse{Tier: it.Tier, Split: it.Split, Commands: it.Commands}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), s.readSessions)
}

func (s *Server) readSessions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.assistant.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
