package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tonnetz/internal/presentation/graph"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/aretw0/tonnetz/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AssignResponse is the result of the assign_notes tool.
type AssignResponse struct {
	Notes []domain.NoteName `json:"notes" jsonschema_description:"One note per node index, in row-major order"`
}

// NodeEdges is the result of the node_edges tool.
type NodeEdges struct {
	Node      domain.Node    `json:"node" jsonschema_description:"The node with its position and note"`
	Edges     []domain.Edge  `json:"edges" jsonschema_description:"Edges incident to the node"`
	Neighbors []domain.Coord `json:"neighbors" jsonschema_description:"Adjacent nodes"`
}

// Engine defines the interface required by the MCP server to interact with Tonnetz.
type Engine interface {
	Lattice() *lattice.Lattice
	Build(rows, columns int, spacing float64) (*lattice.Lattice, error)
	Notes() []domain.NoteName
	Select(ctx context.Context, sessionID string, c domain.Coord) (*session.Highlight, error)
	Session(ctx context.Context, sessionID string) (*domain.Selection, error)
	Version() string
}

// Server wraps the Tonnetz Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("tonnetz-mcp", engine.Version()),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: build_lattice
	buildTool := mcp.NewTool("build_lattice",
		mcp.WithDescription("Build an offset hexagonal note lattice. Omitted parameters use the server lattice values."),
		mcp.WithNumber("rows", mcp.Description("Number of rows (>= 1)")),
		mcp.WithNumber("columns", mcp.Description("Number of columns (>= 1)")),
		mcp.WithNumber("spacing", mcp.Description("Distance between adjacent nodes (> 0)")),
		mcp.WithOutputSchema[lattice.Layout](),
	)
	s.mcpServer.AddTool(buildTool, mcp.NewStructuredToolHandler(s.handleBuildLattice))

	// TOOL: assign_notes
	assignTool := mcp.NewTool("assign_notes",
		mcp.WithDescription("Label node indexes 0..count-1 by repeating a note palette."),
		mcp.WithNumber("count", mcp.Required(), mcp.Description("Number of nodes")),
		mcp.WithString("notes", mcp.Description("Comma separated note names, e.g. C4,E4,G4 (default: server palette)")),
		mcp.WithOutputSchema[AssignResponse](),
	)
	s.mcpServer.AddTool(assignTool, mcp.NewStructuredToolHandler(s.handleAssignNotes))

	// TOOL: select_node
	selectTool := mcp.NewTool("select_node",
		mcp.WithDescription("Select a node for a session, activating it and returning the edges to highlight."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Node row")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("Node column")),
		mcp.WithOutputSchema[session.Highlight](),
	)
	s.mcpServer.AddTool(selectTool, mcp.NewStructuredToolHandler(s.handleSelectNode))

	// TOOL: node_edges
	edgesTool := mcp.NewTool("node_edges",
		mcp.WithDescription("List the edges and neighbours of a node of the server lattice."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Node row")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("Node column")),
		mcp.WithOutputSchema[NodeEdges](),
	)
	s.mcpServer.AddTool(edgesTool, mcp.NewStructuredToolHandler(s.handleNodeEdges))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the server lattice as a Mermaid flowchart, optionally with a session's selection."),
		mcp.WithString("session_id", mcp.Description("Session whose selection is drawn (optional)")),
	), s.handleGetGraph)
}

// Handler methods for structured tools

func (s *Server) handleBuildLattice(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (lattice.Layout, error) {
	base := s.engine.Lattice()
	rows, err := intArg(args, "rows", base.Rows())
	if err != nil {
		return lattice.Layout{}, err
	}
	columns, err := intArg(args, "columns", base.Columns())
	if err != nil {
		return lattice.Layout{}, err
	}
	spacing := base.Spacing()
	if v, ok := args["spacing"].(float64); ok {
		spacing = v
	}

	l, err := s.engine.Build(rows, columns, spacing)
	if err != nil {
		return lattice.Layout{}, fmt.Errorf("build failed: %w", err)
	}
	return l.Layout(), nil
}

func (s *Server) handleAssignNotes(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AssignResponse, error) {
	count, err := intArg(args, "count", -1)
	if err != nil {
		return AssignResponse{}, err
	}
	if count > lattice.MaxNodes {
		return AssignResponse{}, fmt.Errorf("%w: count %d exceeds %d", domain.ErrInvalidDimensions, count, lattice.MaxNodes)
	}

	names := s.engine.Notes()
	if raw, ok := args["notes"].(string); ok && strings.TrimSpace(raw) != "" {
		names = nil
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, domain.NoteName(n))
			}
		}
	}

	labels, err := lattice.AssignNotes(count, names)
	if err != nil {
		return AssignResponse{}, fmt.Errorf("assign failed: %w", err)
	}
	return AssignResponse{Notes: labels}, nil
}

func (s *Server) handleSelectNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (session.Highlight, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return session.Highlight{}, fmt.Errorf("session_id is required")
	}

	c, err := coordArgs(args)
	if err != nil {
		return session.Highlight{}, err
	}
	h, err := s.engine.Select(ctx, sessionID, c)
	if err != nil {
		slog.Warn("MCP select_node failed", "session_id", sessionID, "error", err)
		return session.Highlight{}, fmt.Errorf("select failed: %w", err)
	}
	return *h, nil
}

func (s *Server) handleNodeEdges(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodeEdges, error) {
	l := s.engine.Lattice()
	c, err := coordArgs(args)
	if err != nil {
		return NodeEdges{}, err
	}
	node, ok := l.Node(c)
	if !ok {
		return NodeEdges{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, c)
	}
	return NodeEdges{
		Node:      node,
		Edges:     l.IncidentEdges(c),
		Neighbors: l.Neighbors(c),
	}, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var overlay *graph.GraphOverlay
	if id := request.GetString("session_id", ""); id != "" {
		sel, err := s.engine.Session(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("session lookup failed: %v", err)), nil
		}
		overlay = graph.OverlayFromSelection(sel)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Lattice(), overlay)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: tonnetz://lattice
	s.mcpServer.AddResource(mcp.NewResource("tonnetz://lattice", "Server Lattice Layout",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Lattice().Layout())
		if err != nil {
			return nil, fmt.Errorf("failed to encode lattice: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "tonnetz://lattice",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: tonnetz://palettes
	s.mcpServer.AddResource(mcp.NewResource("tonnetz://palettes", "Colour Palettes",
		mcp.WithMIMEType("application/json"),
	), s.readPalettes)
}

func (s *Server) readPalettes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var hexes []palette.Hex
	for _, p := range palette.All() {
		hexes = append(hexes, p.Hex())
	}
	jsonBytes, err := json.Marshal(hexes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode palettes: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tonnetz://palettes",
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// intArg reads a whole-number argument. JSON numbers arrive as float64;
// fractions and values beyond the int range are rejected, not truncated.
func intArg(args map[string]interface{}, key string, def int) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return def, nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", domain.ErrInvalidDimensions, key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", domain.ErrInvalidDimensions, key, v)
	}
}

func coordArgs(args map[string]interface{}) (domain.Coord, error) {
	row, err := intArg(args, "row", -1)
	if err != nil {
		return domain.Coord{}, err
	}
	column, err := intArg(args, "column", -1)
	if err != nil {
		return domain.Coord{}, err
	}
	return domain.Coord{Row: row, Column: column}, nil
}
