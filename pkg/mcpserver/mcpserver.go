// Package mcpserver is a small MCP (Model Context Protocol) server speaking
// JSON-RPC 2.0 per the 2025-03-26 revision. Tools and resources are declared
// up front, handlers are registered by name, and the server is exposed over
// Streamable HTTP or driven directly through Handle (e.g. from Lambda).
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	// ProtocolVersion is the MCP protocol version this server implements.
	ProtocolVersion = "2025-03-26"
	defaultName     = "mcpserver"
	defaultVersion  = "1.0.0"
)

// ToolHandlerFunc executes a tool call with already-validated arguments.
type ToolHandlerFunc func(ctx context.Context, args map[string]any) (ToolResult, error)

// ResourceHandlerFunc produces the contents of a resource.
type ResourceHandlerFunc func(ctx context.Context, uri string) (ResourceContent, error)

// Server routes MCP requests to registered tool and resource handlers.
// Registration must finish before the server starts taking traffic.
type Server struct {
	logger           Logger
	name             string
	version          string
	instructions     string
	tools            map[string]Tool
	toolList         []Tool
	resources        map[string]Resource
	resList          []Resource
	toolHandlers     map[string]ToolHandlerFunc
	resourceHandlers map[string]ResourceHandlerFunc
}

// Option configures the MCP server.
type Option func(*serverConfig)

type serverConfig struct {
	tools        []Tool
	resources    []Resource
	name         string
	version      string
	instructions string
	logger       Logger
	errs         []error
}

// WithToolsFile loads tool definitions from a JSON file on disk.
func WithToolsFile(path string) Option {
	return func(cfg *serverConfig) {
		tools, err := LoadTools(path)
		if err != nil {
			cfg.errs = append(cfg.errs, err)
			return
		}
		cfg.tools = append(cfg.tools, tools...)
	}
}

// WithToolsJSON parses tool definitions from raw JSON bytes (useful with go:embed).
func WithToolsJSON(data []byte) Option {
	return func(cfg *serverConfig) {
		tools, err := ParseTools(data)
		if err != nil {
			cfg.errs = append(cfg.errs, err)
			return
		}
		cfg.tools = append(cfg.tools, tools...)
	}
}

// WithTools passes tool definitions directly.
func WithTools(tools ...Tool) Option {
	return func(cfg *serverConfig) {
		for _, t := range tools {
			if err := t.compile(); err != nil {
				cfg.errs = append(cfg.errs, err)
				continue
			}
			cfg.tools = append(cfg.tools, t)
		}
	}
}

// WithResourcesFile loads resource definitions from a JSON file on disk.
func WithResourcesFile(path string) Option {
	return func(cfg *serverConfig) {
		resources, err := LoadResources(path)
		if err != nil {
			cfg.errs = append(cfg.errs, err)
			return
		}
		cfg.resources = append(cfg.resources, resources...)
	}
}

// WithResources passes resource definitions directly.
func WithResources(resources ...Resource) Option {
	return func(cfg *serverConfig) {
		cfg.resources = append(cfg.resources, resources...)
	}
}

// WithServerInfo sets the server name and version returned in initialize.
func WithServerInfo(name, version string) Option {
	return func(cfg *serverConfig) {
		cfg.name = name
		cfg.version = version
	}
}

// WithInstructions sets the usage hint returned to clients in initialize.
func WithInstructions(text string) Option {
	return func(cfg *serverConfig) {
		cfg.instructions = text
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(cfg *serverConfig) {
		cfg.logger = l
	}
}

// New creates an MCP server. Definition files that cannot be read or parsed
// fail construction rather than leaving the server half configured.
func New(opts ...Option) (*Server, error) {
	cfg := serverConfig{name: defaultName, version: defaultVersion}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, fmt.Errorf("mcpserver: %w", err)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	tools := make(map[string]Tool, len(cfg.tools))
	for _, t := range cfg.tools {
		if _, dup := tools[t.Name]; dup {
			return nil, fmt.Errorf("mcpserver: duplicate tool %q", t.Name)
		}
		tools[t.Name] = t
	}
	resources := make(map[string]Resource, len(cfg.resources))
	for _, r := range cfg.resources {
		resources[r.Name] = r
	}

	return &Server{
		logger:           cfg.logger,
		name:             cfg.name,
		version:          cfg.version,
		instructions:     cfg.instructions,
		tools:            tools,
		toolList:         cfg.tools,
		resources:        resources,
		resList:          cfg.resources,
		toolHandlers:     make(map[string]ToolHandlerFunc),
		resourceHandlers: make(map[string]ResourceHandlerFunc),
	}, nil
}

// HandleTool registers the handler for a declared tool.
func (s *Server) HandleTool(name string, fn ToolHandlerFunc) error {
	if _, ok := s.tools[name]; !ok {
		return fmt.Errorf("mcpserver: tool %q is not declared", name)
	}
	s.toolHandlers[name] = fn
	return nil
}

// HandleResource registers the handler for a declared resource.
func (s *Server) HandleResource(name string, fn ResourceHandlerFunc) error {
	if _, ok := s.resources[name]; !ok {
		return fmt.Errorf("mcpserver: resource %q is not declared", name)
	}
	s.resourceHandlers[name] = fn
	return nil
}

// Tools returns the declared tools in declaration order.
func (s *Server) Tools() []Tool {
	return append([]Tool(nil), s.toolList...)
}

// HTTPHandler serves MCP over Streamable HTTP.
func (s *Server) HTTPHandler() http.Handler {
	return newHTTPHandler(s)
}

// Handle routes a JSON-RPC request to the matching MCP method. A response
// with IsNotification() == true means no body should be sent.
func (s *Server) Handle(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return NewErrorResponse(req.ID, ErrCodeInvalidReq, "jsonrpc must be '2.0'")
	}

	switch req.Method {
	case "initialize":
		return s.initialize(req)
	case "ping":
		return s.result(req.ID, struct{}{})
	case "notifications/initialized", "notifications/cancelled":
		return JSONRPCResponse{}
	case "tools/list":
		return s.result(req.ID, map[string]any{"tools": s.toolList})
	case "tools/call":
		return s.callTool(ctx, req)
	case "resources/list":
		return s.result(req.ID, map[string]any{"resources": s.resList})
	case "resources/read":
		return s.readResource(ctx, req)
	default:
		return NewErrorResponse(req.ID, ErrCodeNoMethod, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// CallTool invokes a tool in-process, applying the same validation as tools/call.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	tool, ok := s.tools[name]
	if !ok {
		return ToolResult{}, fmt.Errorf("unknown tool: %s", name)
	}
	if err := tool.ValidateArguments(args); err != nil {
		return ToolResult{}, err
	}
	handler, ok := s.toolHandlers[name]
	if !ok {
		return ToolResult{}, fmt.Errorf("no handler for tool: %s", name)
	}
	return handler(ctx, args)
}

func (s *Server) result(id any, payload any) JSONRPCResponse {
	buf, err := json.Marshal(payload)
	if err != nil {
		return NewErrorResponse(id, ErrCodeInternal, "marshal result: "+err.Error())
	}
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: buf}
}

func decodeParams(req JSONRPCRequest, v any) *JSONRPCResponse {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		resp := NewErrorResponse(req.ID, ErrCodeBadParams, fmt.Sprintf("invalid params: %v", err))
		return &resp
	}
	return nil
}

func (s *Server) initialize(req JSONRPCRequest) JSONRPCResponse {
	var params initializeParams
	if errResp := decodeParams(req, &params); errResp != nil {
		return *errResp
	}

	s.logger.Info("initialize",
		"clientName", params.ClientInfo.Name,
		"clientVersion", params.ClientInfo.Version,
		"protocolVersion", params.ProtocolVersion,
	)

	result := map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"subscribe": false, "listChanged": false},
		},
		"serverInfo": map[string]any{"name": s.name, "version": s.version},
	}
	if s.instructions != "" {
		result["instructions"] = s.instructions
	}
	return s.result(req.ID, result)
}

func (s *Server) callTool(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	var params toolCallParams
	if errResp := decodeParams(req, &params); errResp != nil {
		return *errResp
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeNoMethod, fmt.Sprintf("Unknown tool: %s", params.Name))
	}
	if err := tool.ValidateArguments(params.Arguments); err != nil {
		return NewErrorResponse(req.ID, ErrCodeBadParams, err.Error())
	}
	handler, ok := s.toolHandlers[params.Name]
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeInternal, fmt.Sprintf("no handler for tool: %s", params.Name))
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		s.logger.Error("tool call failed", "tool", params.Name, "err", err)
		result = ErrorResult(err.Error())
	}
	return s.result(req.ID, result)
}

func (s *Server) readResource(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	var params resourceReadParams
	if errResp := decodeParams(req, &params); errResp != nil {
		return *errResp
	}
	if params.Name == "" && params.URI == "" {
		return NewErrorResponse(req.ID, ErrCodeBadParams, "either name or uri must be provided")
	}

	target, found := s.lookupResource(params)
	if !found {
		return NewErrorResponse(req.ID, ErrCodeBadParams, "resource not found")
	}

	handler, ok := s.resourceHandlers[target.Name]
	if !ok {
		// Metadata only.
		empty := ResourceContent{URI: target.URI, MimeType: target.MimeType}
		return s.result(req.ID, map[string]any{"contents": []ResourceContent{empty}})
	}

	content, err := handler(ctx, target.URI)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternal, fmt.Sprintf("read resource: %v", err))
	}
	return s.result(req.ID, map[string]any{"contents": []ResourceContent{content}})
}

func (s *Server) lookupResource(params resourceReadParams) (Resource, bool) {
	if params.Name != "" {
		r, ok := s.resources[params.Name]
		return r, ok
	}
	for _, r := range s.resList {
		if r.URI == params.URI {
			return r, true
		}
	}
	return Resource{}, false
}
