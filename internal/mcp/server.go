// Package mcp exposes the catalog query surface as MCP tools over stdio
package mcp

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/standardbeagle/medcat/internal/catalog"
	"github.com/standardbeagle/medcat/internal/config"
	"github.com/standardbeagle/medcat/internal/logging"
	"github.com/standardbeagle/medcat/internal/version"
)

type toolHandler = func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Server answers MCP tool calls against the holder's active snapshot. Every
// call reads the snapshot once, so a reload mid-call never mixes catalogs.
type Server struct {
	holder   *catalog.Holder
	cfg      *config.Config
	logger   *zap.Logger
	server   *mcp.Server
	handlers map[string]toolHandler
}

// NewServer registers every catalog tool. cfg may be nil.
func NewServer(holder *catalog.Holder, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if holder == nil {
		return nil, errors.New("mcp: catalog holder is required")
	}

	s := &Server{
		holder:   holder,
		cfg:      cfg,
		logger:   logging.OrNop(logger).Named("mcp"),
		handlers: make(map[string]toolHandler),
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

func (s *Server) addTool(tool *mcp.Tool, handler toolHandler) {
	name := tool.Name
	wrapped := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.recoverFromPanic(name, func() (*mcp.CallToolResult, error) {
			return handler(ctx, req)
		})
	}
	s.handlers[name] = wrapped
	s.server.AddTool(tool, wrapped)
}

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	if props == nil {
		props = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        ToolGetEntry,
		Description: "Get one medical content record by id (e.g. 'condition-adhd'), with every explanation level, key terms, media, citations and cross-references.",
		InputSchema: objectSchema([]string{"id"}, map[string]*jsonschema.Schema{
			"id": {Type: "string", Description: "Record id"},
		}),
	}, s.handleGetEntry)

	s.addTool(&mcp.Tool{
		Name:        ToolSearch,
		Description: "Ranked search over record names, alternate names, keywords and level explanations. Exact name matches rank first. Set emergencies=true to keep only critical-relevance records. Empty results include fuzzy name suggestions.",
		InputSchema: objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
			"query":       {Type: "string", Description: "Free-text query, e.g. 'chest pain'. A blank query returns no results"},
			"emergencies": {Type: "boolean", Description: "Only critical-relevance records"},
			"max":         {Type: "integer", Description: "Maximum results"},
		}),
	}, s.handleSearch)

	s.addTool(&mcp.Tool{
		Name:        ToolByCategory,
		Description: "List the records of a category in authored order. Unknown categories return an empty list.",
		InputSchema: objectSchema([]string{"category"}, map[string]*jsonschema.Schema{
			"category": {Type: "string", Description: "Category name, e.g. 'cardiology'"},
		}),
	}, s.handleByCategory)

	s.addTool(&mcp.Tool{
		Name:        ToolCategories,
		Description: "List every category with its record count.",
		InputSchema: objectSchema(nil, nil),
	}, s.handleCategories)

	s.addTool(&mcp.Tool{
		Name:        ToolCount,
		Description: "Number of records in the active catalog.",
		InputSchema: objectSchema(nil, nil),
	}, s.handleCount)

	s.addTool(&mcp.Tool{
		Name:        ToolICD11Map,
		Description: "Map record ids to ICD-11 codes. Records without a code are omitted. Set fhir=true for a FHIR R4 ValueSet.",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"fhir": {Type: "boolean", Description: "Return a FHIR R4 ValueSet"},
			"url":  {Type: "string", Description: "ValueSet canonical url (fhir only)"},
		}),
	}, s.handleICD11Map)

	s.addTool(&mcp.Tool{
		Name:        ToolRelated,
		Description: "Resolve the cross-references of a record. Targets missing from the catalog are reported as dangling, never guessed.",
		InputSchema: objectSchema([]string{"id"}, map[string]*jsonschema.Schema{
			"id": {Type: "string", Description: "Record id"},
		}),
	}, s.handleRelated)

	s.addTool(&mcp.Tool{
		Name:        ToolSuggest,
		Description: "Fuzzy (Jaro-Winkler) suggestions for a possibly misspelled condition name.",
		InputSchema: objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "Name to match"},
			"limit": {Type: "integer", Description: "Maximum suggestions"},
		}),
	}, s.handleSuggest)

	s.addTool(&mcp.Tool{
		Name:        ToolStats,
		Description: "Catalog statistics: counts by type and status, mapped codes, emergencies, dangling references, fingerprint and build time.",
		InputSchema: objectSchema(nil, nil),
	}, s.handleStats)
}

func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered in tool handler",
				zap.String("tool", operation),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()

	start := time.Now()
	result, err = handler()
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("tool", operation), zap.Error(err))
		return createSmartErrorResponse(operation, err, s.errorContext())
	}
	s.logger.Debug("tool call", zap.String("tool", operation), zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// errorContext describes the snapshot a failed call ran against, nil when
// none is loaded
func (s *Server) errorContext() map[string]interface{} {
	snap := s.holder.Current()
	if snap == nil {
		return nil
	}
	return map[string]interface{}{
		"snapshot": snap.FingerprintHex(),
		"records":  snap.GetCount(),
		"built_at": snap.BuiltAt().Format(time.RFC3339),
	}
}

// Start serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	stamp := version.Current()
	if snap, err := s.holder.Snapshot(); err == nil {
		stamp = stamp.WithSnapshot(snap.FingerprintHex(), snap.GetCount())
	}
	fields := []zap.Field{zap.Stringer("version", stamp)}
	if s.cfg != nil {
		fields = append(fields, zap.String("project", s.cfg.Project.Name), zap.String("content", s.cfg.Content.Root))
	}
	s.logger.Info("starting MCP server with stdio transport", fields...)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetHandlerForTesting returns the registered handler for a tool
func (s *Server) GetHandlerForTesting(toolName string) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h, ok := s.handlers[toolName]; ok {
		return h
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return createErrorResponse("GetHandlerForTesting", fmt.Errorf("unknown tool: %s", toolName))
	}
}

// Tools returns the registered tool names, sorted
func (s *Server) Tools() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
