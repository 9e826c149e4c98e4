// Package mcp provides a Model Context Protocol server for Lineage.
//
// It exposes the text import and the family tree store as MCP tools, and the
// family listing as an MCP resource. The CLI serves it over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hurttlocker/lineage/internal/ingest"
	"github.com/hurttlocker/lineage/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   store.Store
	Engine  *ingest.Engine // optional, defaults to an engine with default options
	Version string         // version string for MCP server info
	Logger  *zap.Logger
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines
// and the SQLite store allows one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Lineage tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = ingest.NewEngine(ingest.Options{}, logger)
	}

	s := server.NewMCPServer(
		"Lineage",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerImportTool(s, engine, cfg.Store, logger.Named("mcp"))
	registerCreateFamilyTool(s, cfg.Store)
	registerFamiliesTool(s, cfg.Store)
	registerTreesTool(s, cfg.Store)
	registerTreeTool(s, cfg.Store)

	registerFamiliesResource(s, cfg.Store)

	return s
}

// ImportResult is the payload of the lineage_import tool.
type ImportResult struct {
	People   int             `json:"people"`
	Saved    string          `json:"saved,omitempty"`
	Document json.RawMessage `json:"document"`
}

// --- Tools ---

func registerImportTool(s *server.MCPServer, engine *ingest.Engine, st store.Store, logger *zap.Logger) {
	tool := mcp.NewTool("lineage_import",
		mcp.WithDescription("Convert relationship text into a family tree document. One person per line, e.g. 'NAME: Bob; PARENTS: Alice, Carl; SPOUSES: Dana'. Optionally saves the result under a family."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Relationship text, one person per line"),
		),
		mcp.WithString("family",
			mcp.Description("Existing family to save the tree under. Requires 'file'."),
		),
		mcp.WithString("file",
			mcp.Description("Tree file name to save as (.json is added). Requires 'family'."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		family, file := "", ""
		if f, err := req.RequireString("family"); err == nil {
			family = strings.TrimSpace(f)
		}
		if f, err := req.RequireString("file"); err == nil {
			file = strings.TrimSpace(f)
		}
		if (family == "") != (file == "") {
			return mcp.NewToolResultError("family and file must be given together"), nil
		}

		res, data, err := engine.Convert(text)
		if err != nil {
			if ingest.IsUserError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			logger.Error("import failed", zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("import error: %v", err)), nil
		}

		out := ImportResult{People: len(res.Document), Document: data}
		if family != "" {
			dbMu.Lock()
			name, err := st.SaveTree(ctx, family, file, data)
			dbMu.Unlock()
			if err != nil {
				return mcp.NewToolResultError(storeErrorText(err)), nil
			}
			out.Saved = name
		}

		b, _ := json.Marshal(out)
		return mcp.NewToolResultText(string(b)), nil
	})
}

func registerCreateFamilyTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("lineage_create_family",
		mcp.WithDescription("Create a family that trees can be saved under."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Family name. Spaces and path characters become underscores."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}
		safe, err := st.CreateFamily(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(storeErrorText(err)), nil
		}
		b, _ := json.Marshal(map[string]string{"name": safe})
		return mcp.NewToolResultText(string(b)), nil
	})
}

func registerFamiliesTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("lineage_families",
		mcp.WithDescription("List all families."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		families, err := st.ListFamilies(ctx)
		if err != nil {
			return mcp.NewToolResultError(storeErrorText(err)), nil
		}
		b, _ := json.Marshal(map[string]any{"families": families})
		return mcp.NewToolResultText(string(b)), nil
	})
}

func registerTreesTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("lineage_trees",
		mcp.WithDescription("List the tree files saved under a family."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("family",
			mcp.Required(),
			mcp.Description("Family name"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		family, err := req.RequireString("family")
		if err != nil {
			return mcp.NewToolResultError("family is required"), nil
		}
		trees, err := st.ListTrees(ctx, family)
		if err != nil {
			return mcp.NewToolResultError(storeErrorText(err)), nil
		}
		b, _ := json.Marshal(map[string]any{"family": family, "trees": trees})
		return mcp.NewToolResultText(string(b)), nil
	})
}

func registerTreeTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("lineage_tree",
		mcp.WithDescription("Fetch a saved tree document."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("family",
			mcp.Required(),
			mcp.Description("Family name"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Tree file name"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		family, err := req.RequireString("family")
		if err != nil {
			return mcp.NewToolResultError("family is required"), nil
		}
		file, err := req.RequireString("file")
		if err != nil {
			return mcp.NewToolResultError("file is required"), nil
		}
		tree, err := st.GetTree(ctx, family, file)
		if err != nil {
			return mcp.NewToolResultError(storeErrorText(err)), nil
		}
		return mcp.NewToolResultText(string(tree.Content)), nil
	})
}

func storeErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("not found: %v", err)
	case errors.Is(err, store.ErrExists):
		return fmt.Sprintf("already exists: %v", err)
	default:
		return fmt.Sprintf("store error: %v", err)
	}
}
