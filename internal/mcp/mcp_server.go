// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the phenomask MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.HistoryManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Phenomask Classification Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: classify_stack ---
	s.AddTool(mcp.NewTool("classify_stack",
		mcp.WithDescription("Classify every pixel of an NDVI time stack against the early/peak/late phase pattern and write a binary mask."),
		mcp.WithString("input_path", mcp.Description("Path to the stack file (.msgpack, .mpk, .parquet, or .tif with GDAL builds)."), mcp.Required()),
		mcp.WithString("output_path", mcp.Description("Where to write the mask. Defaults to <input>_Mask<ext>.")),
		mcp.WithNumber("min_index", mcp.Description("Early and late window maxima must stay below this value.")),
		mcp.WithNumber("max_index", mcp.Description("The peak window maximum must exceed this value.")),
		mcp.WithNumber("start_slice", mcp.Description("First slice of the early window.")),
		mcp.WithNumber("peak_start", mcp.Description("First slice of the peak window.")),
		mcp.WithNumber("peak_end", mcp.Description("End (exclusive) of the peak window; must be below the number of slices.")),
	), h.handleClassifyStack)

	// --- 2. Tool: inspect_stack ---
	s.AddTool(mcp.NewTool("inspect_stack",
		mcp.WithDescription("Describe an NDVI time stack: dimensions, georeferencing and per-slice statistics labelled by phase window."),
		mcp.WithString("input_path", mcp.Description("Path to the stack file."), mcp.Required()),
	), h.handleInspectStack)

	return s
}

// StartMCPServer serves the phenomask MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.HistoryManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
