package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/huangsam/phenomask/core"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.HistoryManager
}

func (h *toolHandler) handleClassifyStack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input_path")
	if err != nil || input == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.InputPath = input
	cfg.OutputPath = request.GetString("output_path", "")
	cfg.PreviewPath = ""
	cfg.Phase.MinIndex = request.GetFloat("min_index", cfg.Phase.MinIndex)
	cfg.Phase.MaxIndex = request.GetFloat("max_index", cfg.Phase.MaxIndex)
	cfg.Phase.StartSlice = request.GetInt("start_slice", cfg.Phase.StartSlice)
	cfg.Phase.PeakStart = request.GetInt("peak_start", cfg.Phase.PeakStart)
	cfg.Phase.PeakEnd = request.GetInt("peak_end", cfg.Phase.PeakEnd)

	// The stack depth is unknown here; PeakEnd is checked after decoding
	if err := cfg.Phase.Validate(math.MaxInt); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid phase parameters: %v", err)), nil
	}

	summary, err := core.GetClassifyResult(core.WithSuppressProgress(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleInspectStack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input_path")
	if err != nil || input == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.InputPath = input

	report, err := core.GetInspectReport(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspection failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
