package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/sensorlabel/core"
	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/vocab"
	"github.com/huangsam/sensorlabel/schema"
)

// maxInterleaveRows bounds the plan returned by interleave_window.
const maxInterleaveRows = 100000

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// pipeline builds a pipeline that never prompts, since stdin carries the protocol.
func (h *toolHandler) pipeline() *core.Pipeline {
	cfg := h.baseCfg.Clone()
	cfg.Batch = true
	return core.NewPipeline(cfg, h.mgr)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleInspectFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	profile, err := core.ProfileFile(core.WithQuiet(ctx), h.pipeline(), path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspection failed: %v", err)), nil
	}
	return jsonResult(profile)
}

func (h *toolHandler) handleSummarizeLabelled(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	report, err := core.SummarizeFile(core.WithQuiet(ctx), h.pipeline(), path,
		request.GetString("subject", h.baseCfg.Subject), request.GetString("location", h.baseCfg.Location))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleSmoothLabels(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	labels := schema.SplitList(request.GetString("labels", ""))
	if len(labels) == 0 {
		return mcp.NewToolResultError("labels must list at least one label"), nil
	}
	freq := request.GetInt("frequency", 0)
	if freq < 1 {
		return mcp.NewToolResultError("frequency must be at least 1"), nil
	}
	smoothed := core.Smooth(labels, freq, request.GetBool("per_minute", false))
	return jsonResult(map[string]any{
		"labels": smoothed,
		"runs":   countRuns(smoothed),
	})
}

func (h *toolHandler) handleInterleaveWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fa := request.GetInt("primary_rows", 0)
	fb := request.GetInt("secondary_rows", 0)
	if fa < 1 || fb < 1 {
		return mcp.NewToolResultError("primary_rows and secondary_rows must be at least 1"), nil
	}
	if fa > maxInterleaveRows || fb > maxInterleaveRows {
		return mcp.NewToolResultError(fmt.Sprintf("row counts are limited to %d", maxInterleaveRows)), nil
	}
	plan, discarded := core.InterleavePlan(fa, fb)
	return jsonResult(map[string]any{
		"plan":      plan,
		"discarded": discarded,
	})
}

func (h *toolHandler) handleListVocabulary(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := vocab.Load(h.baseCfg.VocabFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read vocabulary: %v", err)), nil
	}
	return jsonResult(map[string][]string{
		"labels":    v.Labels,
		"locations": v.Locations,
	})
}

func countRuns(labels []string) int {
	runs := 0
	for i, l := range labels {
		if i == 0 || l != labels[i-1] {
			runs++
		}
	}
	return runs
}
