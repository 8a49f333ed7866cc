// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/sensorlabel/internal/contract"
)

// NewMCPServer initializes and configures the sensorlabel MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Sensor Labelling Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: inspect_file ---
	s.AddTool(mcp.NewTool("inspect_file",
		mcp.WithDescription("Describe a sensor CSV or XLSX file: timestamp format, sampling frequency, numeric columns and time range."),
		mcp.WithString("path", mcp.Description("Path to the sensor file."), mcp.Required()),
	), h.handleInspectFile)

	// --- 2. Tool: summarize_labelled ---
	s.AddTool(mcp.NewTool("summarize_labelled",
		mcp.WithDescription("Summarize every run of identical labels in a labelled file with per-column mean and standard deviation."),
		mcp.WithString("path", mcp.Description("Path to a file whose last column is Label."), mcp.Required()),
		mcp.WithString("subject", mcp.Description("Subject identifier copied into each record.")),
		mcp.WithString("location", mcp.Description("Sensor location copied into each record.")),
	), h.handleSummarizeLabelled)

	// --- 3. Tool: smooth_labels ---
	s.AddTool(mcp.NewTool("smooth_labels",
		mcp.WithDescription("Replace each label with the majority label of its fixed window, as done after model prediction."),
		mcp.WithString("labels", mcp.Description("Comma-separated labels, one per row."), mcp.Required()),
		mcp.WithNumber("frequency", mcp.Description("Rows per second, or per minute when per_minute is set."), mcp.Required()),
		mcp.WithBoolean("per_minute", mcp.Description("Whether the frequency counts rows per minute.")),
	), h.handleSmoothLabels)

	// --- 4. Tool: interleave_window ---
	s.AddTool(mcp.NewTool("interleave_window",
		mcp.WithDescription("Show which secondary row each primary row receives when merging one window."),
		mcp.WithNumber("primary_rows", mcp.Description("Primary rows in the window."), mcp.Required()),
		mcp.WithNumber("secondary_rows", mcp.Description("Secondary rows in the window."), mcp.Required()),
	), h.handleInterleaveWindow)

	// --- 5. Tool: list_vocabulary ---
	s.AddTool(mcp.NewTool("list_vocabulary",
		mcp.WithDescription("List the activity labels and sensor locations offered during labelling."),
	), h.handleListVocabulary)

	return s
}

// StartMCPServer starts the sensorlabel MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
