package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/services/research"
)

// registerTools wires every MCP tool onto the server.
func (a *App) registerTools() {
	a.MCPServer.AddTool(createGetVersionTool(), handleGetVersion())
	a.MCPServer.AddTool(createSubmitResearchQueryTool(), a.handleSubmitResearchQuery())
	a.MCPServer.AddTool(createGetResearchResultTool(), a.handleGetResearchResult())
	a.MCPServer.AddTool(createGetResearchStatusTool(), a.handleGetResearchStatus())
	a.MCPServer.AddTool(createAddCompanyMappingTool(), a.handleAddCompanyMapping())
	a.MCPServer.AddTool(createRefreshSymbolMappingsTool(), a.handleRefreshSymbolMappings())
}

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Finsight server version and status. Use this to verify connectivity."),
	)
}

// createSubmitResearchQueryTool returns the submit_research_query tool definition
func createSubmitResearchQueryTool() mcp.Tool {
	return mcp.NewTool("submit_research_query",
		mcp.WithDescription("Submit a financial research query. Starts web research, market data aggregation, and five parallel AI analyses. Returns a trace ID for polling."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text research question (e.g., 'What is the outlook for AAPL and MSFT?')"),
		),
	)
}

// createGetResearchResultTool returns the get_research_result tool definition
func createGetResearchResultTool() mcp.Tool {
	return mcp.NewTool("get_research_result",
		mcp.WithDescription("Retrieve the comprehensive analysis report for a previously submitted research query."),
		mcp.WithString("trace_id",
			mcp.Required(),
			mcp.Description("Trace ID returned by submit_research_query"),
		),
	)
}

// createGetResearchStatusTool returns the get_research_status tool definition
func createGetResearchStatusTool() mcp.Tool {
	return mcp.NewTool("get_research_status",
		mcp.WithDescription("Check the workflow status for a research query (completed or failed)."),
		mcp.WithString("trace_id",
			mcp.Required(),
			mcp.Description("Trace ID returned by submit_research_query"),
		),
	)
}

// createAddCompanyMappingTool returns the add_company_mapping tool definition
func createAddCompanyMappingTool() mcp.Tool {
	return mcp.NewTool("add_company_mapping",
		mcp.WithDescription("Add a company-name to ticker mapping used during symbol extraction."),
		mcp.WithString("company_name",
			mcp.Required(),
			mcp.Description("Company name as it appears in queries (e.g., 'PALANTIR')"),
		),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Ticker symbol the name maps to (e.g., 'PLTR')"),
		),
	)
}

// createRefreshSymbolMappingsTool returns the refresh_symbol_mappings tool definition
func createRefreshSymbolMappingsTool() mcp.Tool {
	return mcp.NewTool("refresh_symbol_mappings",
		mcp.WithDescription("Reload the symbol mapping tables from disk, bypassing the cache."),
	)
}

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Finsight Server\nVersion: %s\nStatus: OK", common.GetFullVersion())
		return textResult(result), nil
	}
}

// handleSubmitResearchQuery implements the submit_research_query tool
func (a *App) handleSubmitResearchQuery() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return errorResult("Error: query parameter is required"), nil
		}

		traceID := uuid.New().String()
		if err := a.ResearchService.SubmitQuery(ctx, traceID, query); err != nil {
			return errorResult(fmt.Sprintf("Submit error: %v", err)), nil
		}

		a.Logger.Info().Str("trace_id", traceID).Msg("Research query submitted via MCP")
		return textResult(fmt.Sprintf("Research started.\nTrace ID: %s\nPoll get_research_result with this trace ID.", traceID)), nil
	}
}

// handleGetResearchResult implements the get_research_result tool
func (a *App) handleGetResearchResult() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		traceID, err := request.RequireString("trace_id")
		if err != nil {
			return errorResult("Error: trace_id parameter is required"), nil
		}

		result, err := a.ResearchService.GetResult(ctx, traceID)
		if err != nil {
			if errors.Is(err, research.ErrResultNotFound) {
				return errorResult(fmt.Sprintf("No result for trace ID %s: the workflow has not completed", traceID)), nil
			}
			return errorResult(fmt.Sprintf("Result error: %v", err)), nil
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}

// handleGetResearchStatus implements the get_research_status tool
func (a *App) handleGetResearchStatus() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		traceID, err := request.RequireString("trace_id")
		if err != nil {
			return errorResult("Error: trace_id parameter is required"), nil
		}

		status, err := a.ResearchService.GetStatus(ctx, traceID)
		if err != nil {
			if errors.Is(err, research.ErrResultNotFound) {
				return textResult(fmt.Sprintf("Trace ID %s: in progress", traceID)), nil
			}
			return errorResult(fmt.Sprintf("Status error: %v", err)), nil
		}

		if status.Error != "" {
			return textResult(fmt.Sprintf("Trace ID %s: %s (%s)", traceID, status.Status, status.Error)), nil
		}
		return textResult(fmt.Sprintf("Trace ID %s: %s", traceID, status.Status)), nil
	}
}

// handleAddCompanyMapping implements the add_company_mapping tool
func (a *App) handleAddCompanyMapping() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		companyName, err := request.RequireString("company_name")
		if err != nil {
			return errorResult("Error: company_name parameter is required"), nil
		}
		ticker, err := request.RequireString("ticker")
		if err != nil {
			return errorResult("Error: ticker parameter is required"), nil
		}

		if err := a.SymbolExtractor.AddCompanyMapping(ctx, companyName, ticker); err != nil {
			return errorResult(fmt.Sprintf("Mapping error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("Mapping added: %s -> %s", companyName, ticker)), nil
	}
}

// handleRefreshSymbolMappings implements the refresh_symbol_mappings tool
func (a *App) handleRefreshSymbolMappings() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := a.SymbolExtractor.Refresh(ctx); err != nil {
			return errorResult(fmt.Sprintf("Refresh error: %v", err)), nil
		}
		return textResult("Symbol mappings reloaded."), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
