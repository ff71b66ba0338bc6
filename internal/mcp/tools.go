package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("memory_search",
	mcp.WithDescription("Search Ninho's memory (PRDs, prompt history, summaries, learnings) for a query string. Returns matching lines with file references."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Text to search for (case-insensitive substring match)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of matches to return (default 20)"),
	),
)

var statusToolDef = mcp.NewTool("memory_status",
	mcp.WithDescription("Report the state of Ninho's memory for this project: PRDs with requirement counts, prompt-log days, summaries, and learnings."),
)

var prdFetchToolDef = mcp.NewTool("prd_fetch",
	mcp.WithDescription("Fetch a PRD by name, returning its full markdown content and a requirement/decision summary."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("PRD name without the .md extension, e.g. \"auth-system\""),
	),
)

var learningsRecentToolDef = mcp.NewTool("learnings_recent",
	mcp.WithDescription("Return learnings captured in the last N days (corrections, preferences, patterns from past sessions)."),
	mcp.WithNumber("days",
		mcp.Description("How many days back to look (default 3)"),
	),
)

var summaryFetchToolDef = mcp.NewTool("summary_fetch",
	mcp.WithDescription("Fetch a weekly, monthly, or yearly summary. Omit the period to get the latest one of the given type."),
	mcp.WithString("period_type",
		mcp.Description("One of \"weekly\", \"monthly\", \"yearly\" (default \"weekly\")"),
	),
	mcp.WithString("period",
		mcp.Description("Period key, e.g. \"2026-W11\", \"2026-03\", or \"2026\""),
	),
)
