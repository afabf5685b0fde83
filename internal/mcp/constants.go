package mcp

// Tool names
const (
	ToolGetEntry   = "get_entry"
	ToolSearch     = "search"
	ToolByCategory = "by_category"
	ToolCategories = "categories"
	ToolCount      = "count"
	ToolICD11Map   = "icd11_map"
	ToolRelated    = "related"
	ToolSuggest    = "suggest"
	ToolStats      = "stats"
)

// ServerName is reported in the MCP implementation info
const ServerName = "medcat-mcp-server"

// Default values for tool parameters
const (
	SuggestionsOnEmptySearch = 3 // fuzzy suggestions attached to empty search results
)
