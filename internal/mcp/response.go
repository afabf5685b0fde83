package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/medcat/internal/catalog"
	caterrors "github.com/standardbeagle/medcat/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return createSmartErrorResponse(operation, err, nil)
}

// createSmartErrorResponse creates an error response with context-aware
// suggestions. Tool errors are reported inside the result with IsError set,
// not as protocol errors, so the client model can see them and retry.
func createSmartErrorResponse(operation string, err error, context map[string]interface{}) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if suggestions := generateErrorSuggestions(operation, err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}
	if related := getRelatedOperations(operation); len(related) > 0 {
		errorData["related_operations"] = related
	}
	if len(context) > 0 {
		errorData["context"] = context
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

// generateErrorSuggestions provides next steps for common failures
func generateErrorSuggestions(operation string, err error) []string {
	var suggestions []string

	switch {
	case errors.Is(err, catalog.ErrNoSnapshot):
		suggestions = append(suggestions, "The catalog has not loaded yet; check the server log for load errors")
		suggestions = append(suggestions, "Run 'medcat validate' against the content directory")
	case caterrors.IsNotFound(err):
		suggestions = append(suggestions, "Ids are case-sensitive and look like 'condition-adhd'")
		suggestions = append(suggestions, "Use 'search' or 'suggest' to find the id by name")
	case strings.Contains(err.Error(), "invalid parameters"):
		suggestions = append(suggestions, "Parameters must be a JSON object, for example {\"query\": \"asthma\"}")
	}

	switch operation {
	case ToolSuggest:
		if strings.Contains(err.Error(), "query is required") {
			suggestions = append(suggestions, "Provide a condition name, alternate name or keyword like 'chest pain'")
		}
	case ToolByCategory:
		if strings.Contains(err.Error(), "category is required") {
			suggestions = append(suggestions, "Use 'categories' to list the available category names")
		}
	}
	return suggestions
}

// getOperationHelp provides a one-line description of each tool
func getOperationHelp(operation string) string {
	helpMap := map[string]string{
		ToolGetEntry:   "Fetch one content record by id, including every level.",
		ToolSearch:     "Ranked search over names, alternate names, keywords and level text. Set emergencies=true for critical records only.",
		ToolByCategory: "List the records in a category in authored order.",
		ToolRelated:    "Resolve the cross-references of a record; missing targets are reported as dangling.",
		ToolSuggest:    "Fuzzy name suggestions for misspelled queries.",
		ToolICD11Map:   "Map record ids to ICD-11 codes, optionally as a FHIR ValueSet.",
	}
	return helpMap[operation]
}

// getRelatedOperations suggests related tools that might be helpful
func getRelatedOperations(operation string) []string {
	relatedMap := map[string][]string{
		ToolGetEntry:   {ToolSearch, ToolRelated},
		ToolSearch:     {ToolSuggest, ToolGetEntry},
		ToolSuggest:    {ToolSearch},
		ToolByCategory: {ToolCategories},
		ToolRelated:    {ToolGetEntry},
	}
	return relatedMap[operation]
}
