package resources

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/config"
)

// findRoot resolves the project root the same way the tools do.
func findRoot() (string, error) {
	return config.FindProjectRootFromCwd()
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
