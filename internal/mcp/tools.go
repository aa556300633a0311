package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the chat-enabled documents published by an owner organization."),
	mcp.WithString("owner",
		mcp.Required(),
		mcp.Description("Owner organization slug, e.g. \"ukidney\""),
	),
)

// getDocumentTool defines the get_document MCP tool.
var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get the configuration of one document: title, category, welcome and intro copy, keywords and downloads."),
	mcp.WithString("doc",
		mcp.Required(),
		mcp.Description("Document slug"),
	),
	mcp.WithString("passcode",
		mcp.Description("Passcode for passcode-protected documents"),
	),
)

// askDocumentTool defines the ask_document MCP tool.
var askDocumentTool = mcp.NewTool("ask_document",
	mcp.WithDescription("Ask a question against one or more documents and return the grounded answer."),
	mcp.WithString("doc",
		mcp.Required(),
		mcp.Description("Document slug, or several joined with \"+\""),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to ask"),
	),
	mcp.WithString("passcode",
		mcp.Description("Passcode for passcode-protected documents"),
	),
)
