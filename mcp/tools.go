package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all simeval MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	// Tool 1: compare_functions - one reference/candidate pair
	s.AddTool(mcp.NewTool("compare_functions",
		mcp.WithDescription("Score the similarity of two C functions across interface, structure, control flow, Halstead and token dimensions"),
		mcp.WithString("reference",
			mcp.Required(),
			mcp.Description("Source code of the reference C function")),
		mcp.WithString("candidate",
			mcp.Required(),
			mcp.Description("Source code of the candidate C function")),
		mcp.WithBoolean("explain",
			mcp.Description("Include signatures, Halstead counts, control-flow labels and a token diff (default: false)")),
	), h.HandleCompareFunctions)

	// Tool 2: evaluate_corpus - positional evaluation of corpus files
	s.AddTool(mcp.NewTool("evaluate_corpus",
		mcp.WithDescription("Evaluate reference/candidate corpora of delimiter-separated C functions position by position"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Corpus root directory, or a reference corpus file when candidate_path is given")),
		mcp.WithString("candidate_path",
			mcp.Description("Candidate corpus file paired with a reference file path")),
		mcp.WithBoolean("show_pairs",
			mcp.Description("Include per-pair reports (default: false)")),
	), h.HandleEvaluateCorpus)
}
