package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	return &HandlerSet{deps: deps}
}

// HandleCompareFunctions handles the compare_functions tool
func (h *HandlerSet) HandleCompareFunctions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	reference, ok := args["reference"].(string)
	if !ok || reference == "" {
		return mcp.NewToolResultError("reference parameter is required and must be a string"), nil
	}
	candidate, ok := args["candidate"].(string)
	if !ok || candidate == "" {
		return mcp.NewToolResultError("candidate parameter is required and must be a string"), nil
	}
	explain, _ := args["explain"].(bool)

	resp, err := h.deps.CompareUseCase().Compare(ctx, domain.CompareRequest{
		Reference: reference,
		Candidate: candidate,
		Explain:   explain,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(resp)
}

// HandleEvaluateCorpus handles the evaluate_corpus tool
func (h *HandlerSet) HandleEvaluateCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot access path: %v", err)), nil
	}

	req := &domain.EvaluationRequest{NoProgress: true}
	if sp, ok := args["show_pairs"].(bool); ok {
		req.ShowPairs = sp
	}

	candidatePath, _ := args["candidate_path"].(string)
	switch {
	case info.IsDir():
		req.Root = path
	case candidatePath != "":
		req.Pairs = []domain.FilePair{{
			Name:          filepath.Base(path),
			ReferencePath: path,
			CandidatePath: candidatePath,
		}}
	default:
		return mcp.NewToolResultError("candidate_path is required when path is a file"), nil
	}

	resp, err := h.deps.Evaluator().Evaluate(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	text, err := service.EncodeJSON(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}
