package adaptmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"myweight/internal/domain"
)

// ToolFetchInnerScan is the name agents call the weight tool by.
const ToolFetchInnerScan = "fetchInnerScanData"

const unknownErrorMessage = "An unknown error occurred"

// WeightFetcher is the use case behind the weight tool.
type WeightFetcher interface {
	FetchRange(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error)
}

func fetchInnerScanTool() mcp.Tool {
	return mcp.NewTool(ToolFetchInnerScan,
		mcp.WithDescription("Fetch body weight measurements recorded on Health Planet between two date-times. "+
			"Returns a JSON array of {date, weight} objects ordered oldest first; weight is in kilograms."),
		mcp.WithTitleAnnotation("Fetch weight measurements"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Start date in YYYYMMDDHHmmss format (e.g., 20240101000000)"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("End date in YYYYMMDDHHmmss format (e.g., 20240131235959)"),
		),
	)
}

// argValidator checks call arguments against a tool's declared input schema.
type argValidator struct {
	schema *gojsonschema.Schema
}

func newArgValidator(tool mcp.Tool) (*argValidator, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal %s input schema: %w", tool.Name, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s input schema: %w", tool.Name, err)
	}
	return &argValidator{schema: schema}, nil
}

func (v *argValidator) validate(args any) error {
	doc, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(errs, ", "))
}

type toolHandler struct {
	weights WeightFetcher
	args    *argValidator
	log     *zap.Logger
}

// fetchInnerScanData never fails at the protocol level for fetch errors:
// the agent gets "Error: <message>" as ordinary text instead.
func (h *toolHandler) fetchInnerScanData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.args.validate(req.GetRawArguments()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r := domain.DateRange{
		From: req.GetString("from", ""),
		To:   req.GetString("to", ""),
	}

	records, err := h.weights.FetchRange(ctx, r)
	if err != nil {
		h.log.Warn("weight fetch failed",
			zap.String("from", r.From),
			zap.String("to", r.To),
			zap.Error(err),
		)
		return mcp.NewToolResultText(ErrorText(err)), nil
	}

	text, err := RenderRecords(records)
	if err != nil {
		return mcp.NewToolResultText(ErrorText(err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// RenderRecords formats records as JSON indented with two spaces. An empty
// result is rendered as [].
func RenderRecords(records []domain.WeightRecord) (string, error) {
	if len(records) == 0 {
		return "[]", nil
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode weight records: %w", err)
	}
	return string(b), nil
}

// ErrorText is the in-band payload for a failed fetch.
func ErrorText(err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = unknownErrorMessage
	}
	return "Error: " + msg
}
