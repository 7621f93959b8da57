// Package adaptmcp is the driving adapter that exposes the application
// services as Model Context Protocol tools.
package adaptmcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"myweight/internal/domain"
)

// ServerName is reported to clients during initialization.
const ServerName = "MyWeight"

const instructions = "Use fetchInnerScanData to read the user's body weight history from Health Planet. " +
	"Pass from and to as 14-digit local date-times (YYYYMMDDHHmmss). " +
	"Results are oldest first with weight in kilograms."

// NewServer returns an MCP server with the weight tool registered.
func NewServer(weights WeightFetcher, log *zap.Logger, version string) (*server.MCPServer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tool := fetchInnerScanTool()
	args, err := newArgValidator(tool)
	if err != nil {
		return nil, err
	}
	h := &toolHandler{weights: weights, args: args, log: log}

	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithToolHandlerMiddleware(loggingMiddleware(log)),
		server.WithRecovery(),
	)
	s.AddTool(tool, h.fetchInnerScanData)
	return s, nil
}

// loggingMiddleware logs each tool call with an invocation id. It is
// registered before recovery so recovered panics are logged too.
func loggingMiddleware(log *zap.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			fields := []zap.Field{
				zap.String("invocation_id", uuid.NewString()),
				zap.String("tool", req.Params.Name),
			}
			if p, ok := domain.PrincipalFromContext(ctx); ok {
				fields = append(fields, zap.String("subject", p.Subject), zap.String("auth", p.Method))
			}

			res, err := next(ctx, req)

			fields = append(fields, zap.Duration("duration", time.Since(start)))
			switch {
			case err != nil:
				log.Error("tool call failed", append(fields, zap.Error(err))...)
			case res != nil && res.IsError:
				log.Warn("tool call rejected", fields...)
			default:
				log.Info("tool call", fields...)
			}
			return res, err
		}
	}
}
