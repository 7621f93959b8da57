package commands

import (
	"context"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapthttp "myweight/internal/adapter/http"
	adaptmcp "myweight/internal/adapter/mcp"
	"myweight/internal/config"
	"myweight/internal/version"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server on one transport:

  stdio  JSON-RPC over stdin/stdout, for local agents
  sse    GET /sse and POST /message
  http   streamable HTTP on /mcp

The HTTP transports also serve GET /health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			weights, err := newWeightService(ctx, o.cfg, o.log)
			if err != nil {
				return err
			}
			mcpSrv, err := adaptmcp.NewServer(weights, o.log.Named("mcp"), version.Version)
			if err != nil {
				return err
			}

			if o.cfg.Server.Transport == config.TransportStdio {
				return serveStdio(ctx, mcpSrv, o.log, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			auth, err := newAuthService(ctx, o.cfg)
			if err != nil {
				return err
			}
			srv, err := adapthttp.New(mcpSrv, auth, o.log.Named("http"), adapthttp.Options{
				Transport:   o.cfg.Server.Transport,
				BaseURL:     o.cfg.Server.BaseURL,
				CORSOrigins: o.cfg.Server.CORSOrigins,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, o.cfg.Server.Addr)
		},
	}
	f := cmd.Flags()
	f.String("transport", config.TransportStdio, "transport: stdio, sse or http")
	f.String("addr", ":8080", "listen address for the sse and http transports")
	f.String("base-url", "http://localhost:8080", "public URL advertised by the sse transport")
	return cmd
}

func serveStdio(ctx context.Context, s *server.MCPServer, log *zap.Logger, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(log.Named("stdio")))
	log.Info("stdio transport ready")

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
