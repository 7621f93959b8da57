// Package commands implements the myweight command-line interface.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"myweight/internal/config"
	"myweight/internal/logging"
	"myweight/internal/version"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"transport":  "server.transport",
	"addr":       "server.addr",
	"base-url":   "server.base_url",
}

type rootOptions struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "myweight",
		Short:         "MyWeight exposes Health Planet weight measurements as an MCP tool",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			return o.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = o.log.Sync()
		},
	}
	root.SetVersionTemplate(version.String() + "\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "config file (yaml, json or toml)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "json", "log format: json or console")

	root.AddCommand(
		newServeCmd(o),
		newFetchCmd(o),
		newAuthorizeCmd(o),
		newConfigCmd(o),
		newHashKeyCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	bindings := make(map[string]*pflag.Flag, len(flagKeys))
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			bindings[key] = f
		}
	}
	cfg, err := config.Load(o.configPath, bindings)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}
