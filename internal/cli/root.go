// Package cli implements the relaychat command line.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// Main runs the CLI and exits non-zero on failure.
func Main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Without a subcommand the server runs.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "relaychat",
		Short:         "Real-time chat relay over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	serve := serveCmd(opts)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(historyCmd(opts))
	root.AddCommand(chatCmd())
	return root
}

// loadConfig resolves configuration and a logger honoring the global flags.
func (o *rootOptions) loadConfig() (config.Config, *zerolog.Logger, error) {
	// bootstrap logger for config loading messages
	boot := log.New(firstNonEmpty(o.logLevel, "info"), firstNonEmpty(o.logFormat, "console"))

	cfg, path, err := config.Load(boot, o.configPath)
	if err != nil {
		return cfg, boot, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("path", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
