package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/app"
	"github.com/vovakirdan/relaychat/internal/config"
)

type serveFlags struct {
	host       string
	port       int
	origins    string
	maxHistory int
	historyDB  string
	staticDir  string
}

func serveCmd(root *rootOptions) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			cfg.Normalize()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(&cfg, logger)

			logger.Info().Str("addr", cfg.Addr()).Msg("starting relaychat server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&f.host, "host", "", "listen host")
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port")
	cmd.Flags().StringVar(&f.origins, "allowed-origins", "", "comma separated origin allowlist, * for any")
	cmd.Flags().IntVar(&f.maxHistory, "max-history", 0, "number of messages replayed to new clients")
	cmd.Flags().StringVar(&f.historyDB, "history-db", "", "sqlite history path, empty disables persistence")
	cmd.Flags().StringVar(&f.staticDir, "static-dir", "", "directory served for unmatched routes")
	return cmd
}

// apply overwrites config values for flags the user set explicitly.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("allowed-origins") {
		cfg.AllowedOrigins = f.origins
	}
	if flags.Changed("max-history") {
		cfg.MaxHistory = f.maxHistory
	}
	if flags.Changed("history-db") {
		cfg.HistoryDBPath = f.historyDB
	}
	if flags.Changed("static-dir") {
		cfg.StaticDir = f.staticDir
	}
}
