package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
)

func historyCmd(root *rootOptions) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print messages stored in the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.PersistenceEnabled() {
				return errors.New("history persistence is disabled (history_db_path is empty)")
			}
			if limit <= 0 {
				limit = cfg.MaxHistory
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := sqlite.New(cfg.HistoryDBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Initialize(ctx); err != nil {
				return err
			}
			msgs, err := st.LoadRecent(ctx, limit)
			if err != nil {
				return err
			}
			logger.Debug().Str("db_path", st.Path()).Int("messages", len(msgs)).Msg("history loaded")
			return printHistory(cmd.OutOrStdout(), msgs, asJSON)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of messages to print (default max_history)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per line")
	return cmd
}

func printHistory(w io.Writer, msgs []core.Message, asJSON bool) error {
	enc := json.NewEncoder(w)
	for _, msg := range msgs {
		if asJSON {
			if err := enc.Encode(proto.ChatMessage{User: msg.User, Text: msg.Text, TS: msg.TS}); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, formatLine(msg.TS, msg.User, msg.Text)); err != nil {
			return err
		}
	}
	return nil
}

func formatLine(ts int64, user, text string) string {
	return fmt.Sprintf("%s %s: %s", time.Unix(ts, 0).Format(time.DateTime), user, text)
}
