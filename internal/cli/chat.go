package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/proto"
)

func chatCmd() *cobra.Command {
	var addr, user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal client",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Connected to %s as %s\n", addr, user)
			fmt.Fprintln(cmd.ErrOrStderr(), "Type messages and press Enter to send. Ctrl+C to exit.")
			return runChat(ctx, addr, user, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/ws", "WebSocket address")
	cmd.Flags().StringVar(&user, "user", "cli-user", "name attached to sent messages")
	return cmd
}

// runChat sends each non-empty input line and prints every received message
// until input ends, the server closes, or ctx is done.
func runChat(ctx context.Context, addr, user string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- chatReadLoop(ctx, conn, out)
	}()

	if err := chatWriteLoop(ctx, conn, user, in); err != nil {
		return err
	}

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	cancel()
	return <-readErr
}

func chatReadLoop(ctx context.Context, conn *websocket.Conn, out io.Writer) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg proto.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		fmt.Fprintln(out, formatLine(msg.TS, msg.User, msg.Text))
	}
}

func chatWriteLoop(ctx context.Context, conn *websocket.Conn, user string, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{User: user, Text: text}); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}
