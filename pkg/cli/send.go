package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/getmockd/wsecho/pkg/cli/internal/flags"
	"github.com/getmockd/wsecho/pkg/cli/internal/output"
	"github.com/getmockd/wsecho/pkg/cli/internal/parse"
)

var (
	sendHeaders flags.Header
	sendTimeout time.Duration
)

// SendResult is one request/reply pair in --json output.
type SendResult struct {
	Sent     string `json:"sent"`
	Received string `json:"received"`
}

var sendCmd = &cobra.Command{
	Use:   "send <url> <message>...",
	Short: "Send messages and print each reply",
	Long: `Connect, send each message in turn, wait for its reply and print it.
The connection is closed normally once every reply has arrived.

A message starting with @ is read from that file; use @@ for a literal @.`,
	Example: `  wsecho send ws://localhost:8080 hello
  wsecho send ws://localhost:8080 ping PING hello
  wsecho send --json ws://localhost:8080 @message.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		messages := make([]string, 0, len(args)-1)
		for _, arg := range args[1:] {
			msg, err := parse.Message(arg)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}

		opts := clientOptions{url: args[0], headers: sendHeaders.Values(), timeout: sendTimeout}
		return runSend(cmd.Context(), opts, messages, jsonOutput, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().VarP(&sendHeaders, "header", "H", "Custom headers (key:value), repeatable")
	sendCmd.Flags().DurationVarP(&sendTimeout, "timeout", "t", 10*time.Second, "Connection and per-reply timeout")
}

// runSend sends each message and waits for its reply before sending the next.
func runSend(ctx context.Context, opts clientOptions, messages []string, asJSON bool, w io.Writer) error {
	conn, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		_ = conn.SetWriteDeadline(time.Now().Add(opts.timeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			conn.Close()
			return fmt.Errorf("send error: %w", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(opts.timeout))
		_, reply, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("connection closed by server before replying to %q", msg)
			}
			return fmt.Errorf("read error: %w", err)
		}

		if asJSON {
			if err := output.JSONLine(w, SendResult{Sent: msg, Received: string(reply)}); err != nil {
				conn.Close()
				return err
			}
			continue
		}
		fmt.Fprintln(w, string(reply))
	}

	return closeGracefully(conn, opts.timeout, nil)
}
