package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/getmockd/wsecho/pkg/cli/internal/flags"
	"github.com/getmockd/wsecho/pkg/cli/internal/output"
)

var (
	connectHeaders      flags.Header
	connectTimeout      time.Duration
	connectPingInterval time.Duration
)

// connectOptions configures an interactive session.
type connectOptions struct {
	clientOptions
	pingInterval time.Duration
	json         bool
}

// ConnectEvent is one line of --json output from connect.
type ConnectEvent struct {
	Direction string `json:"direction"`
	Type      string `json:"type"`
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
}

var connectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Interactive WebSocket client",
	Long: `Start an interactive WebSocket session. Each line typed is sent as a
text message and every reply is printed. A "ping" keep-alive is sent every
--ping-interval while connected; the matching "pong" replies are not shown.
Ctrl+C or end of input closes the connection normally.`,
	Example: `  wsecho connect ws://localhost:8080
  wsecho connect --ping-interval 0 ws://localhost:8080
  wsecho connect -H "Origin: http://app.example.com" ws://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := connectOptions{
			clientOptions: clientOptions{url: args[0], headers: connectHeaders.Values(), timeout: connectTimeout},
			pingInterval:  connectPingInterval,
			json:          jsonOutput,
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runConnect(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().VarP(&connectHeaders, "header", "H", "Custom headers (key:value), repeatable")
	connectCmd.Flags().DurationVarP(&connectTimeout, "timeout", "t", 30*time.Second, "Connection timeout")
	connectCmd.Flags().DurationVar(&connectPingInterval, "ping-interval", 10*time.Second, "Keep-alive ping interval (0 = disabled)")
}

// wsMessage represents a WebSocket message.
type wsMessage struct {
	Type int
	Data []byte
}

// runConnect runs the session until ctx is cancelled, input ends or the
// server closes the connection. All writes happen on this goroutine.
func runConnect(ctx context.Context, opts connectOptions, in io.Reader, out, errOut io.Writer) error {
	conn, err := dial(ctx, opts.clientOptions)
	if err != nil {
		return err
	}

	if !opts.json {
		fmt.Fprintf(out, "Connected to %s. Type messages and press Enter to send. Ctrl+C to exit.\n", opts.url)
	}

	emit := func(direction string, msgType int, data []byte) {
		if opts.json {
			if err := output.JSONLine(out, ConnectEvent{
				Direction: direction,
				Type:      messageTypeString(msgType),
				Data:      string(data),
				Timestamp: time.Now().Format(time.RFC3339),
			}); err != nil {
				output.Warn(errOut, "failed to encode output: %v", err)
			}
			return
		}
		if direction == "received" {
			fmt.Fprintf(out, "< %s\n", data)
		} else {
			fmt.Fprintf(out, "> %s\n", data)
		}
	}

	// Reader goroutine: the only reader of conn.
	msgChan := make(chan wsMessage, 100)
	errChan := make(chan error, 1)
	readDone := make(chan struct{})
	quit := make(chan struct{})
	stopReading := sync.OnceFunc(func() { close(quit) })
	defer stopReading()
	go func() {
		defer close(readDone)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				errChan <- err
				return
			}
			select {
			case msgChan <- wsMessage{Type: messageType, Data: message}:
			case <-quit:
				return
			}
		}
	}()

	// Input goroutine: closes lines at end of input.
	lines := make(chan string)
	go func(lines chan<- string) {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case lines <- scanner.Text():
			}
		}
	}(lines)
	inputChan := (<-chan string)(lines)

	var tick <-chan time.Time
	if opts.pingInterval > 0 {
		ticker := time.NewTicker(opts.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	send := func(text string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(opts.timeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			return fmt.Errorf("send error: %w", err)
		}
		return nil
	}

	// Keep-alive pings whose pong has not come back yet. Replies arrive in
	// order, so a pong is hidden while any are outstanding.
	pendingPings := 0
	// Messages sent but not yet answered. At end of input the session waits
	// for these before closing.
	awaiting := 0
	var drainTimeout <-chan time.Time

	// The reader may be parked on a full msgChan; release it before waiting
	// for it to see the close reply.
	finish := func(timeout time.Duration) error {
		stopReading()
		return closeGracefully(conn, timeout, readDone)
	}

	for {
		select {
		case <-ctx.Done():
			if !opts.json {
				fmt.Fprintln(out, "\nDisconnecting...")
			}
			return finish(time.Second)

		case err := <-errChan:
			conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !opts.json {
					fmt.Fprintln(out, "Connection closed by server")
				}
				return nil
			}
			return fmt.Errorf("read error: %w", err)

		case msg := <-msgChan:
			if awaiting > 0 {
				awaiting--
			}
			if msg.Type == websocket.TextMessage && string(msg.Data) == "pong" && pendingPings > 0 {
				pendingPings--
			} else {
				emit("received", msg.Type, msg.Data)
			}
			if inputChan == nil && awaiting == 0 {
				return finish(opts.timeout)
			}

		case input, ok := <-inputChan:
			if !ok {
				if awaiting == 0 {
					return finish(opts.timeout)
				}
				// Stop reading input and pinging; wait for the last replies.
				inputChan, tick = nil, nil
				drainTimeout = time.After(opts.timeout)
				continue
			}
			if input == "" {
				continue
			}
			if err := send(input); err != nil {
				conn.Close()
				return err
			}
			awaiting++
			emit("sent", websocket.TextMessage, []byte(input))

		case <-tick:
			if err := send("ping"); err != nil {
				conn.Close()
				return err
			}
			awaiting++
			pendingPings++

		case <-drainTimeout:
			output.Warn(errOut, "%d replies still outstanding, closing", awaiting)
			return finish(opts.timeout)
		}
	}
}
