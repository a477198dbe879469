package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/wsecho/pkg/cli/internal/output"
	"github.com/getmockd/wsecho/pkg/cli/internal/ports"
	"github.com/getmockd/wsecho/pkg/cliconfig"
	"github.com/getmockd/wsecho/pkg/logging"
	"github.com/getmockd/wsecho/pkg/netaddr"
	"github.com/getmockd/wsecho/pkg/server"
)

// serveFlags holds the raw flag values for the serve command.
type serveFlags struct {
	configFile        string
	host              string
	port              int
	path              string
	logLevel          string
	logFormat         string
	logFile           string
	maxMessageSize    int64
	maxConnections    int
	idleTimeout       time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	shutdownTimeout   time.Duration
	binaryMode        string
	allowedOrigins    []string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket echo server",
	Long: `Run the WebSocket echo server.

Every text message is answered with exactly one reply, in order: "pong" when
the message is "ping" in any letter case, otherwise the message itself.`,
	Example: `  # Listen on localhost:8080
  wsecho serve

  # Listen on every interface and advertise the LAN address
  wsecho serve --host 0.0.0.0 --port 9000

  # Close idle connections and reject binary frames
  wsecho serve --idle-timeout 2m --binary-mode reject`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig(cmd, &serveFlagVals)
		if err != nil {
			return err
		}

		log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		// Restore default signal handling once shutdown starts, so a second
		// Ctrl+C kills the process.
		context.AfterFunc(ctx, stop)

		return runServe(ctx, cfg, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	fs := serveCmd.Flags()

	fs.StringVarP(&f.configFile, "config", "c", "", "Path to a YAML config file (replaces .wsechorc.yaml)")
	fs.StringVar(&f.host, "host", cliconfig.DefaultHost, "Listen host (0.0.0.0 for every interface)")
	fs.IntVarP(&f.port, "port", "p", cliconfig.DefaultPort, "Listen port (0 = any free port)")
	fs.StringVar(&f.path, "path", cliconfig.DefaultPath, "WebSocket endpoint path")

	// Logging flags
	fs.StringVar(&f.logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format (text, json)")
	fs.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")

	// Connection flags
	fs.Int64Var(&f.maxMessageSize, "max-message-size", cliconfig.DefaultMaxMessageSize, "Maximum inbound message size in bytes")
	fs.IntVar(&f.maxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")
	fs.DurationVar(&f.idleTimeout, "idle-timeout", 0, "Close connections idle this long (0 = disabled)")
	fs.DurationVar(&f.heartbeatInterval, "heartbeat-interval", 0, "Protocol ping interval (0 = disabled)")
	fs.DurationVar(&f.heartbeatTimeout, "heartbeat-timeout", cliconfig.DefaultHeartbeatTimeout, "Maximum wait for a heartbeat pong")
	fs.DurationVar(&f.shutdownTimeout, "shutdown-timeout", cliconfig.DefaultShutdownTimeout, "Graceful shutdown timeout")
	fs.StringVar(&f.binaryMode, "binary-mode", cliconfig.DefaultBinaryMode, "Binary message handling (echo, reject)")
	fs.StringSliceVar(&f.allowedOrigins, "allowed-origins", nil, "Comma-separated Origin host patterns (default: any)")
}

// loadServeConfig merges defaults, files, environment and the flags the user
// actually set, then validates the result.
func loadServeConfig(cmd *cobra.Command, f *serveFlags) (*cliconfig.Config, error) {
	cfg, err := cliconfig.LoadAll(f.configFile)
	if err != nil {
		return nil, err
	}

	cliconfig.MergeConfig(cfg, flagConfig(cmd, f), cliconfig.SourceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// flagConfig returns a Config holding only the flags that were set on the
// command line, with SetFields marking them so zero values still apply.
func flagConfig(cmd *cobra.Command, f *serveFlags) *cliconfig.Config {
	fc := &cliconfig.Config{SetFields: make(map[string]bool)}
	changed := func(flag, key string) bool {
		if cmd.Flags().Changed(flag) {
			fc.SetFields[key] = true
			return true
		}
		return false
	}

	if changed("host", "host") {
		fc.Host = f.host
	}
	if changed("port", "port") {
		fc.Port = f.port
	}
	if changed("path", "path") {
		fc.Path = f.path
	}
	if changed("log-level", "logLevel") {
		fc.LogLevel = f.logLevel
	}
	if changed("log-format", "logFormat") {
		fc.LogFormat = f.logFormat
	}
	if changed("log-file", "logFile") {
		fc.LogFile = f.logFile
	}
	if changed("max-message-size", "maxMessageSize") {
		fc.MaxMessageSize = f.maxMessageSize
	}
	if changed("max-connections", "maxConnections") {
		fc.MaxConnections = f.maxConnections
	}
	if changed("idle-timeout", "idleTimeout") {
		fc.IdleTimeout = cliconfig.Duration(f.idleTimeout)
	}
	if changed("heartbeat-interval", "heartbeatInterval") {
		fc.HeartbeatInterval = cliconfig.Duration(f.heartbeatInterval)
	}
	if changed("heartbeat-timeout", "heartbeatTimeout") {
		fc.HeartbeatTimeout = cliconfig.Duration(f.heartbeatTimeout)
	}
	if changed("shutdown-timeout", "shutdownTimeout") {
		fc.ShutdownTimeout = cliconfig.Duration(f.shutdownTimeout)
	}
	if changed("binary-mode", "binaryMode") {
		fc.BinaryMode = f.binaryMode
	}
	if changed("allowed-origins", "allowedOrigins") {
		fc.AllowedOrigins = f.allowedOrigins
	}
	return fc
}

// newLogger builds the operational logger. The returned func closes the log
// file, if any.
func newLogger(cfg *cliconfig.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: stderr,
	}

	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		logCfg.File = f
		closeFn = func() { _ = f.Close() }
	}

	return logging.New(logCfg), closeFn, nil
}

// runServe starts the server, prints where it can be reached and blocks until
// ctx is cancelled or the server fails, then shuts down gracefully.
func runServe(ctx context.Context, cfg *cliconfig.Config, log *slog.Logger, stdout, stderr io.Writer) error {
	if err := ports.Check(cfg.Host, cfg.Port); err != nil {
		return bindError(cfg.Host, cfg.Port, err)
	}

	srv, err := server.New(server.ConfigFrom(cfg), log)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return bindError(cfg.Host, cfg.Port, err)
	}

	lanIP := (&netaddr.Resolver{Logger: log}).Resolve()
	printStartupMessage(stdout, netaddr.AdvertisedURLs(cfg.Host, srv.Port(), srv.Endpoint().Path(), lanIP))

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-srv.Errors():
		if ok {
			serveErr = fmt.Errorf("server stopped: %w", err)
		}
	}

	fmt.Fprintln(stdout, "\nShutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		output.Warn(stderr, "server shutdown error: %v", err)
	}
	return serveErr
}

// printStartupMessage prints the server URLs. The first one is where the
// server was started, the rest are extra addresses it is reachable at.
func printStartupMessage(w io.Writer, urls []string) {
	for i, url := range urls {
		if i == 0 {
			fmt.Fprintf(w, "WebSocket server started on %s\n", url)
			continue
		}
		fmt.Fprintf(w, "WebSocket server reachable at %s\n", url)
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}
