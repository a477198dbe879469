// Package cli provides the command-line interface for wsecho.
//
// Commands:
//   - serve: run the WebSocket echo/ping server
//   - connect: interactive client with a keep-alive ping
//   - send: send messages and print each reply
//   - config: show the effective configuration and where each value came from
//   - version: show version information
//
// Usage:
//
//	wsecho serve --host 0.0.0.0 --port 8080
//	wsecho connect ws://localhost:8080
//	wsecho send ws://localhost:8080 hello ping
//	wsecho config --json
package cli
