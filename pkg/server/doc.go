// Package server binds the listener and serves the WebSocket endpoint and the
// health check, with graceful shutdown of live connections.
package server
