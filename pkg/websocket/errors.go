package websocket

import "errors"

// Common errors for the websocket package.
var (
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrUnsupportedData indicates a binary message arrived on an endpoint that rejects them.
	ErrUnsupportedData = errors.New("binary messages are not supported")
	// ErrInvalidBinaryMode indicates an unknown binary mode in the configuration.
	ErrInvalidBinaryMode = errors.New("invalid binary mode")
)
