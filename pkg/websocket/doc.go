// Package websocket serves the wsecho message contract over WebSocket.
//
// Every text message received on a connection gets exactly one reply, in the
// order the messages arrived:
//
//	"ping" (any letter case, whole message) -> "pong"
//	anything else                          -> the same message, unchanged
//
// Binary messages are echoed untouched or rejected with close status 1003,
// depending on the endpoint's BinaryMode.
//
// Each connection is served by its own goroutine and owns its own
// Dispatcher; connections share nothing but the ConnectionManager registry,
// which is only touched on connect, disconnect and shutdown.
//
// Usage:
//
//	manager := websocket.NewConnectionManager()
//	endpoint, err := websocket.NewEndpoint(&websocket.EndpointConfig{Path: "/"})
//	if err != nil {
//		return err
//	}
//	endpoint.SetManager(manager)
//	mux.Handle("/", endpoint)
//
// The package uses github.com/coder/websocket for the protocol itself.
package websocket
