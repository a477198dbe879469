package websocket

import "github.com/google/uuid"

// GenerateConnectionID generates a unique connection ID of the form
// "conn-<uuid>".
func GenerateConnectionID() string {
	return "conn-" + uuid.NewString()
}
