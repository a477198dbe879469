package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ConnectionManager tracks live connections so they can be counted, listed
// and closed together on shutdown. It never routes messages between them.
type ConnectionManager struct {
	connections map[string]*Connection

	totalConns   atomic.Int64
	totalMsgSent atomic.Int64
	totalMsgRecv atomic.Int64
	startTime    time.Time

	mu sync.RWMutex
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		startTime:   time.Now(),
	}
}

// Add registers a new connection.
func (m *ConnectionManager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[conn.ID()] = conn
	m.totalConns.Add(1)
}

// Remove unregisters a connection, folding its counters into the totals.
func (m *ConnectionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, exists := m.connections[id]
	if !exists {
		return
	}

	m.totalMsgSent.Add(conn.MessagesSent())
	m.totalMsgRecv.Add(conn.MessagesReceived())
	delete(m.connections, id)
}

// Count returns the number of live connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// List returns information about every live connection, oldest first.
func (m *ConnectionManager) List() []*ConnectionInfo {
	m.mu.RLock()
	infos := make([]*ConnectionInfo, 0, len(m.connections))
	for _, conn := range m.connections {
		infos = append(infos, conn.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

func (m *ConnectionManager) snapshot() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	return conns
}

// CloseAll closes every live connection with the given code and reason and
// returns how many it closed. Handshakes still pending when ctx ends are cut
// short, so CloseAll returns by ctx's deadline even if peers stopped reading.
// Connection goroutines remove themselves.
func (m *ConnectionManager) CloseAll(ctx context.Context, code CloseCode, reason string) int {
	var (
		wg    sync.WaitGroup
		count atomic.Int32
	)
	for _, conn := range m.snapshot() {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			// Close waits for the peer's close frame; do them in parallel.
			if err := c.CloseContext(ctx, code, reason); !errors.Is(err, ErrConnectionClosed) {
				count.Add(1)
			}
		}(conn)
	}
	wg.Wait()
	return int(count.Load())
}

// Stats returns aggregate statistics, including closed connections.
func (m *ConnectionManager) Stats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent, recv := m.totalMsgSent.Load(), m.totalMsgRecv.Load()
	for _, conn := range m.connections {
		sent += conn.MessagesSent()
		recv += conn.MessagesReceived()
	}

	return &Stats{
		ActiveConnections:     len(m.connections),
		TotalConnections:      m.totalConns.Load(),
		TotalMessagesSent:     sent,
		TotalMessagesReceived: recv,
		Uptime:                time.Since(m.startTime).Round(time.Second).String(),
	}
}
