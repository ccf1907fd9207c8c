package stream

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/market"
)

// frame is one server → client quote update message.
type frame struct {
	Type string       `json:"type"`
	Data market.Quote `json:"data"`
}

// Manager handles client registration, subscriptions, and quote fan-out.
type Manager struct {
	mu      sync.RWMutex
	clients map[uint64]*Client

	known      map[string]bool
	bufferSize int
	log        *slog.Logger
}

// NewManager creates a stream manager for the catalog's symbols.
func NewManager(entries []catalog.Entry, bufferSize int, log *slog.Logger) *Manager {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Symbol] = true
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		known:      known,
		bufferSize: bufferSize,
		log:        log,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	m.log.Info("stream client connected", "client", c.ID, "remote", conn.RemoteAddr().String())
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	m.log.Info("stream client disconnected", "client", c.ID)
}

// ResolveSymbols normalizes raw symbols to catalog symbols, dropping
// unknown ones. Returns all=true for the "*" wildcard.
func (m *Manager) ResolveSymbols(raw []string) (symbols []string, all bool) {
	for _, r := range raw {
		if r == "*" {
			return nil, true
		}
		if s := catalog.Resolve(r); m.known[s] {
			symbols = append(symbols, s)
		}
	}
	return symbols, false
}

// Broadcast fans the updated quotes out to subscribed clients. Each quote is
// encoded once and shared across clients.
func (m *Manager) Broadcast(quotes []market.Quote) {
	if len(quotes) == 0 {
		return
	}

	type encoded struct {
		symbol string
		data   []byte
	}
	frames := make([]encoded, 0, len(quotes))
	for i := range quotes {
		data, err := json.Marshal(frame{Type: "quote", Data: quotes[i]})
		if err != nil {
			continue
		}
		frames = append(frames, encoded{symbol: quotes[i].Symbol, data: data})
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		for _, f := range frames {
			if !c.IsSubscribed(f.symbol) {
				continue
			}
			if !c.Send(f.data) {
				// buffer full, message dropped
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
