// Package server exposes the game over WebSocket and HTTP.
package server

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/floydverse/flappy-floyd/internal/session"
	"github.com/floydverse/flappy-floyd/internal/store"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub tracks connected clients and hands their actions to the registry
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	registry *session.Registry
	db       *store.DB
	identity *Identity

	nextPlayerID atomic.Int64

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a Hub. db may be nil when persistence is disabled.
func NewHub(registry *session.Registry, db *store.DB, identity *Identity) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		registry:   registry,
		db:         db,
		identity:   identity,
		ipConns:    make(map[string]int),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until ctx is done, then
// closes every remaining client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			h.registry.Submit(session.Action{Kind: session.ActionDisconnect, Player: client})

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return nil
		}
	}
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// identify picks the username for a new connection: a valid token
// wins, then a requested name, then a generated one.
func (h *Hub) identify(playerID int, token, requested string) (username, newToken string) {
	if token != "" && h.identity != nil {
		if name, err := h.identity.Parse(token); err == nil {
			username = name
		} else {
			log.Debug("Rejected token", "err", err)
		}
	}
	if username == "" {
		username = sanitizeUsername(requested)
	}
	if username == "" {
		username = "anon_" + strconv.Itoa(playerID)
	}
	if h.identity != nil {
		t, err := h.identity.Issue(username)
		if err != nil {
			log.Error("Token signing failed", "err", err)
		}
		newToken = t
	}
	return username, newToken
}

// highscore looks up the stored best score for username.
func (h *Hub) highscore(username string) int {
	if h.db == nil {
		return 0
	}
	hs, err := h.db.Highscore(username)
	if err != nil {
		log.Warn("Highscore lookup failed", "username", username, "err", err)
		return 0
	}
	return hs
}
