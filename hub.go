package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Auth, DB, analytics
	db        *DB
	auth      *Auth
	analytics *Analytics
	// Online auth pilots: pilotID -> *Client
	onlineMu     sync.RWMutex
	onlinePilots map[int64]*Client
}

// NewHub creates a new Hub with database
func NewHub(db *DB, analytics *Analytics) *Hub {
	h := &Hub{
		clients:      make(map[*Client]bool),
		register:     make(chan *Client, 64),
		unregister:   make(chan *Client, 64),
		sessions:     NewSessionManager(),
		ipConns:      make(map[string]int),
		db:           db,
		auth:         NewAuth(db),
		analytics:    analytics,
		onlinePilots: make(map[int64]*Client),
	}
	return h
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

// Run processes register/unregister events
func (h *Hub) Run() {
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
				close(client.send)
			}
			h.mu.Unlock()
			if client.pilotID != 0 {
				h.SetOffline(client.pilotID, client)
			}
			// Detach from session if in one
			if client.sessionID != "" {
				sess := h.sessions.GetSession(client.sessionID)
				if sess != nil {
					if client.isController {
						sess.Game.RemoveController()
					} else {
						// Player gone: the run is over
						h.sessions.RemoveSession(client.sessionID)
						if h.analytics != nil {
							h.analytics.Track(EvtSessionEnd, client.pilotID, client.sessionID, "")
						}
					}
				}
			}
		}
	}
}

// SetOnline marks an authenticated pilot as online
func (h *Hub) SetOnline(pilotID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlinePilots[pilotID] = client
}

// SetOffline removes an authenticated pilot from online tracking. The client
// is compared so a stale socket cannot knock a reconnected pilot offline.
func (h *Hub) SetOffline(pilotID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.onlinePilots[pilotID] == client {
		delete(h.onlinePilots, pilotID)
	}
}

// IsOnline checks if a pilot is online
func (h *Hub) IsOnline(pilotID int64) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	_, ok := h.onlinePilots[pilotID]
	return ok
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
