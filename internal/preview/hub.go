package preview

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/shadowtpl/internal/logging"
)

// ReloadHub tracks connected browsers and pushes reload notifications to
// them when templates change.
type ReloadHub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
	logger  logging.Logger
}

// NewReloadHub creates an empty hub.
func NewReloadHub(logger logging.Logger) *ReloadHub {
	return &ReloadHub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger.WithComponent("reload-hub"),
	}
}

// ServeHTTP upgrades the request to a websocket and holds the connection
// open until the client goes away.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local development server
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	h.add(conn)
	defer h.remove(conn)

	// Clients never send meaningful messages; reading just detects close.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

// Broadcast sends message to every connected client. Clients that cannot be
// written to are dropped.
func (h *ReloadHub) Broadcast(message string) {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mutex.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := conn.Write(ctx, websocket.MessageText, []byte(message))
		cancel()
		if err != nil {
			h.remove(conn)
			conn.Close(websocket.StatusNormalClosure, "")
		}
	}
}

// Count returns the number of connected clients.
func (h *ReloadHub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Shutdown closes every client connection.
func (h *ReloadHub) Shutdown() {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mutex.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *ReloadHub) add(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *ReloadHub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
}
