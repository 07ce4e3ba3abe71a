// Package notify pushes change notifications to websocket subscribers.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/pkg/api"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub fans the latest visible watermark out to connected clients.
// Notifications are coalesced: a slow client only ever receives the newest one.
type Hub struct {
	clients    map[*subscriber]struct{}
	register   chan *subscriber
	unregister chan *subscriber
	wake       chan struct{}
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	latest     models.SyncVersion
	mu         sync.Mutex // защищает latest
}

type subscriber struct {
	conn *websocket.Conn
	send chan api.ChangeNotification
}

// NewHub creates a hub. start is the watermark announced to new subscribers.
func NewHub(start models.SyncVersion, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*subscriber]struct{}),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		latest: start,
	}
}

// Publish records a new watermark and wakes the hub. It never blocks.
func (h *Hub) Publish(watermark models.SyncVersion) {
	h.mu.Lock()
	if watermark > h.latest {
		h.latest = watermark
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Latest returns the newest published watermark.
func (h *Hub) Latest() models.SyncVersion {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.latest
}

// Run serves register, unregister and broadcast until ctx is done.
// On exit all subscribers are disconnected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for s := range h.clients {
				h.drop(s)
			}
			h.logger.Info("Notification hub stopped")
			return

		case s := <-h.register:
			h.clients[s] = struct{}{}
			h.logger.Debug("Subscriber connected", "subscribers", len(h.clients))
			if w := h.Latest(); w > 0 {
				deliver(s, w)
			}

		case s := <-h.unregister:
			if _, ok := h.clients[s]; ok {
				h.drop(s)
				h.logger.Debug("Subscriber disconnected", "subscribers", len(h.clients))
			}

		case <-h.wake:
			w := h.Latest()
			for s := range h.clients {
				deliver(s, w)
			}
		}
	}
}

// drop вызывается только из Run
func (h *Hub) drop(s *subscriber) {
	delete(h.clients, s)
	close(s.send)
}

// deliver replaces any undelivered notification with the newest one.
// Run is the only sender, so the second send cannot block.
func deliver(s *subscriber, w models.SyncVersion) {
	msg := api.ChangeNotification{Type: api.NotificationTypeChanges, Watermark: w}
	select {
	case s.send <- msg:
	default:
		select {
		case <-s.send:
		default:
		}
		s.send <- msg
	}
}

// ServeWS handles GET /api/v1/sync/ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan api.ChangeNotification, 1)}

	select {
	case h.register <- s:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writeLoop(s)
	h.readLoop(s)
}

// readLoop обрабатывает pong и обнаруживает закрытие соединения
func (h *Hub) readLoop(s *subscriber) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				h.logger.Warn("WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
