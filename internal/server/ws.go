package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

// Message types pushed to dashboard clients.
const (
	MessageGesture        = "gesture"
	MessageSessionStarted = "session_started"
	MessageSessionEnded   = "session_ended"
	MessageMouse          = "mouse"
)

// Message is one websocket push.
type Message struct {
	Type         string        `json:"type"`
	SessionID    string        `json:"sessionId"`
	Label        gesture.Label `json:"label,omitempty"`
	Confidence   float64       `json:"confidence,omitempty"`
	MouseEnabled bool          `json:"mouseEnabled,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Timestamp    int64         `json:"timestamp"`
}

// Hub fans session notifications out to websocket clients. It implements
// session.Listener and session.MouseListener. Slow clients drop messages instead of blocking the worker.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	log     *logrus.Entry
}

// NewHub creates an empty Hub.
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		log:     log,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and pumps messages until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Warn("failed to encode message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- data:
		default:
		}
	}
}

// SessionStarted implements session.Listener.
func (h *Hub) SessionStarted(id string, at time.Time) {
	h.Broadcast(Message{Type: MessageSessionStarted, SessionID: id, Timestamp: at.UnixMilli()})
}

// GestureEmitted implements session.Listener.
func (h *Hub) GestureEmitted(sessionID string, ev gesture.Event, mouseEnabled bool) {
	h.Broadcast(Message{
		Type:         MessageGesture,
		SessionID:    sessionID,
		Label:        ev.Label,
		Confidence:   ev.Confidence,
		MouseEnabled: mouseEnabled,
		Timestamp:    ev.At.UnixMilli(),
	})
}

// SessionEnded implements session.Listener.
func (h *Hub) SessionEnded(id, reason string, at time.Time) {
	h.Broadcast(Message{Type: MessageSessionEnded, SessionID: id, Reason: reason, Timestamp: at.UnixMilli()})
}

// MouseChanged implements session.MouseListener.
func (h *Hub) MouseChanged(enabled bool) {
	h.Broadcast(Message{Type: MessageMouse, MouseEnabled: enabled, Timestamp: time.Now().UnixMilli()})
}
