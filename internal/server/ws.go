package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/handsign/internal/presenter"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// DecisionMessage is what subscribers receive for every recognized frame.
// Decision is null when no hand was found.
type DecisionMessage struct {
	Decision  *presenter.Decision `json:"decision"`
	Timestamp int64               `json:"timestamp"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// DecisionHub fans decisions out to websocket subscribers. A subscriber that
// falls behind loses messages instead of stalling the recognition loop.
type DecisionHub struct {
	log     logrus.FieldLogger
	clients map[*subscriber]struct{}
	mu      sync.RWMutex
}

// NewDecisionHub creates an empty hub.
func NewDecisionHub(log logrus.FieldLogger) *DecisionHub {
	return &DecisionHub{
		log:     log.WithField("component", "decisions"),
		clients: make(map[*subscriber]struct{}),
	}
}

// Publish sends d to every subscriber.
func (h *DecisionHub) Publish(d *presenter.Decision) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(DecisionMessage{Decision: d, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		h.log.WithError(err).Error("failed to encode decision")
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *DecisionHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *DecisionHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c)
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	<-done
}

func (h *DecisionHub) writePump(c *subscriber) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.WithError(err).Debug("subscriber write failed")
			// Drain so the reader side can unregister.
			for range c.send {
			}
			return
		}
	}
}
