package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
	"github.com/bobmcallan/finsight/internal/services/research"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StageHub manages WebSocket clients and broadcasts workflow stage events.
type StageHub struct {
	clients    map[*stageClient]bool
	broadcast  chan models.StageEvent
	register   chan *stageClient
	unregister chan *stageClient
	done       chan struct{}
	mu         sync.RWMutex
	logger     *common.Logger
}

// stageClient represents a connected WebSocket client.
type stageClient struct {
	hub  *StageHub
	conn *websocket.Conn
	send chan []byte
}

// NewStageHub creates a new WebSocket hub.
func NewStageHub(logger *common.Logger) *StageHub {
	return &StageHub{
		clients:    make(map[*stageClient]bool),
		broadcast:  make(chan models.StageEvent, 256),
		register:   make(chan *stageClient),
		unregister: make(chan *stageClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Attach subscribes the hub to every workflow topic so connected clients
// observe stage progress as it happens.
func (h *StageHub) Attach(bus events.Bus) {
	topics := []string{
		research.TopicQueryReceived,
		research.TopicWebSearchCompleted,
		research.TopicFinanceDataCompleted,
		research.TopicResponseCompleted,
		research.TopicComprehensiveComplete,
	}
	for _, cfg := range models.AnalysisKinds {
		topics = append(topics, cfg.Topic)
	}
	for _, topic := range topics {
		bus.Subscribe(topic, func(ctx context.Context, ev events.Event) error {
			h.Broadcast(models.StageEvent{
				TraceID:   ev.TraceID,
				Topic:     ev.Topic,
				Timestamp: time.Now().UTC(),
			})
			return nil
		})
	}
}

// Run starts the hub's main event loop. Should be called as a goroutine.
func (h *StageHub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Int("clients", h.ClientCount()).Msg("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug().Int("clients", h.ClientCount()).Msg("WebSocket client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn().Err(err).Msg("Failed to marshal stage event")
				continue
			}

			h.mu.RLock()
			var slow []*stageClient
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			if len(slow) > 0 {
				h.mu.Lock()
				for _, c := range slow {
					delete(h.clients, c)
					close(c.send)
				}
				h.mu.Unlock()
			}
		}
	}
}

// Stop signals the hub's event loop to exit.
func (h *StageHub) Stop() {
	select {
	case <-h.done:
		// Already stopped
	default:
		close(h.done)
	}
}

// Broadcast sends a stage event to all connected clients.
func (h *StageHub) Broadcast(event models.StageEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Msg("WebSocket broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *StageHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP connection to WebSocket and registers the client.
func (h *StageHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &stageClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	// A stopped hub no longer drains register; close the late connection
	// instead of blocking.
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// writePump sends messages from the send channel to the WebSocket connection.
func (c *stageClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection (mainly to detect close).
func (c *stageClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
